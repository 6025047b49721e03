// Package config loads chatrelay configuration from the environment and an
// optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// Storage
	DataFile string

	// HTTP server
	Port        string
	CORSOrigins string

	// LLM provider. An empty BaseURL and APIKey select the built-in demo
	// generation client.
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig is the YAML shape of an optional config file named by
// CHATRELAY_CONFIG. Environment variables override file values.
type fileConfig struct {
	DataFile    string `yaml:"data_file"`
	Port        string `yaml:"port"`
	CORSOrigins string `yaml:"cors_origins"`
	LLMBaseURL  string `yaml:"llm_base_url"`
	LLMModel    string `yaml:"llm_model"`
	LLMAPIKey   string `yaml:"llm_api_key"`
	LogFile     string `yaml:"log_file"`
	LogLevel    string `yaml:"log_level"`
}

// Load reads configuration from the optional YAML file and environment
// variables. Precedence: env var > config file > default.
func Load() (Config, error) {
	cfg := Config{
		DataFile:    "./data/chats.json",
		Port:        "8487",
		CORSOrigins: "http://localhost:5173",
		LLMModel:    "gpt-4o-mini",
		LogFile:     "/tmp/chatrelay.log",
		LogLevel:    slog.LevelInfo,
	}

	if path := os.Getenv("CHATRELAY_CONFIG"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	cfg.DataFile = getEnv("CHATRELAY_DATA_FILE", cfg.DataFile)
	cfg.Port = getEnv("CHATRELAY_PORT", cfg.Port)
	cfg.CORSOrigins = getEnv("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.LLMBaseURL = strings.TrimSpace(getEnv("LLM_BASE_URL", cfg.LLMBaseURL))
	cfg.LLMModel = strings.TrimSpace(getEnv("LLM_MODEL", cfg.LLMModel))
	cfg.LLMAPIKey = strings.TrimSpace(getEnv("LLM_API_KEY", cfg.LLMAPIKey))
	cfg.LogFile = getEnv("CHATRELAY_LOG_FILE", cfg.LogFile)
	if lvl := os.Getenv("CHATRELAY_LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = parseLogLevel(lvl)
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	dec := yaml.NewDecoder(strings.NewReader(string(raw)))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.DataFile != "" {
		cfg.DataFile = fc.DataFile
	}
	if fc.Port != "" {
		cfg.Port = fc.Port
	}
	if fc.CORSOrigins != "" {
		cfg.CORSOrigins = fc.CORSOrigins
	}
	if fc.LLMBaseURL != "" {
		cfg.LLMBaseURL = fc.LLMBaseURL
	}
	if fc.LLMModel != "" {
		cfg.LLMModel = fc.LLMModel
	}
	if fc.LLMAPIKey != "" {
		cfg.LLMAPIKey = fc.LLMAPIKey
	}
	if fc.LogFile != "" {
		cfg.LogFile = fc.LogFile
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = parseLogLevel(fc.LogLevel)
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
