package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/chatrelay-go/internal/metrics"
)

// document is the top-level shape of the backing file.
type document struct {
	Chats []*Chat `json:"chats"`
}

// Store is a JSON-file-backed chat store. Every operation performs a full
// read-modify-write cycle of the backing document under one store-wide
// mutex, so the file on disk is the sole source of truth between calls.
// Reads take the same mutex so they never observe a half-written file.
type Store struct {
	path      string
	mu        sync.Mutex
	logger    *slog.Logger
	collector *metrics.Collector
	now       func() time.Time
}

// New creates a store backed by the JSON document at path. The file is
// created lazily on first use. A nil logger falls back to slog.Default();
// a nil collector disables metrics.
func New(path string, logger *slog.Logger, collector *metrics.Collector) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:      path,
		logger:    logger,
		collector: collector,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ensureFile initializes the backing document if it does not exist yet.
// Caller must hold s.mu; creation is idempotent.
func (s *Store) ensureFile() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat data file: %w", err)
	}
	s.logger.Info("initializing empty data file", "path", s.path)
	return s.writeDoc(&document{Chats: []*Chat{}})
}

// readDoc loads and parses the backing document. Caller must hold s.mu.
func (s *Store) readDoc() (*document, error) {
	if err := s.ensureFile(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	if doc.Chats == nil {
		doc.Chats = []*Chat{}
	}
	return &doc, nil
}

// writeDoc persists the document. Caller must hold s.mu.
func (s *Store) writeDoc(doc *document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode data file: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0644); err != nil {
		return fmt.Errorf("write data file: %w", err)
	}
	return nil
}

// List returns summaries of all chats ordered by UpdatedAt descending,
// optionally filtered to titles containing search (case-insensitive).
func (s *Store) List(ctx context.Context, search string) ([]Summary, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.collector.RecordTiming(metrics.OpStoreRead, time.Since(start)) }()

	doc, err := s.readDoc()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	summaries := make([]Summary, 0, len(doc.Chats))
	for _, c := range doc.Chats {
		if needle != "" && !strings.Contains(strings.ToLower(c.Title), needle) {
			continue
		}
		summaries = append(summaries, c.summary())
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

// Create allocates a new empty chat. An empty title defaults to DefaultTitle.
func (s *Store) Create(ctx context.Context, title string) (Summary, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.collector.RecordTiming(metrics.OpStoreWrite, time.Since(start)) }()

	doc, err := s.readDoc()
	if err != nil {
		return Summary{}, err
	}

	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	chat := &Chat{
		ID:        uuid.New().String(),
		Title:     title,
		UpdatedAt: s.now(),
		Messages:  []Message{},
	}
	doc.Chats = append(doc.Chats, chat)

	if err := s.writeDoc(doc); err != nil {
		return Summary{}, err
	}
	s.logger.Debug("created chat", "id", chat.ID, "title", chat.Title)
	return chat.summary(), nil
}

// Rename overwrites the title of an existing chat and refreshes UpdatedAt.
func (s *Store) Rename(ctx context.Context, id, title string) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.collector.RecordTiming(metrics.OpStoreWrite, time.Since(start)) }()

	doc, err := s.readDoc()
	if err != nil {
		return err
	}

	chat := findChat(doc, id)
	if chat == nil {
		return fmt.Errorf("rename chat %s: %w", id, ErrNotFound)
	}
	chat.Title = title
	chat.UpdatedAt = s.now()

	return s.writeDoc(doc)
}

// Delete removes a chat and all its messages.
func (s *Store) Delete(ctx context.Context, id string) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.collector.RecordTiming(metrics.OpStoreWrite, time.Since(start)) }()

	doc, err := s.readDoc()
	if err != nil {
		return err
	}

	kept := doc.Chats[:0]
	for _, c := range doc.Chats {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(doc.Chats) {
		return fmt.Errorf("delete chat %s: %w", id, ErrNotFound)
	}
	doc.Chats = kept

	return s.writeDoc(doc)
}

// Messages returns all messages of a chat in append order.
func (s *Store) Messages(ctx context.Context, id string) ([]Message, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.collector.RecordTiming(metrics.OpStoreRead, time.Since(start)) }()

	doc, err := s.readDoc()
	if err != nil {
		return nil, err
	}

	chat := findChat(doc, id)
	if chat == nil {
		return nil, fmt.Errorf("list messages for chat %s: %w", id, ErrNotFound)
	}

	msgs := make([]Message, len(chat.Messages))
	copy(msgs, chat.Messages)
	return msgs, nil
}

// AppendMessage appends a new message to a chat and refreshes the chat's
// UpdatedAt. The created message is returned.
func (s *Store) AppendMessage(ctx context.Context, id string, role Role, content string) (Message, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.collector.RecordTiming(metrics.OpStoreWrite, time.Since(start)) }()

	doc, err := s.readDoc()
	if err != nil {
		return Message{}, err
	}

	chat := findChat(doc, id)
	if chat == nil {
		return Message{}, fmt.Errorf("append message to chat %s: %w", id, ErrNotFound)
	}

	msg := Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		CreatedAt: s.now(),
	}
	chat.Messages = append(chat.Messages, msg)
	chat.UpdatedAt = msg.CreatedAt

	if err := s.writeDoc(doc); err != nil {
		return Message{}, err
	}
	return msg, nil
}

func findChat(doc *document, id string) *Chat {
	for _, c := range doc.Chats {
		if c.ID == id {
			return c
		}
	}
	return nil
}
