// Package metrics provides in-memory runtime statistics collection.
package metrics

import (
	"math"
	"sync"
	"time"
)

// OperationMetrics holds aggregated metrics for a single operation type.
type OperationMetrics struct {
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration

	// Delta metrics (only for streaming operations)
	TotalDeltas int64
	MinDeltas   int64
	MaxDeltas   int64
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	TotalTimeMs int64   `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`

	// Delta stats (nil if not applicable)
	TotalDeltas *int64   `json:"total_deltas,omitempty"`
	AvgDeltas   *float64 `json:"avg_deltas,omitempty"`
	MinDeltas   *int64   `json:"min_deltas,omitempty"`
	MaxDeltas   *int64   `json:"max_deltas,omitempty"`
}

// Snapshot represents the full server statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64            `json:"uptime_seconds"`
	StoreRead     *OperationSnapshot `json:"store_read,omitempty"`
	StoreWrite    *OperationSnapshot `json:"store_write,omitempty"`
	LLMStream     *OperationSnapshot `json:"llm_stream,omitempty"`
}

// Operation names for the collector.
const (
	OpStoreRead  = "store_read"
	OpStoreWrite = "store_write"
	OpLLMStream  = "llm_stream"
)

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe. A nil *Collector is valid and records nothing,
// so components can take an optional collector without guarding every call.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{
			MinTime:   time.Duration(math.MaxInt64),
			MinDeltas: math.MaxInt64,
		}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records timing for an operation.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// RecordStream records timing and delta count for a generation stream.
func (c *Collector) RecordStream(duration time.Duration, deltas int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(OpLLMStream)
	m.Count++
	m.TotalTime += duration

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}

	m.TotalDeltas += deltas
	if deltas < m.MinDeltas {
		m.MinDeltas = deltas
	}
	if deltas > m.MaxDeltas {
		m.MaxDeltas = deltas
	}
}

// snapshotOp creates a snapshot for an operation, returning nil if no data.
func snapshotOp(m *OperationMetrics, includeDeltas bool) *OperationSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}

	snap := &OperationSnapshot{
		Count:       m.Count,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}

	if includeDeltas {
		total := m.TotalDeltas
		avg := float64(m.TotalDeltas) / float64(m.Count)
		minDeltas := m.MinDeltas
		maxDeltas := m.MaxDeltas

		// Reset sentinel values for display
		if minDeltas == math.MaxInt64 {
			minDeltas = 0
		}

		snap.TotalDeltas = &total
		snap.AvgDeltas = &avg
		snap.MinDeltas = &minDeltas
		snap.MaxDeltas = &maxDeltas
	}

	return snap
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		StoreRead:     snapshotOp(c.ops[OpStoreRead], false),
		StoreWrite:    snapshotOp(c.ops[OpStoreWrite], false),
		LLMStream:     snapshotOp(c.ops[OpLLMStream], true),
	}
}
