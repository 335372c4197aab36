package ratelimit

import (
	"context"
	"sync"
	"time"
)

type windowRecord struct {
	count       int
	windowStart time.Time
}

// MemoryFixedWindow is a process-local fixed-window counter. A window opens
// on a key's first request and lasts Window; the request that finds it
// expired starts a new one with a count of 1. Bursts of up to 2*limit can
// straddle a window boundary.
type MemoryFixedWindow struct {
	mu      sync.Mutex
	records map[string]*windowRecord
	limit   int
	window  time.Duration

	// Clock defaults to time.Now.
	Clock func() time.Time
}

func NewMemoryFixedWindow(limit int, window time.Duration) *MemoryFixedWindow {
	return &MemoryFixedWindow{
		records: make(map[string]*windowRecord),
		limit:   limit,
		window:  window,
	}
}

func (m *MemoryFixedWindow) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now()
}

func (m *MemoryFixedWindow) expired(rec *windowRecord, now time.Time) bool {
	return now.Sub(rec.windowStart) > m.window
}

func (m *MemoryFixedWindow) Allow(_ context.Context, key string) (bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok || m.expired(rec, now) {
		m.records[key] = &windowRecord{count: 1, windowStart: now}
		return true, nil
	}

	rec.count++
	return rec.count <= m.limit, nil
}

func (m *MemoryFixedWindow) Remaining(_ context.Context, key string) (int, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok || m.expired(rec, now) {
		return m.limit, nil
	}

	remaining := m.limit - rec.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (m *MemoryFixedWindow) Limit() int {
	return m.limit
}

func (m *MemoryFixedWindow) Window() time.Duration {
	return m.window
}

func (m *MemoryFixedWindow) Reset(_ context.Context, key string) (time.Time, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok || m.expired(rec, now) {
		return now, nil
	}
	return rec.windowStart.Add(m.window), nil
}

// Sweep drops every record whose window has expired and returns how many
// were removed.
func (m *MemoryFixedWindow) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, rec := range m.records {
		if m.expired(rec, now) {
			delete(m.records, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked keys.
func (m *MemoryFixedWindow) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (m *MemoryFixedWindow) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}
