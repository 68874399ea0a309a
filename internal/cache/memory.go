package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/songzhibin97/tokenlab/internal/models"
)

type memoryEntry struct {
	result  *models.RiskResult
	expires time.Time
}

// Memory is the in-process Store used for local runs and tests.
// Expired entries are dropped lazily on read.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	hits   atomic.Int64
	misses atomic.Int64
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(ctx context.Context, token, chainID string) (*models.RiskResult, error) {
	key := Key(token, chainID)

	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || time.Now().After(e.expires) {
		if ok {
			m.mu.Lock()
			delete(m.entries, key)
			m.mu.Unlock()
		}
		m.misses.Add(1)
		return nil, nil
	}
	m.hits.Add(1)
	return e.result, nil
}

func (m *Memory) Set(ctx context.Context, token, chainID string, result *models.RiskResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m.mu.Lock()
	m.entries[Key(token, chainID)] = memoryEntry{result: result, expires: time.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Stats() (hits, misses int64) {
	return m.hits.Load(), m.misses.Load()
}
