package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Manager fronts a DiskCache with a MemoryCache. Disk hits are promoted to
// memory.
type Manager struct {
	l1 *MemoryCache
	l2 *DiskCache

	mu     sync.Mutex
	closed bool
}

// NewManager creates both cache levels. Disk entries older than the
// configured TTL are dropped on open.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.DiskPath == "" {
		return nil, errors.New("cache directory is required")
	}
	if cfg.MemoryCapacity <= 0 || cfg.DiskCapacity <= 0 {
		return nil, fmt.Errorf("cache capacities must be positive, got memory=%d disk=%d",
			cfg.MemoryCapacity, cfg.DiskCapacity)
	}

	l2, err := NewDiskCache(cfg.DiskPath, cfg.DiskCapacity, cfg.CompressionLevel)
	if err != nil {
		return nil, err
	}
	if cfg.TTL > 0 {
		if n := l2.RemoveOlderThan(time.Now().Add(-cfg.TTL)); n > 0 {
			log.Debug("expired cached audio", "count", n, "dir", cfg.DiskPath)
		}
	}

	return &Manager{
		l1: NewMemoryCache(cfg.MemoryCapacity),
		l2: l2,
	}, nil
}

// Get looks in memory, then on disk.
func (m *Manager) Get(key string) ([]byte, bool) {
	if m.isClosed() {
		return nil, false
	}
	if data, ok := m.l1.Get(key); ok {
		return data, true
	}
	data, ok := m.l2.Get(key)
	if !ok {
		return nil, false
	}
	if err := m.l1.Put(key, data); err != nil && !errors.Is(err, ErrItemTooLarge) {
		log.Debug("cache promotion failed", "key", key, "error", err)
	}
	return data, true
}

// Put stores value in both levels. Values too large for memory are kept on
// disk only.
func (m *Manager) Put(key string, value []byte) error {
	if m.isClosed() {
		return ErrClosed
	}
	if err := m.l1.Put(key, value); err != nil && !errors.Is(err, ErrItemTooLarge) {
		return fmt.Errorf("memory cache: %w", err)
	}
	if err := m.l2.Put(key, value); err != nil {
		return fmt.Errorf("disk cache: %w", err)
	}
	return nil
}

// Clear empties both levels.
func (m *Manager) Clear() error {
	m.l1.Clear()
	return m.l2.Clear()
}

// Stats returns the counters of each level.
func (m *Manager) Stats() (memory, disk Stats) {
	return m.l1.Stats(), m.l2.Stats()
}

// Close flushes the disk index. Further operations miss or fail.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	return m.l2.Close()
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
