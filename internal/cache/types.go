package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity.
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrClosed is returned by operations on a closed cache.
	ErrClosed = errors.New("cache closed")
)

// Stats holds cache performance counters.
type Stats struct {
	Capacity  int64
	Size      int64
	ItemCount int64
	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64
}

func (s Stats) withHitRate() Stats {
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

// Config configures a Manager.
type Config struct {
	// MemoryCapacity is the L1 size limit in bytes.
	MemoryCapacity int64
	// DiskCapacity is the L2 size limit in bytes.
	DiskCapacity int64
	// DiskPath is the directory for L2 files.
	DiskPath string
	// CompressionLevel is the zstd level; 0 disables compression.
	CompressionLevel int
	// TTL expires disk entries not accessed for this long. Zero keeps them.
	TTL time.Duration
}

// DefaultConfig returns a Config with conservative limits. DiskPath is left
// empty for the caller to fill in.
func DefaultConfig() Config {
	return Config{
		MemoryCapacity:   32 * 1024 * 1024,
		DiskCapacity:     100 * 1024 * 1024,
		CompressionLevel: 3,
		TTL:              7 * 24 * time.Hour,
	}
}

// Key derives the cache key for a synthesis request.
func Key(engine, voice, text string, speed float64) string {
	data := fmt.Sprintf("%s|%s|%s|%.2f", engine, voice, text, speed)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}
