package cache

import (
	"bytes"
	"errors"
	"testing"
)

func TestMemoryCacheGetPut(t *testing.T) {
	c := NewMemoryCache(100)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get() on empty cache should miss")
	}
	if err := c.Put("a", []byte("hello")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, ok := c.Get("a")
	if !ok || !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("Get() = %q, %v", got, ok)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.ItemCount != 1 || stats.Size != 5 {
		t.Errorf("Stats() = %+v", stats)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("HitRate = %v, want 0.5", stats.HitRate)
	}
}

func TestMemoryCacheEvictsLRU(t *testing.T) {
	c := NewMemoryCache(10)
	_ = c.Put("a", make([]byte, 4))
	_ = c.Put("b", make([]byte, 4))
	c.Get("a") // b is now least recently used
	_ = c.Put("c", make([]byte, 4))

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should still be cached")
	}
	if got := c.Stats().Size; got != 8 {
		t.Errorf("Stats().Size = %d, want 8", got)
	}
	if c.Stats().Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", c.Stats().Evictions)
	}
}

func TestMemoryCacheReplace(t *testing.T) {
	c := NewMemoryCache(10)
	_ = c.Put("a", make([]byte, 6))
	_ = c.Put("a", make([]byte, 3))
	if got := c.Stats().Size; got != 3 {
		t.Errorf("Stats().Size = %d, want 3", got)
	}
}

func TestMemoryCacheTooLarge(t *testing.T) {
	c := NewMemoryCache(4)
	if err := c.Put("big", make([]byte, 5)); !errors.Is(err, ErrItemTooLarge) {
		t.Errorf("Put() error = %v, want ErrItemTooLarge", err)
	}
}

func TestMemoryCacheDeleteClear(t *testing.T) {
	c := NewMemoryCache(100)
	_ = c.Put("a", []byte("1"))
	_ = c.Put("b", []byte("2"))

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("a should be deleted")
	}
	c.Clear()
	if s := c.Stats(); s.Size != 0 || s.ItemCount != 0 {
		t.Error("Clear() should empty the cache")
	}
}

func TestKey(t *testing.T) {
	a := Key("gtts", "en", "hello", 1.0)
	if a != Key("gtts", "en", "hello", 1.0) {
		t.Error("Key() should be deterministic")
	}
	if a == Key("gtts", "fr", "hello", 1.0) || a == Key("piper", "en", "hello", 1.0) || a == Key("gtts", "en", "hello", 1.5) {
		t.Error("Key() should change with its inputs")
	}
	if len(a) != 32 {
		t.Errorf("len(Key()) = %d, want 32", len(a))
	}
}
