package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/memegen/internal/audio"
	"github.com/dgnsrekt/memegen/internal/cache"
	"github.com/dgnsrekt/memegen/internal/speech"
	"github.com/dgnsrekt/memegen/internal/speech/engines"
	"github.com/dustin/go-humanize"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

// newPlayer opens the audio device.
var newPlayer = func() (speech.Player, error) {
	p, err := audio.NewPlayer(audio.DefaultPlayerConfig())
	if err != nil {
		return nil, err
	}
	return p, nil
}

func expandPath(path string) string {
	if path == "" {
		return ""
	}
	p, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return filepath.Clean(p)
}

// speechCacheDir returns the configured audio cache directory, defaulting to
// the user cache directory.
func speechCacheDir() (string, error) {
	if dir := viper.GetString("tts.cache.dir"); dir != "" {
		return expandPath(dir), nil
	}
	dir, err := gap.NewScope(gap.User, "memegen").CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to find cache directory: %w", err)
	}
	return filepath.Join(dir, "speech"), nil
}

// logCacheStats reports how well the audio cache did this session.
func logCacheStats(store *cache.Manager) {
	mem, disk := store.Stats()
	log.Info("speech cache",
		"memory_hits", mem.Hits,
		"memory_misses", mem.Misses,
		"memory_size", humanize.Bytes(uint64(max(mem.Size, 0))), //nolint:gosec
		"disk_hits", disk.Hits,
		"disk_items", disk.ItemCount,
		"disk_size", humanize.Bytes(uint64(max(disk.Size, 0))), //nolint:gosec
		"hit_rate", fmt.Sprintf("%.0f%%", 100*hitRate(mem, disk)),
	)
}

// hitRate is the share of lookups served by either level. A memory miss is
// looked up on disk, so memory misses count every lookup that reached it.
func hitRate(mem, disk cache.Stats) float64 {
	lookups := mem.Hits + mem.Misses
	if lookups == 0 {
		return 0
	}
	return float64(mem.Hits+disk.Hits) / float64(lookups)
}

// newReader builds the speech reader from the configuration. It returns a
// nil reader when no engine is configured.
func newReader() (*speech.Reader, func() error, error) {
	noop := func() error { return nil }

	name := viper.GetString("tts.engine")
	if strings.TrimSpace(name) == "" {
		return nil, noop, nil
	}
	kind, err := speech.ParseEngine(name)
	if err != nil {
		return nil, noop, err
	}

	engine, err := engines.New(engines.Config{
		Engine: kind,
		GTTS: engines.GTTSConfig{
			Slow:              viper.GetBool("tts.gtts.slow"),
			RequestsPerMinute: viper.GetInt("tts.gtts.requests_per_minute"),
		},
		Piper: engines.PiperConfig{
			Binary:    viper.GetString("tts.piper.binary"),
			ModelsDir: expandPath(viper.GetString("tts.piper.models")),
		},
	})
	if err != nil {
		return nil, noop, err
	}
	if err := engine.Validate(); err != nil {
		_ = engine.Close()
		return nil, noop, fmt.Errorf("%s engine unavailable: %w", kind, err)
	}

	dir, err := speechCacheDir()
	if err != nil {
		_ = engine.Close()
		return nil, noop, err
	}
	cfg := cache.DefaultConfig()
	cfg.DiskPath = dir
	cfg.DiskCapacity = int64(viper.GetInt("tts.cache.max_size")) * 1024 * 1024
	store, err := cache.NewManager(cfg)
	if err != nil {
		_ = engine.Close()
		return nil, noop, fmt.Errorf("unable to open speech cache: %w", err)
	}

	player, err := newPlayer()
	if err != nil {
		_ = engine.Close()
		_ = store.Close()
		return nil, noop, fmt.Errorf("unable to open audio device: %w", err)
	}

	reader, err := speech.NewReader(engine, player, speech.ReaderConfig{
		Speed:      viper.GetFloat64("tts.speed"),
		Volume:     speech.Volume(viper.GetInt("tts.volume")),
		OutputRate: audio.DefaultPlayerConfig().Format.SampleRate,
		Cache:      store,
	})
	if err != nil {
		_ = engine.Close()
		_ = player.Close()
		_ = store.Close()
		return nil, noop, err
	}

	log.Info("speech enabled", "engine", kind, "cache", dir)
	closer := func() error {
		logCacheStats(store)
		return errors.Join(reader.Close(), store.Close())
	}
	return reader, closer, nil
}
