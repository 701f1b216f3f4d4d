// Package cache provides internal cache management.
// This package is internal and should not be imported by external projects.
package cache

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/abendrothj/lao/internal/metrics"
	"go.uber.org/zap"
)

// =============================================================================
// 💾 缓存管理器
// =============================================================================

// Manager is a file-based content-addressed cache: a keyed mapping from
// (cache_key, input_digest) to a stored output string, backed by files
// under a known directory. Reads and writes are idempotent; a missing or
// unreadable entry is always treated as a miss, never as an error the
// caller must handle.
type Manager struct {
	dir     string
	logger  *zap.Logger
	metrics *metrics.Collector
	mu      sync.RWMutex
	closed  bool

	hits   uint64
	misses uint64
}

// Config configures a file-backed Manager.
type Config struct {
	// Dir is the directory entries are stored under. It is created on
	// first use if absent.
	Dir string `yaml:"dir" json:"dir"`
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{Dir: "./.lao-cache"}
}

// NewManager creates a cache manager rooted at config.Dir, creating the
// directory if it does not already exist. collector may be nil; every
// Collector method tolerates a nil receiver.
func NewManager(config Config, logger *zap.Logger, collector *metrics.Collector) (*Manager, error) {
	if config.Dir == "" {
		config.Dir = DefaultConfig().Dir
	}
	if err := os.MkdirAll(config.Dir, 0o755); err != nil {
		return nil, err
	}

	m := &Manager{
		dir:     config.Dir,
		logger:  logger.With(zap.String("component", "cache")),
		metrics: collector,
	}

	logger.Info("cache manager initialized", zap.String("dir", config.Dir))

	return m, nil
}

// =============================================================================
// 🎯 核心方法
// =============================================================================

// entryPath derives the on-disk filename for a (cache_key, digest) pair.
// The cache_key is included verbatim (sanitized) so a directory listing
// stays human-legible; the digest alone is sufficient for uniqueness.
func (m *Manager) entryPath(cacheKey, digest string) string {
	return filepath.Join(m.dir, sanitizeKey(cacheKey)+"-"+digest)
}

// Get returns the stored text for (cacheKey, digest), or ("", false) if
// absent or unreadable. Any I/O error is treated as a miss — never fatal,
// per the cache's error-handling contract.
func (m *Manager) Get(cacheKey, digest string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", false
	}

	data, err := os.ReadFile(m.entryPath(cacheKey, digest))
	if err != nil {
		atomic.AddUint64(&m.misses, 1)
		m.metrics.RecordCacheMiss()
		if !errors.Is(err, os.ErrNotExist) {
			m.logger.Warn("cache read failed, treating as miss", zap.String("key", cacheKey), zap.Error(err))
		}
		return "", false
	}
	atomic.AddUint64(&m.hits, 1)
	m.metrics.RecordCacheHit()
	return string(data), true
}

// Put best-effort stores text under (cacheKey, digest) using a
// write-to-temp-then-rename so concurrent readers never observe a
// partially written entry. I/O failure is logged but never fails the
// workflow.
func (m *Manager) Put(cacheKey, digest, text string) {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return
	}

	dest := m.entryPath(cacheKey, digest)
	tmp := dest + ".tmp-" + digest

	if err := os.WriteFile(tmp, []byte(text), 0o644); err != nil {
		m.logger.Warn("cache write failed", zap.String("key", cacheKey), zap.Error(err))
		return
	}
	if err := os.Rename(tmp, dest); err != nil {
		m.logger.Warn("cache rename failed", zap.String("key", cacheKey), zap.Error(err))
		_ = os.Remove(tmp)
	}
}

// Close marks the manager closed; subsequent Get calls report misses and
// Put calls are no-ops.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.logger.Info("closing cache manager")
	return nil
}

// =============================================================================
// 📊 统计信息
// =============================================================================

// Stats is a point-in-time snapshot of cache hit/miss counters.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

// GetStats returns the current hit/miss counters.
func (m *Manager) GetStats() Stats {
	return Stats{
		Hits:   atomic.LoadUint64(&m.hits),
		Misses: atomic.LoadUint64(&m.misses),
	}
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// ErrCacheMiss is returned by call sites that need an explicit error value
// for a cache miss rather than Manager's (string, bool) form.
var ErrCacheMiss = errors.New("cache miss")

// IsCacheMiss reports whether err is ErrCacheMiss.
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

func sanitizeKey(key string) string {
	if key == "" {
		return "_"
	}
	out := make([]byte, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			out[i] = c
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
