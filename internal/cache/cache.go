package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/ppiankov/evidra/internal/model"
)

// Cache stores provider response bodies keyed by request identity
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a namespaced cache key from request parts (method, URL, credential scope).
// Parts are joined with a separator that cannot appear in a URL.
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "evidra:v1:" + hex.EncodeToString(hash[:])
}

// New returns the cache described by cfg, or nil when caching is disabled
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled || cfg.TTL <= 0 {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemory(cfg.TTL, 2*cfg.TTL)
	}
	return NewLayered(cfg.TTL, cfg.Dir, cfg.TTL)
}
