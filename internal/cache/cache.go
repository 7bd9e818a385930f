package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key from a request path and its query parameters.
// Parameter order does not affect the key.
func Key(path string, query url.Values) string {
	hash := sha256.Sum256([]byte(path + "?" + query.Encode()))
	return "gbdrill:v1:" + hex.EncodeToString(hash[:])
}
