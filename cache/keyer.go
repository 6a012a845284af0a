package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Key is the canonical identifier for a cached resource: a resource
// type plus a digest of its query parameters. Equal parameter sets
// canonicalize to equal keys regardless of construction order.
type Key string

// Type returns the resource type segment of the key, or "" if the key
// is malformed.
func (k Key) Type() string {
	parts := strings.SplitN(string(k), ":", 3)
	if len(parts) != 3 || parts[0] != "res" {
		return ""
	}
	return parts[1]
}

// Keyer generates deterministic cache keys from a resource type and
// its query parameters (filters, pagination).
//
// Contract:
// - Determinism: same inputs must produce same key, regardless of map
//   iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a cache key for the resource type and parameters.
	Key(resourceType string, params any) (Key, error)
}

// DefaultKeyer generates SHA-256 based resource keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic resource key.
// Format: res:<type>:<hash>
// where hash is the first 16 hex characters of SHA-256 over the
// canonical JSON encoding of params. encoding/json sorts map keys, so
// equal parameter maps serialize identically.
func (k *DefaultKeyer) Key(resourceType string, params any) (Key, error) {
	if resourceType == "" || strings.ContainsAny(resourceType, ": \n\r") {
		return "", fmt.Errorf("%w: %q", ErrInvalidResourceType, resourceType)
	}

	canonical, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize params: %w", err)
	}

	hash := sha256.Sum256(canonical)
	hashStr := hex.EncodeToString(hash[:8]) // first 8 bytes = 16 hex chars

	return Key(fmt.Sprintf("res:%s:%s", resourceType, hashStr)), nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
