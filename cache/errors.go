package cache

import "errors"

// Sentinel errors for cache operations.
var (
	// ErrInvalidResourceType is returned for empty or unkeyable
	// resource type names.
	ErrInvalidResourceType = errors.New("cache: invalid resource type")
)
