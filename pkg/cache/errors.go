// Package cache defines common error types used throughout the caching layer.
package cache

import "errors"

// Common cache errors
var (
	// ErrCacheMiss indicates the requested key was not found in cache.
	// This is not necessarily an error condition - an anonymous tab simply
	// has no durable record yet.
	ErrCacheMiss = errors.New("cache miss")
)
