package cache

import "errors"

// Lookup outcomes. Public reads collapse all of them to "absent".
var (
	ErrMiss      = errors.New("cache: miss")
	ErrExpired   = errors.New("cache: item expired")
	ErrCorrupt   = errors.New("cache: stored item is unreadable")
	ErrNoBackend = errors.New("cache: storage backend not configured")
)
