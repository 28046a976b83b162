package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned by KVRepository.Get when the key is unset.
var ErrNotFound = errors.New("key not found")

// KVRepository is a string-keyed byte store. The cache uses one per
// persistent storage area and the review scheduler keeps its whole
// schedule under a single key.
type KVRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// Keys lists every key starting with prefix, in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
