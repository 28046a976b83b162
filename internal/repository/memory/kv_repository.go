package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/vytor/studyflash/internal/repository"
)

// ErrQuotaExceeded is returned by Set when the write would push the stored
// bytes past the configured quota.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// KVRepository is an in-process KVRepository. It stands in for the session
// storage area when no Redis is configured.
type KVRepository struct {
	mu    sync.RWMutex
	items map[string][]byte
	used  int
	quota int
}

var _ repository.KVRepository = (*KVRepository)(nil)

// NewKVRepository returns an empty store. A quota of zero means unlimited;
// otherwise it caps the summed length of keys and values in bytes.
func NewKVRepository(quota int) *KVRepository {
	return &KVRepository{
		items: make(map[string][]byte),
		quota: quota,
	}
}

func (r *KVRepository) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.items[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (r *KVRepository) Set(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	used := r.used
	if old, ok := r.items[key]; ok {
		used -= len(key) + len(old)
	}
	used += len(key) + len(value)
	if r.quota > 0 && used > r.quota {
		return ErrQuotaExceeded
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	r.items[key] = stored
	r.used = used
	return nil
}

func (r *KVRepository) Remove(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.items[key]; ok {
		r.used -= len(key) + len(old)
		delete(r.items, key)
	}
	return nil
}

func (r *KVRepository) Keys(_ context.Context, prefix string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var keys []string
	for k := range r.items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Used returns the bytes currently counted against the quota.
func (r *KVRepository) Used() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.used
}
