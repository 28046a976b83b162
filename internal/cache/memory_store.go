package cache

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// memoryStore keeps items in insertion order. Reads use Peek so they never
// reorder; re-setting a key moves it to the newest position.
type memoryStore struct {
	mu    sync.Mutex
	items *simplelru.LRU[string, Item[any]]
}

func newMemoryStore() *memoryStore {
	// Capacity is enforced per write by put, not by the LRU itself.
	items, err := simplelru.NewLRU[string, Item[any]](math.MaxInt, nil)
	if err != nil {
		panic(err)
	}
	return &memoryStore{items: items}
}

func (s *memoryStore) get(key string) (Item[any], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Peek(key)
}

// put stores item and, when the store then holds more than maxSize items,
// drops every expired item and then the oldest by timestamp until it fits.
// It returns the number of items evicted.
func (s *memoryStore) put(key string, item Item[any], maxSize int, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items.Add(key, item)
	if maxSize <= 0 || s.items.Len() <= maxSize {
		return 0
	}

	evicted := 0
	for _, k := range s.items.Keys() {
		if v, ok := s.items.Peek(k); ok && v.Expired(now) {
			s.items.Remove(k)
			evicted++
		}
	}

	excess := s.items.Len() - maxSize
	if excess <= 0 {
		return evicted
	}

	// Keys are oldest-first, so the stable sort keeps insertion order on ties.
	keys := s.items.Keys()
	stamps := make(map[string]int64, len(keys))
	for _, k := range keys {
		v, _ := s.items.Peek(k)
		stamps[k] = v.Timestamp
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return stamps[keys[i]] < stamps[keys[j]]
	})
	for _, k := range keys[:excess] {
		s.items.Remove(k)
		evicted++
	}
	return evicted
}

func (s *memoryStore) remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.Remove(key)
}

func (s *memoryStore) purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.Purge()
}

func (s *memoryStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Len()
}
