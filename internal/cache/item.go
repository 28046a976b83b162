package cache

import "time"

// Item is one cached value. Timestamp and TTL are in milliseconds, which is
// also the shape persisted by the local and session backends.
type Item[T any] struct {
	Data      T     `json:"data" msgpack:"data"`
	Timestamp int64 `json:"timestamp" msgpack:"timestamp"`
	TTL       int64 `json:"ttl" msgpack:"ttl"`
}

// Expired reports whether now is more than TTL past Timestamp. A non-positive
// TTL is expired as soon as it is written.
func (i Item[T]) Expired(now time.Time) bool {
	if i.TTL <= 0 {
		return true
	}
	return now.UnixMilli()-i.Timestamp > i.TTL
}
