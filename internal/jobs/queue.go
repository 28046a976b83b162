package jobs

import "net/url"

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	EnqueueWarm(path string, query url.Values) error
	Pending() int
}
