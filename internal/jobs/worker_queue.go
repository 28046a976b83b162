package jobs

import (
	"net/url"

	"github.com/vytor/studyflash/internal/worker"
)

// WorkerQueue implements JobQueue using a worker pool
type WorkerQueue struct {
	pool   *worker.Pool
	warmer worker.Warmer
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(pool *worker.Pool, warmer worker.Warmer) *WorkerQueue {
	return &WorkerQueue{pool: pool, warmer: warmer}
}

var _ JobQueue = (*WorkerQueue)(nil)

func (q *WorkerQueue) EnqueueWarm(path string, query url.Values) error {
	return q.pool.Submit(&worker.WarmCacheJob{
		Warmer: q.warmer,
		Path:   path,
		Query:  query,
	})
}

func (q *WorkerQueue) Pending() int {
	return q.pool.QueueSize()
}
