package job

import (
	"context"

	"github.com/xxxsen/mvector/internal/queue"
)

// FallbackQueueJob drains the options-backed queue. It runs far less
// often than the durable drain; installs that have the queue table never
// accumulate items here.
type FallbackQueueJob struct {
	queue *queue.FallbackQueue
	limit int
}

func NewFallbackQueueJob(q *queue.FallbackQueue, limit int) *FallbackQueueJob {
	return &FallbackQueueJob{queue: q, limit: limit}
}

func (j *FallbackQueueJob) Name() string {
	return "fallback_queue_drain"
}

func (j *FallbackQueueJob) Run(ctx context.Context) error {
	_, err := j.queue.Drain(ctx, j.limit)
	return err
}
