package job

import (
	"context"

	"github.com/xxxsen/mvector/internal/queue"
)

// DurableQueueJob drains the table-backed queue once per tick.
type DurableQueueJob struct {
	queue *queue.DurableQueue
	limit int
}

func NewDurableQueueJob(q *queue.DurableQueue, limit int) *DurableQueueJob {
	return &DurableQueueJob{queue: q, limit: limit}
}

func (j *DurableQueueJob) Name() string {
	return "durable_queue_drain"
}

func (j *DurableQueueJob) Run(ctx context.Context) error {
	if !j.queue.Available(ctx) {
		return nil
	}
	_, err := j.queue.Drain(ctx, j.limit)
	return err
}
