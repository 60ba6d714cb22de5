package queue

import (
	"context"
	"fmt"

	"github.com/xxxsen/mvector/internal/model"
)

// DefaultBatchSize is the number of items pushed per scheduling slot
// when a caller enqueues a large set at once.
const DefaultBatchSize = 10

// Processor embeds one queued document. Implemented by the ingestion
// service; the queues only own delivery.
type Processor interface {
	ProcessItem(ctx context.Context, item model.QueueItem) error
}

// Queue accepts documents for asynchronous embedding.
type Queue interface {
	Push(ctx context.Context, item model.QueueItem) error
	PushBatch(ctx context.Context, items []model.QueueItem) error
}

// Drainer claims pending work and runs it through a Processor.
type Drainer interface {
	Drain(ctx context.Context, limit int) (int, error)
}

// runItem executes one processor call behind a panic barrier. A panic in
// a provider or repo must cost only the item that triggered it, never
// the drain loop or the cron goroutine it runs on.
func runItem(ctx context.Context, p Processor, item model.QueueItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor panic: %v", r)
		}
	}()
	return p.ProcessItem(ctx, item)
}
