package queue

import (
	"context"

	"github.com/xxxsen/mvector/internal/model"
)

// Dispatcher routes pushes to the durable queue when its table exists
// and to the options-backed queue otherwise. Routing happens per push so
// a table created after startup is picked up without a restart.
type Dispatcher struct {
	durable  *DurableQueue
	fallback *FallbackQueue
}

func NewDispatcher(durable *DurableQueue, fallback *FallbackQueue) *Dispatcher {
	return &Dispatcher{durable: durable, fallback: fallback}
}

func (d *Dispatcher) Push(ctx context.Context, item model.QueueItem) error {
	if d.durable.Available(ctx) {
		return d.durable.Push(ctx, item)
	}
	return d.fallback.Push(ctx, item)
}

func (d *Dispatcher) PushBatch(ctx context.Context, items []model.QueueItem) error {
	if d.durable.Available(ctx) {
		return d.durable.PushBatch(ctx, items)
	}
	return d.fallback.PushBatch(ctx, items)
}

// Pending sums both backends; items may sit in the fallback list from
// before the durable table appeared.
func (d *Dispatcher) Pending(ctx context.Context) (int64, error) {
	var total int64
	if d.durable.Available(ctx) {
		n, err := d.durable.Pending(ctx)
		if err != nil {
			return 0, err
		}
		total += n
	}
	n, err := d.fallback.Pending(ctx)
	if err != nil {
		return 0, err
	}
	return total + n, nil
}
