package queue

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/mvector/internal/model"
)

// FallbackQueueOption is the options-table key holding the serialized
// fallback queue.
const FallbackQueueOption = "mvector_embedding_queue"

// OptionsStore is the slice of the options repo the fallback queue needs.
type OptionsStore interface {
	GetJSON(ctx context.Context, name string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, name string, v interface{}) error
}

// FallbackQueue keeps pending items as a JSON list in the options table,
// for installs where the dedicated queue table cannot be created. Each
// drained item is removed before its attempt is inspected, so delivery
// is at most once: a crash mid-embed loses that item rather than
// re-embedding it forever.
type FallbackQueue struct {
	opts      OptionsStore
	processor Processor
}

func NewFallbackQueue(opts OptionsStore, processor Processor) *FallbackQueue {
	return &FallbackQueue{opts: opts, processor: processor}
}

func (q *FallbackQueue) Push(ctx context.Context, item model.QueueItem) error {
	return q.PushBatch(ctx, []model.QueueItem{item})
}

func (q *FallbackQueue) PushBatch(ctx context.Context, items []model.QueueItem) error {
	var pending []model.QueueItem
	if _, err := q.opts.GetJSON(ctx, FallbackQueueOption, &pending); err != nil {
		return err
	}
	pending = append(pending, items...)
	return q.opts.SetJSON(ctx, FallbackQueueOption, pending)
}

func (q *FallbackQueue) Pending(ctx context.Context) (int64, error) {
	var pending []model.QueueItem
	if _, err := q.opts.GetJSON(ctx, FallbackQueueOption, &pending); err != nil {
		return 0, err
	}
	return int64(len(pending)), nil
}

// Drain processes up to limit items from the head of the list. The
// shrunk list is persisted after every attempt, success or not.
func (q *FallbackQueue) Drain(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultBatchSize
	}
	var pending []model.QueueItem
	if _, err := q.opts.GetJSON(ctx, FallbackQueueOption, &pending); err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}
	done := 0
	for i := 0; i < limit && len(pending) > 0; i++ {
		item := pending[0]
		pending = pending[1:]
		if err := q.opts.SetJSON(ctx, FallbackQueueOption, pending); err != nil {
			return done, err
		}
		if err := runItem(ctx, q.processor, item); err != nil {
			logutil.GetLogger(ctx).Error("queued embedding failed",
				zap.String("doc_id", item.DocID), zap.Error(err))
			continue
		}
		done++
	}
	return done, nil
}
