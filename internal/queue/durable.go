package queue

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/mvector/internal/db"
	"github.com/xxxsen/mvector/internal/model"
	"github.com/xxxsen/mvector/internal/pkg/errdefs"
)

const (
	statusPending    = "pending"
	statusProcessing = "processing"
)

// DurableQueue stores pending work in its own table. Batches are pushed
// with staggered schedule times so a bulk re-embed does not hammer the
// provider in one cron tick; claims use row locks so concurrent drains
// never double-process an item.
type DurableQueue struct {
	db        *sql.DB
	processor Processor
	batchSize int
	stagger   time.Duration
}

func NewDurableQueue(d *sql.DB, processor Processor, batchSize int) *DurableQueue {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &DurableQueue{
		db:        d,
		processor: processor,
		batchSize: batchSize,
		stagger:   time.Minute,
	}
}

// Available reports whether the queue table exists. Push-time routing
// falls back to the options queue when it does not.
func (q *DurableQueue) Available(ctx context.Context) bool {
	var count int
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?",
		db.QueueTable,
	).Scan(&count)
	return err == nil && count > 0
}

func (q *DurableQueue) Push(ctx context.Context, item model.QueueItem) error {
	return q.pushAt(ctx, item, time.Now())
}

func (q *DurableQueue) PushBatch(ctx context.Context, items []model.QueueItem) error {
	now := time.Now()
	for i, item := range items {
		slot := time.Duration(i/q.batchSize) * q.stagger
		if err := q.pushAt(ctx, item, now.Add(slot)); err != nil {
			return err
		}
	}
	return nil
}

func (q *DurableQueue) pushAt(ctx context.Context, item model.QueueItem, at time.Time) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (doc_id, provider, model, status, scheduled_at) VALUES (?, ?, ?, ?, ?)",
		db.QueueTable,
	)
	if _, err := q.db.ExecContext(ctx, query, item.DocID, item.Provider, item.Model, statusPending, at); err != nil {
		return errdefs.Wrap(errdefs.KindStorage, "enqueue "+item.DocID, err)
	}
	return nil
}

// Pending counts items not yet claimed.
func (q *DurableQueue) Pending(ctx context.Context) (int64, error) {
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE status = ?", db.QueueTable)
	if err := q.db.QueryRowContext(ctx, query, statusPending).Scan(&count); err != nil {
		return 0, errdefs.Wrap(errdefs.KindStorage, "count pending queue items", err)
	}
	return count, nil
}

// Drain claims up to limit due items and processes them. A processed
// item is deleted. A configuration failure is dropped outright, since
// retrying it cannot succeed and re-claiming it every tick would starve
// the rest of the queue; any other failure is released to the back of
// the pending set. Returns the number successfully processed.
func (q *DurableQueue) Drain(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = q.batchSize
	}
	items, err := q.claim(ctx, limit)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, claimed := range items {
		if err := runItem(ctx, q.processor, claimed.item); err != nil {
			if errdefs.KindOf(err) == errdefs.KindConfiguration {
				logutil.GetLogger(ctx).Error("queued embedding misconfigured, dropping item",
					zap.String("doc_id", claimed.item.DocID), zap.Error(err))
				q.remove(ctx, claimed.id)
				continue
			}
			logutil.GetLogger(ctx).Error("queued embedding failed",
				zap.String("doc_id", claimed.item.DocID), zap.Error(err))
			q.release(ctx, claimed.id)
			continue
		}
		q.remove(ctx, claimed.id)
		done++
	}
	return done, nil
}

type claimedItem struct {
	id   int64
	item model.QueueItem
}

func (q *DurableQueue) claim(ctx context.Context, limit int) ([]claimedItem, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errdefs.Wrap(errdefs.KindStorage, "claim queue items", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(
		"SELECT id, doc_id, provider, model FROM %s WHERE status = ? AND scheduled_at <= ? ORDER BY scheduled_at LIMIT ? FOR UPDATE SKIP LOCKED",
		db.QueueTable,
	)
	rows, err := tx.QueryContext(ctx, query, statusPending, time.Now(), limit)
	if err != nil {
		return nil, errdefs.Wrap(errdefs.KindStorage, "claim queue items", err)
	}
	var items []claimedItem
	for rows.Next() {
		var ci claimedItem
		if err := rows.Scan(&ci.id, &ci.item.DocID, &ci.item.Provider, &ci.item.Model); err != nil {
			rows.Close()
			return nil, errdefs.Wrap(errdefs.KindStorage, "claim queue items", err)
		}
		items = append(items, ci)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errdefs.Wrap(errdefs.KindStorage, "claim queue items", err)
	}

	for _, ci := range items {
		update := fmt.Sprintf("UPDATE %s SET status = ? WHERE id = ?", db.QueueTable)
		if _, err := tx.ExecContext(ctx, update, statusProcessing, ci.id); err != nil {
			return nil, errdefs.Wrap(errdefs.KindStorage, "claim queue items", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, errdefs.Wrap(errdefs.KindStorage, "claim queue items", err)
	}
	return items, nil
}

// release returns a claimed item to pending. The schedule time is bumped
// past the next stagger slot so a failing item queues behind fresh work
// instead of being re-claimed first on every drain.
func (q *DurableQueue) release(ctx context.Context, id int64) {
	query := fmt.Sprintf("UPDATE %s SET status = ?, scheduled_at = ? WHERE id = ?", db.QueueTable)
	if _, err := q.db.ExecContext(ctx, query, statusPending, time.Now().Add(q.stagger), id); err != nil {
		logutil.GetLogger(ctx).Warn("queue item release failed", zap.Int64("id", id), zap.Error(err))
	}
}

func (q *DurableQueue) remove(ctx context.Context, id int64) {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", db.QueueTable)
	if _, err := q.db.ExecContext(ctx, query, id); err != nil {
		logutil.GetLogger(ctx).Warn("queue item cleanup failed", zap.Int64("id", id), zap.Error(err))
	}
}
