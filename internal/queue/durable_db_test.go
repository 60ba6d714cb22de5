package queue

import (
	"context"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/mvector/internal/db"
	"github.com/xxxsen/mvector/internal/model"
)

func openQueueTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	dbx, err := sqlx.Open("mysql", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { dbx.Close() })

	ctx := context.Background()
	_, err = dbx.ExecContext(ctx, "DROP TABLE IF EXISTS "+db.QueueTable)
	require.NoError(t, err)
	probe := db.NewProbe(dbx.DB)
	schema := db.NewSchemaManager(dbx.DB, probe)
	require.NoError(t, schema.EnsureSchema(ctx, 3))
	return dbx
}

func TestDurableQueue_PushDrainRoundTrip(t *testing.T) {
	dbx := openQueueTestDB(t)
	ctx := context.Background()
	proc := &countingProcessor{}
	q := NewDurableQueue(dbx.DB, proc, 10)

	require.True(t, q.Available(ctx))
	require.NoError(t, q.Push(ctx, model.QueueItem{DocID: "a"}))
	require.NoError(t, q.Push(ctx, model.QueueItem{DocID: "b"}))

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), pending)

	done, err := q.Drain(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 2, done)
	require.ElementsMatch(t, []string{"a", "b"}, proc.processed)

	pending, err = q.Pending(ctx)
	require.NoError(t, err)
	require.Zero(t, pending)
}

func TestDurableQueue_FailedItemReleasedForRetry(t *testing.T) {
	dbx := openQueueTestDB(t)
	ctx := context.Background()
	proc := &countingProcessor{failOn: map[string]bool{"bad": true}}
	q := NewDurableQueue(dbx.DB, proc, 10)

	require.NoError(t, q.Push(ctx, model.QueueItem{DocID: "bad"}))
	done, err := q.Drain(ctx, 10)
	require.NoError(t, err)
	require.Zero(t, done)

	// Still pending: the durable path retries on a later drain, unlike
	// the options-backed queue.
	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), pending)

	// The release bumped scheduled_at into the future, so an immediate
	// drain claims nothing and the item cannot hog every tick.
	done, err = q.Drain(ctx, 10)
	require.NoError(t, err)
	require.Zero(t, done)
	require.Empty(t, proc.processed)
}

func TestDurableQueue_ConfigurationFailureDropped(t *testing.T) {
	dbx := openQueueTestDB(t)
	ctx := context.Background()
	proc := &countingProcessor{configOn: map[string]bool{"badcfg": true}}
	q := NewDurableQueue(dbx.DB, proc, 10)

	require.NoError(t, q.Push(ctx, model.QueueItem{DocID: "badcfg"}))
	require.NoError(t, q.Push(ctx, model.QueueItem{DocID: "good"}))

	done, err := q.Drain(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, done)
	require.Equal(t, []string{"good"}, proc.processed)

	// The misconfigured item is gone, not parked for an endless retry.
	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Zero(t, pending)
}

func TestDurableQueue_PanickingItemReleased(t *testing.T) {
	dbx := openQueueTestDB(t)
	ctx := context.Background()
	proc := &countingProcessor{panicOn: map[string]bool{"boom": true}}
	q := NewDurableQueue(dbx.DB, proc, 10)

	require.NoError(t, q.Push(ctx, model.QueueItem{DocID: "boom"}))
	require.NoError(t, q.Push(ctx, model.QueueItem{DocID: "good"}))

	done, err := q.Drain(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, done)
	require.Equal(t, []string{"good"}, proc.processed)

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), pending)
}

func TestDurableQueue_BatchStaggersSchedule(t *testing.T) {
	dbx := openQueueTestDB(t)
	ctx := context.Background()
	q := NewDurableQueue(dbx.DB, &countingProcessor{}, 2)

	items := []model.QueueItem{
		{DocID: "1"}, {DocID: "2"}, {DocID: "3"}, {DocID: "4"}, {DocID: "5"},
	}
	require.NoError(t, q.PushBatch(ctx, items))

	// Only the first slot of batchSize items is due now.
	done, err := q.Drain(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 2, done)
}
