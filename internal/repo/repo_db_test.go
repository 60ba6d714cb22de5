package repo

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

// openTestDB connects to the database named by TEST_DB_DSN and prepares
// a fresh schema. Tests in this file run only against a real server.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	dbx, err := sqlx.Open("mysql", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { dbx.Close() })

	ctx := context.Background()
	probe := db.NewProbe(dbx.DB)
	schema := db.NewSchemaManager(dbx.DB, probe)
	require.NoError(t, schema.RecreateTable(ctx, 3))
	for _, table := range []string{db.OptionsTable, db.DocumentsTable, db.QueueTable} {
		_, err := dbx.ExecContext(ctx, "TRUNCATE TABLE "+table)
		require.NoError(t, err)
	}
	return dbx
}

func TestOptionsRepo_RoundTrip(t *testing.T) {
	dbx := openTestDB(t)
	repo := NewOptionsRepo(dbx)
	ctx := context.Background()

	value, err := repo.Get(ctx, "missing")
	require.NoError(t, err)
	require.Empty(t, value)

	require.NoError(t, repo.Set(ctx, "k", "v1"))
	require.NoError(t, repo.Set(ctx, "k", "v2"))
	value, err = repo.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v2", value)

	require.NoError(t, repo.Delete(ctx, "k"))
	value, err = repo.Get(ctx, "k")
	require.NoError(t, err)
	require.Empty(t, value)
}

func TestEmbeddingRepo_InsertAndScan(t *testing.T) {
	dbx := openTestDB(t)
	ctx := context.Background()
	probe := db.NewProbe(dbx.DB)
	repo := NewEmbeddingRepo(dbx, probe)

	id, err := repo.Insert(ctx, &model.EmbeddingRecord{
		DocID:     "doc-1",
		Model:     "test-model",
		ChunkText: "hello",
		Embedding: []float32{1, 0, 0},
	})
	require.NoError(t, err)
	require.Positive(t, id)

	count, err := repo.CountAll(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	if !probe.Detect(ctx).HasNativeVector {
		var seen int
		err = repo.ScanAll(ctx, func(row FallbackRow) error {
			seen++
			require.Equal(t, "doc-1", row.DocID)
			require.Equal(t, []float32{1, 0, 0}, row.Embedding)
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, 1, seen)
	} else {
		results, err := repo.SearchNative(ctx, []float32{1, 0, 0}, 5)
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.InDelta(t, 0, results[0].Distance, 1e-6)
	}

	require.NoError(t, repo.DeleteByDoc(ctx, "doc-1"))
	count, err = repo.CountAll(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestDocumentRepo_UpsertAndMark(t *testing.T) {
	dbx := openTestDB(t)
	ctx := context.Background()
	repo := NewDocumentRepo(dbx)

	doc, err := repo.Get(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, doc)

	require.NoError(t, repo.Upsert(ctx, &model.Document{DocID: "d1", Title: "T", Content: "body"}))
	doc, err = repo.Get(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Equal(t, model.DefaultDocType, doc.DocType)
	require.False(t, doc.Embedded)

	require.NoError(t, repo.MarkEmbedded(ctx, "d1", 4, "test-model"))
	doc, err = repo.Get(ctx, "d1")
	require.NoError(t, err)
	require.True(t, doc.Embedded)
	require.Equal(t, 4, doc.ChunksCount)
	require.NotNil(t, doc.EmbeddedAt)

	ids, err := repo.AllIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"d1"}, ids)
}
