package service

import (
	"context"
	"os"
	"sort"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/mvector/internal/db"
	"github.com/xxxsen/mvector/internal/model"
	"github.com/xxxsen/mvector/internal/repo"
)

// On an engine with native vector support, the engine-ordered query and
// the in-process cosine ranking must agree on result order for the same
// stored data. Distances are chosen pairwise distinct so the assertion
// does not hinge on tie-breaking.
func TestSearch_NativeMatchesInProcessRanking(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	dbx, err := sqlx.Open("mysql", dsn)
	require.NoError(t, err)
	defer dbx.Close()

	ctx := context.Background()
	probe := db.NewProbe(dbx.DB)
	schema := db.NewSchemaManager(dbx.DB, probe)
	require.NoError(t, schema.RecreateTable(ctx, 3))
	if !probe.Detect(ctx).HasNativeVector {
		t.Skip("server has no native vector support")
	}

	store := repo.NewEmbeddingRepo(dbx, probe)
	vectors := map[string][]float32{
		"exact":    {1, 0, 0},
		"close":    {0.9, 0.1, 0},
		"angled":   {0.2, 0, 1},
		"right":    {0, 1, 0},
		"opposite": {-1, 0, 0},
	}
	for docID, vec := range vectors {
		_, err := store.Insert(ctx, &model.EmbeddingRecord{
			DocID:     docID,
			Model:     "test-model",
			ChunkText: docID,
			Embedding: vec,
		})
		require.NoError(t, err)
	}

	query := []float32{1, 0, 0}
	native, err := store.SearchNative(ctx, query, len(vectors))
	require.NoError(t, err)
	require.Len(t, native, len(vectors))

	type ranked struct {
		docID    string
		distance float64
	}
	expected := make([]ranked, 0, len(vectors))
	for docID, vec := range vectors {
		expected = append(expected, ranked{docID: docID, distance: CosineDistance(query, vec)})
	}
	sort.SliceStable(expected, func(i, j int) bool {
		return expected[i].distance < expected[j].distance
	})

	for i, want := range expected {
		require.Equal(t, want.docID, native[i].DocID, "rank %d", i)
		require.InDelta(t, want.distance, native[i].Distance, 1e-3, "rank %d", i)
	}
}
