package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/mvector/internal/db"
	"github.com/xxxsen/mvector/internal/model"
	"github.com/xxxsen/mvector/internal/repo"
)

func TestCosineDistance_IdenticalVectors(t *testing.T) {
	v := []float32{1, 2, 3}
	require.InDelta(t, 0, CosineDistance(v, v), 1e-9)
}

func TestCosineDistance_Orthogonal(t *testing.T) {
	require.InDelta(t, 1, CosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-9)
}

func TestCosineDistance_Opposite(t *testing.T) {
	require.InDelta(t, 2, CosineDistance([]float32{1, 0}, []float32{-1, 0}), 1e-9)
}

func TestCosineDistance_Symmetry(t *testing.T) {
	a := []float32{0.3, -0.5, 0.8}
	b := []float32{-0.1, 0.9, 0.2}
	require.InDelta(t, CosineDistance(a, b), CosineDistance(b, a), 1e-9)
}

func TestCosineDistance_ZeroMagnitude(t *testing.T) {
	require.Equal(t, 1.0, CosineDistance([]float32{0, 0, 0}, []float32{1, 2, 3}))
	require.Equal(t, 1.0, CosineDistance([]float32{1, 2, 3}, []float32{0, 0, 0}))
}

func TestCosineDistance_DimensionMismatch(t *testing.T) {
	// Longer candidate truncates, shorter one zero-pads.
	require.InDelta(t, 0, CosineDistance([]float32{1, 0}, []float32{1, 0, 9, 9}), 1e-9)
	require.InDelta(t, 0, CosineDistance([]float32{1, 0, 0}, []float32{1}), 1e-9)
}

type fakeSearchStore struct {
	rows   []repo.FallbackRow
	native []model.SearchResult
}

func (f *fakeSearchStore) SearchNative(ctx context.Context, vec []float32, k int) ([]model.SearchResult, error) {
	if len(f.native) > k {
		return f.native[:k], nil
	}
	return f.native, nil
}

func (f *fakeSearchStore) ScanAll(ctx context.Context, fn func(row repo.FallbackRow) error) error {
	for _, row := range f.rows {
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

type fakeCaps struct {
	cap db.Capability
}

func (f *fakeCaps) Detect(ctx context.Context) db.Capability {
	return f.cap
}

func TestSearch_FallbackRanksByDistance(t *testing.T) {
	store := &fakeSearchStore{
		rows: []repo.FallbackRow{
			{ID: 1, DocID: "a", Embedding: []float32{0, 1, 0}},
			{ID: 2, DocID: "b", Embedding: []float32{1, 0, 0}},
			{ID: 3, DocID: "c", Embedding: []float32{0.9, 0.1, 0}},
		},
	}
	svc := NewSearchService(store, &fakeCaps{}, nil)
	results, err := svc.Search(context.Background(), []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "b", results[0].DocID)
	require.InDelta(t, 0, results[0].Distance, 1e-9)
	require.Equal(t, "c", results[1].DocID)
}

func TestSearch_FallbackEmptyStore(t *testing.T) {
	svc := NewSearchService(&fakeSearchStore{}, &fakeCaps{}, nil)
	results, err := svc.Search(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSearch_DefaultTopK(t *testing.T) {
	store := &fakeSearchStore{}
	for i := 0; i < 10; i++ {
		store.rows = append(store.rows, repo.FallbackRow{ID: int64(i), Embedding: []float32{1, 0}})
	}
	svc := NewSearchService(store, &fakeCaps{}, nil)
	results, err := svc.Search(context.Background(), []float32{1, 0}, 0)
	require.NoError(t, err)
	require.Len(t, results, DefaultTopK)
}

func TestSearch_NativePathUsed(t *testing.T) {
	store := &fakeSearchStore{
		native: []model.SearchResult{{ID: 7, DocID: "native"}},
		rows:   []repo.FallbackRow{{ID: 1, DocID: "scan", Embedding: []float32{1}}},
	}
	svc := NewSearchService(store, &fakeCaps{cap: db.Capability{HasNativeVector: true}}, nil)
	results, err := svc.Search(context.Background(), []float32{1}, 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "native", results[0].DocID)
}
