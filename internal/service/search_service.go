package service

import (
	"context"
	"math"
	"sort"

	"github.com/xxxsen/mvector/internal/ai"
	"github.com/xxxsen/mvector/internal/db"
	"github.com/xxxsen/mvector/internal/model"
	"github.com/xxxsen/mvector/internal/repo"
)

// DefaultTopK applies when a query gives no limit.
const DefaultTopK = 5

// CosineDistance is 1 - cosine similarity, matching the engine-native
// function so fallback rankings agree with native ones. The candidate is
// truncated or zero-padded to the query length; a zero-magnitude side
// yields the neutral distance 1.
func CosineDistance(query, candidate []float32) float64 {
	if len(candidate) > len(query) {
		candidate = candidate[:len(query)]
	}
	var dot, qmag, cmag float64
	for i, qv := range query {
		q := float64(qv)
		var c float64
		if i < len(candidate) {
			c = float64(candidate[i])
		}
		dot += q * c
		qmag += q * q
		cmag += c * c
	}
	if qmag == 0 || cmag == 0 {
		return 1.0
	}
	sim := dot / (math.Sqrt(qmag) * math.Sqrt(cmag))
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return 1 - sim
}

// EmbeddingSearcher is the slice of the embedding repo the search path
// uses.
type EmbeddingSearcher interface {
	SearchNative(ctx context.Context, vec []float32, k int) ([]model.SearchResult, error)
	ScanAll(ctx context.Context, fn func(row repo.FallbackRow) error) error
}

// CapabilitySource reports the detected engine capability.
type CapabilitySource interface {
	Detect(ctx context.Context) db.Capability
}

// EmbedderResolver yields the provider and model of the active
// selection.
type EmbedderResolver interface {
	ActiveEmbedder(ctx context.Context) (ai.IEmbedProvider, string, error)
}

type SearchService struct {
	store    EmbeddingSearcher
	caps     CapabilitySource
	resolver EmbedderResolver
}

func NewSearchService(store EmbeddingSearcher, caps CapabilitySource, resolver EmbedderResolver) *SearchService {
	return &SearchService{store: store, caps: caps, resolver: resolver}
}

// Search ranks stored chunks by cosine distance to vec, nearest first.
// The native path pushes the ordering into the engine; the fallback path
// scans every row and ranks in process.
func (s *SearchService) Search(ctx context.Context, vec []float32, k int) ([]model.SearchResult, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	if s.caps.Detect(ctx).HasNativeVector {
		return s.store.SearchNative(ctx, vec, k)
	}
	var results []model.SearchResult
	err := s.store.ScanAll(ctx, func(row repo.FallbackRow) error {
		results = append(results, model.SearchResult{
			ID:           row.ID,
			DocID:        row.DocID,
			ChunkIndex:   row.ChunkIndex,
			ChunkContent: row.ChunkContent,
			Summary:      row.Summary,
			Distance:     CosineDistance(vec, row.Embedding),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// SearchText embeds the query with the active provider and searches.
func (s *SearchService) SearchText(ctx context.Context, text string, k int) ([]model.SearchResult, error) {
	provider, modelName, err := s.resolver.ActiveEmbedder(ctx)
	if err != nil {
		return nil, err
	}
	vec, err := provider.Embed(ctx, modelName, text)
	if err != nil {
		return nil, err
	}
	return s.Search(ctx, vec, k)
}
