package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/mvector/internal/ai"
)

// WrapLruCacheToProvider memoizes embeddings per model and content hash.
// Query-side callers hit the same short texts repeatedly; ingestion
// passes through mostly unique content and just fills slots.
func WrapLruCacheToProvider(p ai.IEmbedProvider, size int, ttl time.Duration) ai.IEmbedProvider {
	if p == nil || size <= 0 || ttl <= 0 {
		return p
	}
	return &lruProvider{
		next:  p,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type lruProvider struct {
	next  ai.IEmbedProvider
	cache *expirable.LRU[string, []float32]
}

func (l *lruProvider) Name() string {
	return l.next.Name()
}

func (l *lruProvider) Embed(ctx context.Context, model string, text string) ([]float32, error) {
	cacheKey := buildCacheKey(model, text)
	if cached, ok := l.cache.Get(cacheKey); ok {
		logutil.GetLogger(ctx).Debug("embedding cache hit", zap.String("model", model))
		return cloneEmbedding(cached), nil
	}
	res, err := l.next.Embed(ctx, model, text)
	if err != nil {
		return nil, err
	}
	l.cache.Add(cacheKey, cloneEmbedding(res))
	return res, nil
}

func buildCacheKey(model, text string) string {
	model = strings.TrimSpace(model)
	if model == "" {
		model = "unknown"
	}
	hash := sha256.Sum256([]byte(text))
	return "embed:" + model + ":" + hex.EncodeToString(hash[:])
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
