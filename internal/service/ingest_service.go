package service

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/mvector/internal/ai"
	"github.com/xxxsen/mvector/internal/chunk"
	"github.com/xxxsen/mvector/internal/model"
	"github.com/xxxsen/mvector/internal/pkg/errdefs"
)

// DocumentSource is the slice of the document repo ingestion needs.
type DocumentSource interface {
	Upsert(ctx context.Context, doc *model.Document) error
	Get(ctx context.Context, docID string) (*model.Document, error)
	MarkEmbedded(ctx context.Context, docID string, chunks int, modelName string) error
}

// EmbeddingWriter is the slice of the embedding repo ingestion needs.
type EmbeddingWriter interface {
	Insert(ctx context.Context, rec *model.EmbeddingRecord) (int64, error)
	DeleteByDoc(ctx context.Context, docID string) error
}

// ProviderSource resolves embed providers by selection state or by name.
type ProviderSource interface {
	ActiveEmbedder(ctx context.Context) (ai.IEmbedProvider, string, error)
	EmbedderFor(name string) (ai.IEmbedProvider, error)
}

// IngestedChunk is one chunk stored by a synchronous ingest call.
type IngestedChunk struct {
	ID           int64  `json:"id"`
	DocID        string `json:"doc_id"`
	ChunkID      int    `json:"chunk_id"`
	ChunkContent string `json:"chunk_content"`
	Summary      string `json:"summary,omitempty"`
}

// IngestService turns document content into stored chunk embeddings.
// The queue path tolerates per-chunk failures; the synchronous path does
// not.
type IngestService struct {
	docs      DocumentSource
	store     EmbeddingWriter
	providers ProviderSource
	splitter  *chunk.Splitter
}

func NewIngestService(docs DocumentSource, store EmbeddingWriter, providers ProviderSource, splitter *chunk.Splitter) *IngestService {
	return &IngestService{docs: docs, store: store, providers: providers, splitter: splitter}
}

// ProcessItem embeds one queued document. Old chunks are dropped first
// so a re-embed never leaves both generations behind. A chunk whose
// embed call fails is logged and skipped; the document records how many
// chunks actually made it.
func (s *IngestService) ProcessItem(ctx context.Context, item model.QueueItem) error {
	doc, err := s.docs.Get(ctx, item.DocID)
	if err != nil {
		return err
	}
	if doc == nil {
		logutil.GetLogger(ctx).Warn("queued document no longer exists", zap.String("doc_id", item.DocID))
		return nil
	}

	provider, modelName, err := s.resolveProvider(ctx, item)
	if err != nil {
		return err
	}

	text := chunk.PlainText(doc.Content)
	chunks := s.splitter.Split(text)
	if err := s.store.DeleteByDoc(ctx, doc.DocID); err != nil {
		return err
	}
	if len(chunks) == 0 {
		logutil.GetLogger(ctx).Warn("document produced no chunks", zap.String("doc_id", doc.DocID))
		return s.docs.MarkEmbedded(ctx, doc.DocID, 0, modelName)
	}

	stored := 0
	for i, chunkText := range chunks {
		vec, err := provider.Embed(ctx, modelName, chunkText)
		if err != nil {
			logutil.GetLogger(ctx).Error("chunk embed failed",
				zap.String("doc_id", doc.DocID), zap.Int("chunk", i), zap.Error(err))
			continue
		}
		rec := &model.EmbeddingRecord{
			DocID:      doc.DocID,
			DocType:    doc.DocType,
			Model:      modelName,
			ChunkIndex: i,
			ChunkText:  chunkText,
			Embedding:  vec,
		}
		if _, err := s.store.Insert(ctx, rec); err != nil {
			logutil.GetLogger(ctx).Error("chunk insert failed",
				zap.String("doc_id", doc.DocID), zap.Int("chunk", i), zap.Error(err))
			continue
		}
		stored++
	}
	if err := s.docs.MarkEmbedded(ctx, doc.DocID, stored, modelName); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("document embedded",
		zap.String("doc_id", doc.DocID), zap.Int("chunks", stored), zap.Int("total", len(chunks)))
	return nil
}

func (s *IngestService) resolveProvider(ctx context.Context, item model.QueueItem) (ai.IEmbedProvider, string, error) {
	if item.Provider != "" {
		provider, err := s.providers.EmbedderFor(item.Provider)
		if err != nil {
			return nil, "", err
		}
		modelName := item.Model
		if modelName == "" {
			modelName = ai.DefaultModelFor(item.Provider)
		}
		return provider, modelName, nil
	}
	return s.providers.ActiveEmbedder(ctx)
}

// IngestText embeds content synchronously and returns the stored
// chunks. Unlike the queue path every error is surfaced, including
// content that chunks to nothing.
func (s *IngestService) IngestText(ctx context.Context, docID, docType, title string, content interface{}) ([]IngestedChunk, error) {
	text := strings.TrimSpace(chunk.Coerce(content))
	if docID == "" {
		return nil, errdefs.New(errdefs.KindConfiguration, "doc id is required")
	}
	if text == "" {
		return nil, errdefs.New(errdefs.KindChunkingDegenerate, "content is empty")
	}
	provider, modelName, err := s.providers.ActiveEmbedder(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.docs.Upsert(ctx, &model.Document{
		DocID:   docID,
		DocType: docType,
		Title:   title,
		Content: text,
	}); err != nil {
		return nil, err
	}

	plain := chunk.PlainText(text)
	chunks := s.splitter.Split(plain)
	if len(chunks) == 0 {
		return nil, errdefs.New(errdefs.KindChunkingDegenerate, "content produced no chunks")
	}
	if err := s.store.DeleteByDoc(ctx, docID); err != nil {
		return nil, err
	}

	out := make([]IngestedChunk, 0, len(chunks))
	for i, chunkText := range chunks {
		vec, err := provider.Embed(ctx, modelName, chunkText)
		if err != nil {
			return nil, err
		}
		rec := &model.EmbeddingRecord{
			DocID:      docID,
			DocType:    docType,
			Model:      modelName,
			ChunkIndex: i,
			ChunkText:  chunkText,
			Embedding:  vec,
		}
		id, err := s.store.Insert(ctx, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, IngestedChunk{
			ID:           id,
			DocID:        docID,
			ChunkID:      i,
			ChunkContent: chunkText,
		})
	}
	if err := s.docs.MarkEmbedded(ctx, docID, len(out), modelName); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertVector stores one caller-supplied vector without invoking a
// provider.
func (s *IngestService) InsertVector(ctx context.Context, rec *model.EmbeddingRecord) (int64, error) {
	if rec.DocID == "" {
		return 0, errdefs.New(errdefs.KindConfiguration, "doc id is required")
	}
	if len(rec.Embedding) == 0 {
		return 0, errdefs.New(errdefs.KindConfiguration, "embedding is required")
	}
	return s.store.Insert(ctx, rec)
}
