package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/mvector/internal/ai"
	"github.com/xxxsen/mvector/internal/chunk"
	"github.com/xxxsen/mvector/internal/model"
	"github.com/xxxsen/mvector/internal/pkg/errdefs"
)

type memDocs struct {
	docs   map[string]*model.Document
	marked map[string]int
}

func newMemDocs() *memDocs {
	return &memDocs{docs: map[string]*model.Document{}, marked: map[string]int{}}
}

func (m *memDocs) Upsert(ctx context.Context, doc *model.Document) error {
	m.docs[doc.DocID] = doc
	return nil
}

func (m *memDocs) Get(ctx context.Context, docID string) (*model.Document, error) {
	return m.docs[docID], nil
}

func (m *memDocs) MarkEmbedded(ctx context.Context, docID string, chunks int, modelName string) error {
	m.marked[docID] = chunks
	return nil
}

type memWriter struct {
	records []model.EmbeddingRecord
	deleted []string
	nextID  int64
}

func (m *memWriter) Insert(ctx context.Context, rec *model.EmbeddingRecord) (int64, error) {
	m.nextID++
	m.records = append(m.records, *rec)
	return m.nextID, nil
}

func (m *memWriter) DeleteByDoc(ctx context.Context, docID string) error {
	m.deleted = append(m.deleted, docID)
	var kept []model.EmbeddingRecord
	for _, rec := range m.records {
		if rec.DocID != docID {
			kept = append(kept, rec)
		}
	}
	m.records = kept
	return nil
}

type fakeEmbedder struct {
	failOn map[string]bool
}

func (f *fakeEmbedder) Name() string {
	return "fake"
}

func (f *fakeEmbedder) Embed(ctx context.Context, modelName string, text string) ([]float32, error) {
	if f.failOn[text] {
		return nil, errors.New("embed failed")
	}
	return []float32{1, 0, 0}, nil
}

type fakeProviders struct {
	embedder *fakeEmbedder
}

func (f *fakeProviders) ActiveEmbedder(ctx context.Context) (ai.IEmbedProvider, string, error) {
	return f.embedder, "fake-model", nil
}

func (f *fakeProviders) EmbedderFor(name string) (ai.IEmbedProvider, error) {
	return f.embedder, nil
}

func newTestIngest(embedder *fakeEmbedder) (*IngestService, *memDocs, *memWriter) {
	docs := newMemDocs()
	writer := &memWriter{}
	svc := NewIngestService(docs, writer, &fakeProviders{embedder: embedder}, chunk.NewSplitter(1))
	return svc, docs, writer
}

func TestProcessItem_AllChunksStored(t *testing.T) {
	svc, docs, writer := newTestIngest(&fakeEmbedder{})
	ctx := context.Background()
	require.NoError(t, docs.Upsert(ctx, &model.Document{DocID: "d1", Content: "aaa\n\nbbb\n\nccc"}))

	require.NoError(t, svc.ProcessItem(ctx, model.QueueItem{DocID: "d1"}))
	require.Len(t, writer.records, 3)
	require.Equal(t, 3, docs.marked["d1"])
	require.Equal(t, "fake-model", writer.records[0].Model)
	require.Equal(t, 0, writer.records[0].ChunkIndex)
	require.Equal(t, 2, writer.records[2].ChunkIndex)
}

func TestProcessItem_FailedChunkSkipped(t *testing.T) {
	svc, docs, writer := newTestIngest(&fakeEmbedder{failOn: map[string]bool{"bbb": true}})
	ctx := context.Background()
	require.NoError(t, docs.Upsert(ctx, &model.Document{DocID: "d1", Content: "aaa\n\nbbb\n\nccc"}))

	require.NoError(t, svc.ProcessItem(ctx, model.QueueItem{DocID: "d1"}))
	require.Len(t, writer.records, 2)
	require.Equal(t, 2, docs.marked["d1"])
}

func TestProcessItem_MissingDocumentIsNotAnError(t *testing.T) {
	svc, _, writer := newTestIngest(&fakeEmbedder{})
	require.NoError(t, svc.ProcessItem(context.Background(), model.QueueItem{DocID: "ghost"}))
	require.Empty(t, writer.records)
}

func TestProcessItem_EmptyContentMarksZeroChunks(t *testing.T) {
	svc, docs, writer := newTestIngest(&fakeEmbedder{})
	ctx := context.Background()
	require.NoError(t, docs.Upsert(ctx, &model.Document{DocID: "d1", Content: "   "}))

	require.NoError(t, svc.ProcessItem(ctx, model.QueueItem{DocID: "d1"}))
	require.Empty(t, writer.records)
	require.Equal(t, 0, docs.marked["d1"])
}

func TestProcessItem_ReingestReplacesOldChunks(t *testing.T) {
	svc, docs, writer := newTestIngest(&fakeEmbedder{})
	ctx := context.Background()
	require.NoError(t, docs.Upsert(ctx, &model.Document{DocID: "d1", Content: "aaa\n\nbbb"}))
	require.NoError(t, svc.ProcessItem(ctx, model.QueueItem{DocID: "d1"}))

	require.NoError(t, docs.Upsert(ctx, &model.Document{DocID: "d1", Content: "xxx"}))
	require.NoError(t, svc.ProcessItem(ctx, model.QueueItem{DocID: "d1"}))

	require.Len(t, writer.records, 1)
	require.Equal(t, "xxx", writer.records[0].ChunkText)
}

func TestIngestText_ReturnsStoredChunks(t *testing.T) {
	svc, docs, _ := newTestIngest(&fakeEmbedder{})
	chunks, err := svc.IngestText(context.Background(), "d1", "post", "title", "aaa\n\nbbb")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	require.Equal(t, "d1", chunks[0].DocID)
	require.Equal(t, 0, chunks[0].ChunkID)
	require.Equal(t, "aaa", chunks[0].ChunkContent)
	require.Equal(t, 2, docs.marked["d1"])
}

func TestIngestText_FailuresAreStrict(t *testing.T) {
	svc, _, writer := newTestIngest(&fakeEmbedder{failOn: map[string]bool{"bbb": true}})
	_, err := svc.IngestText(context.Background(), "d1", "", "", "aaa\n\nbbb")
	require.Error(t, err)
	require.Less(t, len(writer.records), 2)
}

func TestIngestText_EmptyContentIsDegenerate(t *testing.T) {
	svc, _, _ := newTestIngest(&fakeEmbedder{})
	_, err := svc.IngestText(context.Background(), "d1", "", "", "   ")
	require.Error(t, err)
	require.True(t, errdefs.IsChunkingDegenerate(err))
}

func TestInsertVector_Validation(t *testing.T) {
	svc, _, writer := newTestIngest(&fakeEmbedder{})
	ctx := context.Background()
	_, err := svc.InsertVector(ctx, &model.EmbeddingRecord{Embedding: []float32{1}})
	require.Error(t, err)
	_, err = svc.InsertVector(ctx, &model.EmbeddingRecord{DocID: "d1"})
	require.Error(t, err)

	id, err := svc.InsertVector(ctx, &model.EmbeddingRecord{DocID: "d1", Embedding: []float32{1}})
	require.NoError(t, err)
	require.Equal(t, int64(1), id)
	require.Len(t, writer.records, 1)
}
