package service

import (
	"context"

	"github.com/xxxsen/mvector/internal/model"
)

// Version is the served metadata version string.
const Version = "1.2.0"

// EmbeddingCounter is the slice of the embedding repo metadata reads.
type EmbeddingCounter interface {
	CountAll(ctx context.Context) (int64, error)
	CountDocs(ctx context.Context) (int64, error)
}

// SchemaInfo is the slice of the schema manager metadata reads.
type SchemaInfo interface {
	TableExists(ctx context.Context) (bool, error)
	DatabaseVersion(ctx context.Context) string
}

// QueueInfo reports undrained queue depth.
type QueueInfo interface {
	Pending(ctx context.Context) (int64, error)
}

// StateReader exposes the provider selection state.
type StateReader interface {
	State(ctx context.Context) (model.ProviderModelState, error)
}

type Metadata struct {
	Version         string `json:"plugin_version"`
	Engine          string `json:"engine"`
	DatabaseVersion string `json:"database_version"`
	HasNativeVector bool   `json:"native_vector_support"`
	FallbackReason  string `json:"fallback_reason,omitempty"`
	TableExists     bool   `json:"table_exists"`
	Dimensions      int    `json:"embedding_dimension"`
	EmbeddingCount  int64  `json:"total_embeddings"`
	DocumentCount   int64  `json:"total_documents"`
	QueuePending    int64  `json:"queue_pending"`
	ActiveProvider  string `json:"active_provider,omitempty"`
	ActiveModel     string `json:"active_model,omitempty"`
	PendingProvider string `json:"pending_provider,omitempty"`
	PendingModel    string `json:"pending_model,omitempty"`
}

type StatusService struct {
	store      EmbeddingCounter
	schema     SchemaInfo
	caps       CapabilitySource
	queue      QueueInfo
	state      StateReader
	dimensions int
}

func NewStatusService(store EmbeddingCounter, schema SchemaInfo, caps CapabilitySource, queue QueueInfo, state StateReader, dimensions int) *StatusService {
	return &StatusService{
		store:      store,
		schema:     schema,
		caps:       caps,
		queue:      queue,
		state:      state,
		dimensions: dimensions,
	}
}

// Metadata assembles the service status snapshot. Counting errors leave
// zeros rather than failing the whole endpoint.
func (s *StatusService) Metadata(ctx context.Context) (*Metadata, error) {
	cap := s.caps.Detect(ctx)
	meta := &Metadata{
		Version:         Version,
		Engine:          cap.Family.String(),
		DatabaseVersion: cap.VersionString,
		HasNativeVector: cap.HasNativeVector,
		FallbackReason:  cap.FallbackReason,
		Dimensions:      s.dimensions,
	}
	exists, err := s.schema.TableExists(ctx)
	if err != nil {
		return nil, err
	}
	meta.TableExists = exists
	if exists {
		if n, err := s.store.CountAll(ctx); err == nil {
			meta.EmbeddingCount = n
		}
		if n, err := s.store.CountDocs(ctx); err == nil {
			meta.DocumentCount = n
		}
	}
	if n, err := s.queue.Pending(ctx); err == nil {
		meta.QueuePending = n
	}
	state, err := s.state.State(ctx)
	if err == nil {
		meta.ActiveProvider = state.ActiveProvider
		meta.ActiveModel = state.ActiveModel
		meta.PendingProvider = state.PendingProvider
		meta.PendingModel = state.PendingModel
	}
	return meta, nil
}
