package model

import (
	"encoding/json"
	"time"
)

// EmbeddingRecord is one stored chunk of a document together with its
// vector. The embedding length is fixed at table-creation time and must
// match the column's declared dimensionality.
type EmbeddingRecord struct {
	ID            int64           `json:"id"`
	DocID         string          `json:"doc_id"`
	DocType       string          `json:"doc_type"`
	Model         string          `json:"model"`
	ChunkIndex    int             `json:"chunk_index"`
	ChunkText     string          `json:"chunk_text"`
	Embedding     []float32       `json:"embedding"`
	Summary       string          `json:"summary"`
	EmbeddingDate time.Time       `json:"embedding_date"`
	Meta          json.RawMessage `json:"meta,omitempty"`
}

const DefaultDocType = "post"

// SearchResult is one ranked row from a similarity query. Distance is
// cosine distance: 0 is identical, 1 is orthogonal-or-worse.
type SearchResult struct {
	ID           int64   `json:"id" db:"id"`
	DocID        string  `json:"doc_id" db:"doc_id"`
	ChunkIndex   int     `json:"chunk_id" db:"chunk_index"`
	ChunkContent string  `json:"chunk_content" db:"chunk_content"`
	Summary      string  `json:"summary" db:"summary"`
	Distance     float64 `json:"distance" db:"distance"`
}
