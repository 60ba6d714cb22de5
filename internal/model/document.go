package model

import "time"

// Document is the content-management side of an ingestion: the text to
// embed plus the document-level bookkeeping written after processing.
type Document struct {
	DocID         string     `json:"doc_id" db:"doc_id"`
	DocType       string     `json:"doc_type" db:"doc_type"`
	Title         string     `json:"title" db:"title"`
	Content       string     `json:"content" db:"content"`
	Embedded      bool       `json:"embedded" db:"embedded"`
	ChunksCount   int        `json:"chunks_count" db:"chunks_count"`
	EmbeddedAt    *time.Time `json:"embedded_at,omitempty" db:"embedded_at"`
	EmbeddedModel string     `json:"embedded_model" db:"embedded_model"`
}
