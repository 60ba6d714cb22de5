package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/xxxsen/mvector/internal/db"
	"github.com/xxxsen/mvector/internal/model"
	"github.com/xxxsen/mvector/internal/pkg/errdefs"
)

type DocumentRepo struct {
	db *sqlx.DB
}

func NewDocumentRepo(d *sqlx.DB) *DocumentRepo {
	return &DocumentRepo{db: d}
}

func (r *DocumentRepo) Upsert(ctx context.Context, doc *model.Document) error {
	docType := doc.DocType
	if docType == "" {
		docType = model.DefaultDocType
	}
	query := fmt.Sprintf(`INSERT INTO %s (doc_id, doc_type, title, content, embedded, chunks_count)
		VALUES (?, ?, ?, ?, 0, 0)
		ON DUPLICATE KEY UPDATE doc_type = VALUES(doc_type), title = VALUES(title),
			content = VALUES(content), embedded = 0, chunks_count = 0`, db.DocumentsTable)
	if _, err := r.db.ExecContext(ctx, query, doc.DocID, docType, doc.Title, doc.Content); err != nil {
		return errdefs.Wrap(errdefs.KindStorage, "upsert document "+doc.DocID, err)
	}
	return nil
}

// Get returns (nil, nil) when the document does not exist.
func (r *DocumentRepo) Get(ctx context.Context, docID string) (*model.Document, error) {
	query := fmt.Sprintf(`SELECT doc_id, doc_type, COALESCE(title, '') AS title, content,
		embedded, chunks_count, embedded_at, embedded_model
		FROM %s WHERE doc_id = ?`, db.DocumentsTable)
	var doc model.Document
	err := r.db.GetContext(ctx, &doc, query, docID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errdefs.Wrap(errdefs.KindStorage, "read document "+docID, err)
	}
	return &doc, nil
}

// List returns documents without their content bodies.
func (r *DocumentRepo) List(ctx context.Context, limit int, offset int) ([]model.Document, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT doc_id, doc_type, COALESCE(title, '') AS title,
		embedded, chunks_count, embedded_at, embedded_model
		FROM %s ORDER BY doc_id LIMIT ? OFFSET ?`, db.DocumentsTable)
	var docs []model.Document
	if err := r.db.SelectContext(ctx, &docs, query, limit, offset); err != nil {
		return nil, errdefs.Wrap(errdefs.KindStorage, "list documents", err)
	}
	return docs, nil
}

// AllIDs returns every stored document id.
func (r *DocumentRepo) AllIDs(ctx context.Context) ([]string, error) {
	var ids []string
	query := fmt.Sprintf("SELECT doc_id FROM %s ORDER BY doc_id", db.DocumentsTable)
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, errdefs.Wrap(errdefs.KindStorage, "list document ids", err)
	}
	return ids, nil
}

// MarkEmbedded records the ingestion outcome. Zero chunks means the
// document stays marked not-embedded.
func (r *DocumentRepo) MarkEmbedded(ctx context.Context, docID string, chunks int, modelName string) error {
	embedded := 0
	if chunks > 0 {
		embedded = 1
	}
	query := fmt.Sprintf(`UPDATE %s SET embedded = ?, chunks_count = ?, embedded_at = ?, embedded_model = ?
		WHERE doc_id = ?`, db.DocumentsTable)
	if _, err := r.db.ExecContext(ctx, query, embedded, chunks, time.Now(), modelName, docID); err != nil {
		return errdefs.Wrap(errdefs.KindStorage, "mark document "+docID, err)
	}
	return nil
}
