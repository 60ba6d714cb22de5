package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/xxxsen/mvector/internal/db"
	"github.com/xxxsen/mvector/internal/model"
	"github.com/xxxsen/mvector/internal/pkg/errdefs"
)

// EmbeddingRepo persists chunk embeddings. The write and search paths
// branch on the capability probe at call time: native engines store the
// vector column through the dialect constructor, fallback engines store
// the JSON form in a text column.
type EmbeddingRepo struct {
	db    *sqlx.DB
	probe *db.Probe
}

func NewEmbeddingRepo(d *sqlx.DB, probe *db.Probe) *EmbeddingRepo {
	return &EmbeddingRepo{db: d, probe: probe}
}

func (r *EmbeddingRepo) Insert(ctx context.Context, rec *model.EmbeddingRecord) (int64, error) {
	cap := r.probe.Detect(ctx)
	docType := rec.DocType
	if docType == "" {
		docType = model.DefaultDocType
	}
	vecJSON, err := db.VectorJSON(rec.Embedding)
	if err != nil {
		return 0, err
	}
	meta := rec.Meta
	if len(meta) == 0 {
		meta = json.RawMessage("{}")
	}

	if cap.HasNativeVector {
		// The vector constructor wraps a literal, so that one value is
		// interpolated; VectorJSON guarantees its alphabet. Everything else
		// stays parameter bound.
		query := fmt.Sprintf(
			"INSERT INTO %s (doc_id, doc_type, model, chunk_index, chunk_text, embedding, summary, meta) VALUES (?, ?, ?, ?, ?, %s, ?, ?)",
			db.EmbeddingsTable, cap.Family.VectorLiteral(vecJSON),
		)
		res, err := r.db.ExecContext(ctx, query,
			rec.DocID, docType, rec.Model, rec.ChunkIndex, rec.ChunkText, rec.Summary, string(meta))
		if err != nil {
			return 0, errdefs.Wrap(errdefs.KindStorage, "insert embedding", err)
		}
		return res.LastInsertId()
	}

	data := map[string]interface{}{
		"doc_id":      rec.DocID,
		"doc_type":    docType,
		"model":       rec.Model,
		"chunk_index": rec.ChunkIndex,
		"chunk_text":  rec.ChunkText,
		"embedding":   vecJSON,
		"summary":     rec.Summary,
		"meta":        string(meta),
	}
	sqlStr, args, err := builder.BuildInsert(db.EmbeddingsTable, []map[string]interface{}{data})
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, errdefs.Wrap(errdefs.KindStorage, "insert embedding", err)
	}
	return res.LastInsertId()
}

func (r *EmbeddingRepo) DeleteByDoc(ctx context.Context, docID string) error {
	where := map[string]interface{}{
		"doc_id": docID,
	}
	sqlStr, args, err := builder.BuildDelete(db.EmbeddingsTable, where)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return errdefs.Wrap(errdefs.KindStorage, "delete embeddings for "+docID, err)
	}
	return nil
}

func (r *EmbeddingRepo) Truncate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "TRUNCATE TABLE "+db.EmbeddingsTable); err != nil {
		return errdefs.Wrap(errdefs.KindStorage, "truncate embeddings", err)
	}
	return nil
}

func (r *EmbeddingRepo) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM "+db.EmbeddingsTable); err != nil {
		return 0, errdefs.Wrap(errdefs.KindStorage, "count embeddings", err)
	}
	return count, nil
}

func (r *EmbeddingRepo) CountDocs(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(DISTINCT doc_id) FROM "+db.EmbeddingsTable); err != nil {
		return 0, errdefs.Wrap(errdefs.KindStorage, "count embedded documents", err)
	}
	return count, nil
}

// FallbackRow is one scanned row on the non-native path, embedding
// already decoded from its JSON form.
type FallbackRow struct {
	ID           int64
	DocID        string
	ChunkIndex   int
	ChunkContent string
	Summary      string
	Embedding    []float32
}

// rawEmbeddingRow is the database shape of a fallback scan, before the
// embedding text is decoded.
type rawEmbeddingRow struct {
	ID           int64  `db:"id"`
	DocID        string `db:"doc_id"`
	ChunkIndex   int    `db:"chunk_index"`
	ChunkContent string `db:"chunk_content"`
	Summary      string `db:"summary"`
	Embedding    []byte `db:"embedding"`
}

// ScanAll streams every stored embedding through fn, stopping on the
// first error fn returns. Only usable when embeddings are stored as
// text; the native column does not round-trip through this query.
func (r *EmbeddingRepo) ScanAll(ctx context.Context, fn func(row FallbackRow) error) error {
	query := fmt.Sprintf(
		"SELECT id, doc_id, chunk_index, chunk_text AS chunk_content, COALESCE(summary, '') AS summary, embedding FROM %s",
		db.EmbeddingsTable,
	)
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return errdefs.Wrap(errdefs.KindStorage, "scan embeddings", err)
	}
	defer rows.Close()
	for rows.Next() {
		var raw rawEmbeddingRow
		if err := rows.StructScan(&raw); err != nil {
			return errdefs.Wrap(errdefs.KindStorage, "scan embeddings", err)
		}
		row := FallbackRow{
			ID:           raw.ID,
			DocID:        raw.DocID,
			ChunkIndex:   raw.ChunkIndex,
			ChunkContent: raw.ChunkContent,
			Summary:      raw.Summary,
		}
		if err := json.Unmarshal(raw.Embedding, &row.Embedding); err != nil {
			// Rows written before a schema migration may hold junk; skip
			// instead of failing the whole search.
			continue
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

// SearchNative runs the ordered distance query inside the engine.
func (r *EmbeddingRepo) SearchNative(ctx context.Context, vec []float32, k int) ([]model.SearchResult, error) {
	cap := r.probe.Detect(ctx)
	vecJSON, err := db.VectorJSON(vec)
	if err != nil {
		return nil, err
	}
	distance := cap.Family.DistanceExpr("embedding", cap.Family.VectorLiteral(vecJSON), db.MetricCosine)
	query := fmt.Sprintf(
		"SELECT id, doc_id, chunk_index, chunk_text AS chunk_content, COALESCE(summary, '') AS summary, %s AS distance FROM %s ORDER BY distance ASC LIMIT ?",
		distance, db.EmbeddingsTable,
	)
	var results []model.SearchResult
	if err := r.db.SelectContext(ctx, &results, query, k); err != nil {
		return nil, errdefs.Wrap(errdefs.KindStorage, "vector search", err)
	}
	return results, nil
}

// DocIDs returns the distinct document ids currently embedded, for bulk
// re-embedding.
func (r *EmbeddingRepo) DocIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT DISTINCT doc_id FROM "+db.EmbeddingsTable); err != nil {
		return nil, errdefs.Wrap(errdefs.KindStorage, "list embedded documents", err)
	}
	return ids, nil
}
