package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/mvector/internal/pkg/errdefs"
)

// SchemaManager owns the DDL lifecycle of the embeddings table and the
// fixed-schema auxiliary tables. Everything here is additive and
// idempotent except RecreateTable, which is an explicit operator action.
type SchemaManager struct {
	db    *sql.DB
	probe *Probe
}

func NewSchemaManager(db *sql.DB, probe *Probe) *SchemaManager {
	return &SchemaManager{db: db, probe: probe}
}

// Columns added after the first schema revision. EnsureSchema backfills
// them on tables created by older releases.
var upgradeColumns = []struct {
	name string
	ddl  string
}{
	{"doc_type", "VARCHAR(64) NOT NULL DEFAULT 'post'"},
	{"model", "VARCHAR(191) NOT NULL DEFAULT ''"},
	{"chunk_index", "INT NOT NULL DEFAULT 0"},
	{"embedding_date", "DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP"},
	{"meta", "LONGTEXT NULL"},
}

func (m *SchemaManager) EnsureSchema(ctx context.Context, dimensions int) error {
	cap := m.probe.Detect(ctx)

	createSQL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		doc_id VARCHAR(191) NOT NULL,
		doc_type VARCHAR(64) NOT NULL DEFAULT 'post',
		model VARCHAR(191) NOT NULL DEFAULT '',
		chunk_index INT NOT NULL DEFAULT 0,
		chunk_text LONGTEXT NOT NULL,
		embedding %s NOT NULL,
		summary LONGTEXT NULL,
		embedding_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		meta LONGTEXT NULL,
		PRIMARY KEY (id),
		INDEX doc_id_idx (doc_id),
		INDEX doc_type_idx (doc_type),
		INDEX model_idx (model)
	) DEFAULT CHARSET=utf8mb4`, EmbeddingsTable, cap.ColumnType(dimensions))
	if _, err := m.db.ExecContext(ctx, createSQL); err != nil {
		return errdefs.Wrap(errdefs.KindStorage, "create embeddings table", err)
	}
	if err := m.addMissingColumns(ctx); err != nil {
		return err
	}
	return m.ensureAuxTables(ctx)
}

func (m *SchemaManager) addMissingColumns(ctx context.Context) error {
	rows, err := m.db.QueryContext(ctx,
		"SELECT column_name FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ?",
		EmbeddingsTable,
	)
	if err != nil {
		return errdefs.Wrap(errdefs.KindStorage, "inspect embeddings table", err)
	}
	defer rows.Close()
	existing := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return errdefs.Wrap(errdefs.KindStorage, "inspect embeddings table", err)
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		return errdefs.Wrap(errdefs.KindStorage, "inspect embeddings table", err)
	}
	for _, col := range upgradeColumns {
		if existing[col.name] {
			continue
		}
		alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", EmbeddingsTable, col.name, col.ddl)
		if _, err := m.db.ExecContext(ctx, alter); err != nil {
			return errdefs.Wrap(errdefs.KindStorage, "add column "+col.name, err)
		}
		logutil.GetLogger(ctx).Info("added embeddings column", zap.String("column", col.name))
	}
	return nil
}

func (m *SchemaManager) ensureAuxTables(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			name VARCHAR(191) NOT NULL,
			value LONGTEXT NOT NULL,
			PRIMARY KEY (name)
		) DEFAULT CHARSET=utf8mb4`, OptionsTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			doc_id VARCHAR(191) NOT NULL,
			doc_type VARCHAR(64) NOT NULL DEFAULT 'post',
			title TEXT NULL,
			content LONGTEXT NOT NULL,
			embedded TINYINT(1) NOT NULL DEFAULT 0,
			chunks_count INT NOT NULL DEFAULT 0,
			embedded_at DATETIME NULL,
			embedded_model VARCHAR(191) NOT NULL DEFAULT '',
			PRIMARY KEY (doc_id)
		) DEFAULT CHARSET=utf8mb4`, DocumentsTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			doc_id VARCHAR(191) NOT NULL,
			provider VARCHAR(64) NOT NULL,
			model VARCHAR(191) NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			scheduled_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			INDEX status_sched_idx (status, scheduled_at)
		) DEFAULT CHARSET=utf8mb4`, QueueTable),
	}
	for _, stmt := range stmts {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return errdefs.Wrap(errdefs.KindStorage, "create auxiliary table", err)
		}
	}
	return nil
}

// AddVectorIndex adds the approximate-nearest-neighbor index. Only the
// MariaDB family has one; callers treat failure as non-fatal (the index
// may exist, or the engine may reject the parameters).
func (m *SchemaManager) AddVectorIndex(ctx context.Context, mValue int, metric Metric) error {
	cap := m.probe.Detect(ctx)
	if cap.Family != FamilyMariaDB || !cap.HasNativeVector {
		return nil
	}
	if mValue <= 0 {
		mValue = 16
	}
	exists, err := m.indexExists(ctx, "embedding_idx")
	if err != nil {
		logutil.GetLogger(ctx).Warn("vector index lookup failed", zap.Error(err))
		return errdefs.Wrap(errdefs.KindStorage, "inspect vector index", err)
	}
	if exists {
		return nil
	}
	alter := fmt.Sprintf("ALTER TABLE %s ADD VECTOR INDEX embedding_idx(embedding) M=%d DISTANCE='%s'",
		EmbeddingsTable, mValue, metric.String())
	if _, err := m.db.ExecContext(ctx, alter); err != nil {
		logutil.GetLogger(ctx).Warn("vector index creation failed", zap.Error(err))
		return errdefs.Wrap(errdefs.KindStorage, "add vector index", err)
	}
	logutil.GetLogger(ctx).Info("vector index created",
		zap.Int("m", mValue), zap.String("distance", metric.String()))
	return nil
}

func (m *SchemaManager) indexExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := m.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.statistics WHERE table_schema = DATABASE() AND table_name = ? AND index_name = ?",
		EmbeddingsTable, name,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Optimize keeps the secondary indexes in place and refreshes engine
// statistics. Best effort on the native MariaDB path, no-op elsewhere.
func (m *SchemaManager) Optimize(ctx context.Context) error {
	cap := m.probe.Detect(ctx)
	if cap.Family != FamilyMariaDB || !cap.HasNativeVector {
		return nil
	}
	for _, stmt := range []string{
		"ANALYZE TABLE " + EmbeddingsTable,
		"OPTIMIZE TABLE " + EmbeddingsTable,
	} {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			logutil.GetLogger(ctx).Warn("table optimize step failed",
				zap.String("stmt", stmt), zap.Error(err))
			return errdefs.Wrap(errdefs.KindStorage, "optimize embeddings table", err)
		}
	}
	return nil
}

// RecreateTable drops and rebuilds the embeddings table. Destructive;
// exposed only behind an explicit admin action.
func (m *SchemaManager) RecreateTable(ctx context.Context, dimensions int) error {
	if _, err := m.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+EmbeddingsTable); err != nil {
		return errdefs.Wrap(errdefs.KindStorage, "drop embeddings table", err)
	}
	m.probe.Refresh()
	return m.EnsureSchema(ctx, dimensions)
}

func (m *SchemaManager) TableExists(ctx context.Context) (bool, error) {
	var count int
	err := m.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?",
		EmbeddingsTable,
	).Scan(&count)
	if err != nil {
		return false, errdefs.Wrap(errdefs.KindStorage, "inspect embeddings table", err)
	}
	return count > 0, nil
}

func (m *SchemaManager) DatabaseVersion(ctx context.Context) string {
	return m.probe.Detect(ctx).VersionString
}
