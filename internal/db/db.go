package db

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/xxxsen/mvector/internal/config"
)

// Table names owned by this module.
const (
	EmbeddingsTable = "mvector_embeddings"
	OptionsTable    = "mvector_options"
	DocumentsTable  = "mvector_documents"
	QueueTable      = "mvector_queue"
)

func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)
	}
	dbx, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := dbx.Ping(); err != nil {
		return nil, err
	}
	return dbx, nil
}
