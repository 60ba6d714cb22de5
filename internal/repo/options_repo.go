package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/xxxsen/mvector/internal/db"
	"github.com/xxxsen/mvector/internal/pkg/errdefs"
)

// OptionsRepo is a small name/value store backed by the options table.
// It carries the provider migration state and the fallback queue.
type OptionsRepo struct {
	db *sqlx.DB
}

func NewOptionsRepo(d *sqlx.DB) *OptionsRepo {
	return &OptionsRepo{db: d}
}

// Get returns ("", nil) for a missing name.
func (r *OptionsRepo) Get(ctx context.Context, name string) (string, error) {
	where := map[string]interface{}{
		"name": name,
	}
	sqlStr, args, err := builder.BuildSelect(db.OptionsTable, where, []string{"value"})
	if err != nil {
		return "", err
	}
	var value string
	if err := r.db.GetContext(ctx, &value, sqlStr, args...); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", errdefs.Wrap(errdefs.KindStorage, "read option "+name, err)
	}
	return value, nil
}

func (r *OptionsRepo) Set(ctx context.Context, name string, value string) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (name, value) VALUES (?, ?) ON DUPLICATE KEY UPDATE value = VALUES(value)",
		db.OptionsTable,
	)
	if _, err := r.db.ExecContext(ctx, query, name, value); err != nil {
		return errdefs.Wrap(errdefs.KindStorage, "write option "+name, err)
	}
	return nil
}

func (r *OptionsRepo) Delete(ctx context.Context, name string) error {
	where := map[string]interface{}{
		"name": name,
	}
	sqlStr, args, err := builder.BuildDelete(db.OptionsTable, where)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return errdefs.Wrap(errdefs.KindStorage, "delete option "+name, err)
	}
	return nil
}

// GetJSON decodes the stored value into dst; a missing name leaves dst
// untouched and returns found=false.
func (r *OptionsRepo) GetJSON(ctx context.Context, name string, dst interface{}) (bool, error) {
	value, err := r.Get(ctx, name)
	if err != nil {
		return false, err
	}
	if value == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(value), dst); err != nil {
		return false, errdefs.Wrap(errdefs.KindStorage, "decode option "+name, err)
	}
	return true, nil
}

func (r *OptionsRepo) SetJSON(ctx context.Context, name string, v interface{}) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.Set(ctx, name, string(buf))
}
