package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

const kvTable = "kv_store"

type kvRepository struct {
	db *sql.DB
}

// NewKVRepository creates a KVRepository backed by the kv_store table.
func NewKVRepository(db *sql.DB) repository.KVRepository {
	return &kvRepository{db: db}
}

func (r *kvRepository) Get(ctx context.Context, key string) ([]byte, error) {
	log := logger.FromContext(ctx).WithPrefix("kv_repo")

	query, args, err := sqlBuilder.
		Select("value").
		From(kvTable).
		Where(squirrel.Eq{"name": key}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var value []byte
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("key not found: %s", key)
		return nil, repository.ErrNotFound
	}
	if err != nil {
		log.Error("failed to get key %s: %v", key, err)
		return nil, err
	}
	return value, nil
}

func (r *kvRepository) Set(ctx context.Context, key string, value []byte) error {
	log := logger.FromContext(ctx).WithPrefix("kv_repo")
	log.Debug("setting key: %s, bytes=%d", key, len(value))

	if value == nil {
		value = []byte{}
	}
	query, args, err := sqlBuilder.
		Insert(kvTable).
		Columns("name", "value", "updated_at").
		Values(key, value, squirrel.Expr("CURRENT_TIMESTAMP")).
		Suffix("ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to set key %s: %v", key, err)
		return err
	}
	return nil
}

func (r *kvRepository) Remove(ctx context.Context, key string) error {
	log := logger.FromContext(ctx).WithPrefix("kv_repo")
	log.Debug("removing key: %s", key)

	query, args, err := sqlBuilder.
		Delete(kvTable).
		Where(squirrel.Eq{"name": key}).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to remove key %s: %v", key, err)
		return err
	}
	return nil
}

func (r *kvRepository) Keys(ctx context.Context, prefix string) ([]string, error) {
	log := logger.FromContext(ctx).WithPrefix("kv_repo")

	q := sqlBuilder.Select("name").From(kvTable).OrderBy("name")
	if prefix != "" {
		q = q.Where(squirrel.Expr(`name LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%"))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list keys with prefix %q: %v", prefix, err)
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			log.Error("failed to scan key row: %v", err)
			return nil, err
		}
		// LIKE is case-insensitive for ASCII in SQLite.
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	log.Debug("found %d keys with prefix %q", len(keys), prefix)
	return keys, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
