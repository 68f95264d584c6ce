package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cloudservice/internal/common"
	"github.com/dmitrijs2005/cloudservice/internal/dbx"
	"github.com/dmitrijs2005/cloudservice/internal/server/models"
)

// PostgresRepository implements file storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `id, user_id, filename, size_bytes, hash, blob_key, created_at, deleted, deleted_at`

func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	query := `
		INSERT INTO files (user_id, filename, size_bytes, hash, blob_key, created_at, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		file.UserID, file.Filename, file.SizeBytes, file.Hash, file.BlobKey, file.CreatedAt, file.Deleted).Scan(&file.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return file, nil
}

func (r *PostgresRepository) LockActive(ctx context.Context, userID, filename string) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE user_id = $1 AND filename = $2 AND NOT deleted
		FOR UPDATE`

	return r.selectMany(ctx, query, userID, filename)
}

func (r *PostgresRepository) MarkDeleted(ctx context.Context, userID, filename string, at time.Time) (int64, error) {
	query := `UPDATE files SET deleted = TRUE, deleted_at = $3
		WHERE user_id = $1 AND filename = $2 AND NOT deleted`

	return r.exec(ctx, query, userID, filename, at)
}

func (r *PostgresRepository) Rename(ctx context.Context, userID, oldName, newName string) (int64, error) {
	query := `UPDATE files SET filename = $3
		WHERE user_id = $1 AND filename = $2 AND NOT deleted`

	return r.exec(ctx, query, userID, oldName, newName)
}

func (r *PostgresRepository) FindLatestActive(ctx context.Context, userID, filename string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE user_id = $1 AND filename = $2 AND NOT deleted
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, userID, filename))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) ListActive(ctx context.Context, userID string, limit int) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE user_id = $1 AND NOT deleted
		LIMIT $2`

	return r.selectMany(ctx, query, userID, limit)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) selectMany(ctx context.Context, query string, args ...any) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (*models.File, error) {
	var (
		f         models.File
		hash      sql.NullString
		deletedAt sql.NullTime
	)
	if err := s.Scan(&f.ID, &f.UserID, &f.Filename, &f.SizeBytes, &hash, &f.BlobKey, &f.CreatedAt, &f.Deleted, &deletedAt); err != nil {
		return nil, err
	}
	if hash.Valid {
		f.Hash = &hash.String
	}
	if deletedAt.Valid {
		f.DeletedAt = &deletedAt.Time
	}
	return &f, nil
}
