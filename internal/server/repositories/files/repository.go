// Package files persists file metadata records (the catalog). Rows are
// scoped by owner and soft-deleted; nothing here ever touches blob bytes.
package files

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cloudservice/internal/server/models"
)

type Repository interface {
	// Create inserts a record and fills in its ID.
	Create(ctx context.Context, file *models.File) (*models.File, error)

	// LockActive returns all active records of (userID, filename) and, inside
	// a transaction, locks them until commit.
	LockActive(ctx context.Context, userID, filename string) ([]*models.File, error)

	// MarkDeleted soft-deletes all active records of (userID, filename) and
	// returns how many were affected.
	MarkDeleted(ctx context.Context, userID, filename string, at time.Time) (int64, error)

	// Rename changes the filename of all active records of (userID, oldName).
	Rename(ctx context.Context, userID, oldName, newName string) (int64, error)

	// FindLatestActive returns the most recently created active record, or
	// common.ErrorNotFound.
	FindLatestActive(ctx context.Context, userID, filename string) (*models.File, error)

	// ListActive returns at most limit active records of userID.
	ListActive(ctx context.Context, userID string, limit int) ([]*models.File, error)
}
