// Package users provides persistence for provisioned user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/cloudservice/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
