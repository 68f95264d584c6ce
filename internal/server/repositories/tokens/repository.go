// Package tokens declares and implements persistence of bearer tokens.
package tokens

import (
	"context"

	"github.com/dmitrijs2005/cloudservice/internal/server/models"
)

// Repository stores issued bearer tokens.
type Repository interface {
	// Create stores a new token tuple.
	Create(ctx context.Context, token *models.Token) error

	// Find looks up a token by its opaque value.
	// Implementations return common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.Token, error)

	// Revoke marks the token as revoked. Revoking an unknown or already
	// revoked token is not an error.
	Revoke(ctx context.Context, token string) error
}
