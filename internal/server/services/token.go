package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cloudservice/internal/common"
	"github.com/dmitrijs2005/cloudservice/internal/dbx"
	"github.com/dmitrijs2005/cloudservice/internal/logging"
	"github.com/dmitrijs2005/cloudservice/internal/server/models"
	"github.com/dmitrijs2005/cloudservice/internal/server/repositories/repomanager"
)

// tokenSize is the number of random bytes in a token; the hex string is
// twice as long.
const tokenSize = 32

// TokenService issues, checks and revokes opaque bearer tokens. Every call
// reads the tokens table; there is no in-process cache, so a revocation is
// visible to the very next request.
type TokenService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	validity    time.Duration
	logger      logging.Logger
	now         func() time.Time
}

func NewTokenService(tx dbx.Transactor, m repomanager.RepositoryManager, validity time.Duration, l logging.Logger) *TokenService {
	return &TokenService{
		tx:          tx,
		repomanager: m,
		validity:    validity,
		logger:      l.With("module", "token_service"),
		now:         time.Now,
	}
}

// Issue creates a token for an existing owner.
func (s *TokenService) Issue(ctx context.Context, ownerID string) (string, error) {
	if _, err := s.repomanager.Users(s.tx.Conn()).GetByID(ctx, ownerID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("error looking up owner: %w", err)
	}

	value, err := common.MakeRandHexString(tokenSize)
	if err != nil {
		return "", fmt.Errorf("error generating token: %w", err)
	}

	now := s.now()
	token := &models.Token{
		Token:     value,
		UserID:    ownerID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.validity),
	}
	if err := s.repomanager.Tokens(s.tx.Conn()).Create(ctx, token); err != nil {
		return "", fmt.Errorf("error saving token: %w", err)
	}

	return value, nil
}

// Validate reports whether token exists, is not revoked and has not expired.
// Lookup failures are logged and treated as invalid.
func (s *TokenService) Validate(ctx context.Context, token string) bool {
	t, err := s.repomanager.Tokens(s.tx.Conn()).Find(ctx, token)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "token lookup failed", "error", err)
		}
		return false
	}
	return t.ValidAt(s.now())
}

// ResolveOwner returns the owner of token regardless of its validity.
func (s *TokenService) ResolveOwner(ctx context.Context, token string) (string, error) {
	t, err := s.repomanager.Tokens(s.tx.Conn()).Find(ctx, token)
	if err != nil {
		return "", err
	}
	return t.UserID, nil
}

// Revoke invalidates token. Unknown tokens are ignored.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	if err := s.repomanager.Tokens(s.tx.Conn()).Revoke(ctx, token); err != nil {
		return fmt.Errorf("error revoking token: %w", err)
	}
	return nil
}
