// Package services contains server-side business logic: token issuing and
// checking, login/logout and the file orchestration on top of the metadata
// catalog and the blob store.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cloudservice/internal/common"
	"github.com/dmitrijs2005/cloudservice/internal/dbx"
	"github.com/dmitrijs2005/cloudservice/internal/logging"
	"github.com/dmitrijs2005/cloudservice/internal/server/models"
	"github.com/dmitrijs2005/cloudservice/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the user does not exist so that both
// failure paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), bcrypt.DefaultCost)

// UserService handles login and logout. Accounts themselves are created by
// the provisioning tool through Register.
type UserService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	tokens      *TokenService
	logger      logging.Logger
}

func NewUserService(tx dbx.Transactor, m repomanager.RepositoryManager, tokens *TokenService, l logging.Logger) *UserService {
	return &UserService{
		tx:          tx,
		repomanager: m,
		tokens:      tokens,
		logger:      l.With("module", "user_service"),
	}
}

// Register stores a new user with a bcrypt hash of password.
func (s *UserService) Register(ctx context.Context, userName string, password []byte) (*models.User, error) {
	if userName == "" || len(password) == 0 {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}

	hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	u, err := s.repomanager.Users(s.tx.Conn()).Create(ctx, &models.User{UserName: userName, PasswordHash: hash})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login checks the credentials and issues a token. Unknown user and wrong
// password both yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, userName, password string) (string, error) {
	user, err := s.repomanager.Users(s.tx.Conn()).GetByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return "", common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return "", common.ErrorInternal
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", common.ErrorUnauthorized
	}

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		s.logger.Error(ctx, "token issue failed", "user_id", user.ID, "error", err)
		return "", common.ErrorInternal
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return token, nil
}

// Logout revokes token.
func (s *UserService) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}
