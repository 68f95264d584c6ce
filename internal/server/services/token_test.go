package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/cloudservice/internal/common"
	"github.com/dmitrijs2005/cloudservice/internal/dbx"
	"github.com/dmitrijs2005/cloudservice/internal/logging"
	"github.com/dmitrijs2005/cloudservice/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueValidateResolve(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.addUser(t, "alice", "pw")

	tok, err := e.tokens.Issue(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, tok, 2*tokenSize)
	assert.True(t, e.tokens.Validate(ctx, tok))

	owner, err := e.tokens.ResolveOwner(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, owner)

	other, err := e.tokens.Issue(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, tok, other)
}

func TestTokenService_Issue_UnknownOwner(t *testing.T) {
	e := newEnv(t)

	_, err := e.tokens.Issue(context.Background(), "nobody")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestTokenService_Expiry(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.addUser(t, "alice", "pw")

	tok, err := e.tokens.Issue(ctx, u.ID)
	require.NoError(t, err)

	e.clock.Advance(time.Hour - time.Second)
	assert.True(t, e.tokens.Validate(ctx, tok))

	e.clock.Advance(2 * time.Second)
	assert.False(t, e.tokens.Validate(ctx, tok))

	// the owner can still be resolved for an expired token
	owner, err := e.tokens.ResolveOwner(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, owner)
}

func TestTokenService_Revoke(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.addUser(t, "alice", "pw")

	tok, err := e.tokens.Issue(ctx, u.ID)
	require.NoError(t, err)

	require.NoError(t, e.tokens.Revoke(ctx, tok))
	assert.False(t, e.tokens.Validate(ctx, tok))

	// idempotent, unknown tokens included
	require.NoError(t, e.tokens.Revoke(ctx, tok))
	require.NoError(t, e.tokens.Revoke(ctx, "unknown"))
}

func TestTokenService_UnknownToken(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	assert.False(t, e.tokens.Validate(ctx, "deadbeef"))
	_, err := e.tokens.ResolveOwner(ctx, "deadbeef")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestTokenService_FailuresWithFakes(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: "u1"}

	t.Run("owner lookup error", func(t *testing.T) {
		rm := &fakeRepoManager{u: &fakeUsersRepo{getErr: errBoom{}}, t: &fakeTokensRepo{}}
		s := NewTokenService(dbx.NopTransactor{}, rm, time.Hour, logging.Nop{})

		_, err := s.Issue(ctx, "u1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errBoom{}))
		assert.False(t, errors.Is(err, common.ErrorNotFound))
	})

	t.Run("create error", func(t *testing.T) {
		rm := &fakeRepoManager{u: &fakeUsersRepo{getOut: user}, t: &fakeTokensRepo{createErr: errBoom{}}}
		s := NewTokenService(dbx.NopTransactor{}, rm, time.Hour, logging.Nop{})

		_, err := s.Issue(ctx, "u1")
		assert.ErrorIs(t, err, errBoom{})
	})

	t.Run("validate fails closed", func(t *testing.T) {
		tr := &fakeTokensRepo{findErr: errBoom{}}
		rm := &fakeRepoManager{t: tr}
		s := NewTokenService(dbx.NopTransactor{}, rm, time.Hour, logging.Nop{})

		assert.False(t, s.Validate(ctx, "x"))
		assert.False(t, s.Validate(ctx, "x"))
		assert.Equal(t, 2, tr.finds, "every call must reach the repository")
	})

	t.Run("revoke error", func(t *testing.T) {
		rm := &fakeRepoManager{t: &fakeTokensRepo{revokeErr: errBoom{}}}
		s := NewTokenService(dbx.NopTransactor{}, rm, time.Hour, logging.Nop{})

		assert.ErrorIs(t, s.Revoke(ctx, "x"), errBoom{})
	})

	t.Run("revoked token", func(t *testing.T) {
		now := time.Now()
		tr := &fakeTokensRepo{findOut: &models.Token{UserID: "u1", ExpiresAt: now.Add(time.Hour), Revoked: true}}
		s := NewTokenService(dbx.NopTransactor{}, &fakeRepoManager{t: tr}, time.Hour, logging.Nop{})
		s.now = func() time.Time { return now }

		assert.False(t, s.Validate(ctx, "x"))
	})
}
