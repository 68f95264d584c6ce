package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/cloudservice/internal/dbx"
	"github.com/dmitrijs2005/cloudservice/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	orig := readPassword
	i := 0
	readPassword = func(int) ([]byte, error) {
		if i >= len(answers) {
			return nil, errors.New("no more input")
		}
		a := answers[i]
		i++
		return []byte(a), nil
	}
	t.Cleanup(func() { readPassword = orig })
}

func stubStore(t *testing.T) *repomanager.MemoryRepositoryManager {
	t.Helper()
	rm := repomanager.NewMemoryRepositoryManager()
	orig := openStore
	openStore = func(context.Context, string) (dbx.Transactor, repomanager.RepositoryManager, func(), error) {
		return dbx.NopTransactor{}, rm, func() {}, nil
	}
	t.Cleanup(func() { openStore = orig })
	return rm
}

func TestRun_CreatesUser(t *testing.T) {
	stubPasswords(t, "s3cret", "s3cret")
	rm := stubStore(t)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-d", "postgres://x", "-u", "alice"}, &out))
	assert.Contains(t, out.String(), "created user alice")

	u, err := rm.UsersRepo.GetByLogin(context.Background(), "alice")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword(u.PasswordHash, []byte("s3cret")))
}

func TestRun_Errors(t *testing.T) {
	stubStore(t)

	t.Run("missing user", func(t *testing.T) {
		err := run(context.Background(), []string{"-d", "postgres://x"}, &bytes.Buffer{})
		assert.Error(t, err)
	})

	t.Run("mismatch", func(t *testing.T) {
		stubPasswords(t, "a", "b")
		err := run(context.Background(), []string{"-d", "postgres://x", "-u", "bob"}, &bytes.Buffer{})
		assert.EqualError(t, err, "passwords do not match")
	})

	t.Run("store fails", func(t *testing.T) {
		stubPasswords(t, "a", "a")
		orig := openStore
		openStore = func(context.Context, string) (dbx.Transactor, repomanager.RepositoryManager, func(), error) {
			return nil, nil, nil, errors.New("refused")
		}
		t.Cleanup(func() { openStore = orig })

		err := run(context.Background(), []string{"-d", "postgres://x", "-u", "bob"}, &bytes.Buffer{})
		assert.ErrorContains(t, err, "refused")
	})
}
