// Package memory provides mutex-guarded in-memory implementations of the
// repositories. They back the "memory" mode of the server and most service
// and HTTP tests. Row locking is a no-op: a single mutex serialises writers.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/cloudservice/internal/common"
	"github.com/dmitrijs2005/cloudservice/internal/server/models"
	"github.com/google/uuid"
)

type UsersRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func NewUsersRepository() *UsersRepository {
	return &UsersRepository{users: make(map[string]*models.User)}
}

func (r *UsersRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.UserName == user.UserName {
			return nil, common.ErrorValidation
		}
	}
	u := *user
	u.ID = uuid.New().String()
	u.CreatedAt = time.Now()
	r.users[u.ID] = &u

	out := u
	return &out, nil
}

func (r *UsersRepository) GetByLogin(_ context.Context, login string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.UserName == login {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *UsersRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

type TokensRepository struct {
	mu     sync.RWMutex
	tokens map[string]models.Token
}

func NewTokensRepository() *TokensRepository {
	return &TokensRepository{tokens: make(map[string]models.Token)}
}

func (r *TokensRepository) Create(_ context.Context, token *models.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[token.Token]; ok {
		return common.ErrorValidation
	}
	r.tokens[token.Token] = *token
	return nil
}

func (r *TokensRepository) Find(_ context.Context, token string) (*models.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *TokensRepository) Revoke(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.tokens[token]; ok {
		t.Revoked = true
		r.tokens[token] = t
	}
	return nil
}

type FilesRepository struct {
	mu     sync.RWMutex
	nextID int64
	files  []*models.File
}

func NewFilesRepository() *FilesRepository {
	return &FilesRepository{}
}

func (r *FilesRepository) Create(_ context.Context, file *models.File) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range r.files {
		if f.BlobKey == file.BlobKey {
			return nil, common.ErrorValidation
		}
	}
	r.nextID++
	file.ID = r.nextID
	stored := *file
	r.files = append(r.files, &stored)
	return file, nil
}

func (r *FilesRepository) LockActive(_ context.Context, userID, filename string) ([]*models.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.active(userID, filename), nil
}

func (r *FilesRepository) MarkDeleted(_ context.Context, userID, filename string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, f := range r.files {
		if f.UserID == userID && f.Filename == filename && !f.Deleted {
			deletedAt := at
			f.Deleted = true
			f.DeletedAt = &deletedAt
			n++
		}
	}
	return n, nil
}

func (r *FilesRepository) Rename(_ context.Context, userID, oldName, newName string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, f := range r.files {
		if f.UserID == userID && f.Filename == oldName && !f.Deleted {
			f.Filename = newName
			n++
		}
	}
	return n, nil
}

func (r *FilesRepository) FindLatestActive(_ context.Context, userID, filename string) (*models.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	found := r.active(userID, filename)
	if len(found) == 0 {
		return nil, common.ErrorNotFound
	}
	sort.Slice(found, func(i, j int) bool {
		if !found[i].CreatedAt.Equal(found[j].CreatedAt) {
			return found[i].CreatedAt.After(found[j].CreatedAt)
		}
		return found[i].ID > found[j].ID
	})
	return found[0], nil
}

func (r *FilesRepository) ListActive(_ context.Context, userID string, limit int) ([]*models.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.File
	for _, f := range r.files {
		if len(result) >= limit {
			break
		}
		if f.UserID == userID && !f.Deleted {
			c := *f
			result = append(result, &c)
		}
	}
	return result, nil
}

// All returns copies of every record, deleted ones included.
func (r *FilesRepository) All() []models.File {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.File, 0, len(r.files))
	for _, f := range r.files {
		out = append(out, *f)
	}
	return out
}

// active returns copies; callers must hold r.mu.
func (r *FilesRepository) active(userID, filename string) []*models.File {
	var result []*models.File
	for _, f := range r.files {
		if f.UserID == userID && f.Filename == filename && !f.Deleted {
			c := *f
			result = append(result, &c)
		}
	}
	return result
}
