package services

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/cloudservice/internal/dbx"
	"github.com/dmitrijs2005/cloudservice/internal/logging"
	blobmemory "github.com/dmitrijs2005/cloudservice/internal/server/blobstore/memory"
	"github.com/dmitrijs2005/cloudservice/internal/server/models"
	"github.com/dmitrijs2005/cloudservice/internal/server/repositories/files"
	"github.com/dmitrijs2005/cloudservice/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cloudservice/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/cloudservice/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// env wires the services over memory repositories and a memory blob store.
type env struct {
	rm     *repomanager.MemoryRepositoryManager
	blobs  *blobmemory.Store
	tokens *TokenService
	users  *UserService
	files  *FileService
	clock  *fakeClock
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newEnv(t *testing.T) *env {
	t.Helper()
	rm := repomanager.NewMemoryRepositoryManager()
	blobs := blobmemory.New()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}

	ts := NewTokenService(dbx.NopTransactor{}, rm, time.Hour, logging.Nop{})
	ts.now = clock.Now
	fs := NewFileService(dbx.NopTransactor{}, rm, blobs, logging.Nop{})
	fs.now = clock.Now

	return &env{
		rm:     rm,
		blobs:  blobs,
		tokens: ts,
		users:  NewUserService(dbx.NopTransactor{}, rm, ts, logging.Nop{}),
		files:  fs,
		clock:  clock,
	}
}

func (e *env) addUser(t *testing.T, name, password string) *models.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), name, []byte(password))
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return u
}

// --- fakes for failure paths ---

type fakeUsersRepo struct {
	getOut *models.User
	getErr error
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	return u, nil
}
func (f *fakeUsersRepo) GetByLogin(context.Context, string) (*models.User, error) {
	return f.getOut, f.getErr
}
func (f *fakeUsersRepo) GetByID(context.Context, string) (*models.User, error) {
	return f.getOut, f.getErr
}

type fakeTokensRepo struct {
	createErr error
	findOut   *models.Token
	findErr   error
	revokeErr error
	finds     int
}

func (f *fakeTokensRepo) Create(context.Context, *models.Token) error { return f.createErr }
func (f *fakeTokensRepo) Find(context.Context, string) (*models.Token, error) {
	f.finds++
	return f.findOut, f.findErr
}
func (f *fakeTokensRepo) Revoke(context.Context, string) error { return f.revokeErr }

type fakeFilesRepo struct {
	createErr error
	lockOut   []*models.File
	lockErr   error
	markErr   error
	renameErr error
	latestOut *models.File
	latestErr error
	listErr   error

	marked     bool
	renamed    bool
}

func (f *fakeFilesRepo) Create(_ context.Context, file *models.File) (*models.File, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return file, nil
}
func (f *fakeFilesRepo) LockActive(context.Context, string, string) ([]*models.File, error) {
	return f.lockOut, f.lockErr
}
func (f *fakeFilesRepo) MarkDeleted(context.Context, string, string, time.Time) (int64, error) {
	f.marked = true
	return int64(len(f.lockOut)), f.markErr
}
func (f *fakeFilesRepo) Rename(context.Context, string, string, string) (int64, error) {
	f.renamed = true
	return int64(len(f.lockOut)), f.renameErr
}
func (f *fakeFilesRepo) FindLatestActive(context.Context, string, string) (*models.File, error) {
	return f.latestOut, f.latestErr
}
func (f *fakeFilesRepo) ListActive(context.Context, string, int) ([]*models.File, error) {
	return nil, f.listErr
}

type fakeRepoManager struct {
	u users.Repository
	t tokens.Repository
	f *fakeFilesRepo

	filesDBTX []dbx.DBTX
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.u }
func (m *fakeRepoManager) Tokens(dbx.DBTX) tokens.Repository            { return m.t }
func (m *fakeRepoManager) Files(db dbx.DBTX) files.Repository {
	m.filesDBTX = append(m.filesDBTX, db)
	return m.f
}

type fakeBlobs struct {
	putErr error
	getErr error
	puts   int
}

func (b *fakeBlobs) Put(_ context.Context, _ string, r io.Reader, _ int64, _ string) error {
	b.puts++
	if b.putErr != nil {
		return b.putErr
	}
	_, err := io.Copy(io.Discard, r)
	return err
}

func (b *fakeBlobs) Get(context.Context, string) (io.ReadCloser, error) {
	if b.getErr != nil {
		return nil, b.getErr
	}
	return io.NopCloser(strings.NewReader("")), nil
}
