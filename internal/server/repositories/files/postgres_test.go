package files

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/cloudservice/internal/common"
	"github.com/dmitrijs2005/cloudservice/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var columns = []string{"id", "user_id", "filename", "size_bytes", "hash", "blob_key", "created_at", "deleted", "deleted_at"}

const (
	insertQ   = `(?s)^\s*INSERT\s+INTO\s+files\s*\(user_id,\s*filename,\s*size_bytes,\s*hash,\s*blob_key,\s*created_at,\s*deleted\).*RETURNING\s+id\s*$`
	lockQ     = `(?s)SELECT .* FROM files\s+WHERE user_id = \$1 AND filename = \$2 AND NOT deleted\s+FOR UPDATE`
	deleteQ   = `(?s)UPDATE files SET deleted = TRUE, deleted_at = \$3\s+WHERE user_id = \$1 AND filename = \$2 AND NOT deleted`
	renameQ   = `(?s)UPDATE files SET filename = \$3\s+WHERE user_id = \$1 AND filename = \$2 AND NOT deleted`
	latestQ   = `(?s)SELECT .* FROM files\s+WHERE user_id = \$1 AND filename = \$2 AND NOT deleted\s+ORDER BY created_at DESC, id DESC\s+LIMIT 1`
	listQ     = `(?s)SELECT .* FROM files\s+WHERE user_id = \$1 AND NOT deleted\s+LIMIT \$2`
	createdAt = "2025-02-01T10:00:00Z"
)

func ts(t *testing.T) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	hash := "h1"
	mock.ExpectQuery(insertQ).
		WithArgs("u1", "a.txt", int64(5), "h1", "k1", ts(t), false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	got, err := repo.Create(context.Background(), &models.File{
		UserID: "u1", Filename: "a.txt", SizeBytes: 5, Hash: &hash, BlobKey: "k1", CreatedAt: ts(t),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 7 {
		t.Fatalf("want id 7, got %d", got.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_NilHashAndDBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("u1", "a.txt", int64(5), nil, "k1", ts(t), false).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.File{
		UserID: "u1", Filename: "a.txt", SizeBytes: 5, BlobKey: "k1", CreatedAt: ts(t),
	})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestLockActive(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	deletedAt := ts(t).Add(time.Hour)
	rows := sqlmock.NewRows(columns).
		AddRow(int64(1), "u1", "a.txt", int64(5), "h1", "k1", ts(t), false, nil).
		AddRow(int64(2), "u1", "a.txt", int64(6), nil, "k2", ts(t), false, deletedAt)
	mock.ExpectQuery(lockQ).WithArgs("u1", "a.txt").WillReturnRows(rows)

	got, err := repo.LockActive(context.Background(), "u1", "a.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 rows, got %d", len(got))
	}
	if got[0].Hash == nil || *got[0].Hash != "h1" || got[0].DeletedAt != nil {
		t.Fatalf("bad row[0]: %+v", got[0])
	}
	if got[1].Hash != nil || got[1].DeletedAt == nil || got[1].BlobKey != "k2" {
		t.Fatalf("bad row[1]: %+v", got[1])
	}
}

func TestLockActive_Errors(t *testing.T) {
	t.Run("query error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectQuery(lockQ).WillReturnError(errors.New("db err"))

		_, err := repo.LockActive(context.Background(), "u1", "a.txt")
		if err == nil || !regexp.MustCompile(`failed to select files: .*db err`).MatchString(err.Error()) {
			t.Fatalf("expected wrapped select error, got %v", err)
		}
	})

	t.Run("scan error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectQuery(lockQ).WillReturnRows(sqlmock.NewRows(columns).
			AddRow("not-int", "u1", "a.txt", int64(5), nil, "k1", ts(t), false, nil))

		if _, err := repo.LockActive(context.Background(), "u1", "a.txt"); err == nil {
			t.Fatal("expected scan error")
		}
	})

	t.Run("rows error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectQuery(lockQ).WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(1), "u1", "a.txt", int64(5), nil, "k1", ts(t), false, nil).
			AddRow(int64(2), "u1", "a.txt", int64(5), nil, "k2", ts(t), false, nil).
			RowError(1, errors.New("row-err")))

		_, err := repo.LockActive(context.Background(), "u1", "a.txt")
		if err == nil || err.Error() != "row-err" {
			t.Fatalf("expected rows.Err 'row-err', got %v", err)
		}
	})
}

func TestMarkDeletedAndRename(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := ts(t)
	mock.ExpectExec(deleteQ).WithArgs("u1", "a.txt", at).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(renameQ).WithArgs("u1", "b.txt", "c.txt").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(renameQ).WithArgs("u1", "x", "y").WillReturnResult(sqlmock.NewErrorResult(errors.New("rows-err")))
	mock.ExpectExec(deleteQ).WithArgs("u1", "z", at).WillReturnError(errors.New("db down"))

	n, err := repo.MarkDeleted(context.Background(), "u1", "a.txt", at)
	if err != nil || n != 2 {
		t.Fatalf("MarkDeleted = %d, %v", n, err)
	}

	n, err = repo.Rename(context.Background(), "u1", "b.txt", "c.txt")
	if err != nil || n != 1 {
		t.Fatalf("Rename = %d, %v", n, err)
	}

	_, err = repo.Rename(context.Background(), "u1", "x", "y")
	if err == nil || !regexp.MustCompile(`rows affected error: .*rows-err`).MatchString(err.Error()) {
		t.Fatalf("expected rows affected error, got %v", err)
	}

	_, err = repo.MarkDeleted(context.Background(), "u1", "z", at)
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected db error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindLatestActive(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(latestQ).WithArgs("u1", "a.txt").WillReturnRows(sqlmock.NewRows(columns).
		AddRow(int64(9), "u1", "a.txt", int64(5), "h1", "k9", ts(t), false, nil))
	mock.ExpectQuery(latestQ).WithArgs("u1", "gone.txt").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(latestQ).WithArgs("u1", "err.txt").WillReturnError(errors.New("db down"))

	got, err := repo.FindLatestActive(context.Background(), "u1", "a.txt")
	if err != nil || got.ID != 9 || got.BlobKey != "k9" {
		t.Fatalf("FindLatestActive = %+v, %v", got, err)
	}

	_, err = repo.FindLatestActive(context.Background(), "u1", "gone.txt")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}

	_, err = repo.FindLatestActive(context.Background(), "u1", "err.txt")
	if err == nil || errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want db error, got %v", err)
	}
}

func TestListActive(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(listQ).WithArgs("u1", 10).WillReturnRows(sqlmock.NewRows(columns).
		AddRow(int64(1), "u1", "a.txt", int64(5), nil, "k1", ts(t), false, nil).
		AddRow(int64(2), "u1", "b.txt", int64(7), nil, "k2", ts(t), false, nil))

	got, err := repo.ListActive(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Filename != "a.txt" || got[1].SizeBytes != 7 {
		t.Fatalf("unexpected rows: %+v", got)
	}

	mock.ExpectQuery(listQ).WithArgs("u2", 10).WillReturnRows(sqlmock.NewRows(columns))
	got, err = repo.ListActive(context.Background(), "u2", 10)
	if err != nil || len(got) != 0 {
		t.Fatalf("want empty result, got %+v, %v", got, err)
	}
}
