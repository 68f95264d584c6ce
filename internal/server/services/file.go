package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/cloudservice/internal/common"
	"github.com/dmitrijs2005/cloudservice/internal/dbx"
	"github.com/dmitrijs2005/cloudservice/internal/logging"
	"github.com/dmitrijs2005/cloudservice/internal/server/blobstore"
	"github.com/dmitrijs2005/cloudservice/internal/server/models"
	"github.com/dmitrijs2005/cloudservice/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// UploadRequest describes one file to store. Size must match the number of
// bytes Content yields.
type UploadRequest struct {
	Filename    string
	Content     io.Reader
	Size        int64
	ContentType string
	Hash        *string
}

// Download is the newest active version of a file. The caller closes Content.
type Download struct {
	Filename string
	Size     int64
	Hash     *string
	Content  io.ReadCloser
}

// FileService keeps the files catalog and the blob store in step.
type FileService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	blobs       blobstore.BlobStore
	logger      logging.Logger
	now         func() time.Time
	newKey      func(filename string) string
}

func NewFileService(tx dbx.Transactor, m repomanager.RepositoryManager, blobs blobstore.BlobStore, l logging.Logger) *FileService {
	return &FileService{
		tx:          tx,
		repomanager: m,
		blobs:       blobs,
		logger:      l.With("module", "file_service"),
		now:         time.Now,
		newKey: func(filename string) string {
			return uuid.New().String() + "_" + filename
		},
	}
}

// Upload writes the blob first and records it afterwards. A failed blob write
// leaves no record behind.
func (s *FileService) Upload(ctx context.Context, ownerID string, req UploadRequest) error {
	if req.Filename == "" {
		return fmt.Errorf("%w: filename is required", common.ErrorValidation)
	}
	if req.Size <= 0 {
		return fmt.Errorf("%w: file is empty", common.ErrorValidation)
	}

	key := s.newKey(req.Filename)
	if err := s.blobs.Put(ctx, key, req.Content, req.Size, req.ContentType); err != nil {
		s.logger.Error(ctx, "blob put failed", "user_id", ownerID, "filename", req.Filename, "error", err)
		if errors.Is(err, common.ErrorStorage) {
			return err
		}
		return fmt.Errorf("%w: %w", common.ErrorStorage, err)
	}

	file := &models.File{
		UserID:    ownerID,
		Filename:  req.Filename,
		SizeBytes: req.Size,
		Hash:      req.Hash,
		BlobKey:   key,
		CreatedAt: s.now(),
	}
	if _, err := s.repomanager.Files(s.tx.Conn()).Create(ctx, file); err != nil {
		s.logger.Error(ctx, "orphaned blob, metadata not saved", "blob_key", key, "user_id", ownerID, "error", err)
		return fmt.Errorf("error saving file record: %w", err)
	}

	s.logger.Info(ctx, "file uploaded", "user_id", ownerID, "filename", req.Filename, "size", req.Size)
	return nil
}

// Delete soft-deletes every active record named filename. Blobs are kept.
func (s *FileService) Delete(ctx context.Context, ownerID, filename string) error {
	if filename == "" {
		return fmt.Errorf("%w: filename is required", common.ErrorValidation)
	}

	err := s.tx.WithTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Files(tx)

		active, err := repo.LockActive(ctx, ownerID, filename)
		if err != nil {
			return err
		}
		if len(active) == 0 {
			return common.ErrorNotFound
		}

		_, err = repo.MarkDeleted(ctx, ownerID, filename, s.now())
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("error deleting file: %w", err)
	}

	s.logger.Info(ctx, "file deleted", "user_id", ownerID, "filename", filename)
	return nil
}

// Rename changes the name of every active record named oldName.
func (s *FileService) Rename(ctx context.Context, ownerID, oldName, newName string) error {
	if oldName == "" || newName == "" {
		return fmt.Errorf("%w: filename is required", common.ErrorValidation)
	}

	err := s.tx.WithTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Files(tx)

		active, err := repo.LockActive(ctx, ownerID, oldName)
		if err != nil {
			return err
		}
		if len(active) == 0 {
			return common.ErrorNotFound
		}

		_, err = repo.Rename(ctx, ownerID, oldName, newName)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("error renaming file: %w", err)
	}

	s.logger.Info(ctx, "file renamed", "user_id", ownerID, "filename", oldName, "new_filename", newName)
	return nil
}

// Download opens the most recent active version of filename.
func (s *FileService) Download(ctx context.Context, ownerID, filename string) (*Download, error) {
	file, err := s.repomanager.Files(s.tx.Conn()).FindLatestActive(ctx, ownerID, filename)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error looking up file: %w", err)
	}

	content, err := s.blobs.Get(ctx, file.BlobKey)
	if err != nil {
		if errors.Is(err, common.ErrorBlobNotFound) {
			s.logger.Warn(ctx, "blob missing for active record", "blob_key", file.BlobKey, "user_id", ownerID)
			return nil, common.ErrorNotFound
		}
		if errors.Is(err, common.ErrorStorage) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", common.ErrorStorage, err)
	}

	s.logger.Debug(ctx, "file downloaded", "user_id", ownerID, "filename", filename)
	return &Download{
		Filename: file.Filename,
		Size:     file.SizeBytes,
		Hash:     file.Hash,
		Content:  content,
	}, nil
}

// List returns at most limit active files of the owner.
func (s *FileService) List(ctx context.Context, ownerID string, limit int) ([]models.FileInfo, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", common.ErrorValidation)
	}

	files, err := s.repomanager.Files(s.tx.Conn()).ListActive(ctx, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}

	result := make([]models.FileInfo, 0, len(files))
	for _, f := range files {
		result = append(result, models.FileInfo{Filename: f.Filename, Size: f.SizeBytes})
	}
	return result, nil
}
