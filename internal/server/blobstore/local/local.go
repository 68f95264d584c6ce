// Package local stores blobs as files below a root directory, one file per
// key named by the key's SHA-256.
package local

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/cloudservice/internal/common"
	"github.com/dmitrijs2005/cloudservice/internal/filex"
)

type Store struct {
	root string
}

// New creates root if needed and returns a store writing below it.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("root path is required")
	}
	dir, err := filex.EnsureDir(root)
	if err != nil {
		return nil, fmt.Errorf("create root path: %w", err)
	}
	return &Store{root: dir}, nil
}

// path maps a key to a file directly below root. Keys carry user filenames,
// so they are hashed rather than used as path components.
func (s *Store) path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty key", common.ErrorStorage)
	}
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.root, hex.EncodeToString(sum[:])), nil
}

// Put writes to a temp file and renames it into place, so readers never
// observe a partial blob. A cancelled context removes the temp file.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, _ string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.root, ".upload-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp for %s: %w", common.ErrorStorage, key, err)
	}
	tmpName := tmp.Name()

	fail := func(format string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: "+format+": %w", common.ErrorStorage, key, err)
	}

	n, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: io.LimitReader(r, size)})
	if err != nil {
		return fail("write %s", err)
	}
	if n != size {
		return fail("write %s", fmt.Errorf("short body (%d of %d bytes)", n, size))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close temp for %s: %w", common.ErrorStorage, key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: rename temp to %s: %w", common.ErrorStorage, key, err)
	}
	return nil
}

func (s *Store) Get(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w: %s", common.ErrorStorage, common.ErrorBlobNotFound, key)
		}
		return nil, fmt.Errorf("%w: open %s: %w", common.ErrorStorage, key, err)
	}
	return f, nil
}

// ctxReader stops reading once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
