// Package memory is a map-backed blob store for tests and the memory mode
// of the server.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/cloudservice/internal/common"
)

type Store struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func New() *Store {
	return &Store{objects: make(map[string][]byte)}
}

func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, _ string) error {
	data, err := io.ReadAll(io.LimitReader(r, size))
	if err != nil {
		return fmt.Errorf("%w: put %s: %w", common.ErrorStorage, key, err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("%w: put %s: short body (%d of %d bytes)", common.ErrorStorage, key, len(data), size)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: put %s: %w", common.ErrorStorage, key, err)
	}

	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()
	return nil
}

func (s *Store) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.objects[key]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", common.ErrorStorage, common.ErrorBlobNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Keys returns the stored keys in no particular order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}
