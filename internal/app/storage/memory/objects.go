package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/appduka/catalog/internal/app/storage"
)

// ObjectStore is an in-memory bucket. Public URLs follow the hosted
// backend's shape so URL-to-path parsing behaves the same in tests.
type ObjectStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string][]byte
}

var _ storage.ObjectStore = (*ObjectStore)(nil)

// NewObjectStore creates an empty bucket whose public URLs start with
// baseURL (e.g. "https://files.test/storage/v1/object/public/app_files").
func NewObjectStore(baseURL string) *ObjectStore {
	return &ObjectStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		objects: make(map[string][]byte),
	}
}

func (s *ObjectStore) Upload(_ context.Context, path string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = append([]byte(nil), data...)
	return nil
}

func (s *ObjectStore) PublicURL(path string) string {
	return s.baseURL + "/" + path
}

func (s *ObjectStore) Remove(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[path]; !ok {
		return storage.ErrObjectNotFound
	}
	delete(s.objects, path)
	return nil
}

// Has reports whether an object exists; used by tests to assert ordering
// properties.
func (s *ObjectStore) Has(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[path]
	return ok
}

// Len returns the number of stored objects.
func (s *ObjectStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
