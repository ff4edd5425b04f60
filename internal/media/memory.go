package media

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MemStore is an in-memory Store used by tests and local development.
type MemStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	BaseURL string
}

// NewMemStore returns an empty in-memory media store.
func NewMemStore() *MemStore {
	return &MemStore{
		objects: make(map[string][]byte),
		BaseURL: "mem://media",
	}
}

func (m *MemStore) Upload(_ context.Context, name string, _ string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = data
	return fmt.Sprintf("%s/%s", m.BaseURL, name), nil
}

func (m *MemStore) Delete(_ context.Context, url string) error {
	key, ok := strings.CutPrefix(url, m.BaseURL+"/")
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotManaged, url)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.objects[key]; !exists {
		return fmt.Errorf("media: object %q not found", key)
	}
	delete(m.objects, key)
	return nil
}

// Len reports the number of stored objects.
func (m *MemStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// Has reports whether a URL previously returned by Upload is still stored.
func (m *MemStore) Has(url string) bool {
	key, ok := strings.CutPrefix(url, m.BaseURL+"/")
	if !ok {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.objects[key]
	return exists
}
