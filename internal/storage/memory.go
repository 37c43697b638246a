package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MemoryStorage keeps objects in process memory. It backs the "memory"
// storage driver and tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]memoryObject
}

type memoryObject struct {
	contentType string
	data        []byte
}

// NewMemoryStorage returns an empty store whose URLs start with baseURL.
func NewMemoryStorage(baseURL string) *MemoryStorage {
	if baseURL == "" {
		baseURL = "memory://objects"
	}
	return &MemoryStorage{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: map[string]memoryObject{},
	}
}

func (m *MemoryStorage) PutObject(_ context.Context, objectKey, contentType string, body io.Reader, _ int64) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectKey] = memoryObject{contentType: contentType, data: buf.Bytes()}
	return nil
}

func (m *MemoryStorage) DeleteObject(_ context.Context, objectKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[objectKey]; !ok {
		return ErrObjectNotFound
	}
	delete(m.objects, objectKey)
	return nil
}

func (m *MemoryStorage) ObjectURL(objectKey string) string {
	return m.baseURL + "/" + objectKey
}

func (m *MemoryStorage) Ping(context.Context) error {
	return nil
}

// Get returns a stored object, for tests and the dev media route.
func (m *MemoryStorage) Get(objectKey string) (data []byte, contentType string, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[objectKey]
	if !ok {
		return nil, "", false
	}
	return obj.data, obj.contentType, true
}

// ServeHTTP serves stored objects by key, the key being the request path
// without its leading slash. Mount it under the base URL's path prefix.
func (m *MemoryStorage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, contentType, ok := m.Get(strings.TrimPrefix(r.URL.Path, "/"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	_, _ = w.Write(data)
}

// Len reports how many objects are stored.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
