// Package blobstore archives generated report files. A store either holds a
// complete object under a key or nothing at all; partially written objects are
// never visible to Get or List.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid object key")
)

// ObjectInfo describes an archived object.
type ObjectInfo struct {
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is implemented by every archive backend.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (*ObjectInfo, error)
	Get(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	// List returns objects whose key starts with prefix, newest first.
	List(ctx context.Context, prefix string) ([]*ObjectInfo, error)
}

// ValidateKey accepts flat or slash-separated keys without traversal.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if path.Clean(key) != key {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

// ContentTypeFor guesses a content type from the key's extension.
func ContentTypeFor(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".pdf":
		return "application/pdf"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

func sortNewestFirst(items []*ObjectInfo) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].Key > items[j].Key
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

type memObject struct {
	info ObjectInfo
	data []byte
}

// MemoryStore keeps objects in process memory. Used in tests and when no
// archive is configured for a one-off CLI export.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]*memObject
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]*memObject), now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, key, contentType string, data []byte) (*ObjectInfo, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	info := ObjectInfo{Key: key, ContentType: contentType, Size: int64(len(buf)), CreatedAt: s.now().UTC()}
	s.mu.Lock()
	s.objects[key] = &memObject{info: info, data: buf}
	s.mu.Unlock()

	out := info
	return &out, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrNotFound
	}
	info := obj.info
	return io.NopCloser(bytes.NewReader(obj.data)), &info, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return ErrNotFound
	}
	delete(s.objects, key)
	return nil
}

func (s *MemoryStore) List(_ context.Context, prefix string) ([]*ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*ObjectInfo, 0, len(s.objects))
	for k, obj := range s.objects {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		info := obj.info
		items = append(items, &info)
	}
	sortNewestFirst(items)
	return items, nil
}
