package http

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"gastos/internal/cache"
	"gastos/internal/sheets"
	"gastos/internal/sheets/memory"
	"gastos/internal/sheets/xlsx"
)

// ErrUploadExpired is returned for an upload ID that is unknown or was evicted.
var ErrUploadExpired = errors.New("upload expired")

// Upload is a file received on POST /upload. Only the bytes are kept; every
// month selection decodes them again.
type Upload struct {
	ID         string
	Name       string
	Data       []byte
	ReceivedAt time.Time
}

// Reader returns a fresh TableReader over the upload's bytes. Workbooks go
// through the xlsx reader; anything else is decoded by extension.
func (u Upload) Reader() sheets.TableReader {
	switch strings.ToLower(filepath.Ext(u.Name)) {
	case ".xlsx", ".xlsm":
		return xlsx.NewReader(u.Name, u.Data)
	default:
		return memory.NewBytes(u.Name, u.Data)
	}
}

// uploadStore keeps recent uploads by ID in an LRU with TTL.
type uploadStore struct {
	entries *cache.LRUCache[Upload]
	now     func() time.Time
}

func newUploadStore(capacity int, ttl time.Duration) *uploadStore {
	return &uploadStore{
		entries: cache.NewLRUCache[Upload](capacity, ttl),
		now:     time.Now,
	}
}

func (s *uploadStore) Put(name string, data []byte) Upload {
	u := Upload{
		ID:         uuid.NewString(),
		Name:       name,
		Data:       data,
		ReceivedAt: s.now(),
	}
	s.entries.Set(u.ID, u)
	return u
}

func (s *uploadStore) Get(id string) (Upload, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Upload{}, ErrUploadExpired
	}
	u, ok := s.entries.Get(id)
	if !ok {
		return Upload{}, ErrUploadExpired
	}
	return u, nil
}

func (s *uploadStore) Delete(id string) {
	s.entries.Delete(id)
}

func (s *uploadStore) Len() int {
	return s.entries.Size()
}
