package web

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-facecam/pkg/photo"
)

// DefaultPhotoLimit is how many photos the store keeps in memory.
const DefaultPhotoLimit = 20

// PhotoInfo describes a stored photo.
type PhotoInfo struct {
	ID         string    `json:"id"`
	CapturedAt time.Time `json:"captured_at"`
	TakenAt    time.Time `json:"taken_at,omitempty"`
	Model      string    `json:"model,omitempty"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Size       int       `json:"size"`
	Path       string    `json:"path,omitempty"`
}

type storedPhoto struct {
	info PhotoInfo
	data []byte
}

// PhotoStore keeps the most recent photos as JPEG, optionally writing each
// one to a directory as well.
type PhotoStore struct {
	limit   int
	dir     string
	quality int

	mu    sync.RWMutex
	order []string // Oldest first
	byID  map[string]*storedPhoto
}

// NewPhotoStore creates a store. An empty dir keeps photos in memory only.
func NewPhotoStore(limit int, dir string, quality int) *PhotoStore {
	if limit <= 0 {
		limit = DefaultPhotoLimit
	}
	return &PhotoStore{
		limit:   limit,
		dir:     dir,
		quality: quality,
		byID:    make(map[string]*storedPhoto),
	}
}

// Add encodes p and stores it, evicting the oldest photo past the limit.
func (s *PhotoStore) Add(p *photo.Photo) (PhotoInfo, error) {
	data, err := photo.EncodeBytes(p.Image, s.quality)
	if err != nil {
		return PhotoInfo{}, fmt.Errorf("encode photo: %w", err)
	}

	b := p.Image.Bounds()
	info := PhotoInfo{
		ID:         uuid.NewString(),
		CapturedAt: time.Now(),
		TakenAt:    p.TakenAt,
		Model:      p.Model,
		Width:      b.Dx(),
		Height:     b.Dy(),
		Size:       len(data),
	}

	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return PhotoInfo{}, fmt.Errorf("create photo dir: %w", err)
		}
		path := filepath.Join(s.dir, info.ID+".jpg")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return PhotoInfo{}, fmt.Errorf("write photo: %w", err)
		}
		info.Path = path
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[info.ID] = &storedPhoto{info: info, data: data}
	s.order = append(s.order, info.ID)
	for len(s.order) > s.limit {
		delete(s.byID, s.order[0])
		s.order = s.order[1:]
	}
	return info, nil
}

// Get returns a photo's metadata and JPEG bytes.
func (s *PhotoStore) Get(id string) (PhotoInfo, []byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.byID[id]
	if !ok {
		return PhotoInfo{}, nil, false
	}
	return sp.info, sp.data, true
}

// List returns stored photos, newest first.
func (s *PhotoStore) List() []PhotoInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PhotoInfo, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.byID[s.order[i]].info)
	}
	return out
}

// Len returns the number of stored photos.
func (s *PhotoStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
