// Package cache is the in-memory store of uploaded tick datasets. The
// engine never touches it directly; callers resolve a dataset into a tick
// source and hand that to the engine.
package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fxbacktest/tickdata"
)

// Dataset is one uploaded tick file plus the format needed to read it.
type Dataset struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Size       int             `json:"size"`
	Format     tickdata.Format `json:"format"`
	UploadedAt time.Time       `json:"uploaded_at"`

	Data []byte `json:"-"`
}

type Store struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset
}

func NewStore() *Store {
	return &Store{datasets: make(map[string]*Dataset)}
}

// Put stores raw tick bytes and returns the generated dataset id.
func (s *Store) Put(name string, data []byte, format tickdata.Format) *Dataset {
	d := &Dataset{
		ID:         uuid.NewString(),
		Name:       name,
		Size:       len(data),
		Format:     format,
		UploadedAt: time.Now(),
		Data:       data,
	}
	s.mu.Lock()
	s.datasets[d.ID] = d
	s.mu.Unlock()
	return d
}

func (s *Store) Get(id string) *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.datasets[id]
}

func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.datasets[id]; !ok {
		return false
	}
	delete(s.datasets, id)
	return true
}

// List returns all datasets ordered by upload time.
func (s *Store) List() []*Dataset {
	s.mu.RLock()
	out := make([]*Dataset, 0, len(s.datasets))
	for _, d := range s.datasets {
		out = append(out, d)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.Before(out[j].UploadedAt)
	})
	return out
}
