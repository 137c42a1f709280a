package archive

import (
	"context"
	"sync"
)

// SnapshotStore persists the whole project collection as one unit. The repo
// reads the full snapshot on startup and writes the full snapshot on every
// mutation; there are no partial writes and no migrations.
type SnapshotStore interface {
	// Load returns the stored collection. Missing or corrupt content loads
	// as an empty collection, never as an error the caller must handle.
	Load(ctx context.Context) ([]Project, error)
	// Save replaces the stored collection.
	Save(ctx context.Context, projects []Project) error
}

// MemoryStore is the in-process fake used by tests and by deployments that
// do not care about durability.
type MemoryStore struct {
	mu       sync.Mutex
	projects []Project
	// SaveCount is read by tests to assert write-on-every-mutation.
	SaveCount int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) ([]Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Project, len(s.projects))
	copy(out, s.projects)
	return out, nil
}

func (s *MemoryStore) Save(ctx context.Context, projects []Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = make([]Project, len(projects))
	copy(s.projects, projects)
	s.SaveCount++
	return nil
}
