package archive

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Repo is the process-wide project archive. Every mutation recomputes the
// full collection under the lock and then replaces the stored snapshot in one
// write, so a half-composed record is never observable.
type Repo struct {
	mu       sync.Mutex
	store    SnapshotStore
	projects []Project
}

// NewRepo loads the stored collection, initializing empty when the store has
// nothing (or something unreadable).
func NewRepo(ctx context.Context, store SnapshotStore) (*Repo, error) {
	projects, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("archive load: %w", err)
	}
	return &Repo{store: store, projects: projects}, nil
}

// Upsert merges patch into the project with the given id, or synthesizes a
// new project from the patch and prepends it when no such project exists.
func (r *Repo) Upsert(ctx context.Context, projectID string, patch ProjectPatch) (*Project, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project id required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	idx := r.indexOf(projectID)

	if idx < 0 {
		p := Project{
			ID:        projectID,
			Name:      "Untitled Project",
			Images:    []ArchivedImage{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		applyPatch(&p, patch)
		r.projects = append([]Project{p}, r.projects...)
		idx = 0
	} else {
		p := r.projects[idx]
		applyPatch(&p, patch)
		p.UpdatedAt = now
		r.projects[idx] = p
	}

	if err := r.store.Save(ctx, r.projects); err != nil {
		return nil, err
	}
	out := r.projects[idx]
	return &out, nil
}

// AppendImage prepends img to the project's image list. Unknown project ids
// and duplicate image ids are silent no-ops.
func (r *Repo) AppendImage(ctx context.Context, projectID string, img ArchivedImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(projectID)
	if idx < 0 {
		return nil
	}

	for _, existing := range r.projects[idx].Images {
		if existing.ID == img.ID {
			return nil
		}
	}

	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now().UTC()
	}

	p := r.projects[idx]
	p.Images = append([]ArchivedImage{img}, p.Images...)
	p.UpdatedAt = time.Now().UTC()
	r.projects[idx] = p

	return r.store.Save(ctx, r.projects)
}

// List returns all projects, most recently created first.
func (r *Repo) List() []Project {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Project, len(r.projects))
	copy(out, r.projects)
	return out
}

// Get returns the project with the given id, or nil.
func (r *Repo) Get(projectID string) *Project {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(projectID)
	if idx < 0 {
		return nil
	}
	out := r.projects[idx]
	return &out
}

// Compact drops duplicate image ids that may have slipped into stored
// snapshots written by older builds, keeping first occurrence, and resaves.
// Returns the number of images dropped.
func (r *Repo) Compact(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for i, p := range r.projects {
		seen := make(map[string]bool, len(p.Images))
		// Snapshots handed out by List and Get alias the old backing array;
		// filtering must build a fresh slice, never rewrite in place.
		kept := make([]ArchivedImage, 0, len(p.Images))
		for _, img := range p.Images {
			if seen[img.ID] {
				dropped++
				continue
			}
			seen[img.ID] = true
			kept = append(kept, img)
		}
		r.projects[i].Images = kept
	}

	if dropped == 0 {
		return 0, nil
	}
	return dropped, r.store.Save(ctx, r.projects)
}

func (r *Repo) indexOf(projectID string) int {
	for i := range r.projects {
		if r.projects[i].ID == projectID {
			return i
		}
	}
	return -1
}

func applyPatch(p *Project, patch ProjectPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Owner != nil {
		p.Owner = *patch.Owner
	}
	if patch.Brief != nil {
		p.Brief = patch.Brief
	}
	if patch.Research != nil {
		p.Research = patch.Research
	}
	if patch.FinalImage != nil {
		p.FinalImage = *patch.FinalImage
	}
}
