package refine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-ai/atelier-backend/internal/archive"
	"github.com/atelier-ai/atelier-backend/internal/gateway"
	"github.com/atelier-ai/atelier-backend/internal/studio/session"
)

type fakeGenerator struct {
	mu      sync.Mutex
	imageFn func(req gateway.ImageRequest) (string, error)
	reqs    []gateway.ImageRequest
}

func (f *fakeGenerator) GenerateResearch(ctx context.Context, req gateway.ResearchRequest) (*gateway.Research, error) {
	return gateway.DefaultResearch(), nil
}

func (f *fakeGenerator) GenerateImage(ctx context.Context, req gateway.ImageRequest) (string, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	fn := f.imageFn
	f.mu.Unlock()
	if fn == nil {
		return "img-refined", nil
	}
	return fn(req)
}

func (f *fakeGenerator) lastRequest() gateway.ImageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

func refinementSession(t *testing.T) (*session.Session, *archive.Repo) {
	ctx := context.Background()
	repo, err := archive.NewRepo(ctx, archive.NewMemoryStore())
	require.NoError(t, err)

	s := session.New("sess-1", repo)
	require.NoError(t, s.CompleteBriefing(ctx, archive.BriefingData{Typology: "Museum", Location: "Riyadh"}))
	require.NoError(t, s.CompleteResearch(ctx, archive.ResearchData{}))
	require.True(t, s.AddOptions(s.Token(), []session.GeneratedOption{{ID: "opt-1", Payload: "img-0"}}))
	require.NoError(t, s.SelectOption("opt-1"))
	return s, repo
}

func TestService_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("success appends version, turns and archive record", func(t *testing.T) {
		gen := &fakeGenerator{}
		s, repo := refinementSession(t)
		svc := NewService(gen, repo)

		v, err := svc.Apply(ctx, s, "make the entrance taller")
		require.NoError(t, err)
		assert.Equal(t, "img-refined", v.Payload)
		assert.Equal(t, "make the entrance taller", v.Instruction)

		// The call carried the current image and the briefing constraints.
		req := gen.lastRequest()
		assert.Equal(t, "img-0", req.BaseImage)
		assert.Contains(t, req.Prompt, "make the entrance taller")
		assert.Contains(t, req.Prompt, "Museum in Riyadh")

		assert.Len(t, s.Versions(), 2)
		turns := s.Turns()
		require.Len(t, turns, 2)
		assert.Equal(t, session.RoleUser, turns[0].Role)
		assert.Equal(t, session.RoleSystem, turns[1].Role)

		p := repo.Get(s.ProjectID())
		require.NotNil(t, p)
		require.Len(t, p.Images, 1)
		assert.Equal(t, archive.KindIteration, p.Images[0].Kind)
		assert.Equal(t, "make the entrance taller", p.Images[0].Meta)
	})

	t.Run("failure leaves the ledger untouched", func(t *testing.T) {
		gen := &fakeGenerator{imageFn: func(gateway.ImageRequest) (string, error) {
			return "", errors.New("engine down")
		}}
		s, repo := refinementSession(t)
		svc := NewService(gen, repo)

		_, err := svc.Apply(ctx, s, "make the entrance taller")
		assert.ErrorIs(t, err, ErrGenerationFailed)

		assert.Len(t, s.Versions(), 1)
		img, cerr := s.CurrentImage()
		require.NoError(t, cerr)
		assert.Equal(t, "img-0", img)

		// The user sees the attempt and the error notice.
		turns := s.Turns()
		require.Len(t, turns, 2)
		assert.Equal(t, session.RoleSystem, turns[1].Role)
		assert.Empty(t, turns[1].Image)
	})

	t.Run("empty payload counts as failure", func(t *testing.T) {
		gen := &fakeGenerator{imageFn: func(gateway.ImageRequest) (string, error) {
			return "", nil
		}}
		s, repo := refinementSession(t)
		svc := NewService(gen, repo)

		_, err := svc.Apply(ctx, s, "add a canopy")
		assert.ErrorIs(t, err, ErrGenerationFailed)
		assert.Len(t, s.Versions(), 1)
	})

	t.Run("second submission while in flight is rejected", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan struct{})
		var signal sync.Once
		gen := &fakeGenerator{imageFn: func(gateway.ImageRequest) (string, error) {
			// Only the first call signals; later calls run unblocked once
			// release is closed.
			signal.Do(func() { close(started) })
			<-release
			return "img-refined", nil
		}}
		s, repo := refinementSession(t)
		svc := NewService(gen, repo)

		done := make(chan error, 1)
		go func() {
			_, err := svc.Apply(ctx, s, "first change")
			done <- err
		}()

		<-started
		_, err := svc.Apply(ctx, s, "second change")
		assert.ErrorIs(t, err, session.ErrBusy)

		close(release)
		require.NoError(t, <-done)

		// The gate opens again once the first call settles.
		_, err = svc.Apply(ctx, s, "third change")
		require.NoError(t, err)
	})

	t.Run("stale completion is discarded", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan struct{})
		gen := &fakeGenerator{imageFn: func(gateway.ImageRequest) (string, error) {
			close(started)
			<-release
			return "img-late", nil
		}}
		s, repo := refinementSession(t)
		svc := NewService(gen, repo)

		done := make(chan struct{})
		go func() {
			v, err := svc.Apply(ctx, s, "late change")
			assert.NoError(t, err)
			assert.Empty(t, v.ID)
			close(done)
		}()

		<-started
		s.StartNewProject()
		close(release)

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("apply did not return")
		}

		// Nothing landed in the fresh session.
		assert.Nil(t, s.Versions())
		assert.Empty(t, s.Turns())
	})

	t.Run("rejected outside the refinement stage", func(t *testing.T) {
		repo, err := archive.NewRepo(ctx, archive.NewMemoryStore())
		require.NoError(t, err)
		s := session.New("sess-1", repo)
		svc := NewService(&fakeGenerator{}, repo)

		_, aerr := svc.Apply(ctx, s, "make it taller")
		assert.ErrorIs(t, aerr, session.ErrWrongStage)
	})
}
