package refine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/atelier-ai/atelier-backend/internal/archive"
	"github.com/atelier-ai/atelier-backend/internal/gateway"
	"github.com/atelier-ai/atelier-backend/internal/studio/session"
)

// ErrGenerationFailed means the gateway produced no usable image. The
// conversation already carries the user-visible notice; the ledger is
// untouched and there is no automatic retry.
var ErrGenerationFailed = errors.New("generation produced no image")

// Service applies one refinement instruction at a time. The session's
// in-flight gate rejects a second submission while one is outstanding.
type Service struct {
	gen  gateway.Generator
	repo *archive.Repo
}

func NewService(gen gateway.Generator, repo *archive.Repo) *Service {
	return &Service{gen: gen, repo: repo}
}

// Apply sends exactly one gateway call carrying the current image, the
// instruction and the briefing constraints. Success appends to the ledger,
// the conversation and the archive; failure appends an error turn only.
func (s *Service) Apply(ctx context.Context, sess *session.Session, instruction string) (session.DesignVersion, error) {
	tok, err := sess.BeginRefinement()
	if err != nil {
		return session.DesignVersion{}, err
	}
	defer sess.EndRefinement(tok)

	current, err := sess.CurrentImage()
	if err != nil {
		return session.DesignVersion{}, err
	}
	brief := sess.Brief()

	req := gateway.ImageRequest{
		Prompt:    buildPrompt(instruction, brief),
		BaseImage: current,
	}
	if brief != nil && brief.MassingImage != "" {
		req.MassingLock = true
	}

	payload, genErr := s.gen.GenerateImage(ctx, req)
	if genErr != nil || payload == "" {
		sess.AppendTurn(tok, session.RoleUser, instruction, "")
		sess.AppendTurn(tok, session.RoleSystem,
			"That change could not be applied. The design is unchanged; please try again.", "")
		if genErr != nil {
			return session.DesignVersion{}, fmt.Errorf("%w: %v", ErrGenerationFailed, genErr)
		}
		return session.DesignVersion{}, ErrGenerationFailed
	}

	v, ok := sess.AppendVersion(tok, payload, instruction)
	if !ok {
		// The session was reset while the call was in flight; discard.
		return session.DesignVersion{}, nil
	}

	_ = s.repo.AppendImage(ctx, sess.ProjectID(), archive.ArchivedImage{
		ID:      uuid.New().String(),
		Payload: payload,
		Stage:   archive.StageRefinement,
		Kind:    archive.KindIteration,
		Meta:    instruction,
	})
	return v, nil
}

func buildPrompt(instruction string, brief *archive.BriefingData) string {
	p := "Apply this change to the current design: " + instruction + "."
	if brief != nil {
		p += fmt.Sprintf(" Keep it a %s in %s.", brief.Typology, brief.Location)
		if brief.MassingImage != "" {
			p += " Preserve the massing geometry exactly."
		}
	}
	return p
}
