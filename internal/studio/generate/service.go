package generate

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/atelier-ai/atelier-backend/internal/archive"
	"github.com/atelier-ai/atelier-backend/internal/gateway"
	"github.com/atelier-ai/atelier-backend/internal/studio/session"
)

// Service orchestrates the gateway calls of the research, proposal, synthesis
// and multi-angle steps.
type Service struct {
	gen  gateway.Generator
	repo *archive.Repo
}

func NewService(gen gateway.Generator, repo *archive.Repo) *Service {
	return &Service{gen: gen, repo: repo}
}

// Research derives contextual notes for the session's brief and advances the
// session to the proposal stage. A gateway failure substitutes the fixed
// default payload; it is never surfaced as an error.
func (s *Service) Research(ctx context.Context, sess *session.Session) (*archive.ResearchData, error) {
	brief := sess.Brief()
	if brief == nil {
		return nil, session.ErrWrongStage
	}

	res, err := s.gen.GenerateResearch(ctx, gateway.ResearchRequest{
		Typology:           brief.Typology,
		Location:           brief.Location,
		ContextDetails:     brief.ContextDetails,
		PreferredMaterials: brief.PreferredMaterials,
	})
	if err != nil || res == nil {
		log.Printf("[warn] research generation failed, using default payload: %v", err)
		res = gateway.DefaultResearch()
	}

	data := archive.ResearchData{
		Summary:    res.Summary,
		Materials:  res.Materials,
		Lighting:   res.Lighting,
		Vernacular: res.Vernacular,
	}
	if err := sess.CompleteResearch(ctx, data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Proposals generates the batch of three candidate options. Failed members
// are filtered out; an empty batch is a degraded but valid outcome.
func (s *Service) Proposals(ctx context.Context, sess *session.Session) ([]session.GeneratedOption, error) {
	brief := sess.Brief()
	if brief == nil || sess.Stage() != session.StageProposal {
		return nil, session.ErrWrongStage
	}
	research := sess.Research()
	tok := sess.Token()

	variants := proposalVariants()
	reqs := make([]gateway.ImageRequest, len(variants))
	base := basePrompt(brief, research)
	for i, v := range variants {
		reqs[i] = gateway.ImageRequest{
			Prompt:          base + " " + v.angle,
			ReferenceImages: brief.InspirationImages,
			MassingLock:     brief.MassingImage != "",
		}
		if brief.MassingImage != "" {
			reqs[i].BaseImage = brief.MassingImage
		}
	}

	payloads := s.fanOut(ctx, reqs)

	opts := make([]session.GeneratedOption, 0, len(variants))
	for i, p := range payloads {
		if p == "" {
			continue
		}
		opts = append(opts, session.GeneratedOption{
			ID:          uuid.New().String(),
			Title:       variants[i].title,
			Description: variants[i].desc,
			Payload:     p,
			Kind:        variants[i].kind,
		})
	}

	if !sess.AddOptions(tok, opts) {
		// Session moved on while the batch ran; drop the results.
		return nil, nil
	}
	s.archiveOptions(ctx, sess.ProjectID(), opts, archive.StageProposal)
	return opts, nil
}

// Synthesize blends the existing options into three differently emphasized
// hybrids guided by the user's mixing text.
func (s *Service) Synthesize(ctx context.Context, sess *session.Session, guidance string) ([]session.GeneratedOption, error) {
	brief := sess.Brief()
	existing := sess.Options()
	if brief == nil || sess.Stage() != session.StageProposal || len(existing) == 0 {
		return nil, session.ErrWrongStage
	}
	tok := sess.Token()

	base := basePrompt(brief, sess.Research())
	reqs := make([]gateway.ImageRequest, len(hybridEmphases))
	refs := make([]string, 0, len(existing))
	for _, opt := range existing {
		refs = append(refs, opt.Payload)
	}
	for i, e := range hybridEmphases {
		prompt := base + " Merge the supplied candidate designs into one hybrid. " + e.tone
		if guidance != "" {
			prompt += " Mixing guidance: " + guidance + "."
		}
		reqs[i] = gateway.ImageRequest{
			Prompt:          prompt,
			ReferenceImages: refs,
		}
	}

	payloads := s.fanOut(ctx, reqs)

	opts := make([]session.GeneratedOption, 0, len(hybridEmphases))
	for i, p := range payloads {
		if p == "" {
			continue
		}
		opts = append(opts, session.GeneratedOption{
			ID:          uuid.New().String(),
			Title:       hybridEmphases[i].title,
			Description: hybridEmphases[i].tone,
			Payload:     p,
			Kind:        archive.KindHybrid,
		})
	}

	if !sess.AddOptions(tok, opts) {
		return nil, nil
	}
	s.archiveOptions(ctx, sess.ProjectID(), opts, archive.StageProposal)
	return opts, nil
}

// Angles renders the finalized design from the three fixed viewpoints. Each
// member succeeds or fails independently; zero successes is a valid outcome.
func (s *Service) Angles(ctx context.Context, sess *session.Session) ([]string, error) {
	if sess.Stage() != session.StageFinal {
		return nil, session.ErrWrongStage
	}
	final := sess.FinalImage()
	if final == "" {
		return nil, session.ErrWrongStage
	}
	brief := sess.Brief()
	tok := sess.Token()

	reqs := make([]gateway.ImageRequest, len(angleViews))
	for i, view := range angleViews {
		reqs[i] = gateway.ImageRequest{
			Prompt:    anglePrompt(view, brief),
			BaseImage: final,
		}
	}

	payloads := s.fanOut(ctx, reqs)

	out := make([]string, 0, len(payloads))
	for i, p := range payloads {
		if p == "" {
			continue
		}
		out = append(out, p)
		if tok.Valid() {
			_ = s.repo.AppendImage(ctx, sess.ProjectID(), archive.ArchivedImage{
				ID:      uuid.New().String(),
				Payload: p,
				Stage:   archive.StageFinal,
				Kind:    archive.KindAngle,
				Meta:    angleViews[i],
			})
		}
	}
	return out, nil
}

// fanOut issues all requests concurrently and waits for every member to
// settle; a failed or slow member never cancels its siblings. Failures come
// back as empty strings, order preserved.
func (s *Service) fanOut(ctx context.Context, reqs []gateway.ImageRequest) []string {
	results := make([]string, len(reqs))
	var wg sync.WaitGroup
	for i := range reqs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload, err := s.gen.GenerateImage(ctx, reqs[i])
			if err != nil {
				log.Printf("[warn] batch member %d failed: %v", i, err)
				return
			}
			results[i] = payload
		}(i)
	}
	wg.Wait()
	return results
}

func (s *Service) archiveOptions(ctx context.Context, projectID string, opts []session.GeneratedOption, stage string) {
	for _, opt := range opts {
		_ = s.repo.AppendImage(ctx, projectID, archive.ArchivedImage{
			ID:      opt.ID,
			Payload: opt.Payload,
			Stage:   stage,
			Kind:    opt.Kind,
			Meta:    opt.Title,
		})
	}
}
