package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/atelier-ai/atelier-backend/internal/archive"
)

var (
	// ErrWrongStage means the operation is not allowed in the current stage.
	ErrWrongStage = errors.New("operation not allowed in current stage")
	// ErrBusy means a refinement request is already in flight.
	ErrBusy = errors.New("a generation request is already in flight")
	// ErrNoSelection means no option has been selected yet.
	ErrNoSelection = errors.New("no option selected")
	// ErrOptionNotFound means the referenced option is not in the active list.
	ErrOptionNotFound = errors.New("option not found")
)

// Session is the per-user guided flow state. Exactly one project is current
// per session; its id stays stable until StartNewProject or LoadProject.
// All mutations run under the session mutex; async completions must present
// a still-valid Token before they are applied.
type Session struct {
	mu sync.Mutex

	id        string
	stage     Stage
	projectID string

	brief        *archive.BriefingData
	research     *archive.ResearchData
	options      []GeneratedOption
	selected     *GeneratedOption
	ledger       *Ledger
	conversation *Conversation
	finalImage   string

	processing bool
	epoch      uint64

	repo *archive.Repo
}

// New creates a session at the briefing stage with a fresh project id.
func New(id string, repo *archive.Repo) *Session {
	return &Session{
		id:           id,
		stage:        StageBriefing,
		projectID:    uuid.New().String(),
		conversation: NewConversation(),
		repo:         repo,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

func (s *Session) ProjectID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectID
}

// Token marks a logical async operation. A token minted before a session
// reset is stale afterwards; stale completions are discarded, never applied.
type Token struct {
	s     *Session
	epoch uint64
}

// Token mints a staleness token bound to the session's current lifetime.
func (s *Session) Token() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Token{s: s, epoch: s.epoch}
}

// Valid reports whether the operation that holds this token may still
// mutate session state.
func (t Token) Valid() bool {
	if t.s == nil {
		return false
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.epoch == t.s.epoch
}

// CompleteBriefing stores the briefing constraints, writes them into the
// current project (creating it, named from typology and location), and
// advances to the research stage.
func (s *Session) CompleteBriefing(ctx context.Context, brief archive.BriefingData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageBriefing {
		return ErrWrongStage
	}

	b := brief
	s.brief = &b

	name := fmt.Sprintf("%s in %s", brief.Typology, brief.Location)
	if _, err := s.repo.Upsert(ctx, s.projectID, archive.ProjectPatch{
		Name:  &name,
		Brief: &b,
	}); err != nil {
		return fmt.Errorf("save briefing: %w", err)
	}

	s.stage = StageResearch
	return nil
}

// CompleteResearch stores the derived research notes into the session and the
// project and advances to the proposal stage.
func (s *Session) CompleteResearch(ctx context.Context, research archive.ResearchData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageResearch {
		return ErrWrongStage
	}

	r := research
	s.research = &r

	if _, err := s.repo.Upsert(ctx, s.projectID, archive.ProjectPatch{
		Research: &r,
	}); err != nil {
		return fmt.Errorf("save research: %w", err)
	}

	s.stage = StageProposal
	return nil
}

// AddOptions appends a batch of generated options to the active list. The
// token guards against batches that finished after the session moved on.
func (s *Session) AddOptions(tok Token, opts []GeneratedOption) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tok.epoch != s.epoch || s.stage != StageProposal {
		return false
	}
	s.options = append(s.options, opts...)
	return true
}

// SelectOption picks one candidate, seeds the version ledger with it, clears
// the conversation, and advances to refinement.
func (s *Session) SelectOption(optionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageProposal {
		return ErrWrongStage
	}

	for i := range s.options {
		if s.options[i].ID == optionID {
			opt := s.options[i]
			s.selected = &opt
			s.ledger = NewLedger(opt.Payload)
			s.conversation = NewConversation()
			s.stage = StageRefinement
			return nil
		}
	}
	return ErrOptionNotFound
}

// BeginRefinement claims the single in-flight slot. A second submission while
// one is outstanding gets ErrBusy; no queueing.
func (s *Session) BeginRefinement() (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageRefinement {
		return Token{}, ErrWrongStage
	}
	if s.processing {
		return Token{}, ErrBusy
	}
	s.processing = true
	return Token{s: s, epoch: s.epoch}, nil
}

// EndRefinement releases the in-flight slot. Safe on stale tokens: a session
// reset already cleared the flag.
func (s *Session) EndRefinement(tok Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tok.epoch == s.epoch {
		s.processing = false
	}
}

// CurrentImage returns the payload of the ledger's current version.
func (s *Session) CurrentImage() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ledger == nil {
		return "", ErrNoSelection
	}
	return s.ledger.Current().Payload, nil
}

// AppendVersion records a successful refinement: new ledger version plus the
// paired conversation turns. Discarded when the token went stale.
func (s *Session) AppendVersion(tok Token, image, instruction string) (DesignVersion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tok.epoch != s.epoch || s.ledger == nil {
		return DesignVersion{}, false
	}

	v := s.ledger.Append(image, instruction)
	s.conversation.Append(RoleUser, instruction, "")
	s.conversation.Append(RoleSystem, "Updated the concept: "+instruction, image)
	return v, true
}

// AppendTurn records a conversation turn (error notices, angle results).
func (s *Session) AppendTurn(tok Token, role, text, image string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tok.epoch != s.epoch {
		return false
	}
	s.conversation.Append(role, text, image)
	return true
}

// RestoreVersion moves the ledger's current pointer and appends exactly one
// informational system turn. History is never shortened.
func (s *Session) RestoreVersion(versionID string) (DesignVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ledger == nil {
		return DesignVersion{}, ErrNoSelection
	}

	v, err := s.ledger.Restore(versionID)
	if err != nil {
		return DesignVersion{}, err
	}
	s.conversation.Append(RoleSystem, "Restored an earlier version: "+v.Instruction, "")
	return v, nil
}

// FinalizeRefinement stores the final image, writes it into the project, and
// advances to the final stage.
func (s *Session) FinalizeRefinement(ctx context.Context, image string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageRefinement {
		return ErrWrongStage
	}

	s.finalImage = image
	if _, err := s.repo.Upsert(ctx, s.projectID, archive.ProjectPatch{
		FinalImage: &image,
	}); err != nil {
		return fmt.Errorf("save final image: %w", err)
	}

	s.stage = StageFinal
	return nil
}

// StartNewProject resets all session state and allocates a fresh project id.
// Outstanding async work is invalidated, not aborted.
func (s *Session) StartNewProject() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	s.projectID = uuid.New().String()
	s.stage = StageBriefing
}

// LoadProject adopts a persisted project. The entry stage follows the richest
// data present; proposal options and refinement intermediates are not
// reconstructed (the archive preserves images, not working state).
func (s *Session) LoadProject(p archive.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	s.projectID = p.ID
	s.brief = p.Brief
	s.research = p.Research
	s.finalImage = p.FinalImage

	switch {
	case p.FinalImage != "":
		s.stage = StageFinal
	case p.Research != nil:
		s.stage = StageProposal
	default:
		s.stage = StageBriefing
	}
}

func (s *Session) reset() {
	s.brief = nil
	s.research = nil
	s.options = nil
	s.selected = nil
	s.ledger = nil
	s.conversation = NewConversation()
	s.finalImage = ""
	s.processing = false
	s.epoch++
}

// Accessors returning copies; callers never see live internal state.

func (s *Session) Brief() *archive.BriefingData {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.brief == nil {
		return nil
	}
	b := *s.brief
	return &b
}

func (s *Session) Research() *archive.ResearchData {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.research == nil {
		return nil
	}
	r := *s.research
	return &r
}

func (s *Session) Options() []GeneratedOption {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]GeneratedOption, len(s.options))
	copy(out, s.options)
	return out
}

func (s *Session) Selected() *GeneratedOption {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	opt := *s.selected
	return &opt
}

func (s *Session) Versions() []DesignVersion {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger == nil {
		return nil
	}
	return s.ledger.Versions()
}

func (s *Session) Turns() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversation.Turns()
}

func (s *Session) FinalImage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalImage
}

// Snapshot is the session state served to the client.
type Snapshot struct {
	ID           string                 `json:"id"`
	Stage        Stage                  `json:"stage"`
	ProjectID    string                 `json:"project_id"`
	Brief        *archive.BriefingData  `json:"brief,omitempty"`
	Research     *archive.ResearchData  `json:"research,omitempty"`
	Options      []GeneratedOption      `json:"options,omitempty"`
	Selected     *GeneratedOption       `json:"selected,omitempty"`
	Versions     []DesignVersion        `json:"versions,omitempty"`
	Conversation []ChatMessage          `json:"conversation,omitempty"`
	FinalImage   string                 `json:"final_image,omitempty"`
	Processing   bool                   `json:"processing"`
}

func (s *Session) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:         s.id,
		Stage:      s.stage,
		ProjectID:  s.projectID,
		FinalImage: s.finalImage,
		Processing: s.processing,
	}
	if s.brief != nil {
		b := *s.brief
		snap.Brief = &b
	}
	if s.research != nil {
		r := *s.research
		snap.Research = &r
	}
	snap.Options = append(snap.Options, s.options...)
	if s.selected != nil {
		opt := *s.selected
		snap.Selected = &opt
	}
	if s.ledger != nil {
		snap.Versions = s.ledger.Versions()
	}
	snap.Conversation = s.conversation.Turns()
	return snap
}
