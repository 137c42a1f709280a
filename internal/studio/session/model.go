package session

import "time"

// Stage is one phase of the five-step guided flow.
type Stage string

const (
	StageBriefing   Stage = "briefing"
	StageResearch   Stage = "research"
	StageProposal   Stage = "proposal"
	StageRefinement Stage = "refinement"
	StageFinal      Stage = "final"
)

// OriginalConceptLabel tags version zero of every refinement ledger.
const OriginalConceptLabel = "Original Concept"

// Conversation roles.
const (
	RoleUser   = "user"
	RoleSystem = "system"
)

// GeneratedOption is one candidate design. Options are created in batches and
// never mutated afterwards, only appended to the active list.
type GeneratedOption struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Payload     string `json:"payload"`
	Kind        string `json:"kind"`
}

// DesignVersion is one point in the refinement history of the selected
// option.
type DesignVersion struct {
	ID          string    `json:"id"`
	Payload     string    `json:"payload"`
	Instruction string    `json:"instruction"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChatMessage is one conversation turn of the current refinement session.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
