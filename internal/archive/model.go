package archive

import "time"

// Image kind tags. The first four mirror the proposal variant kinds; iteration
// and angle are produced later in the flow.
const (
	KindLiteral   = "literal"
	KindInspired  = "inspired"
	KindWildcard  = "wildcard"
	KindHybrid    = "hybrid"
	KindIteration = "iteration"
	KindAngle     = "angle"
)

// Stage names an image was produced in.
const (
	StageBriefing   = "briefing"
	StageResearch   = "research"
	StageProposal   = "proposal"
	StageRefinement = "refinement"
	StageFinal      = "final"
)

// BriefingData holds the user-supplied project constraints. It is copied into
// the project record when briefing completes and not touched afterwards unless
// the user restarts briefing.
type BriefingData struct {
	Typology           string   `json:"typology"`
	Location           string   `json:"location"`
	ContextDetails     string   `json:"context_details,omitempty"`
	VisionPrompt       string   `json:"vision_prompt,omitempty"`
	InspirationImages  []string `json:"inspiration_images,omitempty"`
	MassingImage       string   `json:"massing_image,omitempty"`
	AreaSqm            *float64 `json:"area_sqm,omitempty"`
	Floors             *int     `json:"floors,omitempty"`
	PreferredMaterials string   `json:"preferred_materials,omitempty"`
	// MoodIntensity is how strongly inspiration references should steer the
	// result, 0..100.
	MoodIntensity *int `json:"mood_intensity,omitempty"`
}

// ResearchData is produced once per project and read-only afterwards.
type ResearchData struct {
	Summary    string   `json:"summary"`
	Materials  []string `json:"materials"`
	Lighting   string   `json:"lighting"`
	Vernacular string   `json:"vernacular"`
}

// ArchivedImage is a durable record of any image the project ever produced.
type ArchivedImage struct {
	ID        string    `json:"id"`
	Payload   string    `json:"payload"`
	Stage     string    `json:"stage"`
	Kind      string    `json:"kind"`
	Meta      string    `json:"meta,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Project is the top-level persisted aggregate. A project can legitimately be
// saved with later-stage fields still empty; stage gating lives in the
// session, not here.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Owner is the db user id of the creator, empty in unauthenticated
	// deployments.
	Owner      string          `json:"owner,omitempty"`
	Brief      *BriefingData   `json:"brief,omitempty"`
	Research   *ResearchData   `json:"research,omitempty"`
	Images     []ArchivedImage `json:"images"`
	FinalImage string          `json:"final_image,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ProjectPatch carries the fields an upsert may change. Nil fields are left
// alone; later writes win per field.
type ProjectPatch struct {
	Name       *string
	Owner      *string
	Brief      *BriefingData
	Research   *ResearchData
	FinalImage *string
}
