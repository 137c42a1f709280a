package http

// BriefingRequest mirrors the briefing form.
type BriefingRequest struct {
	Typology           string   `json:"typology" binding:"required"`
	Location           string   `json:"location" binding:"required"`
	ContextDetails     string   `json:"context_details"`
	VisionPrompt       string   `json:"vision_prompt"`
	InspirationImages  []string `json:"inspiration_images"`
	MassingImage       string   `json:"massing_image"`
	AreaSqm            *float64 `json:"area_sqm"`
	Floors             *int     `json:"floors"`
	PreferredMaterials string   `json:"preferred_materials"`
	MoodIntensity      *int     `json:"mood_intensity" binding:"omitempty,min=0,max=100"`
}

type SynthesisRequest struct {
	Guidance string `json:"guidance"`
}

type SelectRequest struct {
	OptionID string `json:"option_id" binding:"required"`
}

type RefineRequest struct {
	Instruction string `json:"instruction" binding:"required"`
}

type RestoreRequest struct {
	VersionID string `json:"version_id" binding:"required"`
}

type FinalizeRequest struct {
	// Image defaults to the ledger's current version when omitted.
	Image string `json:"image"`
}
