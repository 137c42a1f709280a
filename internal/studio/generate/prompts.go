package generate

import (
	"fmt"
	"strings"

	"github.com/atelier-ai/atelier-backend/internal/archive"
)

// variant describes one member of the proposal batch.
type variant struct {
	kind  string
	title string
	desc  string
	angle string
}

func proposalVariants() []variant {
	return []variant{
		{
			kind:  archive.KindLiteral,
			title: "Faithful Interpretation",
			desc:  "Follows the brief as written, with conservative massing and material choices.",
			angle: "Interpret the brief literally and conservatively.",
		},
		{
			kind:  archive.KindInspired,
			title: "Inspired Variation",
			desc:  "Leans on the inspiration references while keeping the program intact.",
			angle: "Let the inspiration references lead the expression while honoring the program.",
		},
		{
			kind:  archive.KindWildcard,
			title: "Wildcard Concept",
			desc:  "An unexpected take that keeps site and program but questions everything else.",
			angle: "Take an unexpected, experimental direction that still fits the site and program.",
		},
	}
}

// hybridEmphases are the fixed emphasis strings of the synthesis fan-out.
var hybridEmphases = []struct {
	name  string
	title string
	tone  string
}{
	{"balanced", "Balanced Hybrid", "Blend the source concepts evenly."},
	{"bold", "Bold Hybrid", "Push the blend toward the most dramatic traits of the sources."},
	{"subtle", "Subtle Hybrid", "Blend quietly, keeping the calmest traits of the sources."},
}

// angleViews are the fixed view descriptions of the multi-angle fan-out.
var angleViews = []string{
	"eye-level view of the main entrance",
	"aerial view of the whole building in its context",
	"close-up of the facade showing material detail",
}

func basePrompt(brief *archive.BriefingData, research *archive.ResearchData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Photorealistic architectural concept render of a %s in %s.", brief.Typology, brief.Location)
	if brief.VisionPrompt != "" {
		fmt.Fprintf(&b, " Vision: %s.", brief.VisionPrompt)
	}
	if brief.ContextDetails != "" {
		fmt.Fprintf(&b, " Site context: %s.", brief.ContextDetails)
	}
	if brief.PreferredMaterials != "" {
		fmt.Fprintf(&b, " Preferred materials: %s.", brief.PreferredMaterials)
	}
	if brief.AreaSqm != nil {
		fmt.Fprintf(&b, " Approximate area %.0f sqm.", *brief.AreaSqm)
	}
	if brief.Floors != nil {
		fmt.Fprintf(&b, " %d floors.", *brief.Floors)
	}
	if brief.MoodIntensity != nil {
		fmt.Fprintf(&b, " Match the mood of the references at %d%% intensity.", *brief.MoodIntensity)
	}
	if research != nil {
		fmt.Fprintf(&b, " Local palette: %s. Lighting: %s. Vernacular: %s.",
			strings.Join(research.Materials, ", "), research.Lighting, research.Vernacular)
	}
	return b.String()
}

func anglePrompt(view string, brief *archive.BriefingData) string {
	p := "Render the same building from a different viewpoint: " + view + ". Keep design, materials and lighting identical."
	if brief != nil && brief.Location != "" {
		p += " Setting: " + brief.Location + "."
	}
	return p
}
