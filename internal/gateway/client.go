package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// Generator is the boundary to the external generative service. Callers never
// let its errors escape their control flow: research failures are replaced
// with DefaultResearch, image failures collapse to an empty payload.
type Generator interface {
	GenerateResearch(ctx context.Context, req ResearchRequest) (*Research, error)
	GenerateImage(ctx context.Context, req ImageRequest) (string, error)
}

// ResearchRequest carries the briefing constraints the research step needs.
type ResearchRequest struct {
	Typology           string `json:"typology"`
	Location           string `json:"location"`
	ContextDetails     string `json:"context_details,omitempty"`
	PreferredMaterials string `json:"preferred_materials,omitempty"`
}

// Research is the structured payload the text generation returns.
type Research struct {
	Summary    string   `json:"summary"`
	Materials  []string `json:"materials"`
	Lighting   string   `json:"lighting"`
	Vernacular string   `json:"vernacular"`
}

// ImageRequest carries one image generation or edit call.
type ImageRequest struct {
	Prompt string `json:"prompt"`
	// ReferenceImages are optional inspiration payloads. Undecodable members
	// are skipped for the call rather than failing it.
	ReferenceImages []string `json:"reference_images,omitempty"`
	// BaseImage, when set, is the image being edited. It is the one required
	// input of a refinement call; if it cannot be decoded no valid request
	// can be formed and the error propagates.
	BaseImage string `json:"base_image,omitempty"`
	// MassingLock asks the service to preserve the reference geometry
	// exactly, changing only materials and lighting.
	MassingLock bool `json:"massing_lock,omitempty"`
}

// DefaultResearch is the fixed fallback payload substituted when the text
// generation fails.
func DefaultResearch() *Research {
	return &Research{
		Summary:    "Automated context research was unavailable for this brief. The concept proceeds from the briefing constraints alone.",
		Materials:  []string{"local stone", "timber", "glass"},
		Lighting:   "Balanced natural light with deep shading appropriate to the climate.",
		Vernacular: "Contemporary interpretation of the regional building tradition.",
	}
}

// DecodePayload turns a stored image payload (raw base64 or a data URL) into
// bytes.
func DecodePayload(payload string) ([]byte, error) {
	if payload == "" {
		return nil, fmt.Errorf("empty image payload")
	}
	if i := strings.Index(payload, ";base64,"); i >= 0 {
		payload = payload[i+len(";base64,"):]
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return b, nil
}

// FilterDecodable drops reference payloads that cannot be decoded, keeping
// order.
func FilterDecodable(payloads []string) []string {
	out := make([]string, 0, len(payloads))
	for _, p := range payloads {
		if _, err := DecodePayload(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}
