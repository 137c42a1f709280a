package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/atelier-ai/atelier-backend/internal/archive"
	"github.com/atelier-ai/atelier-backend/internal/export"
)

// RunExport renders the dossier of an archived project to disk: a JSON
// artifact plus one PNG per page.
func RunExport(args []string) {
	if len(args) < 1 {
		log.Fatal("usage: worker export <projectID> [outDir]")
	}
	projectID := args[0]
	outDir := "out"
	if len(args) > 1 {
		outDir = args[1]
	}

	ctx := context.Background()
	repo := openArchive(ctx)

	p := repo.Get(projectID)
	if p == nil {
		log.Fatalf("project %s not found", projectID)
	}

	doc := export.Build(dossierFromProject(*p))

	if err := os.MkdirAll(outDir, 0755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}
	jsonPath := filepath.Join(outDir, "dossier.json")
	if err := export.WriteJSON(jsonPath, doc); err != nil {
		log.Fatalf("write json: %v", err)
	}
	pages, err := export.RenderPNG(doc, outDir)
	if err != nil {
		log.Fatalf("render png: %v", err)
	}

	log.Printf("exported %s: %s and %d page(s)", projectID, jsonPath, len(pages))
}

// dossierFromProject rebuilds the export input from durable records only.
// The archive keeps images, not the live conversation, so the evolution page
// lists the instruction text carried on each iteration image.
func dossierFromProject(p archive.Project) export.Input {
	in := export.Input{
		Title:     p.Name,
		MainImage: p.FinalImage,
	}
	if p.Brief != nil {
		in.Typology = p.Brief.Typology
		in.Location = p.Brief.Location
	}
	if p.Research != nil {
		in.Materials = p.Research.Materials
		in.Lighting = p.Research.Lighting
		in.Vernacular = p.Research.Vernacular
	}

	// Images are stored most-recent-first; walk backwards for chronology.
	for i := len(p.Images) - 1; i >= 0; i-- {
		img := p.Images[i]
		switch img.Kind {
		case archive.KindIteration:
			in.Turns = append(in.Turns, export.Turn{Role: "user", Text: img.Meta, Image: img.Payload})
		case archive.KindAngle:
			in.AngleImages = append(in.AngleImages, img.Payload)
		}
	}
	return in
}
