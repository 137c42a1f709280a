package export

import (
	"fmt"
	"strings"
)

// Turn is one conversation exchange carried into the evolution page.
type Turn struct {
	Role  string
	Text  string
	Image string
}

// Input is everything the dossier needs, already detached from session and
// archive types so the builder serves both the live API and the offline
// worker.
type Input struct {
	Title       string
	Typology    string
	Location    string
	MainImage   string
	Turns       []Turn
	Materials   []string
	Lighting    string
	Vernacular  string
	AngleImages []string
}

// Build assembles the dossier: a cover page, the design evolution pages and
// the context/research page.
func Build(in Input) Document {
	doc := Document{Title: in.Title}

	doc.Pages = append(doc.Pages, buildCover(in))
	doc.Pages = append(doc.Pages, buildEvolution(in)...)
	doc.Pages = append(doc.Pages, buildContext(in)...)
	return doc
}

func buildCover(in Input) Page {
	blocks := []Block{headingBlock(in.Title)}
	if in.MainImage != "" {
		blocks = append(blocks, imageBlock(in.MainImage))
	}
	identity := fmt.Sprintf("%s | %s", in.Typology, in.Location)
	blocks = append(blocks, captionBlock(identity))
	return Page{Title: "Cover", Blocks: blocks}
}

// buildEvolution lists every non-initial conversation turn in order. The
// seeding turn (the original concept) belongs to the cover, not here.
func buildEvolution(in Input) []Page {
	blocks := []Block{headingBlock("Design Evolution")}
	for _, t := range in.Turns {
		if t.Text == "" {
			continue
		}
		prefix := "Studio"
		if t.Role == "user" {
			prefix = "Direction"
		}
		blocks = append(blocks, textBlock(prefix+": "+t.Text))
		if t.Image != "" {
			blocks = append(blocks, imageBlock(t.Image))
		}
	}
	return layout("Design Evolution", blocks)
}

func buildContext(in Input) []Page {
	blocks := []Block{headingBlock("Context and Research")}
	if len(in.Materials) > 0 {
		blocks = append(blocks, textBlock("Materials: "+strings.Join(in.Materials, ", ")))
	}
	if in.Lighting != "" {
		blocks = append(blocks, textBlock("Lighting: "+in.Lighting))
	}
	if in.Vernacular != "" {
		blocks = append(blocks, textBlock("Vernacular: "+in.Vernacular))
	}
	for i, img := range in.AngleImages {
		blocks = append(blocks, imageBlock(img))
		blocks = append(blocks, captionBlock(fmt.Sprintf("View %d", i+1)))
	}
	return layout("Context and Research", blocks)
}
