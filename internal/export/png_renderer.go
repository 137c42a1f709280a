package export

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/sync/errgroup"

	"github.com/atelier-ai/atelier-backend/internal/gateway"
)

// RenderPNG renders every page of the document to outDir as page-NN.png and
// returns the written paths. Image payloads that cannot be decoded are
// skipped, keeping the rest of the page.
func RenderPNG(doc Document, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	paths := make([]string, len(doc.Pages))
	var g errgroup.Group
	for i, page := range doc.Pages {
		path := filepath.Join(outDir, fmt.Sprintf("page-%02d.png", i+1))
		paths[i] = path
		g.Go(func() error {
			return renderPage(page, path)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func renderPage(page Page, path string) error {
	dc := gg.NewContext(PageWidth, PageHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetRGB(0.1, 0.1, 0.1)

	y := float64(PageMargin)
	for _, b := range page.Blocks {
		switch b.Kind {
		case BlockHeading, BlockText, BlockCaption:
			dc.DrawStringWrapped(b.Text, PageMargin, y, 0, 0,
				float64(PageWidth-2*PageMargin), 1.4, gg.AlignLeft)
		case BlockImage:
			drawImage(dc, b.Payload, y)
		}
		y += float64(b.Height)
	}

	return dc.SavePNG(path)
}

func drawImage(dc *gg.Context, payload string, y float64) {
	raw, err := gateway.DecodePayload(payload)
	if err != nil {
		log.Printf("[warn] skipping undecodable dossier image: %v", err)
		return
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		log.Printf("[warn] skipping unreadable dossier image: %v", err)
		return
	}

	maxW := float64(PageWidth - 2*PageMargin)
	scale := maxW / float64(img.Bounds().Dx())
	if h := float64(img.Bounds().Dy()) * scale; h > imageHeight {
		scale = imageHeight / float64(img.Bounds().Dy())
	}

	dc.Push()
	dc.Scale(scale, scale)
	dc.DrawImage(img, int(PageMargin/scale), int(y/scale))
	dc.Pop()
}
