package export

// Page geometry in pixels, roughly A4 at 150dpi.
const (
	PageWidth  = 1240
	PageHeight = 1754
	PageMargin = 80
)

// contentHeight is the vertical space available for blocks on one page.
const contentHeight = PageHeight - 2*PageMargin

// Block kinds.
const (
	BlockHeading = "heading"
	BlockText    = "text"
	BlockImage   = "image"
	BlockCaption = "caption"
)

// Block is one laid-out element. Height is the vertical space it consumes,
// fixed per kind (text scales with its line count).
type Block struct {
	Kind    string `json:"kind"`
	Text    string `json:"text,omitempty"`
	Payload string `json:"payload,omitempty"`
	Height  int    `json:"height"`
}

// Page holds the blocks that fit within one page's content height.
type Page struct {
	Title  string  `json:"title"`
	Blocks []Block `json:"blocks"`
}

// Document is the assembled multi-page dossier.
type Document struct {
	Title string `json:"title"`
	Pages []Page `json:"pages"`
}

// layout distributes blocks over pages of the given title. When the remaining
// vertical space cannot hold the next block, a new page starts. A block
// taller than a whole page still gets a page of its own.
func layout(title string, blocks []Block) []Page {
	pages := []Page{}
	var cur *Page
	remaining := 0

	for _, b := range blocks {
		if cur == nil || (b.Height > remaining && len(cur.Blocks) > 0) {
			pages = append(pages, Page{Title: title})
			cur = &pages[len(pages)-1]
			remaining = contentHeight
		}
		cur.Blocks = append(cur.Blocks, b)
		remaining -= b.Height
	}

	if cur == nil {
		pages = append(pages, Page{Title: title})
	}
	return pages
}

// Block height presets.
const (
	headingHeight  = 72
	textLineHeight = 28
	imageHeight    = 640
	captionHeight  = 32
)

func headingBlock(text string) Block {
	return Block{Kind: BlockHeading, Text: text, Height: headingHeight}
}

func textBlock(text string) Block {
	lines := 1 + len(text)/90
	return Block{Kind: BlockText, Text: text, Height: lines * textLineHeight}
}

func imageBlock(payload string) Block {
	return Block{Kind: BlockImage, Payload: payload, Height: imageHeight}
}

func captionBlock(text string) Block {
	return Block{Kind: BlockCaption, Text: text, Height: captionHeight}
}
