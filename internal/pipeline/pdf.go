package pipeline

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// pdfHandler renders paginated documents to one raster image per page via
// MuPDF.
type pdfHandler struct{}

func (h *pdfHandler) Extensions() []string {
	return []string{".pdf", ".epub", ".xps"}
}

func (h *pdfHandler) Decode(path string) (*Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if n == 0 {
		return nil, fmt.Errorf("document has no pages")
	}

	pages := make([]image.Image, 0, n)
	for i := 0; i < n; i++ {
		img, err := doc.Image(i)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}
		pages = append(pages, img)
	}
	return &Document{Format: "pdf", Pages: pages}, nil
}
