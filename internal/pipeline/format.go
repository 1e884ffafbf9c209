// This file defines the format handler abstraction: given a file on disk,
// a handler decodes it into one image per logical page. Simple raster
// formats always yield a single page; PDFs and image bundles yield one page
// per contained page/image. Handlers are selected by file extension.

package pipeline

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	// Register decoders for the simple raster formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Document is the decoded, in-memory representation of an input file.
type Document struct {
	Format string // normalized extension without the dot, e.g. "pdf"
	Pages  []image.Image
}

// PageCount returns the number of logical pages.
func (d *Document) PageCount() int { return len(d.Pages) }

// IsMultiPage reports whether the input decoded to more than one page.
func (d *Document) IsMultiPage() bool { return len(d.Pages) > 1 }

// FormatHandler decodes one family of input formats.
type FormatHandler interface {
	// Extensions lists the lowercase extensions (with dot) this handler accepts.
	Extensions() []string
	// Decode reads the file and produces one image per page.
	Decode(path string) (*Document, error)
}

// Registry maps file extensions to their handler.
type Registry struct {
	handlers map[string]FormatHandler
}

// NewRegistry builds the default registry: raster images, PDFs, and zip
// image bundles.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]FormatHandler)}
	r.Register(&rasterHandler{})
	r.Register(&pdfHandler{})
	r.Register(&bundleHandler{})
	return r
}

// Register adds a handler for each of its extensions.
func (r *Registry) Register(h FormatHandler) {
	for _, ext := range h.Extensions() {
		r.handlers[ext] = h
	}
}

// HandlerFor returns the handler for a file name's extension.
func (r *Registry) HandlerFor(fileName string) (FormatHandler, bool) {
	h, ok := r.handlers[strings.ToLower(filepath.Ext(fileName))]
	return h, ok
}

// SupportedExtensions returns the accepted extension set.
func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.handlers))
	for ext := range r.handlers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// rasterHandler decodes single-frame raster images.
type rasterHandler struct{}

func (h *rasterHandler) Extensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
}

func (h *rasterHandler) Decode(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return &Document{Format: format, Pages: []image.Image{img}}, nil
}
