// This file handles zip image bundles (.zip/.cbz): archives whose image
// entries become the logical pages of the document, ordered by entry name.

package pipeline

import (
	"archive/zip"
	"fmt"
	"image"
	"path/filepath"
	"sort"
	"strings"
)

// isImageEntry checks if an archive entry has a common image file extension.
func isImageEntry(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".jpg" || ext == ".jpeg" || ext == ".png" || ext == ".gif" || ext == ".webp"
}

// bundleHandler decodes zip archives of images, one page per image entry.
type bundleHandler struct{}

func (h *bundleHandler) Extensions() []string {
	return []string{".zip", ".cbz"}
}

func (h *bundleHandler) Decode(path string) (*Document, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer r.Close()

	var entries []*zip.File
	for _, f := range r.File {
		// Skip directories and non-image files
		if f.FileInfo().IsDir() || !isImageEntry(f.Name) {
			continue
		}
		entries = append(entries, f)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("archive contains no image entries")
	}

	// Sort entries alphabetically by name to ensure stable page order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	pages := make([]image.Image, 0, len(entries))
	for _, f := range entries {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open entry %s: %w", f.Name, err)
		}
		img, _, err := image.Decode(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode entry %s: %w", f.Name, err)
		}
		pages = append(pages, img)
	}

	return &Document{Format: "zip", Pages: pages}, nil
}
