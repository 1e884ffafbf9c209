package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/nfnt/resize"
)

// ThumbnailOptions bounds the generated thumbnail.
type ThumbnailOptions struct {
	Width   uint
	Height  uint
	Quality int
}

// GenerateThumbnail resizes an image to fit the target box, preserving
// aspect ratio (portrait images pin the width, landscape the height), and
// encodes it as JPEG.
func GenerateThumbnail(img image.Image, opts ThumbnailOptions) ([]byte, error) {
	if opts.Width == 0 {
		opts.Width = 200
	}
	if opts.Height == 0 {
		opts.Height = 300
	}
	if opts.Quality == 0 {
		opts.Quality = 75
	}

	imgHeight := img.Bounds().Dy()
	imgWidth := img.Bounds().Dx()

	var resizedImg image.Image
	if imgHeight > imgWidth {
		resizedImg = resize.Resize(opts.Width, 0, img, resize.Lanczos3)
	} else {
		resizedImg = resize.Resize(0, opts.Height, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resizedImg, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeCanonical converts a decoded page to the canonical raster rendition
// (full-resolution JPEG).
func encodeCanonical(img image.Image, quality int) ([]byte, error) {
	if quality == 0 {
		quality = 90
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
