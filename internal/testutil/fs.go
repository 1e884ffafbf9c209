// This file contains shared test helpers for building real, decodable test
// inputs on disk: single raster images and zip image bundles.

package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// PNGBytes returns an encoded PNG of the given dimensions.
func PNGBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test png: %v", err)
	}
	return buf.Bytes()
}

// CreateTestPNG writes a decodable PNG file and returns its path.
func CreateTestPNG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, PNGBytes(t, width, height), 0o644); err != nil {
		t.Fatalf("Failed to write test png: %v", err)
	}
	return path
}

// CreateTestBundle writes a zip archive containing pageCount decodable PNG
// pages and returns its path.
func CreateTestBundle(t *testing.T, dir, name string, pageCount int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test bundle: %v", err)
	}
	defer file.Close()

	zipWriter := zip.NewWriter(file)
	defer zipWriter.Close()

	for i := 0; i < pageCount; i++ {
		w, err := zipWriter.Create(fmt.Sprintf("page_%03d.png", i+1))
		if err != nil {
			t.Fatalf("Failed to create bundle entry: %v", err)
		}
		if _, err := w.Write(PNGBytes(t, 40+i, 60)); err != nil {
			t.Fatalf("Failed to write bundle entry: %v", err)
		}
	}
	return path
}

// CreateCorruptFile writes a file with a supported extension but garbage
// content.
func CreateCorruptFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("this is not an image"), 0o644); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}
	return path
}
