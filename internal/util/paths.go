// Path helpers shared by the storage backends and the pipeline.

package util

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// SecureJoin joins a relative artifact path onto root, rejecting directory
// traversal. All artifact paths in results are relative, so anything
// escaping the root is a programming error or a hostile input.
func SecureJoin(root, rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("artifact path cannot be empty")
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("artifact path must be relative: %s", rel)
	}
	clean := filepath.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("artifact path escapes the workspace: %s", rel)
	}
	return filepath.Join(root, clean), nil
}

var invalidNameChars = regexp.MustCompile(`[\x00-\x1f\x7f\\/:*?"<>|]`)

// SanitizeFileName removes characters that cannot be used in file names on
// common filesystems.
func SanitizeFileName(name string) string {
	safe := invalidNameChars.ReplaceAllString(name, "-")
	safe = strings.Trim(safe, " .-")
	if safe == "" {
		safe = "untitled"
	}
	return safe
}
