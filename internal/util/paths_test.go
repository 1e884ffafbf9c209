package util_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/athulyan/docforge-go/internal/util"
)

func TestSecureJoin(t *testing.T) {
	got, err := util.SecureJoin("/data", "jobs/abc/page_001.jpg")
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "jobs", "abc", "page_001.jpg"), got)

	_, err = util.SecureJoin("/data", "../etc/passwd")
	assert.Error(t, err)

	_, err = util.SecureJoin("/data", "/abs/path")
	assert.Error(t, err)

	_, err = util.SecureJoin("/data", "")
	assert.Error(t, err)

	// Traversal hidden in the middle still resolves inside the root.
	got, err = util.SecureJoin("/data", "jobs/../thumbs/t.jpg")
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "thumbs", "t.jpg"), got)
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "invoice-2024-final", util.SanitizeFileName(`invoice/2024:final`))
	assert.Equal(t, "untitled", util.SanitizeFileName("..."))
	assert.Equal(t, "report", util.SanitizeFileName(" report "))
}
