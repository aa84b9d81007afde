package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToKebabCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"TreeDrag", "tree-drag"},
		{"treeDrag", "tree-drag"},
		{"XLIFFUpload", "xliff-upload"},
		{"xliff_upload", "xliff-upload"},
		{"media library", "media-library"},
		{"  Media   Library  ", "media-library"},
		{"already-kebab", "already-kebab"},
		{"page2Pdf", "page2-pdf"},
		{"Über Feature", "ber-feature"},
		{"--", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToKebabCase(tt.input))
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"HTTPRequest", "http_request"},
		{"UserID", "user_id"},
		{"simple", "simple"},
		{"tree-drag", "tree_drag"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToSnakeCase(tt.input))
		})
	}
}
