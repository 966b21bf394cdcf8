package tabs

import (
	"testing"

	"github.com/rivo/uniseg"
	"github.com/stretchr/testify/assert"
)

func TestDisplayTitle(t *testing.T) {
	tests := []struct {
		title string
		width int
		want  string
	}{
		{"main.go", 20, "main.go"},
		{"main.go", 0, "main.go"},
		{"main.go", 7, "main.go"},
		{"controller.go", 8, "control…"},
		{"controller.go", 1, "…"},
		{"日本語.txt", 5, "日本…"},
	}

	for _, tt := range tests {
		got := DisplayTitle(tt.title, tt.width)
		assert.Equal(t, tt.want, got, "DisplayTitle(%q, %d)", tt.title, tt.width)
		if tt.width > 0 {
			assert.LessOrEqual(t, uniseg.StringWidth(got), tt.width)
		}
	}
}
