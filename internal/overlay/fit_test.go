package overlay

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestFitText(t *testing.T) {
	perRune := func(s string) float64 { return float64(7 * utf8.RuneCountInString(s)) }

	tests := []struct {
		name     string
		text     string
		maxWidth float64
		expected string
	}{
		{"fits", "Car 99.0%", 100, "Car 99.0%"},
		{"ascii trimmed", "Car 99.0%", 21, "Car"},
		{"multi-byte kept whole", "Café 91.0%", 28, "Café"},
		{"cjk", "汽车 90.0%", 14, "汽车"},
		{"nothing fits", "Car", 3, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fitText(tt.text, tt.maxWidth, perRune)
			assert.Equal(t, tt.expected, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
