package overlay

import (
	"image/color"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette is the fixed, ordered set of label colors.
var Palette = [8]string{
	"#ff4d4f",
	"#36cfc9",
	"#9254de",
	"#f39c12",
	"#00b96b",
	"#ffa94d",
	"#1abc9c",
	"#e67e22",
}

var paletteColors = func() [len(Palette)]color.Color {
	var colors [len(Palette)]color.Color
	for i, hex := range Palette {
		c, err := colorful.Hex(hex)
		if err != nil {
			panic("overlay: bad palette entry " + hex)
		}
		colors[i] = c
	}
	return colors
}()

// synonyms maps lower-cased raw names to a canonical name.
var synonyms = map[string]string{
	"limo":       "car",
	"limousine":  "car",
	"coupe":      "car",
	"sports car": "car",
	"sedan":      "car",
	"automobile": "car",
}

// Normalize maps a raw label name to its canonical name, ignoring case.
// Unknown names are returned unchanged.
func Normalize(name string) string {
	if canonical, ok := synonyms[strings.ToLower(name)]; ok {
		return canonical
	}
	return name
}

// ColorFor returns the palette entry for a normalized name: the sum of its
// UTF-16 leading code units modulo the palette size. Different names may share a color.
func ColorFor(name string) string {
	return Palette[paletteIndex(name)]
}

// Color is ColorFor as a color.Color.
func Color(name string) color.Color {
	return paletteColors[paletteIndex(name)]
}

func paletteIndex(name string) int {
	sum := 0
	for _, r := range name {
		if r > 0xFFFF {
			r, _ = utf16.EncodeRune(r)
		}
		sum += int(r)
	}
	return sum % len(Palette)
}

// Capitalize upper-cases the first letter of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
