package overlay

import "unicode/utf8"

// fitText drops trailing runes until measure(text) fits maxWidth.
func fitText(text string, maxWidth float64, measure func(string) float64) string {
	for len(text) > 0 && measure(text) > maxWidth {
		_, size := utf8.DecodeLastRuneInString(text)
		text = text[:len(text)-size]
	}
	return text
}
