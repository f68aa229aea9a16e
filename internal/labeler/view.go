package labeler

import (
	"fmt"
	"io"
	"math"
	"strings"

	"labelvision/internal/model"
)

const barWidth = 10

// BestMatchLine is the summary for the most confident label, or "" when
// there are no labels.
func BestMatchLine(s Session) string {
	best, ok := s.BestMatch()
	if !ok {
		return ""
	}
	return fmt.Sprintf("Best Match: %s - %.1f%%", best.Name, best.Confidence)
}

// ConfidenceBar draws a percentage as a fixed-width text bar.
func ConfidenceBar(confidence float64) string {
	if math.IsNaN(confidence) {
		confidence = 0
	}
	filled := int(math.Round(math.Max(0, math.Min(100, confidence)) / 100 * barWidth))
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// WriteSummary prints the best match and, when ShowAll is set, every label
// with its confidence bar.
func WriteSummary(w io.Writer, s Session) error {
	line := BestMatchLine(s)
	if line == "" {
		_, err := fmt.Fprintln(w, "No labels detected")
		return err
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	if !s.ShowAll {
		return nil
	}

	if _, err := fmt.Fprintln(w, "All Labels"); err != nil {
		return err
	}
	for _, l := range s.Labels {
		if _, err := fmt.Fprintf(w, "  %-24s %s %5.1f%%\n", l.Name, ConfidenceBar(l.Confidence), l.Confidence); err != nil {
			return err
		}
	}
	return nil
}

// WriteRanked prints labels returned for a stored image, best first.
func WriteRanked(w io.Writer, top []model.RankedLabel) error {
	if len(top) == 0 {
		_, err := fmt.Fprintln(w, "No labels detected")
		return err
	}
	if _, err := fmt.Fprintf(w, "Best Match: %s - %.1f%%\n", top[0].Name, top[0].Confidence); err != nil {
		return err
	}
	for _, l := range top {
		if _, err := fmt.Fprintf(w, "  %-24s %s %5.1f%%  %d boxes\n", l.Name, ConfidenceBar(l.Confidence), l.Confidence, len(l.Boxes)); err != nil {
			return err
		}
	}
	return nil
}
