package overlay

import (
	"fmt"
	"image/color"

	"labelvision/internal/model"
)

const (
	// DisplayThreshold is the minimum instance confidence (percent) for a box to be drawn.
	DisplayThreshold = 80.0
	// LineWidth is the box stroke width in pixels.
	LineWidth = 3.0

	captionInset   = 2.0
	captionPadding = 4.0
	captionHeight  = 18.0
	captionMargin  = 4.0
	captionDescent = 5.0
)

var (
	captionBackground = color.NRGBA{R: 0, G: 0, B: 0, A: 191}
	captionText       = color.White
)

// Surface is a 2D drawing target. Coordinates are pixels, origin top-left;
// text is positioned by its baseline and clipped to maxWidth.
type Surface interface {
	Resize(width, height int)
	Size() (width, height int)
	Clear()
	StrokeRect(x, y, w, h float64, c color.Color, lineWidth float64)
	FillRect(x, y, w, h float64, c color.Color)
	MeasureText(text string) float64
	FillText(text string, x, y, maxWidth float64, c color.Color)
}

// Placement describes one drawn box in pixel space.
type Placement struct {
	Label        string  // Normalized label name
	Color        string  // Palette entry
	Confidence   float64 // Instance confidence
	X, Y, W, H   float64
	Caption      string
	CaptionWidth float64
}

// Renderer draws detection boxes with captions.
type Renderer struct {
	threshold float64
}

// NewRenderer creates a Renderer. A threshold <= 0 uses DisplayThreshold.
func NewRenderer(threshold float64) *Renderer {
	if threshold <= 0 {
		threshold = DisplayThreshold
	}
	return &Renderer{threshold: threshold}
}

// Threshold returns the confidence needed for a box to be drawn.
func (r *Renderer) Threshold() float64 {
	return r.threshold
}

// Render resizes the surface to width x height, clears it and draws every
// instance box at or above the threshold. Fractional box coordinates are scaled
// by the surface size. An empty label list only clears.
func (r *Renderer) Render(s Surface, labels []model.Detection, width, height int) []Placement {
	s.Resize(width, height)
	s.Clear()

	cw, ch := s.Size()
	placements := make([]Placement, 0)

	for _, label := range labels {
		name := Normalize(label.Name)
		hex := ColorFor(name)
		stroke := Color(name)

		for _, inst := range label.Instances {
			b := inst.BoundingBox
			if b == nil || inst.Confidence < r.threshold {
				continue
			}

			p := Placement{
				Label:      name,
				Color:      hex,
				Confidence: inst.Confidence,
				X:          b.Left * float64(cw),
				Y:          b.Top * float64(ch),
				W:          b.Width * float64(cw),
				H:          b.Height * float64(ch),
				Caption:    fmt.Sprintf("%s %.1f%%", Capitalize(name), inst.Confidence),
			}

			s.StrokeRect(p.X, p.Y, p.W, p.H, stroke, LineWidth)

			p.CaptionWidth = min(s.MeasureText(p.Caption)+captionPadding*2, p.W-captionMargin)
			if p.CaptionWidth > 0 {
				s.FillRect(p.X+captionInset, p.Y+captionInset, p.CaptionWidth, captionHeight, captionBackground)
				s.FillText(p.Caption, p.X+captionInset+captionPadding, p.Y+captionInset+captionHeight-captionDescent,
					p.CaptionWidth-captionPadding, captionText)
			} else {
				p.CaptionWidth = 0
			}

			placements = append(placements, p)
		}
	}

	return placements
}
