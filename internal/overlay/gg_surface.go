package overlay

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// GGSurface is a transparent RGBA layer drawn with gg.
type GGSurface struct {
	dc *gg.Context
}

// NewGGSurface creates a transparent surface of the given size.
func NewGGSurface(width, height int) *GGSurface {
	s := &GGSurface{}
	s.Resize(width, height)
	return s
}

func (s *GGSurface) Resize(width, height int) {
	s.dc = gg.NewContext(max(width, 1), max(height, 1))
	s.dc.SetFontFace(basicfont.Face7x13)
}

func (s *GGSurface) Size() (int, int) {
	return s.dc.Width(), s.dc.Height()
}

func (s *GGSurface) Clear() {
	s.dc.SetColor(color.Transparent)
	s.dc.Clear()
}

func (s *GGSurface) StrokeRect(x, y, w, h float64, c color.Color, lineWidth float64) {
	s.dc.SetColor(c)
	s.dc.SetLineWidth(lineWidth)
	s.dc.DrawRectangle(x, y, w, h)
	s.dc.Stroke()
}

func (s *GGSurface) FillRect(x, y, w, h float64, c color.Color) {
	s.dc.SetColor(c)
	s.dc.DrawRectangle(x, y, w, h)
	s.dc.Fill()
}

func (s *GGSurface) MeasureText(text string) float64 {
	w, _ := s.dc.MeasureString(text)
	return w
}

func (s *GGSurface) FillText(text string, x, y, maxWidth float64, c color.Color) {
	if maxWidth <= 0 {
		return
	}
	s.dc.DrawRectangle(x, y-s.dc.FontHeight()-captionDescent, maxWidth, s.dc.FontHeight()+2*captionDescent)
	s.dc.Clip()
	s.dc.SetColor(c)
	s.dc.DrawString(text, x, y)
	s.dc.ResetClip()
}

// Image returns the drawn layer.
func (s *GGSurface) Image() image.Image {
	return s.dc.Image()
}
