//go:build gocv

package overlay

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

const (
	cvFont      = gocv.FontHersheySimplex
	cvFontScale = 0.45
)

// CVSurface draws on an OpenCV BGRA matrix. Build with -tags gocv.
type CVSurface struct {
	mat gocv.Mat
}

// NewCVSurface creates a transparent surface of the given size. Close releases it.
func NewCVSurface(width, height int) *CVSurface {
	s := &CVSurface{mat: gocv.NewMat()}
	s.Resize(width, height)
	return s
}

func (s *CVSurface) Resize(width, height int) {
	s.mat.Close()
	s.mat = gocv.NewMatWithSize(max(height, 1), max(width, 1), gocv.MatTypeCV8UC4)
	s.Clear()
}

func (s *CVSurface) Size() (int, int) {
	return s.mat.Cols(), s.mat.Rows()
}

func (s *CVSurface) Clear() {
	s.mat.SetTo(gocv.NewScalar(0, 0, 0, 0))
}

func (s *CVSurface) StrokeRect(x, y, w, h float64, c color.Color, lineWidth float64) {
	_ = gocv.Rectangle(&s.mat, rect(x, y, w, h), toRGBA(c), int(lineWidth))
}

func (s *CVSurface) FillRect(x, y, w, h float64, c color.Color) {
	_ = gocv.Rectangle(&s.mat, rect(x, y, w, h), toRGBA(c), -1)
}

func (s *CVSurface) MeasureText(text string) float64 {
	return float64(gocv.GetTextSize(text, cvFont, cvFontScale, 1).X)
}

func (s *CVSurface) FillText(text string, x, y, maxWidth float64, c color.Color) {
	if maxWidth <= 0 {
		return
	}
	text = fitText(text, maxWidth, s.MeasureText)
	_ = gocv.PutText(&s.mat, text, image.Pt(int(x), int(y)), cvFont, cvFontScale, toRGBA(c), 1)
}

// Image returns the drawn layer.
func (s *CVSurface) Image() image.Image {
	img, err := s.mat.ToImage()
	if err != nil {
		return image.NewRGBA(image.Rect(0, 0, s.mat.Cols(), s.mat.Rows()))
	}
	return img
}

// Close releases the underlying matrix.
func (s *CVSurface) Close() error {
	return s.mat.Close()
}

func rect(x, y, w, h float64) image.Rectangle {
	return image.Rect(int(x), int(y), int(x+w), int(y+h))
}

func toRGBA(c color.Color) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}
