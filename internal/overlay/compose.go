package overlay

import (
	"bytes"
	"image"
	"io"
	"math"

	"labelvision/internal/model"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// Layer is a Surface whose drawing can be read back as an image.
type Layer interface {
	Surface
	Image() image.Image
}

// DecodeImage decodes image bytes, applying the EXIF orientation.
func DecodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}
	return img, nil
}

// DisplaySize returns the size of img when shown displayWidth pixels wide,
// keeping the aspect ratio. A displayWidth <= 0 keeps the native size.
func DisplaySize(img image.Image, displayWidth int) (int, int) {
	b := img.Bounds()
	if displayWidth <= 0 || b.Dx() == 0 {
		return b.Dx(), b.Dy()
	}
	height := int(math.Round(float64(b.Dy()) * float64(displayWidth) / float64(b.Dx())))
	return displayWidth, max(height, 1)
}

// Compose scales base to the layer size and draws the layer over it.
func Compose(base image.Image, layer image.Image) image.Image {
	lb := layer.Bounds()
	if base.Bounds().Size() != lb.Size() {
		base = resize.Resize(uint(lb.Dx()), uint(lb.Dy()), base, resize.Bilinear)
	}

	dc := gg.NewContext(lb.Dx(), lb.Dy())
	dc.DrawImage(base, 0, 0)
	dc.DrawImage(layer, 0, 0)
	return dc.Image()
}

// Annotate draws the overlay for labels on img shown displayWidth pixels wide
// and returns the composed picture with the drawn placements.
func (r *Renderer) Annotate(img image.Image, labels []model.Detection, displayWidth int, layer Layer) (image.Image, []Placement) {
	w, h := DisplaySize(img, displayWidth)
	placements := r.Render(layer, labels, w, h)
	return Compose(img, layer.Image()), placements
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}
