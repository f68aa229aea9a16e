//go:build gocv

package overlay

import (
	"image/color"
	"testing"

	"labelvision/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCVSurface_RendersSedan(t *testing.T) {
	layer := NewLayer()
	defer Release(layer)
	require.IsType(t, &CVSurface{}, layer)

	labels := []model.Detection{
		{Name: "Sedan", Confidence: 95, Instances: []model.Instance{
			{Confidence: 95, BoundingBox: &model.Box{Left: 0.1, Top: 0.1, Width: 0.2, Height: 0.2}},
		}},
	}

	placements := NewRenderer(0).Render(layer, labels, 400, 300)
	require.Len(t, placements, 1)
	p := placements[0]
	assert.Equal(t, "car", p.Label)
	assert.InDelta(t, 40, p.X, 0.001)
	assert.InDelta(t, 30, p.Y, 0.001)
	assert.InDelta(t, 80, p.W, 0.001)
	assert.InDelta(t, 60, p.H, 0.001)

	w, h := layer.Size()
	assert.Equal(t, 400, w)
	assert.Equal(t, 300, h)

	img := layer.Image()
	_, _, _, a := img.At(80, 30).RGBA()
	assert.NotZero(t, a, "box stroke should be drawn")
	assert.Equal(t, color.RGBAModel.Convert(color.Transparent), color.RGBAModel.Convert(img.At(390, 290)))
}
