//go:build !gocv

package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLayer_DefaultsToGG(t *testing.T) {
	layer := NewLayer()
	defer Release(layer)

	assert.IsType(t, &GGSurface{}, layer)
	w, h := layer.Size()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}
