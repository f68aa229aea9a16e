//go:build gocv

package overlay

// NewLayer returns an OpenCV-backed layer. Call Release when done.
func NewLayer() Layer {
	return NewCVSurface(1, 1)
}
