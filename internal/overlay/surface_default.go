//go:build !gocv

package overlay

// NewLayer returns the drawing layer used by the server and the CLI.
// Builds tagged gocv draw with OpenCV instead.
func NewLayer() Layer {
	return NewGGSurface(1, 1)
}
