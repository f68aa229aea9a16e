package overlay

import "io"

// Release frees resources held by a layer, if any.
func Release(l Layer) {
	if c, ok := l.(io.Closer); ok {
		c.Close()
	}
}
