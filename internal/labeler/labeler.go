package labeler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"labelvision/internal/model"
	"labelvision/internal/overlay"
)

// ErrDetectionFailed is the user-facing error for any failed detect request.
var ErrDetectionFailed = errors.New("Detection failed")

// DetectAPI is the server call used by a Labeler.
type DetectAPI interface {
	DetectLabels(ctx context.Context, img Image) (*model.DetectionResult, error)
}

// Labeler drives a Session against the detection server and draws the
// returned boxes onto a Surface sized to the displayed image.
type Labeler struct {
	api      DetectAPI
	renderer *overlay.Renderer
	surface  overlay.Surface

	mu         sync.Mutex
	session    Session
	generation int
	width      int
	height     int
	placements []overlay.Placement
}

// New creates a Labeler in the empty state.
func New(api DetectAPI, renderer *overlay.Renderer, surface overlay.Surface) *Labeler {
	return &Labeler{
		api:      api,
		renderer: renderer,
		surface:  surface,
		session:  Session{State: StateEmpty},
	}
}

// Session returns a snapshot of the current state.
func (l *Labeler) Session() Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.session
}

// Placements returns the boxes drawn by the last render.
func (l *Labeler) Placements() []overlay.Placement {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]overlay.Placement(nil), l.placements...)
}

// Select picks a new image. Previous labels are dropped, the overlay is
// cleared and any pending response is discarded when it arrives.
func (l *Labeler) Select(img Image) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.generation++
	l.session = l.session.Select(img)
	l.redrawLocked()
}

// ChooseAnother returns to the empty state.
func (l *Labeler) ChooseAnother() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.generation++
	l.session = l.session.Clear()
	l.redrawLocked()
}

// ToggleShowAll flips the full label list.
func (l *Labeler) ToggleShowAll() Session {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.session = l.session.ToggleShowAll()
	return l.session
}

// Redraw renders the current labels for an image displayed at width x height.
// Call it whenever the displayed size changes.
func (l *Labeler) Redraw(width, height int) []overlay.Placement {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.width, l.height = width, height
	l.redrawLocked()
	return append([]overlay.Placement(nil), l.placements...)
}

// Detect sends the selected image to the server and renders the result on
// success. Any failure is reported as ErrDetectionFailed and the session
// goes back to the image-selected state.
func (l *Labeler) Detect(ctx context.Context) (Session, error) {
	l.mu.Lock()
	next, err := l.session.BeginDetect()
	if err != nil {
		l.mu.Unlock()
		return l.session, err
	}
	l.session = next
	gen := l.generation
	img := *next.Image
	l.mu.Unlock()

	res, callErr := l.api.DetectLabels(ctx, img)

	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.generation {
		return l.session, context.Canceled
	}

	if callErr != nil {
		l.session, _ = l.session.Fail(ErrDetectionFailed)
		return l.session, fmt.Errorf("%w: %v", ErrDetectionFailed, callErr)
	}

	l.session, _ = l.session.Complete(res)
	l.redrawLocked()
	return l.session, nil
}

func (l *Labeler) redrawLocked() {
	if l.surface == nil || l.width <= 0 || l.height <= 0 {
		l.placements = nil
		return
	}

	// A failed request keeps the labels of the previous success on screen.
	l.placements = l.renderer.Render(l.surface, l.session.Labels, l.width, l.height)
}
