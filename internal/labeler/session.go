package labeler

import (
	"cmp"
	"errors"
	"slices"

	"labelvision/internal/model"
)

// State is a step of the image labeling lifecycle.
type State int

const (
	StateEmpty State = iota
	StateImageSelected
	StateDetecting
	StateRendered
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateImageSelected:
		return "image-selected"
	case StateDetecting:
		return "detecting"
	case StateRendered:
		return "rendered"
	default:
		return "unknown"
	}
}

var (
	ErrNoImage           = errors.New("no image selected")
	ErrDetectionPending  = errors.New("detection already in progress")
	ErrInvalidTransition = errors.New("invalid session transition")
)

// Image is a picked image file.
type Image struct {
	Name        string
	Data        []byte
	ContentType string
}

// Session is the client state for one image. Transitions return a new
// Session; a Session value is never modified in place.
type Session struct {
	State   State
	Image   *Image
	Labels  []model.Detection // Every returned label, most confident first
	ShowAll bool
	Err     error
}

// Select starts a new session for img, dropping any previous labels.
func (s Session) Select(img Image) Session {
	return Session{State: StateImageSelected, Image: &img}
}

// Clear returns to the empty state.
func (s Session) Clear() Session {
	return Session{State: StateEmpty}
}

// BeginDetect marks a detection request as pending. Only one may be pending.
func (s Session) BeginDetect() (Session, error) {
	switch s.State {
	case StateEmpty:
		return s, ErrNoImage
	case StateDetecting:
		return s, ErrDetectionPending
	}

	next := s
	next.State = StateDetecting
	next.Err = nil
	return next, nil
}

// Complete replaces the labels with those of a successful response.
func (s Session) Complete(res *model.DetectionResult) (Session, error) {
	if s.State != StateDetecting {
		return s, ErrInvalidTransition
	}

	return Session{
		State:   StateRendered,
		Image:   s.Image,
		Labels:  labelsFromResult(res),
		ShowAll: s.ShowAll,
	}, nil
}

// Fail records a failed request. Labels from an earlier success are kept.
func (s Session) Fail(err error) (Session, error) {
	if s.State != StateDetecting {
		return s, ErrInvalidTransition
	}

	next := s
	next.State = StateImageSelected
	next.Err = err
	return next, nil
}

// ToggleShowAll flips the full label list.
func (s Session) ToggleShowAll() Session {
	next := s
	next.ShowAll = !s.ShowAll
	return next
}

// Loading reports whether a detection request is pending.
func (s Session) Loading() bool {
	return s.State == StateDetecting
}

// BestMatch returns the most confident label.
func (s Session) BestMatch() (model.Detection, bool) {
	if len(s.Labels) == 0 {
		return model.Detection{}, false
	}
	return s.Labels[0], true
}

// labelsFromResult prefers the full detector output and falls back to the
// ranked summary. The result is sorted by confidence, ties in input order.
func labelsFromResult(res *model.DetectionResult) []model.Detection {
	if res == nil {
		return []model.Detection{}
	}

	var labels []model.Detection
	if len(res.Raw.Labels) > 0 {
		labels = slices.Clone(res.Raw.Labels)
	} else {
		labels = make([]model.Detection, 0, len(res.TopLabels))
		for _, l := range res.TopLabels {
			labels = append(labels, fromRanked(l))
		}
	}

	slices.SortStableFunc(labels, func(a, b model.Detection) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})
	return labels
}

func fromRanked(l model.RankedLabel) model.Detection {
	det := model.Detection{
		Name:       l.Name,
		Confidence: l.Confidence,
		Instances:  make([]model.Instance, 0, len(l.Boxes)),
	}
	for _, b := range l.Boxes {
		inst := model.Instance{Confidence: b.Confidence}
		if b.HasGeometry() {
			inst.BoundingBox = &model.Box{Left: *b.Left, Top: *b.Top, Width: *b.Width, Height: *b.Height}
		}
		det.Instances = append(det.Instances, inst)
	}
	return det
}
