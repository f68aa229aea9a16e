package service

import (
	"cmp"
	"math"
	"slices"

	"labelvision/internal/model"

	"github.com/shopspring/decimal"
)

// DefaultTopN is the number of labels kept for the summary view.
const DefaultTopN = 2

// Rank returns the n most confident labels, confidences rounded to two decimals
// and instances flattened into boxes. Labels with equal confidence keep their
// input order. Labels whose confidence is not a finite number are dropped.
// Rank never fails: a nil or empty input yields an empty, non-nil slice.
func Rank(labels []model.Detection, n int) []model.RankedLabel {
	ranked := make([]model.RankedLabel, 0, max(0, min(n, len(labels))))
	if n <= 0 || len(labels) == 0 {
		return ranked
	}

	sorted := make([]model.Detection, 0, len(labels))
	for _, l := range labels {
		if isFinite(l.Confidence) {
			sorted = append(sorted, l)
		}
	}

	slices.SortStableFunc(sorted, func(a, b model.Detection) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}

	for _, l := range sorted {
		boxes := make([]model.RankedBox, 0, len(l.Instances))
		for _, inst := range l.Instances {
			boxes = append(boxes, flattenInstance(inst))
		}
		ranked = append(ranked, model.RankedLabel{
			Name:       l.Name,
			Confidence: Round2(l.Confidence),
			Boxes:      boxes,
		})
	}

	return ranked
}

func flattenInstance(inst model.Instance) model.RankedBox {
	box := model.RankedBox{Confidence: Round2(inst.Confidence)}
	if b := inst.BoundingBox; b != nil {
		box.Left = ptr(b.Left)
		box.Top = ptr(b.Top)
		box.Width = ptr(b.Width)
		box.Height = ptr(b.Height)
	}
	return box
}

// Round2 rounds v to two decimals, half away from zero, on its shortest
// decimal form: 70.005 becomes 70.01. Non-finite values become 0.
func Round2(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func ptr(v float64) *float64 {
	return &v
}
