package classify

import (
	"math"

	"github.com/danielpatrickdp/regioncheck/internal/region"
)

// #region classify

// Classify reports whether (x, y) lies in the region of scale r.
// It reads no shared state and is safe for concurrent use.
func Classify(x, y, r float64) (bool, error) {
	kind, err := Shape(x, y, r)
	if err != nil {
		return false, err
	}
	return kind != region.ShapeNone, nil
}

// ClassifyPoint is Classify over a region.Point.
func ClassifyPoint(p region.Point, r float64) (bool, error) {
	return Classify(p.X, p.Y, r)
}

// Shape returns which sub-shape admitted (x, y), or region.ShapeNone on a miss.
func Shape(x, y, r float64) (region.ShapeKind, error) {
	if err := checkDomain(x, y, r); err != nil {
		return region.ShapeNone, err
	}
	return region.Build(r).Which(region.Point{X: x, Y: y}), nil
}

// #endregion classify

// #region domain

func checkDomain(x, y, r float64) error {
	switch {
	case math.IsNaN(r) || math.IsInf(r, 0):
		return &DomainError{X: x, Y: y, R: r, Reason: "r is not finite"}
	case r <= 0:
		return &DomainError{X: x, Y: y, R: r, Reason: "r must be positive"}
	case math.IsNaN(x) || math.IsInf(x, 0):
		return &DomainError{X: x, Y: y, R: r, Reason: "x is not finite"}
	case math.IsNaN(y) || math.IsInf(y, 0):
		return &DomainError{X: x, Y: y, R: r, Reason: "y is not finite"}
	}
	return nil
}

// #endregion domain
