package region

import "math"

// #region constants

// arcTolerance is the relative slack on (r/2)^2 for the quarter-disk test.
const arcTolerance = 1e-9

// #endregion constants

// #region region
// Region is the union of a rectangle, a quarter disk and a triangle, each
// anchored at the origin and sized by R. Every boundary is inclusive.
type Region struct {
	R float64
}

// Build returns the region for scale r. It does not check r; callers that
// need a defined region must reject r <= 0 first.
func Build(r float64) Region {
	return Region{R: r}
}

// #endregion region

// #region predicates

// Rectangle reports whether p lies in 0 <= x <= R, -R/2 <= y <= 0.
func (g Region) Rectangle(p Point) bool {
	return p.X >= 0 && p.X <= g.R && p.Y <= 0 && p.Y >= -g.R/2
}

// QuarterDisk reports whether p lies in x <= 0, y <= 0, x^2+y^2 <= (R/2)^2.
// Points within a relative 1e-9 of the arc are admitted so that exact arc
// points survive rounding.
func (g Region) QuarterDisk(p Point) bool {
	if p.X > 0 || p.Y > 0 {
		return false
	}
	half := g.R / 2
	if half == 0 {
		// R/2 underflowed; only the origin is representable inside.
		return p.X == 0 && p.Y == 0
	}
	// Compare on the unit disk; raw squares overflow or underflow at extreme R.
	ux, uy := p.X/half, p.Y/half
	return ux*ux+uy*uy <= 1+arcTolerance
}

// Triangle reports whether p lies in x >= 0, y >= 0, x+y <= R/2.
func (g Region) Triangle(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X+p.Y <= g.R/2
}

// Contains reports whether p lies in any of the three shapes.
func (g Region) Contains(p Point) bool {
	return g.Which(p) != ShapeNone
}

// Which returns the first shape containing p, checked in the order
// rectangle, quarter disk, triangle, or ShapeNone.
func (g Region) Which(p Point) ShapeKind {
	switch {
	case g.Rectangle(p):
		return ShapeRectangle
	case g.QuarterDisk(p):
		return ShapeQuarterDisk
	case g.Triangle(p):
		return ShapeTriangle
	}
	return ShapeNone
}

// #endregion predicates

// #region shapes

// Shapes describes the three sub-shapes in region units.
func (g Region) Shapes() []Shape {
	half := g.R / 2
	return []Shape{
		{
			Kind: ShapeRectangle,
			Min:  Point{X: 0, Y: -half},
			Max:  Point{X: g.R, Y: 0},
		},
		{
			Kind:       ShapeQuarterDisk,
			Center:     Point{},
			Radius:     half,
			StartAngle: math.Pi,
			EndAngle:   3 * math.Pi / 2,
		},
		{
			Kind:     ShapeTriangle,
			Vertices: []Point{{X: 0, Y: 0}, {X: half, Y: 0}, {X: 0, Y: half}},
		},
	}
}

// Bounds returns the axis-aligned box that encloses all three shapes.
func (g Region) Bounds() (lo, hi Point) {
	half := g.R / 2
	return Point{X: -half, Y: -half}, Point{X: g.R, Y: half}
}

// #endregion shapes
