package region

// #region point
// Point is a location in the plane. Both coordinates are expected to be finite.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// #endregion point

// #region shape-kind
// ShapeKind names one of the three sub-shapes of a region.
type ShapeKind string

const (
	ShapeNone        ShapeKind = ""
	ShapeRectangle   ShapeKind = "rectangle"
	ShapeQuarterDisk ShapeKind = "quarter_disk"
	ShapeTriangle    ShapeKind = "triangle"
)

// #endregion shape-kind

// #region shape
// Shape is a plain geometric descriptor of one sub-shape, in region units.
// It carries no behaviour; renderers and reports consume it.
//
//   - rectangle: Min/Max are opposite corners.
//   - quarter_disk: Center and Radius, spanning angles StartAngle..EndAngle (radians).
//   - triangle: Vertices holds the three corners.
type Shape struct {
	Kind       ShapeKind `json:"kind"`
	Min        Point     `json:"min"`
	Max        Point     `json:"max"`
	Center     Point     `json:"center"`
	Radius     float64   `json:"radius,omitempty"`
	StartAngle float64   `json:"start_angle,omitempty"`
	EndAngle   float64   `json:"end_angle,omitempty"`
	Vertices   []Point   `json:"vertices,omitempty"`
}

// #endregion shape
