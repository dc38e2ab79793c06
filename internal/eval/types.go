package eval

import (
	"time"

	"github.com/danielpatrickdp/regioncheck/internal/region"
)

// #region record
// Record is the outcome of one classification. Records are values: they are
// created once by Evaluate and never modified afterwards.
type Record struct {
	ID          string
	Point       region.Point
	Radius      float64
	Hit         bool
	Shape       region.ShapeKind // sub-shape that admitted the point, empty on a miss
	EvaluatedAt time.Time        // UTC wall clock at the start of classification
	Duration    time.Duration    // monotonic time spent classifying
}

// DurationMicros returns Duration in microseconds, keeping the fractional part.
func (r Record) DurationMicros() float64 {
	return float64(r.Duration) / float64(time.Microsecond)
}

// #endregion record

// #region summary
// Summary aggregates a batch of records.
type Summary struct {
	Total          int
	Hits           int
	Misses         int
	MeanMicros     float64
	MaxMicros      float64
	ShapeBreakdown map[region.ShapeKind]int
}

// #endregion summary
