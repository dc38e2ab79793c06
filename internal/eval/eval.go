package eval

import (
	"time"

	"github.com/danielpatrickdp/regioncheck/internal/classify"
	"github.com/danielpatrickdp/regioncheck/internal/region"
	"github.com/danielpatrickdp/regioncheck/internal/validate"
	"github.com/google/uuid"
)

// #region evaluator
// Evaluator wraps classification with timing and identity. It holds no
// mutable state and may be shared between goroutines.
type Evaluator struct {
	now   func() time.Time
	newID func() string
}

// NewEvaluator creates an evaluator backed by the system clock.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// NewEvaluatorWithClock creates an evaluator with an injected clock and ID
// source. Used for testing.
func NewEvaluatorWithClock(now func() time.Time, newID func() string) *Evaluator {
	return &Evaluator{now: now, newID: newID}
}

// Evaluate classifies (x, y) for scale r and returns the timed record.
// A *classify.DomainError is returned unchanged and no record is produced.
func (e *Evaluator) Evaluate(x, y, r float64) (Record, error) {
	start := e.now()
	kind, err := classify.Shape(x, y, r)
	elapsed := e.now().Sub(start)
	if err != nil {
		return Record{}, err
	}

	return Record{
		ID:          e.newID(),
		Point:       region.Point{X: x, Y: y},
		Radius:      r,
		Hit:         kind != region.ShapeNone,
		Shape:       kind,
		EvaluatedAt: start.UTC(),
		Duration:    elapsed,
	}, nil
}

// EvaluateInput evaluates a validated submission.
func (e *Evaluator) EvaluateInput(in validate.Input) (Record, error) {
	return e.Evaluate(in.X, in.Y, in.R)
}

// #endregion evaluator

// #region summarize

// Summarize aggregates hit counts and timings over records.
func Summarize(records []Record) Summary {
	s := Summary{ShapeBreakdown: make(map[region.ShapeKind]int)}
	var totalMicros float64
	for _, rec := range records {
		s.Total++
		if rec.Hit {
			s.Hits++
			s.ShapeBreakdown[rec.Shape]++
		} else {
			s.Misses++
		}
		us := rec.DurationMicros()
		totalMicros += us
		if us > s.MaxMicros {
			s.MaxMicros = us
		}
	}
	if s.Total > 0 {
		s.MeanMicros = totalMicros / float64(s.Total)
	}
	return s
}

// #endregion summarize
