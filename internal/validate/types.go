package validate

import (
	"fmt"
	"strings"
)

// #region input
// Input is one validated submission. It is built fresh for every request
// and passed by value.
type Input struct {
	X float64
	Y float64
	R float64
}

// #endregion input

// #region config
// Config holds the deployment-specific bounds applied to raw input.
type Config struct {
	XMin, XMax float64
	YMin, YMax float64
	RMax       float64   // 0 disables the upper bound on r
	AllowedR   []float64 // empty means any r in (0, RMax]
}

// DefaultConfig returns the stock bounds: a ±5 window and five allowed radii.
func DefaultConfig() Config {
	return Config{
		XMin:     -5,
		XMax:     5,
		YMin:     -5,
		YMax:     5,
		RMax:     5,
		AllowedR: []float64{1, 1.5, 2, 2.5, 3},
	}
}

// #endregion config

// #region errors

// FieldError is a single violated rule on one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violation found in one submission, in
// field order x, y, r.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: %s", strings.Join(e.Messages(), "; "))
}

// Messages returns the human-readable messages in order.
func (e *ValidationError) Messages() []string {
	out := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		out[i] = f.Message
	}
	return out
}

// Has reports whether any violation concerns field.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// #endregion errors
