package classify

import "fmt"

// #region domain-error
// DomainError reports inputs for which the region is undefined: a
// non-positive or non-finite scale, or a non-finite point.
type DomainError struct {
	X, Y, R float64
	Reason  string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("classify domain error: %s (x=%g, y=%g, r=%g)", e.Reason, e.X, e.Y, e.R)
}

// #endregion domain-error
