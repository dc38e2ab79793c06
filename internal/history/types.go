package history

import (
	"fmt"
	"time"

	"github.com/danielpatrickdp/regioncheck/internal/eval"
)

// #region defaults

// DefaultMaxPerClient is the per-client retention cap.
const DefaultMaxPerClient = 50

// #endregion defaults

// #region entry
// Entry is one stored evaluation for a client.
type Entry struct {
	Seq        int64 // insertion order, strictly increasing per store
	ClientID   string
	RequestKey string // empty when the submission carried no key
	Record     eval.Record
	StoredAt   time.Time
}

// #endregion entry

// #region client-stats
// ClientStats summarises one client's retained history.
type ClientStats struct {
	ClientID string
	Entries  int
	Hits     int
	LastAt   time.Time
}

// #endregion client-stats

// #region conflict

// ConflictError reports a request key that a client already used for a
// different point or radius. Stored is the record the key belongs to.
type ConflictError struct {
	RequestKey string
	Stored     eval.Record
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("requestId %q was already used for x=%g, y=%g, r=%g",
		e.RequestKey, e.Stored.Point.X, e.Stored.Point.Y, e.Stored.Radius)
}

// #endregion conflict
