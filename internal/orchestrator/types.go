package orchestrator

// #region imports
import (
	"github.com/danielpatrickdp/regioncheck/internal/classify"
	"github.com/danielpatrickdp/regioncheck/internal/eval"
	"github.com/danielpatrickdp/regioncheck/internal/history"
	"github.com/danielpatrickdp/regioncheck/internal/validate"
)

// #endregion

// #region submission

// Submission is one raw request from any transport. X, Y and R are the
// untrusted field texts; ClientID and RequestKey are optional.
type Submission struct {
	X, Y, R    string
	ClientID   string
	RequestKey string
}

// #endregion

// #region outcome

// Outcome is the result of a submission. Exactly one of Record, Validation,
// Domain or Conflict is meaningful.
type Outcome struct {
	Record     eval.Record
	Entry      history.Entry // zero when nothing was persisted
	Stored     bool          // Entry came from the history store
	Replayed   bool          // RequestKey matched an earlier submission
	Validation *validate.ValidationError
	Domain     *classify.DomainError
	Conflict   *history.ConflictError // RequestKey already names a different input
}

// OK reports whether the submission produced a record.
func (o Outcome) OK() bool {
	return o.Validation == nil && o.Domain == nil && o.Conflict == nil
}

// Errors returns the user-facing messages of a failed submission.
func (o Outcome) Errors() []string {
	switch {
	case o.Validation != nil:
		return o.Validation.Messages()
	case o.Domain != nil:
		return []string{o.Domain.Reason}
	case o.Conflict != nil:
		return []string{o.Conflict.Error()}
	}
	return nil
}

// #endregion

// #region publisher

// Publisher receives every newly stored entry, e.g. a live feed.
type Publisher interface {
	Publish(entry history.Entry)
}

// #endregion
