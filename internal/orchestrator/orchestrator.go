package orchestrator

// #region imports
import (
	"errors"
	"fmt"

	"github.com/danielpatrickdp/regioncheck/internal/classify"
	"github.com/danielpatrickdp/regioncheck/internal/eval"
	"github.com/danielpatrickdp/regioncheck/internal/history"
	"github.com/danielpatrickdp/regioncheck/internal/metrics"
	"github.com/danielpatrickdp/regioncheck/internal/validate"
	"github.com/rs/zerolog"
)

// #endregion

// #region orchestrator-struct

// Orchestrator runs a submission through validation, evaluation, history
// and the live feed. Transports share one instance.
type Orchestrator struct {
	validator *validate.Validator
	evaluator *eval.Evaluator
	store     *history.Store
	publisher Publisher
	logger    zerolog.Logger
}

// Option configures optional collaborators.
type Option func(*Orchestrator)

// WithStore persists records for submissions that carry a client id.
func WithStore(s *history.Store) Option {
	return func(o *Orchestrator) { o.store = s }
}

// WithPublisher forwards newly stored entries.
func WithPublisher(p Publisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

// #endregion

// #region constructor

// New creates an orchestrator around a validator and evaluator.
func New(v *validate.Validator, e *eval.Evaluator, logger zerolog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		validator: v,
		evaluator: e,
		logger:    logger.With().Str("component", "orchestrator").Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validator returns the validator in use.
func (o *Orchestrator) Validator() *validate.Validator {
	return o.validator
}

// #endregion

// #region submit

// Submit validates and classifies one submission. Validation, domain and
// request-key conflicts are reported in the Outcome; the error is reserved
// for storage failures.
func (o *Orchestrator) Submit(sub Submission) (Outcome, error) {
	in, err := o.validator.Validate(sub.X, sub.Y, sub.R)
	if err != nil {
		var ve *validate.ValidationError
		if errors.As(err, &ve) {
			metrics.ObserveValidation(ve)
			o.logger.Debug().Strs("errors", ve.Messages()).Msg("submission rejected")
			return Outcome{Validation: ve}, nil
		}
		return Outcome{}, fmt.Errorf("validate: %w", err)
	}

	rec, err := o.evaluator.EvaluateInput(in)
	if err != nil {
		var de *classify.DomainError
		if errors.As(err, &de) {
			metrics.DomainErrors.Inc()
			return Outcome{Domain: de}, nil
		}
		return Outcome{}, fmt.Errorf("evaluate: %w", err)
	}
	metrics.ObserveRecord(rec)

	out := Outcome{Record: rec}
	if o.store == nil || sub.ClientID == "" {
		return out, nil
	}

	entry, created, err := o.store.Append(sub.ClientID, sub.RequestKey, rec)
	if err != nil {
		var ce *history.ConflictError
		if errors.As(err, &ce) {
			o.logger.Debug().Str("client", sub.ClientID).Str("request_key", sub.RequestKey).
				Msg("request key reused for different input")
			return Outcome{Conflict: ce}, nil
		}
		return Outcome{}, fmt.Errorf("append history: %w", err)
	}
	out.Entry = entry
	out.Stored = true
	if !created {
		// Double submit: answer with the record the first attempt produced.
		out.Record = entry.Record
		out.Replayed = true
		o.logger.Debug().Str("client", sub.ClientID).Str("request_key", sub.RequestKey).
			Msg("duplicate submission")
		return out, nil
	}

	if o.publisher != nil {
		o.publisher.Publish(entry)
	}
	return out, nil
}

// #endregion

// #region history

// History lists the client's retained entries, newest first. Without a
// store the history is always empty.
func (o *Orchestrator) History(clientID string, limit int) ([]history.Entry, error) {
	if o.store == nil || clientID == "" {
		return nil, nil
	}
	entries, err := o.store.List(clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

// ClearHistory removes the client's entries and reports how many went.
func (o *Orchestrator) ClearHistory(clientID string) (int64, error) {
	if o.store == nil || clientID == "" {
		return 0, nil
	}
	n, err := o.store.Clear(clientID)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	o.logger.Info().Str("client", clientID).Int64("removed", n).Msg("history cleared")
	return n, nil
}

// #endregion
