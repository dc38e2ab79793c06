package replay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danielpatrickdp/regioncheck/internal/classify"
	"github.com/danielpatrickdp/regioncheck/internal/eval"
	"github.com/danielpatrickdp/regioncheck/internal/validate"
)

// Actions a case can end in.
const (
	ActionHit     = "hit"
	ActionMiss    = "miss"
	ActionInvalid = "invalid"
)

// #region types
// Case is one submission to replay and what it should produce.
type Case struct {
	ID      string
	X, Y, R string
	Action  string
	Shape   string   // optional
	Errors  []string // optional
}

// Result captures the outcome of replaying one case through validate and
// evaluate.
type Result struct {
	ID     string
	Action string
	Match  bool
	Reason string // why Match is false

	Record eval.Record // zero unless Action is hit or miss
	Errors []string    // validation messages when Action is invalid
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	Total      int
	Hits       int
	Misses     int
	Invalid    int
	Mismatches int
	Timing     eval.Summary
}

// #endregion types

// #region replay
// Replay runs each case through the validator and evaluator in order.
func Replay(cases []Case, v *validate.Validator, e *eval.Evaluator) ([]Result, error) {
	results := make([]Result, 0, len(cases))
	for _, c := range cases {
		res := Result{ID: c.ID}

		in, err := v.Validate(c.X, c.Y, c.R)
		if err != nil {
			var ve *validate.ValidationError
			if !errors.As(err, &ve) {
				return nil, fmt.Errorf("case %s: validate: %w", c.ID, err)
			}
			res.Action = ActionInvalid
			res.Errors = ve.Messages()
		} else {
			rec, err := e.EvaluateInput(in)
			if err != nil {
				var de *classify.DomainError
				if !errors.As(err, &de) {
					return nil, fmt.Errorf("case %s: evaluate: %w", c.ID, err)
				}
				res.Action = ActionInvalid
				res.Errors = []string{de.Reason}
			} else {
				res.Record = rec
				res.Action = ActionMiss
				if rec.Hit {
					res.Action = ActionHit
				}
			}
		}

		res.Match, res.Reason = compare(c, res)
		results = append(results, res)
	}
	return results, nil
}

func compare(c Case, res Result) (bool, string) {
	if res.Action != c.Action {
		detail := ""
		if len(res.Errors) > 0 {
			detail = " (" + strings.Join(res.Errors, "; ") + ")"
		}
		return false, fmt.Sprintf("expected %s, got %s%s", c.Action, res.Action, detail)
	}
	if c.Shape != "" && string(res.Record.Shape) != c.Shape {
		return false, fmt.Sprintf("expected shape %s, got %q", c.Shape, res.Record.Shape)
	}
	if len(c.Errors) > 0 && strings.Join(c.Errors, "\n") != strings.Join(res.Errors, "\n") {
		return false, fmt.Sprintf("expected errors %q, got %q", c.Errors, res.Errors)
	}
	return true, ""
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	var records []eval.Record
	for _, r := range results {
		switch r.Action {
		case ActionHit:
			s.Hits++
			records = append(records, r.Record)
		case ActionMiss:
			s.Misses++
			records = append(records, r.Record)
		case ActionInvalid:
			s.Invalid++
		}
		if !r.Match {
			s.Mismatches++
		}
	}
	s.Timing = eval.Summarize(records)
	return s
}

// #endregion replay
