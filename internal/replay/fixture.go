package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/danielpatrickdp/regioncheck/internal/history"
	"github.com/danielpatrickdp/regioncheck/internal/validate"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string             `json:"description"`
	Validation  *FixtureValidation `json:"validation,omitempty"` // nil uses validate.DefaultConfig
	Cases       []FixtureCase      `json:"cases"`
}

// FixtureValidation mirrors validate.Config with JSON tags.
type FixtureValidation struct {
	XMin     float64   `json:"x_min"`
	XMax     float64   `json:"x_max"`
	YMin     float64   `json:"y_min"`
	YMax     float64   `json:"y_max"`
	RMax     float64   `json:"r_max"`
	AllowedR []float64 `json:"allowed_r"`
}

// FixtureCase is one submission with its expected outcome. Fields are the
// raw texts a user would type, so locale and normalization are exercised.
type FixtureCase struct {
	ID     string        `json:"id"`
	X      string        `json:"x"`
	Y      string        `json:"y"`
	R      string        `json:"r"`
	Expect FixtureExpect `json:"expect"`
}

// FixtureExpect is the expected outcome of a case.
type FixtureExpect struct {
	Action string   `json:"action"`           // "hit" | "miss" | "invalid"
	Shape  string   `json:"shape,omitempty"`  // checked when set
	Errors []string `json:"errors,omitempty"` // checked when set
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	for i, c := range f.Cases {
		switch c.Expect.Action {
		case ActionHit, ActionMiss, ActionInvalid:
		default:
			return nil, fmt.Errorf("fixture %s: case %d (%s): unknown action %q", path, i, c.ID, c.Expect.Action)
		}
	}
	return &f, nil
}

// WriteFixture writes f as indented JSON, creating parent directories.
func WriteFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create fixture dir: %w", err)
		}
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// ValidatorConfig converts the fixture's bounds, falling back to defaults.
func (f *Fixture) ValidatorConfig() validate.Config {
	if f.Validation == nil {
		return validate.DefaultConfig()
	}
	v := f.Validation
	return validate.Config{
		XMin:     v.XMin,
		XMax:     v.XMax,
		YMin:     v.YMin,
		YMax:     v.YMax,
		RMax:     v.RMax,
		AllowedR: append([]float64(nil), v.AllowedR...),
	}
}

// ToCase converts a FixtureCase to a domain Case.
func (fc *FixtureCase) ToCase() Case {
	return Case{
		ID:     fc.ID,
		X:      fc.X,
		Y:      fc.Y,
		R:      fc.R,
		Action: fc.Expect.Action,
		Shape:  fc.Expect.Shape,
		Errors: fc.Expect.Errors,
	}
}

// ToCases converts every fixture case.
func (f *Fixture) ToCases() []Case {
	out := make([]Case, len(f.Cases))
	for i := range f.Cases {
		out[i] = f.Cases[i].ToCase()
	}
	return out
}

// #endregion fixture-loader

// #region fixture-export

// FixtureFromHistory turns stored evaluations into a regression fixture:
// each entry becomes a case expecting the verdict it was given when stored.
// Entries are taken oldest first.
func FixtureFromHistory(description string, entries []history.Entry) *Fixture {
	f := &Fixture{Description: description, Cases: make([]FixtureCase, 0, len(entries))}
	for i := len(entries) - 1; i >= 0; i-- {
		rec := entries[i].Record
		action := ActionMiss
		if rec.Hit {
			action = ActionHit
		}
		f.Cases = append(f.Cases, FixtureCase{
			ID: rec.ID,
			X:  strconv.FormatFloat(rec.Point.X, 'g', -1, 64),
			Y:  strconv.FormatFloat(rec.Point.Y, 'g', -1, 64),
			R:  strconv.FormatFloat(rec.Radius, 'g', -1, 64),
			Expect: FixtureExpect{
				Action: action,
				Shape:  string(rec.Shape),
			},
		})
	}
	return f
}

// #endregion fixture-export
