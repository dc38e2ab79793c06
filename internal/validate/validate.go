package validate

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// allowedTolerance is how close r must be to a member of AllowedR.
const allowedTolerance = 1e-6

// #region validator
// Validator checks raw textual fields against a Config.
type Validator struct {
	config Config
}

// NewValidator creates a validator with the given configuration.
func NewValidator(config Config) *Validator {
	return &Validator{config: config}
}

// Config returns the bounds this validator enforces.
func (v *Validator) Config() Config {
	return v.config
}

// Validate parses and bounds-checks x, y and r. Every field is checked
// independently; on failure the returned *ValidationError lists all
// violations, not just the first.
func (v *Validator) Validate(rawX, rawY, rawR string) (Input, error) {
	var fields []FieldError

	x, xErr := parseField("x", rawX)
	if xErr != nil {
		fields = append(fields, *xErr)
	} else if x < v.config.XMin || x > v.config.XMax {
		fields = append(fields, FieldError{
			Field:   "x",
			Message: fmt.Sprintf("x must be in [%s, %s]", fmtNum(v.config.XMin), fmtNum(v.config.XMax)),
		})
	}

	y, yErr := parseField("y", rawY)
	if yErr != nil {
		fields = append(fields, *yErr)
	} else if y < v.config.YMin || y > v.config.YMax {
		fields = append(fields, FieldError{
			Field:   "y",
			Message: fmt.Sprintf("y must be in [%s, %s]", fmtNum(v.config.YMin), fmtNum(v.config.YMax)),
		})
	}

	r, rErr := parseField("r", rawR)
	if rErr != nil {
		fields = append(fields, *rErr)
	} else {
		var rFields []FieldError
		r, rFields = v.checkR(r)
		fields = append(fields, rFields...)
	}

	if len(fields) > 0 {
		return Input{}, &ValidationError{Fields: fields}
	}
	return Input{X: x, Y: y, R: r}, nil
}

// ValidateR checks a lone scale value with the same rules Validate applies
// to r.
func (v *Validator) ValidateR(rawR string) (float64, error) {
	r, rErr := parseField("r", rawR)
	if rErr != nil {
		return 0, &ValidationError{Fields: []FieldError{*rErr}}
	}
	r, fields := v.checkR(r)
	if len(fields) > 0 {
		return 0, &ValidationError{Fields: fields}
	}
	return r, nil
}

// #endregion validator

// #region radius

// checkR applies the positivity, upper-bound and allowed-set rules. A value
// matching an allowed member is snapped to that member.
func (v *Validator) checkR(r float64) (float64, []FieldError) {
	var fields []FieldError
	if r <= 0 {
		fields = append(fields, FieldError{Field: "r", Message: "r must be positive"})
	}
	if v.config.RMax > 0 && r > v.config.RMax {
		fields = append(fields, FieldError{
			Field:   "r",
			Message: fmt.Sprintf("r must not exceed %s", fmtNum(v.config.RMax)),
		})
	}
	if len(v.config.AllowedR) > 0 {
		matched := false
		for _, a := range v.config.AllowedR {
			if math.Abs(r-a) < allowedTolerance {
				r = a
				matched = true
				break
			}
		}
		if !matched {
			fields = append(fields, FieldError{
				Field:   "r",
				Message: fmt.Sprintf("r must be one of {%s}", joinNums(v.config.AllowedR)),
			})
		}
	}
	return r, fields
}

// #endregion radius

// #region parsing

// Normalize folds a raw numeric field to the form strconv understands:
// compatibility characters (full-width digits, signs) become ASCII, the
// Unicode minus becomes '-', and a decimal comma becomes a period.
func Normalize(raw string) string {
	s := norm.NFKC.String(raw)
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "−", "-")
	s = strings.Replace(s, ",", ".", 1)
	return s
}

func parseField(name, raw string) (float64, *FieldError) {
	s := Normalize(raw)
	if s == "" {
		return 0, &FieldError{Field: name, Message: name + " is required"}
	}
	if strings.ContainsAny(s, "xX_") {
		return 0, &FieldError{Field: name, Message: name + " is not a number"}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, &FieldError{Field: name, Message: name + " must be finite"}
		}
		return 0, &FieldError{Field: name, Message: name + " is not a number"}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &FieldError{Field: name, Message: name + " must be finite"}
	}
	return f, nil
}

func fmtNum(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func joinNums(fs []float64) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = fmtNum(f)
	}
	return strings.Join(parts, ", ")
}

// #endregion parsing
