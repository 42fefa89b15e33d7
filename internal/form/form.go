package form

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/go-playground/validator/v10"
	"optionpricer/internal/pricing"
)

// ErrOutOfRange is returned when a form field is missing or outside its configured bounds.
var ErrOutOfRange = errors.New("form value out of range")

// Form is the user-facing parameter set: prices in currency units, time in
// calendar days and rates as percentages.
type Form struct {
	Spot              float64 `json:"spot" mapstructure:"spot" validate:"gt=0"`
	Strike            float64 `json:"strike" mapstructure:"strike" validate:"gt=0"`
	Days              int     `json:"days" mapstructure:"days" validate:"gte=0"`
	RatePercent       float64 `json:"rate_percent" mapstructure:"rate_percent"`
	VolatilityPercent float64 `json:"volatility_percent" mapstructure:"volatility_percent" validate:"gte=0"`
}

// Range is an inclusive interval. A nil Max leaves the upper side open.
type Range struct {
	Min float64  `json:"min" mapstructure:"min"`
	Max *float64 `json:"max,omitempty" mapstructure:"max"`
}

// Between returns the closed range [lo, hi].
func Between(lo, hi float64) Range {
	return Range{Min: lo, Max: &hi}
}

// AtLeast returns the range [lo, +inf).
func AtLeast(lo float64) Range {
	return Range{Min: lo}
}

func (r Range) contains(v float64) bool {
	if math.IsNaN(v) || v < r.Min {
		return false
	}
	return r.Max == nil || v <= *r.Max
}

func (r Range) String() string {
	if r.Max == nil {
		return fmt.Sprintf("[%g, +inf)", r.Min)
	}
	return fmt.Sprintf("[%g, %g]", r.Min, *r.Max)
}

// Bounds holds the accepted range of every form field.
type Bounds struct {
	Spot       Range `json:"spot" mapstructure:"spot"`
	Strike     Range `json:"strike" mapstructure:"strike"`
	Days       Range `json:"days" mapstructure:"days"`
	Rate       Range `json:"rate_percent" mapstructure:"rate_percent"`
	Volatility Range `json:"volatility_percent" mapstructure:"volatility_percent"`
}

// DefaultBounds mirrors the ranges offered by the interactive calculator.
func DefaultBounds() Bounds {
	return Bounds{
		Spot:       AtLeast(1),
		Strike:     AtLeast(1),
		Days:       Between(1, 365),
		Rate:       Between(0, 10),
		Volatility: Between(1, 100),
	}
}

// DefaultForm is the form pre-filled on first display.
func DefaultForm() Form {
	return Form{
		Spot:              100,
		Strike:            100,
		Days:              90,
		RatePercent:       5,
		VolatilityPercent: 20,
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the form against its static constraints and the given bounds.
// It does not decide whether the values can be priced; that remains the
// pricing engine's responsibility.
func (f Form) Validate(b Bounds) error {
	if err := structValidator().Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s must satisfy %s=%s, got %v", ErrOutOfRange, fe.Field(), fe.Tag(), fe.Param(), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrOutOfRange, err)
	}

	fields := []struct {
		name  string
		value float64
		rng   Range
	}{
		{"spot", f.Spot, b.Spot},
		{"strike", f.Strike, b.Strike},
		{"days", float64(f.Days), b.Days},
		{"rate_percent", f.RatePercent, b.Rate},
		{"volatility_percent", f.VolatilityPercent, b.Volatility},
	}
	for _, fld := range fields {
		if !fld.rng.contains(fld.value) {
			return fmt.Errorf("%w: %s must be within %s, got %g", ErrOutOfRange, fld.name, fld.rng, fld.value)
		}
	}
	return nil
}

// ToInput converts the form into model parameters. Days are divided by
// dayCount (365 when dayCount is not positive) and percentages become decimals.
func (f Form) ToInput(dayCount float64) pricing.Input {
	if dayCount <= 0 {
		dayCount = 365
	}
	return pricing.Input{
		S:     f.Spot,
		K:     f.Strike,
		T:     float64(f.Days) / dayCount,
		R:     f.RatePercent / 100,
		Sigma: f.VolatilityPercent / 100,
	}
}
