package form

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"optionpricer/internal/pricing"
)

func TestForm_Validate(t *testing.T) {
	bounds := DefaultBounds()

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, DefaultForm().Validate(bounds))
	})

	cases := []struct {
		name   string
		mutate func(*Form)
	}{
		{"spot below minimum", func(f *Form) { f.Spot = 0.5 }},
		{"zero strike", func(f *Form) { f.Strike = 0 }},
		{"negative days", func(f *Form) { f.Days = -1 }},
		{"too many days", func(f *Form) { f.Days = 366 }},
		{"rate above maximum", func(f *Form) { f.RatePercent = 10.5 }},
		{"negative rate", func(f *Form) { f.RatePercent = -0.5 }},
		{"volatility below minimum", func(f *Form) { f.VolatilityPercent = 0.5 }},
		{"volatility above maximum", func(f *Form) { f.VolatilityPercent = 101 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := DefaultForm()
			tc.mutate(&f)
			err := f.Validate(bounds)
			assert.ErrorIs(t, err, ErrOutOfRange)
		})
	}

	t.Run("zero upper bound is enforced", func(t *testing.T) {
		b := DefaultBounds()
		b.Rate = Between(-2, 0)

		f := DefaultForm()
		f.RatePercent = -1
		assert.NoError(t, f.Validate(b))

		f.RatePercent = 0.5
		assert.ErrorIs(t, f.Validate(b), ErrOutOfRange)
	})

	t.Run("open upper bound", func(t *testing.T) {
		f := DefaultForm()
		f.Spot = 1e6
		assert.NoError(t, f.Validate(bounds))
	})
}

func TestForm_ValidateLeavesDomainToEngine(t *testing.T) {
	// Bounds relaxed to allow zero days and zero volatility.
	bounds := DefaultBounds()
	bounds.Days.Min = 0
	bounds.Volatility.Min = 0

	f := DefaultForm()
	f.Days = 0
	f.VolatilityPercent = 0
	require.NoError(t, f.Validate(bounds))

	_, err := pricing.Price(f.ToInput(365))
	assert.True(t, errors.Is(err, pricing.ErrInvalidDomain))
}

func TestForm_ToInput(t *testing.T) {
	in := DefaultForm().ToInput(365)
	assert.Equal(t, 100.0, in.S)
	assert.Equal(t, 100.0, in.K)
	assert.InDelta(t, 90.0/365.0, in.T, 1e-15)
	assert.InDelta(t, 0.05, in.R, 1e-15)
	assert.InDelta(t, 0.20, in.Sigma, 1e-15)

	assert.InDelta(t, 90.0/360.0, DefaultForm().ToInput(360).T, 1e-15)
	assert.Equal(t, in, DefaultForm().ToInput(0))
}

func TestRange_String(t *testing.T) {
	assert.Equal(t, "[1, +inf)", AtLeast(1).String())
	assert.Equal(t, "[-2, 0]", Between(-2, 0).String())
}
