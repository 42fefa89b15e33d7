package pricing

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidDomain is returned when the inputs fall outside the domain of the
// Black-Scholes-Merton formula.
var ErrInvalidDomain = errors.New("invalid pricing domain")

// Input holds the five parameters of a European option valuation.
type Input struct {
	S     float64 // spot price
	K     float64 // strike price
	T     float64 // time to expiration in years
	R     float64 // annualized risk-free rate, decimal
	Sigma float64 // annualized volatility, decimal
}

// Result holds the fair values of the call and the put.
type Result struct {
	Call float64
	Put  float64
}

// Parameter names reported by DomainError.
const (
	ParamSpot       = "spot"
	ParamStrike     = "strike"
	ParamTime       = "time to expiration"
	ParamRate       = "risk-free rate"
	ParamVolatility = "volatility"
	ParamResult     = "price"
)

// Reasons reported by DomainError.
const (
	ReasonNotPositive = "must be greater than zero"
	ReasonNotFinite   = "must be finite"
	ReasonOverflow    = "is too large for double precision"
)

// maxExpArg is the largest x for which math.Exp(x) is finite.
var maxExpArg = math.Log(math.MaxFloat64)

// DomainError describes which parameter made an input unpriceable.
// It matches ErrInvalidDomain with errors.Is.
type DomainError struct {
	Param  string
	Reason string
	Value  float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%v: %s %s, got %v", ErrInvalidDomain, e.Param, e.Reason, e.Value)
}

func (e *DomainError) Unwrap() error {
	return ErrInvalidDomain
}

// Validate checks that the input can be priced. S, K, T and Sigma must be
// strictly positive and finite; R may be any finite value. Combinations whose
// intermediate terms overflow a float64 are rejected as well.
func (in Input) Validate() error {
	checks := []struct {
		name     string
		value    float64
		positive bool
	}{
		{ParamSpot, in.S, true},
		{ParamStrike, in.K, true},
		{ParamTime, in.T, true},
		{ParamRate, in.R, false},
		{ParamVolatility, in.Sigma, true},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return &DomainError{Param: c.name, Reason: ReasonNotFinite, Value: c.value}
		}
		if c.positive && c.value <= 0 {
			return &DomainError{Param: c.name, Reason: ReasonNotPositive, Value: c.value}
		}
	}

	if -in.R*in.T > maxExpArg {
		return &DomainError{Param: ParamRate, Reason: ReasonOverflow, Value: in.R}
	}
	if v := in.Sigma * in.Sigma * in.T; math.IsInf(v, 0) {
		return &DomainError{Param: ParamVolatility, Reason: ReasonOverflow, Value: in.Sigma}
	}
	if m := in.S / in.K; math.IsInf(m, 0) || m == 0 {
		return &DomainError{Param: ParamSpot, Reason: ReasonOverflow, Value: in.S}
	}
	return nil
}

// Price values a European call and put on a non-dividend paying underlying.
// It never approximates the expired or zero-volatility case: such inputs are
// rejected with ErrInvalidDomain.
func Price(in Input) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	volT := in.Sigma * math.Sqrt(in.T)
	d1 := (math.Log(in.S/in.K) + (in.R+0.5*in.Sigma*in.Sigma)*in.T) / volT
	d2 := d1 - volT
	discK := in.K * math.Exp(-in.R*in.T)

	res := Result{
		Call: in.S*NormCDF(d1) - discK*NormCDF(d2),
		Put:  discK*NormCDF(-d2) - in.S*NormCDF(-d1),
	}
	for _, v := range []float64{res.Call, res.Put} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Result{}, &DomainError{Param: ParamResult, Reason: ReasonNotFinite, Value: v}
		}
	}
	return res, nil
}

// Parity returns the put-call parity residual call - put - (S - K*e^(-rT)).
func (res Result) Parity(in Input) float64 {
	return res.Call - res.Put - (in.S - in.K*math.Exp(-in.R*in.T))
}

// NormCDF is the standard normal cumulative distribution function.
//
// It is evaluated through the complementary error function so that the lower
// tail N(-x) keeps full relative precision instead of being formed as 1 - N(x).
func NormCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}
