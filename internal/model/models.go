package model

import "time"

// Quote is a single priced request: the form inputs as entered, the converted
// model parameters and the resulting call and put values.
type Quote struct {
	ID        string    `json:"id" db:"id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`

	Spot              float64 `json:"spot" db:"spot"`
	Strike            float64 `json:"strike" db:"strike"`
	Days              int     `json:"days" db:"days"`
	RatePercent       float64 `json:"rate_percent" db:"rate_percent"`
	VolatilityPercent float64 `json:"volatility_percent" db:"volatility_percent"`

	Years      float64 `json:"years" db:"years"`
	Rate       float64 `json:"rate" db:"rate"`
	Volatility float64 `json:"volatility" db:"volatility"`

	CallPrice float64 `json:"call_price" db:"call_price"`
	PutPrice  float64 `json:"put_price" db:"put_price"`

	// Display strings, e.g. "€ 4.6150". Not persisted.
	CallDisplay string `json:"call_display" db:"-"`
	PutDisplay  string `json:"put_display" db:"-"`
}
