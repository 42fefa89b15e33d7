package calculator

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"optionpricer/internal/config"
	"optionpricer/internal/database"
	"optionpricer/internal/display"
	"optionpricer/internal/form"
	"optionpricer/internal/model"
	"optionpricer/internal/pricing"
)

// parityTolerance is relative to max(S, K).
const parityTolerance = 1e-8

// Calculator turns submitted forms into priced quotes.
// It is safe for concurrent use.
type Calculator struct {
	logger    *slog.Logger
	repo      database.Repository
	cfg       *config.Config
	formatter *display.Formatter
	now       func() time.Time
}

// NewCalculator creates a new instance of the Calculator.
func NewCalculator(logger *slog.Logger, repo database.Repository, cfg *config.Config) *Calculator {
	return &Calculator{
		logger:    logger,
		repo:      repo,
		cfg:       cfg,
		formatter: display.NewFormatter(cfg.Display.Currency, cfg.Display.Decimals),
		now:       time.Now,
	}
}

// Bounds returns the accepted form ranges.
func (c *Calculator) Bounds() form.Bounds {
	return c.cfg.Form.Bounds
}

// Defaults returns the pre-filled form.
func (c *Calculator) Defaults() form.Form {
	return c.cfg.Form.Defaults
}

// Calculate validates f, prices it and stores the resulting quote.
// Validation errors wrap form.ErrOutOfRange or pricing.ErrInvalidDomain.
// Storage failures are logged and do not fail the calculation.
func (c *Calculator) Calculate(ctx context.Context, f form.Form) (model.Quote, error) {
	if err := f.Validate(c.cfg.Form.Bounds); err != nil {
		c.logger.Debug("Rejected form", "error", err)
		return model.Quote{}, err
	}

	in := f.ToInput(c.cfg.Form.DayCount)
	res, err := pricing.Price(in)
	if err != nil {
		c.logger.Debug("Rejected pricing input", "error", err)
		return model.Quote{}, err
	}

	if residual := res.Parity(in); math.Abs(residual) > parityTolerance*math.Max(in.S, in.K) {
		c.logger.Warn("Put-call parity residual above tolerance", "residual", residual, "input", in)
	}

	quote := model.Quote{
		ID:                uuid.NewString(),
		Timestamp:         c.now().UTC(),
		Spot:              f.Spot,
		Strike:            f.Strike,
		Days:              f.Days,
		RatePercent:       f.RatePercent,
		VolatilityPercent: f.VolatilityPercent,
		Years:             in.T,
		Rate:              in.R,
		Volatility:        in.Sigma,
		CallPrice:         res.Call,
		PutPrice:          res.Put,
		CallDisplay:       c.formatter.Price(res.Call),
		PutDisplay:        c.formatter.Price(res.Put),
	}

	c.logger.Info("Priced option",
		"id", quote.ID,
		"spot", in.S,
		"strike", in.K,
		"years", in.T,
		"rate", in.R,
		"volatility", in.Sigma,
		"call", res.Call,
		"put", res.Put,
	)

	if err := c.repo.LogQuote(ctx, quote); err != nil {
		c.logger.Error("Failed to log quote", "error", err, "id", quote.ID)
	}

	return quote, nil
}

// Recent returns up to limit stored quotes, newest first.
func (c *Calculator) Recent(ctx context.Context, limit int) ([]model.Quote, error) {
	return c.repo.RecentQuotes(ctx, limit)
}
