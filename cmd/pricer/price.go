package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"optionpricer/internal/calculator"
	"optionpricer/internal/config"
	"optionpricer/internal/database"
	"optionpricer/internal/display"
	"optionpricer/internal/form"
	"optionpricer/internal/pricing"
)

func newPriceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a call and a put once",
		Long: `Prices a European call and put. Flags that are not given take their value
from the configured form defaults.`,
		RunE: runPrice,
	}

	cmd.Flags().Float64("spot", 0, "Current stock price (S).")
	cmd.Flags().Float64("strike", 0, "Strike price (K).")
	cmd.Flags().Int("days", 0, "Time to expiration in days.")
	cmd.Flags().Float64("rate", 0, "Risk-free interest rate in percent, e.g. 5 for 5%.")
	cmd.Flags().Float64("vol", 0, "Annual volatility in percent, e.g. 20 for 20%.")
	return cmd
}

// formFromFlags overlays the flags that were set on top of defaults.
func formFromFlags(cmd *cobra.Command, defaults form.Form) (form.Form, error) {
	f := defaults
	flags := cmd.Flags()

	floats := []struct {
		name string
		dst  *float64
	}{
		{"spot", &f.Spot},
		{"strike", &f.Strike},
		{"rate", &f.RatePercent},
		{"vol", &f.VolatilityPercent},
	}
	for _, fl := range floats {
		if !flags.Changed(fl.name) {
			continue
		}
		v, err := flags.GetFloat64(fl.name)
		if err != nil {
			return f, fmt.Errorf("error getting %s: %w", fl.name, err)
		}
		*fl.dst = v
	}

	if flags.Changed("days") {
		v, err := flags.GetInt("days")
		if err != nil {
			return f, fmt.Errorf("error getting days: %w", err)
		}
		f.Days = v
	}
	return f, nil
}

func runPrice(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log, cmd.ErrOrStderr())

	f, err := formFromFlags(cmd, cfg.Form.Defaults)
	if err != nil {
		return err
	}

	calc := calculator.NewCalculator(logger, database.NopRepository{}, &cfg)
	quote, err := calc.Calculate(cmd.Context(), f)
	if errors.Is(err, pricing.ErrInvalidDomain) {
		fmt.Fprintln(cmd.ErrOrStderr(), display.DomainMessage(err))
		return err
	}
	if err != nil {
		return err
	}

	formatter := display.NewFormatter(cfg.Display.Currency, cfg.Display.Decimals)
	out := cmd.OutOrStdout()
	formatter.Inputs(out, quote)
	formatter.Table(out, quote)
	fmt.Fprintln(out, display.EuropeanNote)
	return nil
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	dir, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("error getting config: %w", err)
	}
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return cfg, fmt.Errorf("cannot load config: %w", err)
	}
	return cfg, nil
}
