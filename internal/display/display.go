package display

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"optionpricer/internal/model"
	"optionpricer/internal/pricing"
)

const (
	// DomainErrorMessage is shown when time to expiration or volatility is not positive.
	DomainErrorMessage = "Time to Expiration and Volatility must be greater than zero."
	// PriceErrorMessage is shown when spot or strike is not a positive number.
	PriceErrorMessage = "Stock Price and Strike Price must be positive numbers."
	// RangeErrorMessage is shown for any other input the model cannot price.
	RangeErrorMessage = "The inputs are outside the range the pricing model can handle."
	// EuropeanNote is shown beneath every result.
	EuropeanNote = "This calculator is for European options and does not account for dividends."
)

// DomainMessage picks the user-facing message for an error wrapping
// pricing.ErrInvalidDomain.
func DomainMessage(err error) string {
	var derr *pricing.DomainError
	if !errors.As(err, &derr) || derr.Reason != pricing.ReasonNotPositive {
		return RangeErrorMessage
	}
	switch derr.Param {
	case pricing.ParamTime, pricing.ParamVolatility:
		return DomainErrorMessage
	case pricing.ParamSpot, pricing.ParamStrike:
		return PriceErrorMessage
	default:
		return RangeErrorMessage
	}
}

// Formatter renders prices with a currency symbol and thousands separators.
type Formatter struct {
	Currency string
	Decimals int

	printer *message.Printer
}

// NewFormatter creates a Formatter. A negative decimals value falls back to 4.
func NewFormatter(currency string, decimals int) *Formatter {
	if decimals < 0 {
		decimals = 4
	}
	return &Formatter{
		Currency: currency,
		Decimals: decimals,
		printer:  message.NewPrinter(language.English),
	}
}

// Price formats v as e.g. "€ 1,234.5678".
func (f *Formatter) Price(v float64) string {
	amount := f.printer.Sprintf("%."+strconv.Itoa(f.Decimals)+"f", v)
	if f.Currency == "" {
		return amount
	}
	return f.Currency + " " + amount
}

// Table writes the call and put prices of q as a two-column table.
func (f *Formatter) Table(w io.Writer, q model.Quote) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Price of Call Option", "Price of Put Option"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.Append([]string{f.Price(q.CallPrice), f.Price(q.PutPrice)})
	table.Render()
}

// Inputs writes a one-line summary of the form values behind q.
func (f *Formatter) Inputs(w io.Writer, q model.Quote) {
	fmt.Fprintf(w, "S=%s K=%s T=%d days (%.4f years) r=%.2f%% σ=%.2f%%\n",
		f.printer.Sprintf("%.2f", q.Spot), f.printer.Sprintf("%.2f", q.Strike),
		q.Days, q.Years, q.RatePercent, q.VolatilityPercent)
}
