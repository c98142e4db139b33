package dashboard

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money formats amounts in one currency with locale digit grouping.
type Money struct {
	unit    currency.Unit
	printer *message.Printer
}

// NewMoney builds a formatter for an ISO 4217 code. Rupiah amounts use
// Indonesian grouping; every other currency uses English.
func NewMoney(code string) (Money, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = "IDR"
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return Money{}, fmt.Errorf("currency %q: %w", code, err)
	}
	tag := language.English
	if unit == currency.IDR {
		tag = language.Indonesian
	}
	return Money{unit: unit, printer: message.NewPrinter(tag)}, nil
}

// Code is the ISO code of the currency.
func (m Money) Code() string {
	return m.unit.String()
}

// Format renders v with two decimals, e.g. "IDR 450.000,00".
func (m Money) Format(v float64) string {
	if m.printer == nil {
		return fmt.Sprintf("%.2f", v)
	}
	return m.printer.Sprintf("%s %.2f", m.unit.String(), v)
}

// Count renders an integer with grouping.
func (m Money) Count(n int) string {
	if m.printer == nil {
		return fmt.Sprint(n)
	}
	return m.printer.Sprintf("%d", n)
}
