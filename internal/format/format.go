// Package format turns amounts and tokens into display strings.
// Inputs are never modified.
package format

import (
	"strings"

	"github.com/shopspring/decimal"

	"zilswap-dashboard/internal/domain"
)

// DefaultMaxFractionDigits is used when no option overrides it.
const DefaultMaxFractionDigits = 12

// FormatSymbol returns the label of a token: its symbol, else its name,
// else a shortened address.
func FormatSymbol(token domain.Token) string {
	if s := strings.TrimSpace(token.Symbol); s != "" {
		return s
	}
	if n := strings.TrimSpace(token.Name); n != "" {
		return n
	}
	return ShortenAddress(token.Address)
}

// ShortenAddress keeps the head and tail of long addresses.
func ShortenAddress(address string) string {
	a := strings.TrimSpace(address)
	if len(a) <= 12 {
		return a
	}
	return a[:6] + "..." + a[len(a)-4:]
}

// MoneyFormatter formats decimal amounts.
type MoneyFormatter struct {
	defaults options
}

type options struct {
	maxFractionDigits int
	compression       int
	symbol            string
	showCurrency      bool
}

// Option configures a MoneyFormatter or a single Format call.
type Option func(*options)

// WithMaxFractionDigits caps the digits after the decimal point.
func WithMaxFractionDigits(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxFractionDigits = n
		}
	}
}

// WithCompression divides the amount by 10^n before formatting, converting
// smallest units to whole tokens.
func WithCompression(n int) Option {
	return func(o *options) {
		o.compression = n
	}
}

// WithSymbol sets the currency symbol appended when WithCurrency is enabled.
func WithSymbol(symbol string) Option {
	return func(o *options) {
		o.symbol = symbol
	}
}

// WithCurrency controls whether the symbol suffix is appended.
func WithCurrency(show bool) Option {
	return func(o *options) {
		o.showCurrency = show
	}
}

// NewMoneyFormatter creates a formatter with the given defaults.
func NewMoneyFormatter(opts ...Option) *MoneyFormatter {
	d := options{maxFractionDigits: DefaultMaxFractionDigits}
	for _, opt := range opts {
		opt(&d)
	}
	return &MoneyFormatter{defaults: d}
}

// Format renders amount. Per-call options override the formatter defaults.
// The value is rounded toward zero, trailing zeros are dropped and the
// integer part is grouped by thousands.
func (f *MoneyFormatter) Format(amount decimal.Decimal, opts ...Option) string {
	o := f.defaults
	for _, opt := range opts {
		opt(&o)
	}

	v := amount
	if o.compression != 0 {
		v = v.Shift(int32(-o.compression))
	}
	v = v.RoundDown(int32(o.maxFractionDigits))

	out := groupThousands(v.String())
	if o.showCurrency && o.symbol != "" {
		out += " " + o.symbol
	}
	return out
}

// Percent renders a 0-100 percentage with two fraction digits and a % sign.
func (f *MoneyFormatter) Percent(pct decimal.Decimal) string {
	return f.Format(pct, WithMaxFractionDigits(2), WithCompression(0), WithCurrency(false)) + "%"
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if sign != "" && strings.Trim(intPart+frac, "0") == "" {
		sign = ""
	}

	var b strings.Builder
	b.WriteString(sign)
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte(',')
		b.WriteString(intPart[i : i+3])
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
