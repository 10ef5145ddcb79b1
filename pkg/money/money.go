// Package money renders decimal amounts as localized currency strings.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter formats amounts for one locale and currency symbol.
type Formatter struct {
	Locale language.Tag
	Symbol string
}

// Default formats Brazilian reais, e.g. "R$ 1.234,50".
func Default() Formatter {
	return Formatter{Locale: language.BrazilianPortuguese, Symbol: "R$"}
}

// New parses locale as a BCP 47 tag.
func New(locale, symbol string) (Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return Formatter{}, err
	}
	return Formatter{Locale: tag, Symbol: symbol}, nil
}

// Format renders d rounded to two fraction digits with locale grouping.
func (f Formatter) Format(d decimal.Decimal) string {
	p := message.NewPrinter(f.Locale)

	rounded := d.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}

	amount := p.Sprint(number.Decimal(rounded.InexactFloat64(), number.Scale(2)))
	if f.Symbol == "" {
		return sign + amount
	}
	return sign + f.Symbol + " " + amount
}
