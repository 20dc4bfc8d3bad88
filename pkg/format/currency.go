// Package format renders whole-won amounts for people.
package format

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	eok = 100000000 // 억
	man = 10000     // 만
)

var printer = message.NewPrinter(language.English)

// Currency returns a won string with a currency sign and thousands separators (e.g., "-₩1,234,567").
func Currency(amount int64) string {
	if amount < 0 {
		return "-₩" + NumericCurrency(-amount)
	}
	return "₩" + NumericCurrency(amount)
}

// NumericCurrency returns a won string without a currency sign but with separators (e.g., "-1,234,567").
func NumericCurrency(amount int64) string {
	return printer.Sprintf("%d", amount)
}

// Range returns "low ~ high" using Currency for both endpoints.
func Range(low, high int64) string {
	return Currency(low) + " ~ " + Currency(high)
}

// Short renders an amount in 억/만 units, e.g. 5,335,000,000 -> "53.35억원".
func Short(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	switch {
	case amount >= eok:
		s := printer.Sprintf("%.2f", float64(amount)/eok)
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
		return sign + s + "억원"
	case amount >= man:
		return sign + printer.Sprintf("%d", amount/man) + "만원"
	default:
		return sign + printer.Sprintf("%d", amount) + "원"
	}
}

// ShortRange returns "low ~ high" using Short for both endpoints.
func ShortRange(low, high int64) string {
	return Short(low) + " ~ " + Short(high)
}

// Percent renders a percentage in [0,100] with at most two decimals.
func Percent(value float64) string {
	s := printer.Sprintf("%.2f", value)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return s + "%"
}
