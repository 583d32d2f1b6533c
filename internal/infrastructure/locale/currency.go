// Package locale formats money and dates for UK-English invoices.
package locale

import (
	"strconv"
	"strings"

	"github.com/invoicer/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Tag is the locale used for all invoice output
var Tag = language.BritishEnglish

// FormatCurrency renders amount with the symbol, grouping and minor-unit
// digits of the given ISO 4217 code, e.g. "£1,575.00", "US$12.50", "¥300".
// Unknown codes fall back to "XYZ 1,575.00".
func FormatCurrency(amount decimal.Decimal, code valueobject.Currency) string {
	prefix := string(code) + " "
	if unit, ok := code.Unit(); ok {
		prefix = message.NewPrinter(Tag).Sprint(currency.Symbol(unit))
	}
	return formatAmount(amount, code, prefix)
}

// FormatCurrencyCode renders amount behind its ISO code instead of a symbol,
// e.g. "INR 1,575.00", for output that cannot show the symbol glyph.
func FormatCurrencyCode(amount decimal.Decimal, code valueobject.Currency) string {
	return formatAmount(amount, code, string(code)+" ")
}

func formatAmount(amount decimal.Decimal, code valueobject.Currency, prefix string) string {
	scale := code.Scale()
	rounded := amount.Round(scale)

	var sb strings.Builder
	if rounded.IsNegative() {
		sb.WriteString("-")
	}
	sb.WriteString(prefix)
	sb.WriteString(groupDigits(rounded.Abs().StringFixed(scale)))
	return sb.String()
}

// FormatMoney is FormatCurrency for a Money value
func FormatMoney(m valueobject.Money) string {
	return FormatCurrency(m.Amount(), m.Currency())
}

// groupDigits adds UK thousands separators to a fixed-point string. The
// integer part goes through x/text as an int64, never a float, so every
// digit is kept; integers beyond int64 are grouped by hand.
func groupDigits(fixed string) string {
	intPart, frac, hasFrac := strings.Cut(fixed, ".")

	grouped := groupThousands(intPart)
	if n, err := strconv.ParseInt(intPart, 10, 64); err == nil {
		grouped = message.NewPrinter(Tag).Sprint(number.Decimal(n))
	}
	if hasFrac {
		return grouped + "." + frac
	}
	return grouped
}

func groupThousands(digits string) string {
	var sb strings.Builder
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	sb.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		sb.WriteByte(',')
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}
