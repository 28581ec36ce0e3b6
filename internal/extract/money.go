package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyPolicy selects which separator groups thousands and which marks decimals.
type MoneyPolicy int

const (
	// CommaThousands reads "1,234.56".
	CommaThousands MoneyPolicy = iota
	// DotThousands reads "1.234,56".
	DotThousands
)

var reNonNumeric = regexp.MustCompile(`[^0-9.]`)

func (p MoneyPolicy) String() string {
	if p == DotThousands {
		return "dot_thousands"
	}
	return "comma_thousands"
}

// ParseMoneyPolicy accepts the String forms; anything else is CommaThousands.
func ParseMoneyPolicy(s string) (MoneyPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "comma_thousands", "":
		return CommaThousands, true
	case "dot_thousands":
		return DotThousands, true
	default:
		return CommaThousands, false
	}
}

// canonical drops the thousands separator and rewrites the decimal marker as '.'.
func (p MoneyPolicy) canonical(token string) string {
	if p == DotThousands {
		token = strings.ReplaceAll(token, ".", "")
		return strings.ReplaceAll(token, ",", ".")
	}
	return strings.ReplaceAll(token, ",", "")
}

// CleanMoney turns a raw amount token into an exact decimal. Symbols,
// spaces and signs are dropped; false means the token held no number.
func CleanMoney(token string, policy MoneyPolicy) (decimal.Decimal, bool) {
	cleaned := reNonNumeric.ReplaceAllString(policy.canonical(token), "")
	if cleaned == "" || strings.Count(cleaned, ".") > 1 {
		return decimal.Decimal{}, false
	}
	cleaned = strings.TrimSuffix(cleaned, ".")
	if cleaned == "" || cleaned == "." {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// FormatMoney renders d the way policy writes amounts, without grouping.
func FormatMoney(d decimal.Decimal, policy MoneyPolicy) string {
	s := d.String()
	if policy == DotThousands {
		return strings.ReplaceAll(s, ".", ",")
	}
	return s
}

// ParseQuantity reads a plain count. Unlike CleanMoney it rejects trailing units.
func ParseQuantity(token string, policy MoneyPolicy) (float64, bool) {
	s := strings.TrimSpace(policy.canonical(token))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
