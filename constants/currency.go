package constants

type Currency string

const (
	EUR Currency = "EUR"
	USD Currency = "USD"
	INR Currency = "INR"
	GBP Currency = "GBP"
)

// allCurrencies is the closed set an invoice currency must come from.
var allCurrencies = []Currency{
	EUR,
	USD,
	INR,
	GBP,
}

// CurrencySymbol pairs a printed symbol with its code.
type CurrencySymbol struct {
	Symbol string
	Code   Currency
}

// CurrencySymbols is ordered: the first symbol present in a text wins.
var CurrencySymbols = []CurrencySymbol{
	{Symbol: "$", Code: USD},
	{Symbol: "€", Code: EUR},
	{Symbol: "£", Code: GBP},
	{Symbol: "₹", Code: INR},
}

func Currencies() []Currency {
	out := make([]Currency, len(allCurrencies))
	copy(out, allCurrencies)
	return out
}

func CurrencyStrings() []string {
	result := make([]string, len(allCurrencies))
	for i, c := range allCurrencies {
		result[i] = string(c)
	}
	return result
}

// IsKnownCurrency reports whether code is in the closed set. Matching is exact.
func IsKnownCurrency(code string) bool {
	for _, c := range allCurrencies {
		if code == string(c) {
			return true
		}
	}
	return false
}
