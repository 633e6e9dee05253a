package utils

import (
	"fmt"
	"strconv"
	"strings"
)

type Currency struct {
	Code      string `json:"code"`
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Decimals  int    `json:"decimals"`
	Thousands string `json:"thousands"`
	Decimal   string `json:"decimal"`
}

var SupportedCurrencies = map[string]Currency{
	"CLP": {Code: "CLP", Symbol: "$", Name: "Peso chileno", Decimals: 0, Thousands: ".", Decimal: ","},
	"USD": {Code: "USD", Symbol: "US$", Name: "US Dollar", Decimals: 2, Thousands: ",", Decimal: "."},
}

// FormatCurrency renders an amount of whole units, e.g. 2990 CLP as "$2.990".
func FormatCurrency(amount int64, currencyCode string) string {
	currency, exists := SupportedCurrencies[currencyCode]
	if !exists {
		currency = SupportedCurrencies[DefaultCurrency]
	}

	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	integer := groupThousands(strconv.FormatInt(amount, 10), currency.Thousands)
	if currency.Decimals > 0 {
		integer += currency.Decimal + strings.Repeat("0", currency.Decimals)
	}

	return fmt.Sprintf("%s%s%s", sign, currency.Symbol, integer)
}

func groupThousands(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
