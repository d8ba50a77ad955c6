package utils

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"
)

// NormalizeCurrency validates an ISO 4217 code and returns it upper-cased.
func NormalizeCurrency(code string) (string, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", fmt.Errorf("unknown currency %q", code)
	}
	return unit.String(), nil
}

func currencyScale(code string) (int, error) {
	unit, err := currency.ParseISO(strings.ToUpper(code))
	if err != nil {
		return 0, fmt.Errorf("unknown currency %q", code)
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale, nil
}

// ToMinorUnits converts a decimal amount into the integer unit gateways charge in
// (cents for USD, paise for INR, yen for JPY).
func ToMinorUnits(amount float64, code string) (int64, error) {
	scale, err := currencyScale(code)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(amount * math.Pow10(scale))), nil
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(minor int64, code string) (float64, error) {
	scale, err := currencyScale(code)
	if err != nil {
		return 0, err
	}
	return float64(minor) / math.Pow10(scale), nil
}
