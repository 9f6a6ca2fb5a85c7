// Package shipping maps destination cities to flat shipping fees.
package shipping

import (
	"sort"
	"strings"
)

// DefaultFeeCents is charged when the city is empty or not in the table.
const DefaultFeeCents int64 = 3990

// feeByCity is the flat-fee table, keyed by normalized city name (centavos).
var feeByCity = map[string]int64{
	"são paulo":      1990,
	"rio de janeiro": 2490,
	"salvador":       2990,
	"bh":             2250,
	"belo horizonte": 2250,
	"fortaleza":      2790,
	"manaus":         3990,
	"curitiba":       2190,
	"recife":         2890,
	"brasilia - df":  2000,
}

// Quote returns the flat shipping fee in centavos for a destination city.
// Input is trimmed and case-folded; empty or unknown cities get the default
// fee. Every input has a defined output.
func Quote(city string) int64 {
	city = strings.ToLower(strings.TrimSpace(city))
	if city == "" {
		return DefaultFeeCents
	}
	if fee, ok := feeByCity[city]; ok {
		return fee
	}
	return DefaultFeeCents
}

// Known reports whether the city is in the fee table.
func Known(city string) bool {
	_, ok := feeByCity[strings.ToLower(strings.TrimSpace(city))]
	return ok
}

// Cities returns the serviced city names for display, alphabetically.
func Cities() []string {
	names := make([]string, 0, len(feeByCity))
	for city := range feeByCity {
		names = append(names, titleCase(city))
	}
	sort.Strings(names)
	return names
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
