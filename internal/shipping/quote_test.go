package shipping_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/odmarques/lojinha/internal/shipping"
)

func TestQuote_KnownCities(t *testing.T) {
	tests := []struct {
		city     string
		expected int64
	}{
		{"são paulo", 1990},
		{"rio de janeiro", 2490},
		{"salvador", 2990},
		{"bh", 2250},
		{"belo horizonte", 2250},
		{"fortaleza", 2790},
		{"manaus", 3990},
		{"curitiba", 2190},
		{"recife", 2890},
		{"brasilia - df", 2000},
	}

	for _, tt := range tests {
		t.Run(tt.city, func(t *testing.T) {
			assert.Equal(t, tt.expected, shipping.Quote(tt.city))
		})
	}
}

func TestQuote_NormalizesInput(t *testing.T) {
	assert.Equal(t, int64(1990), shipping.Quote("São Paulo"))
	assert.Equal(t, int64(1990), shipping.Quote("SÃO PAULO"))
	assert.Equal(t, int64(1990), shipping.Quote("  são paulo  "))
}

func TestQuote_DefaultFee(t *testing.T) {
	assert.Equal(t, shipping.DefaultFeeCents, shipping.Quote(""))
	assert.Equal(t, shipping.DefaultFeeCents, shipping.Quote("   "))
	assert.Equal(t, shipping.DefaultFeeCents, shipping.Quote("Atlantis"))
}

func TestKnown(t *testing.T) {
	assert.True(t, shipping.Known("Curitiba"))
	assert.True(t, shipping.Known("  manaus "))
	assert.False(t, shipping.Known("Atlantis"))
	assert.False(t, shipping.Known(""))
}

func TestCities_SortedAndTitled(t *testing.T) {
	cities := shipping.Cities()

	assert.True(t, sort.StringsAreSorted(cities))
	assert.Contains(t, cities, "São Paulo")
	assert.Contains(t, cities, "Belo Horizonte")
	assert.Len(t, cities, 10)
}
