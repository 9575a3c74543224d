package service

import (
	"testing"

	"binwahab-store/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2), msgAndArgs...)
}

var sixPercent = dec("0.06")

func TestCalculate_SelangorWithoutRate(t *testing.T) {
	lines := []PriceLine{{UnitPrice: dec("50.00"), Quantity: 2}}
	zone := &model.ShippingZone{Code: ResolveZone("Selangor")}

	totals := Calculate(lines, zone, sixPercent)

	assert.Equal(t, model.ZoneWestMalaysia, zone.Code)
	assertMoney(t, "100.00", totals.Subtotal)
	assertMoney(t, "6.00", totals.Tax)
	assertMoney(t, "0.00", totals.Shipping)
	assertMoney(t, "106.00", totals.Total)
	assert.Empty(t, totals.ShippingRate)
}

func TestCalculate_NoZone(t *testing.T) {
	totals := Calculate([]PriceLine{{UnitPrice: dec("10"), Quantity: 1}}, nil, sixPercent)
	assertMoney(t, "0.00", totals.Shipping)
	assertMoney(t, "10.60", totals.Total)
}

func TestCalculate_SubtotalIsExactSum(t *testing.T) {
	lines := []PriceLine{
		{UnitPrice: dec("0.10"), Quantity: 3},
		{UnitPrice: dec("19.99"), Quantity: 7},
		{UnitPrice: dec("1234.56"), Quantity: 1},
	}

	totals := Calculate(lines, nil, sixPercent)

	// 0.30 + 139.93 + 1234.56
	assertMoney(t, "1374.79", totals.Subtotal)
	// 82.4874 rounds to 82.49
	assertMoney(t, "82.49", totals.Tax)
	assertMoney(t, "1457.28", totals.Total)
}

func TestCalculate_TaxRounding(t *testing.T) {
	cases := []struct {
		price string
		tax   string
	}{
		{"0.08", "0.00"},  // 0.0048
		{"0.09", "0.01"},  // 0.0054
		{"12.25", "0.74"}, // 0.735
		{"99.99", "6.00"}, // 5.9994
	}
	for _, tc := range cases {
		totals := Calculate([]PriceLine{{UnitPrice: dec(tc.price), Quantity: 1}}, nil, sixPercent)
		assertMoney(t, tc.tax, totals.Tax, tc.price)
	}
}

func TestResolveZone(t *testing.T) {
	assert.Equal(t, model.ZoneEastMalaysia, ResolveZone("Sabah"))
	assert.Equal(t, model.ZoneEastMalaysia, ResolveZone("  SARAWAK "))
	assert.Equal(t, model.ZoneEastMalaysia, ResolveZone("W.P. Labuan"))
	assert.Equal(t, model.ZoneWestMalaysia, ResolveZone("Johor"))
	assert.Equal(t, model.ZoneWestMalaysia, ResolveZone(""))
}

func TestSelectRate(t *testing.T) {
	rates := []model.ShippingRate{
		{Name: "standard", Price: dec("8"), MinOrderValue: dec("0"), MaxOrderValue: decPtr("149.99"), Active: true},
		{Name: "free", Price: dec("0"), MinOrderValue: dec("150"), Active: true},
		{Name: "bulk", Price: dec("4"), MinOrderValue: dec("100"), MaxOrderValue: decPtr("500"), Active: true},
		{Name: "retired", Price: dec("1"), MinOrderValue: dec("0"), Active: false},
	}

	t.Run("lowest band", func(t *testing.T) {
		rate := SelectRate(rates, dec("20"))
		require.NotNil(t, rate)
		assert.Equal(t, "standard", rate.Name)
	})

	t.Run("overlap picks highest minimum", func(t *testing.T) {
		rate := SelectRate(rates, dec("120"))
		require.NotNil(t, rate)
		assert.Equal(t, "bulk", rate.Name)

		rate = SelectRate(rates, dec("200"))
		require.NotNil(t, rate)
		assert.Equal(t, "free", rate.Name)
	})

	t.Run("bounds are inclusive", func(t *testing.T) {
		rate := SelectRate(rates, dec("149.99"))
		require.NotNil(t, rate)
		assert.Equal(t, "bulk", rate.Name)

		rate = SelectRate(rates[:1], dec("149.99"))
		require.NotNil(t, rate)
		assert.Equal(t, "standard", rate.Name)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Nil(t, SelectRate(rates[:1], dec("150")))
		assert.Nil(t, SelectRate(nil, dec("1")))
	})
}

func TestCalculate_WithMatchedRate(t *testing.T) {
	zone := &model.ShippingZone{
		Code: model.ZoneEastMalaysia,
		Rates: []model.ShippingRate{
			{Name: "Standard", Price: dec("15"), MinOrderValue: dec("0"), MaxOrderValue: decPtr("199.99"), Active: true},
		},
	}

	totals := Calculate([]PriceLine{{UnitPrice: dec("45"), Quantity: 2}}, zone, sixPercent)

	assertMoney(t, "90.00", totals.Subtotal)
	assertMoney(t, "5.40", totals.Tax)
	assertMoney(t, "15.00", totals.Shipping)
	assertMoney(t, "110.40", totals.Total)
	assert.Equal(t, "Standard", totals.ShippingRate)
}

func TestUnitPrice(t *testing.T) {
	product := &model.Product{Price: dec("45")}
	assertMoney(t, "45.00", UnitPrice(product, nil))
	assertMoney(t, "45.00", UnitPrice(product, &model.ProductVariant{}))
	assertMoney(t, "59.00", UnitPrice(product, &model.ProductVariant{Price: decPtr("59")}))
}
