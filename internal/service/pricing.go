package service

import (
	"strings"

	"binwahab-store/internal/model"

	"github.com/shopspring/decimal"
)

type PriceLine struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
	// ShippingRate is the matched rate name, empty when shipping fell back to zero.
	ShippingRate string
}

// UnitPrice is the variant price when the variant carries one, else the product price.
func UnitPrice(product *model.Product, variant *model.ProductVariant) decimal.Decimal {
	if variant != nil && variant.Price != nil {
		return *variant.Price
	}
	return product.Price
}

// ResolveZone maps a Malaysian state name to its shipping zone.
func ResolveZone(state string) model.ZoneCode {
	s := strings.ToLower(strings.TrimSpace(state))
	for _, east := range []string{"sabah", "sarawak", "labuan"} {
		if strings.Contains(s, east) {
			return model.ZoneEastMalaysia
		}
	}
	return model.ZoneWestMalaysia
}

// SelectRate returns the active rate whose [min, max] band holds subtotal, preferring the
// highest minimum. A nil max is unbounded.
func SelectRate(rates []model.ShippingRate, subtotal decimal.Decimal) *model.ShippingRate {
	var best *model.ShippingRate
	for i := range rates {
		rate := &rates[i]
		if !rate.Active || subtotal.LessThan(rate.MinOrderValue) {
			continue
		}
		if rate.MaxOrderValue != nil && subtotal.GreaterThan(*rate.MaxOrderValue) {
			continue
		}
		if best == nil || rate.MinOrderValue.GreaterThan(best.MinOrderValue) {
			best = rate
		}
	}
	return best
}

// Calculate prices the lines for a zone. zone may be nil, in which case shipping is zero.
func Calculate(lines []PriceLine, zone *model.ShippingZone, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	totals := Totals{
		Subtotal: subtotal,
		Tax:      subtotal.Mul(taxRate).Round(2),
		Shipping: decimal.Zero,
	}

	if zone != nil {
		if rate := SelectRate(zone.Rates, subtotal); rate != nil {
			totals.Shipping = rate.Price
			totals.ShippingRate = rate.Name
		}
	}

	totals.Total = totals.Subtotal.Add(totals.Tax).Add(totals.Shipping).Round(2)
	return totals
}
