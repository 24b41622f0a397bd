package pricing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/example/courier-orders/internal/models"
)

// Per-tier rates in euros. Unknown service types fall back to the carpooling
// tier, the cheapest one.
type rate struct {
	base  decimal.Decimal
	perKm decimal.Decimal
}

var rates = map[models.ServiceType]rate{
	models.ServiceCarpooling: {base: dec("2.50"), perKm: dec("0.40")},
	models.ServiceShopping:   {base: dec("5.00"), perKm: dec("0.50")},
	models.ServiceLargeItems: {base: dec("8.00"), perKm: dec("0.70")},
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func rateFor(t models.ServiceType) rate {
	if r, ok := rates[t]; ok {
		return r
	}
	return rates[models.ServiceCarpooling]
}

// ComputePrice derives the estimated price for a trip of distanceMeters using
// the given service: base + perKm * km, rounded half-up to 2 decimal places,
// floored at the service's minimum price. Pure; the same inputs always yield
// the same output, so client and server re-derive the same figure.
func ComputePrice(distanceMeters float64, svc models.Service) decimal.Decimal {
	r := rateFor(svc.Type)
	km := decimal.NewFromFloat(distanceMeters).Div(decimal.NewFromInt(1000))
	price := r.base.Add(r.perKm.Mul(km)).Round(2)
	if price.LessThan(svc.MinPrice) {
		return svc.MinPrice.Round(2)
	}
	return price
}

// FormatDistance renders a distance for display: kilometers with one decimal
// at or above 1 km, whole meters below.
func FormatDistance(meters float64) string {
	if meters >= 1000 {
		return fmt.Sprintf("%.1f km", meters/1000)
	}
	return fmt.Sprintf("%d m", int(math.Round(meters)))
}
