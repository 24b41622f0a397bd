package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/example/courier-orders/internal/models"
)

func svc(t models.ServiceType, minPrice string) models.Service {
	return models.Service{ID: "s1", Type: t, Name: string(t), MinPrice: decimal.RequireFromString(minPrice)}
}

func TestComputePriceShopping(t *testing.T) {
	// 5.00 + 0.50 * 10 km = 10.00
	p := ComputePrice(10000, svc(models.ServiceShopping, "5"))
	assert.True(t, p.Equal(decimal.RequireFromString("10.00")), "got %s", p)
}

func TestComputePriceFlooredAtMinimum(t *testing.T) {
	// raw 2.50 + 0.40 = 2.90, floored to the 8.00 minimum
	p := ComputePrice(1000, svc(models.ServiceCarpooling, "8"))
	assert.True(t, p.Equal(decimal.RequireFromString("8.00")), "got %s", p)
}

func TestComputePriceUnknownTypeUsesCarpoolingTier(t *testing.T) {
	known := ComputePrice(5000, svc(models.ServiceCarpooling, "0"))
	unknown := ComputePrice(5000, svc(models.ServiceType("hoverboard"), "0"))
	assert.True(t, known.Equal(unknown))
}

func TestComputePriceRoundsHalfUp(t *testing.T) {
	// 2.50 + 0.40 * 0.0125 km = 2.505 -> 2.51
	p := ComputePrice(12.5, svc(models.ServiceCarpooling, "0"))
	assert.True(t, p.Equal(decimal.RequireFromString("2.51")), "got %s", p)
}

func TestComputePriceNeverBelowMinimum(t *testing.T) {
	s := svc(models.ServiceLargeItems, "9.50")
	for _, d := range []float64{0, 1, 500, 999, 1000, 2500, 10000, 250000} {
		p := ComputePrice(d, s)
		assert.True(t, p.GreaterThanOrEqual(s.MinPrice), "d=%f price=%s", d, p)
	}
}

func TestComputePriceMonotonicInDistance(t *testing.T) {
	s := svc(models.ServiceShopping, "5")
	prev := ComputePrice(0, s)
	for d := float64(500); d <= 50000; d += 500 {
		p := ComputePrice(d, s)
		assert.False(t, p.LessThan(prev), "price decreased at d=%f: %s < %s", d, p, prev)
		prev = p
	}
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "850 m", FormatDistance(850))
	assert.Equal(t, "1.0 km", FormatDistance(1000))
	assert.Equal(t, "1.2 km", FormatDistance(1234))
	assert.Equal(t, "12 m", FormatDistance(12.4))
}
