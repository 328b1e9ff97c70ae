package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopcart/shopcart-backend/pkg/config"
)

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return d
}

func decPtr(t *testing.T, value string) *decimal.Decimal {
	t.Helper()
	d := dec(t, value)
	return &d
}

func testPolicy(t *testing.T) Policy {
	t.Helper()
	return Policy{TaxRate: dec(t, "0.085"), Shipping: FlatShipping{}}
}

func TestComputeTotalsEmptyCart(t *testing.T) {
	totals := ComputeTotals(nil, testPolicy(t))

	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Discount.IsZero())
	assert.True(t, totals.Shipping.IsZero())
	assert.True(t, totals.Tax.IsZero())
	assert.True(t, totals.Total.IsZero())
}

func TestComputeTotalsDiscountedItem(t *testing.T) {
	items := []Item{
		{
			ProductID:         "prod-1",
			Name:              "Noise Cancelling Headphones",
			UnitPrice:         dec(t, "439.00"),
			OriginalUnitPrice: decPtr(t, "549.00"),
			Quantity:          1,
		},
	}

	totals := ComputeTotals(items, testPolicy(t))

	assert.True(t, totals.Subtotal.Equal(dec(t, "439.00")), "subtotal %s", totals.Subtotal)
	assert.True(t, totals.Discount.Equal(dec(t, "110.00")), "discount %s", totals.Discount)
	assert.True(t, totals.Shipping.IsZero())
	// Tax is charged on the pre-discount subtotal.
	assert.True(t, totals.Tax.Equal(dec(t, "37.315")), "tax %s", totals.Tax)
	assert.True(t, totals.Total.Equal(dec(t, "366.315")), "total %s", totals.Total)
	assert.Equal(t, "366.32", totals.Total.StringFixed(2))
}

func TestComputeTotalsMultipleLinesAndQuantities(t *testing.T) {
	items := []Item{
		{ProductID: "prod-1", UnitPrice: dec(t, "19.99"), Quantity: 3},
		{ProductID: "prod-2", UnitPrice: dec(t, "5.50"), OriginalUnitPrice: decPtr(t, "8.00"), Quantity: 2},
	}

	totals := ComputeTotals(items, testPolicy(t))

	// 3*19.99 + 2*5.50 = 70.97
	assert.True(t, totals.Subtotal.Equal(dec(t, "70.97")), "subtotal %s", totals.Subtotal)
	// 2*(8.00-5.50) = 5.00
	assert.True(t, totals.Discount.Equal(dec(t, "5.00")), "discount %s", totals.Discount)
	expectedTax := dec(t, "70.97").Mul(dec(t, "0.085"))
	assert.True(t, totals.Tax.Equal(expectedTax), "tax %s", totals.Tax)
	expectedTotal := dec(t, "65.97").Add(expectedTax)
	assert.True(t, totals.Total.Equal(expectedTotal), "total %s", totals.Total)
}

func TestComputeTotalsIgnoresNegativeSpread(t *testing.T) {
	// An "original" price below the selling price must not produce a
	// negative discount.
	items := []Item{
		{ProductID: "prod-1", UnitPrice: dec(t, "50.00"), OriginalUnitPrice: decPtr(t, "40.00"), Quantity: 1},
	}

	totals := ComputeTotals(items, testPolicy(t))
	assert.True(t, totals.Discount.IsZero())
}

func TestComputeTotalsIsIdempotent(t *testing.T) {
	items := []Item{
		{ProductID: "prod-1", UnitPrice: dec(t, "12.34"), Quantity: 5},
		{ProductID: "prod-2", UnitPrice: dec(t, "0.99"), OriginalUnitPrice: decPtr(t, "1.49"), Quantity: 7},
	}
	policy := testPolicy(t)

	first := ComputeTotals(items, policy)
	second := ComputeTotals(items, policy)

	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.True(t, first.Discount.Equal(second.Discount))
	assert.True(t, first.Tax.Equal(second.Tax))
	assert.True(t, first.Total.Equal(second.Total))
}

func TestFreeAboveThresholdShipping(t *testing.T) {
	policy := Policy{
		TaxRate:  dec(t, "0.085"),
		Shipping: FreeAboveThreshold{Threshold: dec(t, "50.00"), Amount: dec(t, "4.99")},
	}

	below := ComputeTotals([]Item{{ProductID: "p", UnitPrice: dec(t, "10.00"), Quantity: 1}}, policy)
	assert.True(t, below.Shipping.Equal(dec(t, "4.99")), "shipping %s", below.Shipping)

	above := ComputeTotals([]Item{{ProductID: "p", UnitPrice: dec(t, "50.00"), Quantity: 1}}, policy)
	assert.True(t, above.Shipping.IsZero())
}

func TestMinorUnitsRoundsHalfUp(t *testing.T) {
	totals := Totals{Total: dec(t, "366.315")}
	assert.Equal(t, int64(36632), totals.MinorUnits())

	totals = Totals{Total: dec(t, "10.004")}
	assert.Equal(t, int64(1000), totals.MinorUnits())
}

func TestPolicyFromConfig(t *testing.T) {
	cfg := config.PricingConfig{TaxRate: "0.085", FlatShippingFee: "0"}
	policy, err := PolicyFromConfig(cfg)
	require.NoError(t, err)
	assert.True(t, policy.TaxRate.Equal(dec(t, "0.085")))
	require.NotNil(t, policy.Shipping)
	assert.True(t, policy.Shipping.Fee(dec(t, "100")).IsZero())

	cfg = config.PricingConfig{TaxRate: "0.085", FlatShippingFee: "4.99", FreeShippingThreshold: "50"}
	policy, err = PolicyFromConfig(cfg)
	require.NoError(t, err)
	assert.True(t, policy.Shipping.Fee(dec(t, "49.99")).Equal(dec(t, "4.99")))
	assert.True(t, policy.Shipping.Fee(dec(t, "50")).IsZero())
}
