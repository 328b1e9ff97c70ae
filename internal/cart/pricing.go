package cart

import (
	"github.com/shopspring/decimal"

	"github.com/shopcart/shopcart-backend/pkg/config"
)

var hundred = decimal.NewFromInt(100)

// Totals carries the derived monetary fields of a cart. Values stay unrounded
// internally; rounding to two decimals happens only at presentation.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// MinorUnits converts the total into integer minor units (cents) the way
// payment providers expect: round(total * 100).
func (t Totals) MinorUnits() int64 {
	return t.Total.Mul(hundred).Round(0).IntPart()
}

// ShippingRule decides the shipping fee for a given subtotal.
type ShippingRule interface {
	Fee(subtotal decimal.Decimal) decimal.Decimal
}

// FlatShipping charges a fixed fee regardless of subtotal (zero in baseline).
type FlatShipping struct {
	Amount decimal.Decimal
}

func (f FlatShipping) Fee(decimal.Decimal) decimal.Decimal {
	return f.Amount
}

// FreeAboveThreshold waives the flat fee once the subtotal reaches a threshold.
type FreeAboveThreshold struct {
	Threshold decimal.Decimal
	Amount    decimal.Decimal
}

func (f FreeAboveThreshold) Fee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(f.Threshold) {
		return decimal.Zero
	}
	return f.Amount
}

// Policy configures the pricing engine.
type Policy struct {
	TaxRate  decimal.Decimal
	Shipping ShippingRule
}

// PolicyFromConfig builds a pricing policy from the environment configuration.
func PolicyFromConfig(cfg config.PricingConfig) (Policy, error) {
	rate, err := cfg.Rate()
	if err != nil {
		return Policy{}, err
	}

	var rule ShippingRule = FlatShipping{Amount: cfg.ShippingFee()}
	if threshold := cfg.Threshold(); threshold != nil {
		rule = FreeAboveThreshold{Threshold: *threshold, Amount: cfg.ShippingFee()}
	}

	return Policy{TaxRate: rate, Shipping: rule}, nil
}

// ComputeTotals derives subtotal/discount/shipping/tax/total from the items.
// Tax applies to the subtotal before the discount is taken; changing that
// order changes literal totals, so it is load-bearing.
func ComputeTotals(items []Item, policy Policy) Totals {
	subtotal := decimal.Zero
	discount := decimal.Zero

	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(item.UnitPrice.Mul(qty))
		if item.OriginalUnitPrice != nil {
			perUnit := item.OriginalUnitPrice.Sub(item.UnitPrice)
			if perUnit.IsPositive() {
				discount = discount.Add(perUnit.Mul(qty))
			}
		}
	}

	shipping := decimal.Zero
	if policy.Shipping != nil {
		shipping = policy.Shipping.Fee(subtotal)
	}
	tax := subtotal.Mul(policy.TaxRate)
	total := subtotal.Sub(discount).Add(shipping).Add(tax)

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Shipping: shipping,
		Tax:      tax,
		Total:    total,
	}
}
