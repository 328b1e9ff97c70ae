package cart

import (
	cartstore "github.com/shopcart/shopcart-backend/internal/cart"
)

// totalsPayload carries display-rounded totals; the engine keeps full
// precision internally.
type totalsPayload struct {
	Subtotal string `json:"subtotal"`
	Discount string `json:"discount"`
	Shipping string `json:"shipping"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

type cartPayload struct {
	Items  []cartstore.Item `json:"items"`
	Totals totalsPayload    `json:"totals"`
}

func payloadFromSnapshot(snapshot cartstore.Snapshot) cartPayload {
	return cartPayload{
		Items: snapshot.Items,
		Totals: totalsPayload{
			Subtotal: snapshot.Totals.Subtotal.StringFixed(2),
			Discount: snapshot.Totals.Discount.StringFixed(2),
			Shipping: snapshot.Totals.Shipping.StringFixed(2),
			Tax:      snapshot.Totals.Tax.StringFixed(2),
			Total:    snapshot.Totals.Total.StringFixed(2),
		},
	}
}
