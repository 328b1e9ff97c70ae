package cart

import (
	"github.com/shopspring/decimal"
)

type addItemRequest struct {
	ProductID         string           `json:"product_id" validate:"required"`
	Name              string           `json:"name" validate:"required"`
	UnitPrice         decimal.Decimal  `json:"unit_price"`
	OriginalUnitPrice *decimal.Decimal `json:"original_unit_price"`
	Quantity          int              `json:"quantity" validate:"required,gte=1"`
	ImageURL          string           `json:"image_url"`
}

type updateQuantityRequest struct {
	// Zero removes the line, matching the store semantics.
	Quantity int `json:"quantity" validate:"gte=0"`
}
