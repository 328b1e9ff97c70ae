package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopcart/shopcart-backend/pkg/db/models"
	"github.com/shopcart/shopcart-backend/pkg/types"
)

// OrderLine is one purchased item as shown on a receipt.
type OrderLine struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// OrderDetails is the storefront-facing order shape. Monetary fields marshal
// as strings, so two-decimal display values survive the wire untouched.
type OrderDetails struct {
	ID              uuid.UUID       `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	Date            time.Time       `json:"date"`
	Total           decimal.Decimal `json:"total"`
	PaymentMethod   string          `json:"paymentMethod"`
	Items           []OrderLine     `json:"items"`
	ShippingAddress types.Address   `json:"shippingAddress"`
}

// ItemInput is one cart line handed to order creation.
type ItemInput struct {
	Name     string          `json:"name" validate:"required"`
	Quantity int             `json:"quantity" validate:"required,gte=1"`
	Price    decimal.Decimal `json:"price"`
}

// CreateInput records an order without a payment reference (offline and
// invoice flows).
type CreateInput struct {
	UserID          uuid.UUID
	PaymentMethod   string
	Total           decimal.Decimal
	Items           []ItemInput
	ShippingAddress types.Address
}

// FinalizeInput records an order for a settled payment. PaymentIntentID is
// the idempotency key: one order per payment, no matter how many retries.
type FinalizeInput struct {
	UserID          uuid.UUID
	PaymentIntentID string
	PaymentMethod   string
	Total           decimal.Decimal
	Items           []ItemInput
	ShippingAddress types.Address
}

func detailsFromModel(order *models.Order) *OrderDetails {
	lines := make([]OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, OrderLine{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	return &OrderDetails{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		Date:          order.CreatedAt,
		Total:         order.Total,
		PaymentMethod: order.PaymentMethod,
		Items:         lines,
		ShippingAddress: types.Address{
			Line1:      order.ShippingLine1,
			City:       order.ShippingCity,
			State:      order.ShippingState,
			PostalCode: order.ShippingPostal,
		},
	}
}
