package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the durable record created once per successful payment. The row is
// immutable after insert; later catalog price changes never touch it.
type Order struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber     string          `gorm:"column:order_number;uniqueIndex;not null"`
	UserID          uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	PaymentIntentID *string         `gorm:"column:payment_intent_id;uniqueIndex"`
	Total           decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	PaymentMethod   string          `gorm:"column:payment_method;not null"`
	ShippingLine1   string          `gorm:"column:shipping_address_line1;not null"`
	ShippingCity    string          `gorm:"column:shipping_address_city;not null"`
	ShippingState   string          `gorm:"column:shipping_address_state;not null"`
	ShippingPostal  string          `gorm:"column:shipping_address_postal_code;not null"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
