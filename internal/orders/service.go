package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopcart/shopcart-backend/pkg/db"
	"github.com/shopcart/shopcart-backend/pkg/db/models"
	pkgerrors "github.com/shopcart/shopcart-backend/pkg/errors"
	"github.com/shopcart/shopcart-backend/pkg/logger"
	"github.com/shopcart/shopcart-backend/pkg/metrics"
	"github.com/shopcart/shopcart-backend/pkg/types"
)

// paymentIntentConstraint is the unique index guarding one order per payment.
const paymentIntentConstraint = "idx_orders_payment_intent_id"

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns order recording and retrieval.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*OrderDetails, error)
	Finalize(ctx context.Context, input FinalizeInput) (*OrderDetails, error)
	GetByID(ctx context.Context, userID, orderID uuid.UUID) (*OrderDetails, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]OrderDetails, error)
}

type service struct {
	repo    Repository
	tx      TxRunner
	metrics *metrics.CheckoutMetrics
	logger  *logger.Logger
}

func NewService(repo Repository, tx TxRunner, m *metrics.CheckoutMetrics, logg *logger.Logger) Service {
	return &service{repo: repo, tx: tx, metrics: m, logger: logg}
}

// Create records an order that has no payment reference attached.
func (s *service) Create(ctx context.Context, input CreateInput) (*OrderDetails, error) {
	if err := validateOrderFields(input.Items, input.ShippingAddress, input.PaymentMethod, input.UserID); err != nil {
		return nil, err
	}

	order := buildOrder(input.UserID, nil, input.PaymentMethod, input.Total, input.Items, input.ShippingAddress)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, order)
	})
	if err != nil {
		s.metrics.IncFinalization("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "recording order")
	}

	s.metrics.IncFinalization("created")
	s.logger.Info(s.logger.WithField(ctx, "order_number", order.OrderNumber), "order recorded")
	return detailsFromModel(order), nil
}

// Finalize records the order for a settled payment. The payment reference is
// the idempotency key: a retry or a concurrent duplicate returns the order
// already written for that payment instead of creating a second one.
func (s *service) Finalize(ctx context.Context, input FinalizeInput) (*OrderDetails, error) {
	if strings.TrimSpace(input.PaymentIntentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}
	if err := validateOrderFields(input.Items, input.ShippingAddress, input.PaymentMethod, input.UserID); err != nil {
		return nil, err
	}

	paymentIntentID := strings.TrimSpace(input.PaymentIntentID)
	order := buildOrder(input.UserID, &paymentIntentID, input.PaymentMethod, input.Total, input.Items, input.ShippingAddress)

	var result *models.Order
	duplicate := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindByPaymentIntentID(ctx, paymentIntentID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			duplicate = true
			return nil
		}
		if err := repo.Create(ctx, order); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		// A concurrent finalize for the same payment can slip past the
		// pre-check; the unique index decides the winner and the loser
		// returns the winner's row.
		if db.IsUniqueViolation(err, paymentIntentConstraint) {
			existing, lookupErr := s.repo.FindByPaymentIntentID(ctx, paymentIntentID)
			if lookupErr == nil && existing != nil {
				s.metrics.IncFinalization("duplicate")
				return detailsFromModel(existing), nil
			}
		}
		s.metrics.IncFinalization("error")
		s.logger.Error(ctx, "order finalization failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "recording finalized order")
	}

	if duplicate {
		s.metrics.IncFinalization("duplicate")
		return detailsFromModel(result), nil
	}

	s.metrics.IncFinalization("created")
	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"order_number":      result.OrderNumber,
		"payment_intent_id": paymentIntentID,
	}), "order finalized")
	return detailsFromModel(result), nil
}

// GetByID returns the user's order or a not-found error. Orders belonging to
// other users are indistinguishable from missing ones.
func (s *service) GetByID(ctx context.Context, userID, orderID uuid.UUID) (*OrderDetails, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order == nil || order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return detailsFromModel(order), nil
}

// ListByUser returns the user's orders newest first.
func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]OrderDetails, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}

	details := make([]OrderDetails, 0, len(rows))
	for i := range rows {
		details = append(details, *detailsFromModel(&rows[i]))
	}
	return details, nil
}

func validateOrderFields(items []ItemInput, address types.Address, paymentMethod string, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for i, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d is missing a name", i))
		}
		if item.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d quantity must be at least 1", i))
		}
		if item.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d price must not be negative", i))
		}
	}
	if address.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}
	if strings.TrimSpace(paymentMethod) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}
	return nil
}

func buildOrder(userID uuid.UUID, paymentIntentID *string, paymentMethod string, total decimal.Decimal, items []ItemInput, address types.Address) *models.Order {
	orderID := uuid.New()
	lines := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, models.OrderItem{
			ID:       uuid.New(),
			OrderID:  orderID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	return &models.Order{
		ID:              orderID,
		OrderNumber:     generateOrderNumber(),
		UserID:          userID,
		PaymentIntentID: paymentIntentID,
		Total:           total,
		PaymentMethod:   paymentMethod,
		ShippingLine1:   address.Line1,
		ShippingCity:    address.City,
		ShippingState:   address.State,
		ShippingPostal:  address.PostalCode,
		Items:           lines,
	}
}

// generateOrderNumber yields a human-readable reference: a millisecond
// timestamp plus a random suffix. Uniqueness is enforced by the database.
func generateOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), suffix)
}
