package orders

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopcart/shopcart-backend/api/middleware"
	"github.com/shopcart/shopcart-backend/api/responses"
	"github.com/shopcart/shopcart-backend/api/validators"
	orderssvc "github.com/shopcart/shopcart-backend/internal/orders"
	pkgerrors "github.com/shopcart/shopcart-backend/pkg/errors"
	"github.com/shopcart/shopcart-backend/pkg/logger"
	"github.com/shopcart/shopcart-backend/pkg/types"
)

type itemPayload struct {
	Name     string          `json:"name" validate:"required"`
	Quantity int             `json:"quantity" validate:"required,gte=1"`
	Price    decimal.Decimal `json:"price"`
}

type createRequest struct {
	PaymentMethod   string          `json:"payment_method" validate:"required"`
	Total           decimal.Decimal `json:"total"`
	Items           []itemPayload   `json:"items" validate:"required,min=1,dive"`
	ShippingAddress types.Address   `json:"shipping_address" validate:"required"`
}

type finalizeRequest struct {
	PaymentIntentID string          `json:"payment_intent_id" validate:"required"`
	PaymentMethod   string          `json:"payment_method" validate:"required"`
	Total           decimal.Decimal `json:"total"`
	Items           []itemPayload   `json:"items" validate:"required,min=1,dive"`
	ShippingAddress types.Address   `json:"shipping_address" validate:"required"`
}

func itemInputs(payloads []itemPayload) []orderssvc.ItemInput {
	items := make([]orderssvc.ItemInput, 0, len(payloads))
	for _, p := range payloads {
		items = append(items, orderssvc.ItemInput{Name: p.Name, Quantity: p.Quantity, Price: p.Price})
	}
	return items
}

// Create records an order without a payment reference.
func Create(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), w, logg, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user"))
			return
		}

		var req createRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}

		details, err := svc.Create(r.Context(), orderssvc.CreateInput{
			UserID:          userID,
			PaymentMethod:   req.PaymentMethod,
			Total:           req.Total,
			Items:           itemInputs(req.Items),
			ShippingAddress: req.ShippingAddress,
		})
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, details)
	}
}

// Finalize records the order for a settled payment. Safe to retry: the
// payment reference deduplicates.
func Finalize(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), w, logg, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user"))
			return
		}

		var req finalizeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}

		details, err := svc.Finalize(r.Context(), orderssvc.FinalizeInput{
			UserID:          userID,
			PaymentIntentID: req.PaymentIntentID,
			PaymentMethod:   req.PaymentMethod,
			Total:           req.Total,
			Items:           itemInputs(req.Items),
			ShippingAddress: req.ShippingAddress,
		})
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, details)
	}
}

// GetByID returns one of the caller's orders.
func GetByID(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), w, logg, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), w, logg, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}

		details, err := svc.GetByID(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccess(w, details)
	}
}

// List returns the caller's orders, newest first.
func List(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), w, logg, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user"))
			return
		}

		details, err := svc.ListByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccess(w, details)
	}
}
