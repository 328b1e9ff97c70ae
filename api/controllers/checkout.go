package controllers

import (
	"net/http"

	"github.com/shopcart/shopcart-backend/api/middleware"
	"github.com/shopcart/shopcart-backend/api/responses"
	"github.com/shopcart/shopcart-backend/api/validators"
	cartstore "github.com/shopcart/shopcart-backend/internal/cart"
	orderssvc "github.com/shopcart/shopcart-backend/internal/orders"
	"github.com/shopcart/shopcart-backend/internal/payments"
	pkgerrors "github.com/shopcart/shopcart-backend/pkg/errors"
	"github.com/shopcart/shopcart-backend/pkg/logger"
	"github.com/shopcart/shopcart-backend/pkg/types"
)

// CheckoutDeps wires the checkout handlers.
type CheckoutDeps struct {
	Sessions *cartstore.Sessions
	Registry *payments.Registry
	Orders   orderssvc.Service
	Currency string
	Logger   *logger.Logger
}

type createIntentRequest struct {
	Provider string `json:"provider" validate:"required,oneof=stripe paypal"`
}

type intentResponse struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	State        string `json:"state"`
}

type confirmRequest struct {
	IntentID        string        `json:"intent_id" validate:"required"`
	PaymentMethod   string        `json:"payment_method"`
	ShippingAddress types.Address `json:"shipping_address" validate:"required"`
}

type confirmResponse struct {
	Status string                  `json:"status"`
	Order  *orderssvc.OrderDetails `json:"order,omitempty"`
}

// CreateIntent opens a payment attempt for the caller's current cart total.
func CreateIntent(deps CheckoutDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), w, deps.Logger, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user"))
			return
		}

		var req createIntentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), w, deps.Logger, err)
			return
		}

		snapshot := deps.Sessions.For(r.Context(), userID.String()).Snapshot()
		if len(snapshot.Items) == 0 {
			responses.WriteError(r.Context(), w, deps.Logger,
				pkgerrors.New(pkgerrors.CodeValidation, "cart is empty"))
			return
		}

		attempt, intent, err := deps.Registry.Begin(r.Context(), req.Provider, snapshot, deps.Currency)
		if err != nil {
			responses.WriteError(r.Context(), w, deps.Logger, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, intentResponse{
			IntentID:     intent.ID,
			ClientSecret: intent.ClientSecret,
			Amount:       intent.Amount,
			Currency:     intent.Currency,
			State:        string(attempt.State()),
		})
	}
}

// ConfirmPayment settles the attempt and, on success, records the order and
// clears the cart. A requires_action verdict returns without side effects so
// the storefront can run the challenge and confirm again.
func ConfirmPayment(deps CheckoutDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), w, deps.Logger, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user"))
			return
		}

		var req confirmRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), w, deps.Logger, err)
			return
		}

		attempt, found := deps.Registry.Lookup(req.IntentID)
		if !found {
			responses.WriteError(r.Context(), w, deps.Logger,
				pkgerrors.New(pkgerrors.CodeNotFound, "payment attempt not found"))
			return
		}

		confirmation, err := attempt.Confirm(r.Context(), req.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), w, deps.Logger, err)
			return
		}
		if confirmation.Status == payments.StatusRequiresAction {
			responses.WriteSuccess(w, confirmResponse{Status: string(payments.StatusRequiresAction)})
			return
		}

		// Finalize from the snapshot captured when the intent was created,
		// not the live cart: the charge was for that snapshot's total, and
		// edits made since must not leak into the recorded order.
		snapshot := attempt.Cart()

		items := make([]orderssvc.ItemInput, 0, len(snapshot.Items))
		for _, item := range snapshot.Items {
			items = append(items, orderssvc.ItemInput{
				Name:     item.Name,
				Quantity: item.Quantity,
				Price:    item.UnitPrice,
			})
		}

		details, err := deps.Orders.Finalize(r.Context(), orderssvc.FinalizeInput{
			UserID:          userID,
			PaymentIntentID: req.IntentID,
			PaymentMethod:   attempt.Provider(),
			Total:           snapshot.Totals.Total,
			Items:           items,
			ShippingAddress: req.ShippingAddress,
		})
		if err != nil {
			// Payment settled but the order write failed; the client
			// retries POST /orders/finalize with the same reference.
			responses.WriteError(r.Context(), w, deps.Logger, err)
			return
		}

		deps.Sessions.For(r.Context(), userID.String()).Clear()
		deps.Registry.Forget(req.IntentID)

		responses.WriteSuccessStatus(w, http.StatusCreated, confirmResponse{
			Status: string(payments.StatusSucceeded),
			Order:  details,
		})
	}
}
