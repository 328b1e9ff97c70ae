package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopcart/shopcart-backend/api/middleware"
	"github.com/shopcart/shopcart-backend/api/responses"
	"github.com/shopcart/shopcart-backend/api/validators"
	cartstore "github.com/shopcart/shopcart-backend/internal/cart"
	pkgerrors "github.com/shopcart/shopcart-backend/pkg/errors"
	"github.com/shopcart/shopcart-backend/pkg/logger"
)

// Get returns the caller's cart with current totals.
func Get(sessions *cartstore.Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), w, logg, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user"))
			return
		}

		store := sessions.For(r.Context(), userID.String())
		responses.WriteSuccess(w, payloadFromSnapshot(store.Snapshot()))
	}
}

// AddItem merges an item into the caller's cart.
func AddItem(sessions *cartstore.Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), w, logg, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user"))
			return
		}

		var req addItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		if req.UnitPrice.IsNegative() {
			responses.WriteError(r.Context(), w, logg,
				pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative"))
			return
		}

		store := sessions.For(r.Context(), userID.String())
		snapshot := store.AddItem(cartstore.Item{
			ProductID:         req.ProductID,
			Name:              req.Name,
			UnitPrice:         req.UnitPrice,
			OriginalUnitPrice: req.OriginalUnitPrice,
			Quantity:          req.Quantity,
			ImageURL:          req.ImageURL,
		})
		responses.WriteSuccess(w, payloadFromSnapshot(snapshot))
	}
}

// UpdateQuantity sets a line's quantity; zero removes it.
func UpdateQuantity(sessions *cartstore.Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), w, logg, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user"))
			return
		}

		productID := chi.URLParam(r, "productID")
		if productID == "" {
			responses.WriteError(r.Context(), w, logg,
				pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		var req updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}

		store := sessions.For(r.Context(), userID.String())
		snapshot := store.UpdateQuantity(productID, req.Quantity)
		responses.WriteSuccess(w, payloadFromSnapshot(snapshot))
	}
}

// RemoveItem drops a line from the cart.
func RemoveItem(sessions *cartstore.Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), w, logg, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user"))
			return
		}

		productID := chi.URLParam(r, "productID")
		if productID == "" {
			responses.WriteError(r.Context(), w, logg,
				pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		store := sessions.For(r.Context(), userID.String())
		snapshot := store.RemoveItem(productID)
		responses.WriteSuccess(w, payloadFromSnapshot(snapshot))
	}
}

// Clear empties the caller's cart.
func Clear(sessions *cartstore.Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), w, logg, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user"))
			return
		}

		store := sessions.For(r.Context(), userID.String())
		responses.WriteSuccess(w, payloadFromSnapshot(store.Clear()))
	}
}
