package orders

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopcart/shopcart-backend/api/middleware"
	orderssvc "github.com/shopcart/shopcart-backend/internal/orders"
	pkgerrors "github.com/shopcart/shopcart-backend/pkg/errors"
	"github.com/shopcart/shopcart-backend/pkg/logger"
	"github.com/shopcart/shopcart-backend/pkg/types"
)

type stubService struct {
	createFn   func(ctx context.Context, input orderssvc.CreateInput) (*orderssvc.OrderDetails, error)
	finalizeFn func(ctx context.Context, input orderssvc.FinalizeInput) (*orderssvc.OrderDetails, error)
	getFn      func(ctx context.Context, userID, orderID uuid.UUID) (*orderssvc.OrderDetails, error)
	listFn     func(ctx context.Context, userID uuid.UUID) ([]orderssvc.OrderDetails, error)
}

func (s *stubService) Create(ctx context.Context, input orderssvc.CreateInput) (*orderssvc.OrderDetails, error) {
	return s.createFn(ctx, input)
}

func (s *stubService) Finalize(ctx context.Context, input orderssvc.FinalizeInput) (*orderssvc.OrderDetails, error) {
	return s.finalizeFn(ctx, input)
}

func (s *stubService) GetByID(ctx context.Context, userID, orderID uuid.UUID) (*orderssvc.OrderDetails, error) {
	return s.getFn(ctx, userID, orderID)
}

func (s *stubService) ListByUser(ctx context.Context, userID uuid.UUID) ([]orderssvc.OrderDetails, error) {
	return s.listFn(ctx, userID)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func testRouter(svc orderssvc.Service) chi.Router {
	logg := testLogger()
	r := chi.NewRouter()
	r.Get("/orders", List(svc, logg))
	r.Post("/orders", Create(svc, logg))
	r.Post("/orders/finalize", Finalize(svc, logg))
	r.Get("/orders/{orderID}", GetByID(svc, logg))
	return r
}

func authedRequest(t *testing.T, userID uuid.UUID, method, target, body string) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

func sampleDetails(userID uuid.UUID) *orderssvc.OrderDetails {
	return &orderssvc.OrderDetails{
		ID:            uuid.New(),
		OrderNumber:   "ORD-1700000000000-AB12CD34",
		Date:          time.Now().UTC(),
		Total:         decimal.RequireFromString("366.315"),
		PaymentMethod: "card",
		Items: []orderssvc.OrderLine{
			{Name: "Noise Cancelling Headphones", Quantity: 1, Price: decimal.RequireFromString("439.00")},
		},
		ShippingAddress: types.Address{Line1: "123 Main St", City: "Portland", State: "OR", PostalCode: "97201"},
	}
}

func TestFinalizeReturns201(t *testing.T) {
	userID := uuid.New()
	details := sampleDetails(userID)

	svc := &stubService{
		finalizeFn: func(_ context.Context, input orderssvc.FinalizeInput) (*orderssvc.OrderDetails, error) {
			assert.Equal(t, userID, input.UserID)
			assert.Equal(t, "pi_abc", input.PaymentIntentID)
			return details, nil
		},
	}

	body := `{
		"payment_intent_id": "pi_abc",
		"payment_method": "card",
		"total": "366.315",
		"items": [{"name": "Noise Cancelling Headphones", "quantity": 1, "price": "439.00"}],
		"shipping_address": {"line1": "123 Main St", "city": "Portland", "state": "OR", "postal_code": "97201"}
	}`

	rec := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(rec, authedRequest(t, userID, http.MethodPost, "/orders/finalize", body))

	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Data orderssvc.OrderDetails `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, details.OrderNumber, envelope.Data.OrderNumber)
	assert.Equal(t, "366.315", envelope.Data.Total.String())
	require.Len(t, envelope.Data.Items, 1)

	// Decimal totals marshal as strings on the wire.
	assert.Contains(t, rec.Body.String(), `"total":"366.315"`)
}

func TestFinalizeMissingPaymentReferenceIs400(t *testing.T) {
	svc := &stubService{
		finalizeFn: func(context.Context, orderssvc.FinalizeInput) (*orderssvc.OrderDetails, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	body := `{
		"payment_method": "card",
		"items": [{"name": "Mug", "quantity": 1, "price": "10.00"}],
		"shipping_address": {"line1": "123 Main St", "city": "Portland", "state": "OR", "postal_code": "97201"}
	}`

	rec := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(rec, authedRequest(t, uuid.New(), http.MethodPost, "/orders/finalize", body))

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, string(pkgerrors.CodeValidation), envelope.Error.Code)
}

func TestFinalizeWithoutUserIs401(t *testing.T) {
	svc := &stubService{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/finalize", strings.NewReader(`{}`))

	testRouter(svc).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetByIDNotFound(t *testing.T) {
	svc := &stubService{
		getFn: func(context.Context, uuid.UUID, uuid.UUID) (*orderssvc.OrderDetails, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		},
	}

	rec := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(rec, authedRequest(t, uuid.New(), http.MethodGet, "/orders/"+uuid.NewString(), ""))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetByIDMalformedIDIsNotFound(t *testing.T) {
	svc := &stubService{
		getFn: func(context.Context, uuid.UUID, uuid.UUID) (*orderssvc.OrderDetails, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	rec := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(rec, authedRequest(t, uuid.New(), http.MethodGet, "/orders/not-a-uuid", ""))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListReturnsOrdersNewestFirst(t *testing.T) {
	userID := uuid.New()
	newest := sampleDetails(userID)
	oldest := sampleDetails(userID)
	oldest.Date = newest.Date.Add(-time.Hour)

	svc := &stubService{
		listFn: func(_ context.Context, got uuid.UUID) ([]orderssvc.OrderDetails, error) {
			assert.Equal(t, userID, got)
			return []orderssvc.OrderDetails{*newest, *oldest}, nil
		},
	}

	rec := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(rec, authedRequest(t, userID, http.MethodGet, "/orders", ""))

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []orderssvc.OrderDetails `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	assert.Equal(t, newest.ID, envelope.Data[0].ID)
}

func TestCreateReturns201(t *testing.T) {
	userID := uuid.New()
	svc := &stubService{
		createFn: func(_ context.Context, input orderssvc.CreateInput) (*orderssvc.OrderDetails, error) {
			assert.Equal(t, "invoice", input.PaymentMethod)
			return sampleDetails(userID), nil
		},
	}

	body := `{
		"payment_method": "invoice",
		"total": "25.00",
		"items": [{"name": "Gift Card", "quantity": 1, "price": "25.00"}],
		"shipping_address": {"line1": "123 Main St", "city": "Portland", "state": "OR", "postal_code": "97201"}
	}`

	rec := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(rec, authedRequest(t, userID, http.MethodPost, "/orders", body))

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateRejectsUnknownFields(t *testing.T) {
	svc := &stubService{
		createFn: func(context.Context, orderssvc.CreateInput) (*orderssvc.OrderDetails, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	body := `{
		"payment_method": "card",
		"surprise": true,
		"items": [{"name": "Mug", "quantity": 1, "price": "10.00"}],
		"shipping_address": {"line1": "123 Main St", "city": "Portland", "state": "OR", "postal_code": "97201"}
	}`

	rec := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(rec, authedRequest(t, uuid.New(), http.MethodPost, "/orders", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
