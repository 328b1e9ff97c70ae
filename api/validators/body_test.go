package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/shopcart/shopcart-backend/pkg/errors"
)

type samplePayload struct {
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=1"`
}

func request(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestDecodeJSONBodyHappyPath(t *testing.T) {
	var dest samplePayload
	err := DecodeJSONBody(request(`{"name": "Mug", "quantity": 2}`), &dest)
	require.NoError(t, err)
	assert.Equal(t, "Mug", dest.Name)
	assert.Equal(t, 2, dest.Quantity)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	var dest samplePayload
	err := DecodeJSONBody(request(`{"name": "Mug", "quantity": 2, "color": "red"}`), &dest)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDecodeJSONBodyRejectsMalformedJSON(t *testing.T) {
	var dest samplePayload
	err := DecodeJSONBody(request(`{"name": `), &dest)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDecodeJSONBodyRejectsEmptyBody(t *testing.T) {
	var dest samplePayload
	err := DecodeJSONBody(request(""), &dest)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDecodeJSONBodyFieldValidation(t *testing.T) {
	var dest samplePayload
	err := DecodeJSONBody(request(`{"quantity": 0}`), &dest)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["Name"])
	assert.Contains(t, details["Quantity"], "at least 1")
}

func TestDecodeJSONBodyRejectsTrailingContent(t *testing.T) {
	var dest samplePayload
	err := DecodeJSONBody(request(`{"name": "Mug", "quantity": 1}{"name": "Again"}`), &dest)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
