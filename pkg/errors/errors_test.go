package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := []struct {
		code      Code
		status    int
		retryable bool
	}{
		{CodeValidation, http.StatusBadRequest, false},
		{CodeUnauthorized, http.StatusUnauthorized, false},
		{CodeNotFound, http.StatusNotFound, false},
		{CodePaymentDeclined, http.StatusPaymentRequired, false},
		{CodePersistence, http.StatusInternalServerError, true},
		{CodeDependency, http.StatusServiceUnavailable, true},
	}

	for _, tc := range cases {
		meta := MetadataFor(tc.code)
		assert.Equal(t, tc.status, meta.HTTPStatus, "code %s", tc.code)
		assert.Equal(t, tc.retryable, meta.Retryable, "code %s", tc.code)
		assert.NotEmpty(t, meta.PublicMessage, "code %s", tc.code)
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NO_SUCH_CODE"))
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestPaymentDeclinedMessageSaysNotCharged(t *testing.T) {
	meta := MetadataFor(CodePaymentDeclined)
	assert.Contains(t, meta.PublicMessage, "not charged")
}

func TestPersistenceMessageSaysRetryWithSameReference(t *testing.T) {
	meta := MetadataFor(CodePersistence)
	assert.Contains(t, meta.PublicMessage, "retry with the same payment reference")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection reset")
	err := Wrap(CodeDependency, cause, "calling provider")

	assert.Equal(t, CodeDependency, err.Code())
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "calling provider")
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	inner := New(CodeNotFound, "order not found")
	wrapped := fmt.Errorf("handling request: %w", inner)

	typed := As(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, CodeNotFound, typed.Code())

	assert.Nil(t, As(stdErrors.New("plain")))
	assert.Nil(t, As(nil))
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "bad input").WithDetails(map[string]string{"field": "is required"})
	assert.Equal(t, map[string]string{"field": "is required"}, err.Details())
}

func TestDumpExtractsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "idx_orders_payment_intent_id",
		Message:        "duplicate key value violates unique constraint",
	}
	err := Wrap(CodePersistence, fmt.Errorf("inserting order: %w", pgErr), "recording order")

	dump := Dump(err)
	assert.Equal(t, CodePersistence, dump.Code)
	assert.Equal(t, "23505", dump.PGCode)
	assert.Equal(t, "idx_orders_payment_intent_id", dump.PGConstraint)
	assert.NotEmpty(t, dump.Chain)
}

func TestDumpNilError(t *testing.T) {
	assert.Equal(t, ErrorDump{}, Dump(nil))
}
