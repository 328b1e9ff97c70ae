package responses

import (
	"context"
	"encoding/json"
	"net/http"

	pkgerrors "github.com/shopcart/shopcart-backend/pkg/errors"
	"github.com/shopcart/shopcart-backend/pkg/logger"
	"github.com/shopcart/shopcart-backend/pkg/types"
)

// WriteSuccess writes a 200 envelope.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

// WriteSuccessStatus writes a success envelope with an explicit status code.
func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.SuccessEnvelope{Data: data})
}

// WriteError maps the error onto the public envelope. Clients get the stable
// code and public message; the full chain goes to the log only.
func WriteError(ctx context.Context, w http.ResponseWriter, logg *logger.Logger, err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	dump := pkgerrors.Dump(err)
	logCtx := logg.WithFields(ctx, map[string]any{
		"error_code":  string(typed.Code()),
		"http_status": meta.HTTPStatus,
		"error_dump":  dump,
	})
	if meta.HTTPStatus >= http.StatusInternalServerError {
		logg.Error(logCtx, "request failed", err)
	} else {
		logg.Warn(logCtx, "request rejected")
	}

	apiErr := types.APIError{
		Code:    string(typed.Code()),
		Message: meta.PublicMessage,
	}
	if meta.DetailsAllowed {
		apiErr.Details = typed.Details()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(meta.HTTPStatus)
	_ = json.NewEncoder(w).Encode(types.ErrorEnvelope{Error: apiErr})
}
