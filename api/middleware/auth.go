package middleware

import (
	"net/http"
	"strings"

	"github.com/shopcart/shopcart-backend/api/responses"
	"github.com/shopcart/shopcart-backend/pkg/auth"
	"github.com/shopcart/shopcart-backend/pkg/config"
	pkgerrors "github.com/shopcart/shopcart-backend/pkg/errors"
	"github.com/shopcart/shopcart-backend/pkg/logger"
)

// Auth requires a bearer JWT and puts the user id on the request context.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				responses.WriteError(r.Context(), w, logg, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing authorization header"))
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				responses.WriteError(r.Context(), w, logg, pkgerrors.New(pkgerrors.CodeUnauthorized, "authorization header must be a bearer token"))
				return
			}

			claims, err := auth.ParseAccessToken(cfg, strings.TrimSpace(token))
			if err != nil {
				responses.WriteError(r.Context(), w, logg, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token"))
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID)
			ctx = logg.WithUserID(ctx, claims.UserID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
