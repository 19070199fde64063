package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DJ-LIFE/feedback-tool/pkg/httputil"
	"github.com/DJ-LIFE/feedback-tool/pkg/logger"
)

type contextKeyType string

const claimsKey contextKeyType = "admin_claims"

// Claims are the identity fields the auth middleware places in the request
// context once a bearer token has been accepted.
type Claims struct {
	AdminID string
	Email   string
}

// TokenValidator checks a bearer token and returns its claims. It receives the
// request context so that it can confirm the subject still exists.
type TokenValidator func(ctx context.Context, token string) (*Claims, error)

// Auth rejects requests without a valid bearer token with 401 and stores the
// accepted claims in the request context.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeAuthError(w, "no token provided")
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				writeAuthError(w, "invalid authorization header format")
				return
			}

			claims, err := validate(r.Context(), token)
			if err != nil {
				writeAuthError(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = logger.WithAdminID(ctx, claims.AdminID)
			ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("admin_id", claims.AdminID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims stored by Auth, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey).(*Claims)
	return c
}

func writeAuthError(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: message},
	})
}
