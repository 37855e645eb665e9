package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type buyerKey struct{}

// AuthContext resolves the authenticated buyer from a bearer token. The
// placement pipeline only ever sees the plain buyer identity.
func AuthContext(tokens map[string]string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				writeError(w, http.StatusUnauthorized, errors.New("bearer token required"))
				return
			}

			buyerID, ok := tokens[token]
			if !ok {
				writeError(w, http.StatusForbidden, errors.New("unknown token"))
				return
			}

			ctx := context.WithValue(r.Context(), buyerKey{}, buyerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BuyerFromContext returns the authenticated buyer identity, if any.
func BuyerFromContext(ctx context.Context) (string, bool) {
	buyerID, ok := ctx.Value(buyerKey{}).(string)
	return buyerID, ok && buyerID != ""
}
