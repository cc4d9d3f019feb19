package auth

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	companyIDKey    contextKey = "company_id"
	dispatcherIDKey contextKey = "dispatcher_id"
)

// CompanyID returns the company claim placed on the context by
// DispatcherAuthMiddleware, or "" for unauthenticated requests.
func CompanyID(ctx context.Context) string {
	id, _ := ctx.Value(companyIDKey).(string)
	return id
}

func parseToken(raw string) (jwt.MapClaims, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET not set")
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// DispatcherAuthMiddleware validates the Bearer token issued at login and
// stores the dispatcher's company on the request context.
func DispatcherAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := parseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		companyID, _ := claims["company_id"].(string)
		if companyID == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), companyIDKey, companyID)
		if dispatcherID, ok := claims["dispatcher_id"]; ok {
			ctx = context.WithValue(ctx, dispatcherIDKey, dispatcherID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
