// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// CitizenIDKey is the context key for the authenticated user id.
	CitizenIDKey ContextKey = "citizen_id"
	// KindKey is the context key for the account kind claim.
	KindKey ContextKey = "kind"
)

// KindCitizen is the account kind allowed to use the chatbot and complaints.
const KindCitizen = "ciudadano"

// Claims represents JWT claims. The user id travels in "uid", falling back to
// the subject.
type Claims struct {
	jwt.RegisteredClaims
	UID  string `json:"uid"`
	Kind string `json:"tipo"`
}

// UserID returns the authenticated user id.
func (c *Claims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject
}

// Auth creates JWT authentication middleware.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid || claims.UserID() == "" {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			recordCitizen(r.Context(), claims.UserID())
			ctx := context.WithValue(r.Context(), CitizenIDKey, claims.UserID())
			ctx = context.WithValue(ctx, KindKey, claims.Kind)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetCitizenID gets the authenticated user id from context.
func GetCitizenID(ctx context.Context) string {
	if v, ok := ctx.Value(CitizenIDKey).(string); ok {
		return v
	}
	return ""
}

// GetKind gets the account kind from context.
func GetKind(ctx context.Context) string {
	if v, ok := ctx.Value(KindKey).(string); ok {
		return v
	}
	return ""
}

// RequireCitizen rejects callers whose token is not a citizen account.
func RequireCitizen(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetCitizenID(r.Context()) == "" || GetKind(r.Context()) != KindCitizen {
			writeError(w, http.StatusForbidden, "citizens only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
