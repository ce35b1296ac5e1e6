package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/linkdropapp/linkdrop/internal/app/service"
	"github.com/linkdropapp/linkdrop/internal/models"
)

// ContextKey is a custom type used for keys in the context.
// It helps prevent collisions in context keys.
type ContextKey string

// UserIDKey is the key used to store and retrieve the user ID from the context.
const UserIDKey ContextKey = "userID"

// AALKey holds the session's authenticator assurance level.
const AALKey ContextKey = "aal"

// InjectUserID adds the user ID to the request context, making it accessible for
// downstream handlers. Exported for use in tests.
func InjectUserID(req *http.Request, userID string) *http.Request {
	ctx := context.WithValue(req.Context(), UserIDKey, userID)
	return req.WithContext(ctx)
}

// bearerOrCookie extracts the session token from the Authorization
// header or, failing that, the session cookie.
func bearerOrCookie(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie("token"); err == nil {
		return c.Value
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse{
		Error:   models.CodeUnauthorized,
		Message: "Missing or invalid credentials",
	})
}

// WithAuth rejects requests without a valid session token and injects
// the user ID and AAL from the claims into the request context.
func WithAuth(auth service.AuthIface) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerOrCookie(r)
			if token == "" {
				writeUnauthorized(w)
				return
			}

			claims, err := auth.ParseRawJWT(token)
			if err != nil {
				writeUnauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, AALKey, claims.AAL)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
