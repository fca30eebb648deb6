package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ExpenseFlow-io/expenseflow/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

// storeTimeout bounds the per-request credential lookup so a slow store
// cannot hang a request indefinitely.
const storeTimeout = 5 * time.Second

// UserStore is the slice of the credential store the middleware needs to
// resolve the acting identity.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Middleware validates the bearer token on incoming requests, resolves
// the acting identity against the store, and attaches it to the request
// context. On any failure the request is rejected before reaching
// business logic.
func Middleware(tm *TokenManager, store UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "Not authorized, no token")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				unauthorized(w, "Not authorized, no token")
				return
			}

			claims, err := tm.ValidateToken(parts[1])
			if err != nil {
				unauthorized(w, "Not authorized, token failed")
				return
			}

			// Refresh the identity from the store: the token's claims were
			// denormalized at issuance and the subject may have been deleted
			// since.
			ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
			user, err := store.GetUserByID(ctx, claims.UserID)
			cancel()
			if err != nil {
				unauthorized(w, "Not authorized, token failed")
				return
			}

			// Secret fields never travel on the request context
			user.Password = ""
			user.ResetToken = nil
			user.ResetTokenExpire = nil

			next.ServeHTTP(w, r.WithContext(
				context.WithValue(r.Context(), userContextKey, user),
			))
		})
	}
}

// UserFromContext retrieves the acting identity placed by Middleware
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey).(*models.User)
	return user, ok
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
