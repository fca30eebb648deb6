package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ExpenseFlow-io/expenseflow/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLoginScenario(t *testing.T) {
	api := newTestAPI(t)

	id, registerToken := registerTestUser(t, api, "T", "t@x.com", "Str0ng!1")

	// The issued token's subject matches the new user's ID
	tm := auth.NewTokenManager(testJWTSecret, 24*time.Hour)
	claims, err := tm.ValidateToken(registerToken)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "T", claims.Name)
	assert.Equal(t, "t@x.com", claims.Email)

	t.Run("LoginCorrectPassword", func(t *testing.T) {
		w := doRequest(t, api, http.MethodPost, "/api/users/login", "", map[string]string{
			"email":    "t@x.com",
			"password": "Str0ng!1",
		})
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, id, body["_id"])
		assert.Equal(t, "T", body["name"])

		claims, err := tm.ValidateToken(body["token"].(string))
		require.NoError(t, err)
		assert.Equal(t, id, claims.UserID)
	})

	t.Run("LoginWrongPassword", func(t *testing.T) {
		w := doRequest(t, api, http.MethodPost, "/api/users/login", "", map[string]string{
			"email":    "t@x.com",
			"password": "wrong",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid email or password", message(t, w))
	})

	t.Run("LoginUnknownEmail", func(t *testing.T) {
		// Unknown email fails exactly like a wrong password
		w := doRequest(t, api, http.MethodPost, "/api/users/login", "", map[string]string{
			"email":    "nobody@x.com",
			"password": "Str0ng!1",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid email or password", message(t, w))
	})

	t.Run("ProtectedRouteNoToken", func(t *testing.T) {
		w := doRequest(t, api, http.MethodGet, "/api/expenses/", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Not authorized, no token", message(t, w))
	})

	t.Run("ProtectedRouteBadToken", func(t *testing.T) {
		w := doRequest(t, api, http.MethodGet, "/api/expenses/", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Not authorized, token failed", message(t, w))
	})

	t.Run("ProtectedRouteNonBearerHeader", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/expenses/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		api.Router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Not authorized, no token", message(t, w))
	})
}

func TestRegisterValidation(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name    string
		payload map[string]string
		message string
	}{
		{
			name:    "MissingName",
			payload: map[string]string{"email": "a@x.com", "password": "Str0ng!1"},
			message: "Name is required",
		},
		{
			name:    "InvalidEmail",
			payload: map[string]string{"name": "A", "email": "not-an-email", "password": "Str0ng!1"},
			message: "Invalid email format",
		},
		{
			name:    "WeakPassword",
			payload: map[string]string{"name": "A", "email": "a@x.com", "password": "weak"},
			message: "Password does not meet requirements",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, api, http.MethodPost, "/api/users/register", "", tt.payload)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.message, message(t, w))
		})
	}
}

func TestWeakPasswordResponseIncludesRequirements(t *testing.T) {
	api := newTestAPI(t)

	w := doRequest(t, api, http.MethodPost, "/api/users/register", "", map[string]string{
		"name":     "A",
		"email":    "a@x.com",
		"password": "weak",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "Password does not meet requirements", body["message"])

	// The rejection carries the policy so clients can render it
	reqs, ok := body["requirements"].([]interface{})
	require.True(t, ok, "requirements missing from response: %v", body)
	assert.Len(t, reqs, len(auth.GetPasswordRequirements()))
	assert.Contains(t, reqs, "At least 8 characters long")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	api := newTestAPI(t)

	registerTestUser(t, api, "First", "dup@x.com", "Str0ng!1")

	w := doRequest(t, api, http.MethodPost, "/api/users/register", "", map[string]string{
		"name":     "Second",
		"email":    "dup@x.com",
		"password": "Different1!",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already exists", message(t, w))
}

func TestForgotAndResetPassword(t *testing.T) {
	api := newTestAPI(t)

	registerTestUser(t, api, "R", "reset@x.com", "Oldpass1!")

	t.Run("UnknownEmail", func(t *testing.T) {
		w := doRequest(t, api, http.MethodPost, "/api/users/forgot-password", "", map[string]string{
			"email": "nobody@x.com",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "User not found", message(t, w))
	})

	w := doRequest(t, api, http.MethodPost, "/api/users/forgot-password", "", map[string]string{
		"email": "reset@x.com",
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "Reset token generated", body["message"])

	resetLink, _ := body["resetLink"].(string)
	require.True(t, strings.HasPrefix(resetLink, "http://localhost:3000/reset-password/"), "unexpected reset link: %s", resetLink)
	token := resetLink[strings.LastIndex(resetLink, "/")+1:]
	require.Len(t, token, 40)

	t.Run("WeakNewPassword", func(t *testing.T) {
		w := doRequest(t, api, http.MethodPost, "/api/users/reset-password/"+token, "", map[string]string{
			"password": "weak",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ConsumeAndReuse", func(t *testing.T) {
		w := doRequest(t, api, http.MethodPost, "/api/users/reset-password/"+token, "", map[string]string{
			"password": "Newpass1!",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Password updated successfully!", message(t, w))

		// Old password no longer works, new one does
		w = doRequest(t, api, http.MethodPost, "/api/users/login", "", map[string]string{
			"email": "reset@x.com", "password": "Oldpass1!",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doRequest(t, api, http.MethodPost, "/api/users/login", "", map[string]string{
			"email": "reset@x.com", "password": "Newpass1!",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		// The token was single-use
		w = doRequest(t, api, http.MethodPost, "/api/users/reset-password/"+token, "", map[string]string{
			"password": "Another1!",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid or expired token", message(t, w))
	})
}

func TestResetPasswordExpiredToken(t *testing.T) {
	api := newTestAPI(t)

	id, _ := registerTestUser(t, api, "E", "expired@x.com", "Oldpass1!")
	require.NoError(t, api.db.SetResetToken(context.Background(), id, "expiredtok", time.Now().Add(-time.Second)))

	w := doRequest(t, api, http.MethodPost, "/api/users/reset-password/expiredtok", "", map[string]string{
		"password": "Newpass1!",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid or expired token", message(t, w))
}

func TestMeHandler(t *testing.T) {
	api := newTestAPI(t)

	id, token := registerTestUser(t, api, "Me", "me@x.com", "Str0ng!1")

	w := doRequest(t, api, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, id, body["id"])
	assert.Equal(t, "me@x.com", body["email"])

	// Secret fields never appear in the response
	_, hasPassword := body["password"]
	assert.False(t, hasPassword)
}

func TestChangePassword(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	id, token := registerTestUser(t, api, "C", "change@x.com", "Oldpass1!")

	// A pending reset is invalidated by a password change
	require.NoError(t, api.db.SetResetToken(ctx, id, "pendingtok", time.Now().Add(15*time.Minute)))

	w := doRequest(t, api, http.MethodPut, "/api/users/password", token, map[string]string{
		"password": "Newpass1!",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, api, http.MethodPost, "/api/users/login", "", map[string]string{
		"email": "change@x.com", "password": "Newpass1!",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, api, http.MethodPost, "/api/users/reset-password/pendingtok", "", map[string]string{
		"password": "Hijack1!",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid or expired token", message(t, w))
}

func TestDeleteAccount(t *testing.T) {
	api := newTestAPI(t)

	_, token := registerTestUser(t, api, "D", "delete@x.com", "Str0ng!1")

	w := doRequest(t, api, http.MethodDelete, "/api/users/account", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Account and related expenses deleted successfully", message(t, w))

	// The identity no longer authenticates: the token still parses but the
	// per-request store lookup fails
	w = doRequest(t, api, http.MethodGet, "/api/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Not authorized, token failed", message(t, w))

	w = doRequest(t, api, http.MethodPost, "/api/users/login", "", map[string]string{
		"email": "delete@x.com", "password": "Str0ng!1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
