package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ExpenseFlow-io/expenseflow/internal/config"
	"github.com/ExpenseFlow-io/expenseflow/internal/database"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

func newTestAPI(t *testing.T) *Api {
	t.Helper()

	cfg := config.Config{APIPort: 8080}
	cfg.Database.Type = "sqlite"
	cfg.Database.Path = ":memory:"
	cfg.Database.MaxRetries = 1
	cfg.Auth.JWTSecret = testJWTSecret
	cfg.Auth.TokenDuration = 24 * time.Hour
	cfg.Auth.ResetTokenTTL = 15 * time.Minute
	cfg.Auth.ResetLinkBase = "http://localhost:3000"
	cfg.CORS.AllowedOrigins = []string{"http://localhost:*"}

	db, err := database.Init(&cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	api, err := NewApi(cfg, db)
	require.NoError(t, err)
	return api
}

// doRequest runs a request through the full router, middleware included
func doRequest(t *testing.T, api *Api, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	api.Router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, w)
	msg, _ := body["message"].(string)
	return msg
}

// registerTestUser registers a user through the API and returns its ID
// and session token.
func registerTestUser(t *testing.T, api *Api, name, email, password string) (id, token string) {
	t.Helper()

	w := doRequest(t, api, http.MethodPost, "/api/users/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, w.Code, "register failed: %s", w.Body.String())

	body := decodeBody(t, w)
	id, _ = body["_id"].(string)
	token, _ = body["token"].(string)
	require.NotEmpty(t, id)
	require.NotEmpty(t, token)
	return id, token
}
