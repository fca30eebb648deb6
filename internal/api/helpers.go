package api

import (
	"encoding/json"
	"net/http"

	"github.com/ExpenseFlow-io/expenseflow/internal/auth"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// respondError writes the error envelope every handler uses. The message
// is the only detail callers ever see.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// respondWeakPassword rejects a password that fails the policy and
// includes the policy itself so clients can render it.
func respondWeakPassword(w http.ResponseWriter) {
	respondJSON(w, http.StatusBadRequest, map[string]interface{}{
		"message":      "Password does not meet requirements",
		"requirements": auth.GetPasswordRequirements(),
	})
}
