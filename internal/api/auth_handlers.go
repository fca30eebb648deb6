package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/ExpenseFlow-io/expenseflow/internal/auth"
	"github.com/ExpenseFlow-io/expenseflow/internal/database"
	"github.com/ExpenseFlow-io/expenseflow/internal/models"
	"github.com/go-chi/chi/v5"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

// authResponse mirrors the shape clients already depend on, _id included.
type authResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// RegisterHandler creates a new account and returns a session token
func (api *Api) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if !auth.ValidateEmail(req.Email) {
		respondError(w, http.StatusBadRequest, "Invalid email format")
		return
	}
	if !auth.ValidatePassword(req.Password) {
		respondWeakPassword(w)
		return
	}

	user, err := models.NewUser(req.Name, req.Email, req.Password)
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		respondError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	if err := api.db.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, database.ErrEmailTaken) {
			respondError(w, http.StatusBadRequest, "User already exists")
			return
		}
		log.Printf("Failed to create user: %v", err)
		respondError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	token, err := api.tokens.GenerateToken(user)
	if err != nil {
		log.Printf("Failed to generate token: %v", err)
		respondError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	respondJSON(w, http.StatusCreated, authResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Token: token,
	})
}

// LoginHandler verifies credentials and returns a session token. Unknown
// email and wrong password fail identically.
func (api *Api) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := api.db.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, database.ErrUserNotFound) {
			log.Printf("Failed to look up user: %v", err)
			respondError(w, http.StatusInternalServerError, "Login failed")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid email or password")
		return
	}

	if !user.ValidatePassword(req.Password) {
		respondError(w, http.StatusBadRequest, "Invalid email or password")
		return
	}

	token, err := api.tokens.GenerateToken(user)
	if err != nil {
		log.Printf("Failed to generate token: %v", err)
		respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	respondJSON(w, http.StatusOK, authResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Token: token,
	})
}

// ForgotPasswordHandler issues a password reset token. Returning the
// reset link in the response is a development shortcut; a production
// deployment would dispatch it out-of-band instead.
func (api *Api) ForgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondError(w, http.StatusBadRequest, "Email is required")
		return
	}

	token, err := api.resets.RequestReset(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("Failed to create reset token: %v", err)
		respondError(w, http.StatusInternalServerError, "Could not generate reset token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message":   "Reset token generated",
		"resetLink": fmt.Sprintf("%s/reset-password/%s", api.Config.Auth.ResetLinkBase, token),
	})
}

// ResetPasswordHandler consumes a reset token and sets a new password
func (api *Api) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !auth.ValidatePassword(req.Password) {
		respondWeakPassword(w)
		return
	}

	if err := api.resets.ConsumeReset(r.Context(), token, req.Password); err != nil {
		if errors.Is(err, auth.ErrResetInvalid) {
			respondError(w, http.StatusBadRequest, "Invalid or expired token")
			return
		}
		log.Printf("Failed to reset password: %v", err)
		respondError(w, http.StatusInternalServerError, "Could not reset password")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully!"})
}

// MeHandler returns the acting identity
func (api *Api) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized, token failed")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// ChangePasswordHandler sets a new password for the authenticated user.
// Any pending reset token is cleared along with the update.
func (api *Api) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized, token failed")
		return
	}

	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !auth.ValidatePassword(req.Password) {
		respondWeakPassword(w)
		return
	}

	hash, err := models.HashPassword(req.Password)
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		respondError(w, http.StatusInternalServerError, "Could not update password")
		return
	}

	if err := api.db.UpdatePassword(r.Context(), user.ID, hash); err != nil {
		log.Printf("Failed to update password: %v", err)
		respondError(w, http.StatusInternalServerError, "Could not update password")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully!"})
}

// DeleteAccountHandler removes the user and every expense they own
func (api *Api) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized, token failed")
		return
	}

	if err := api.db.DeleteUser(r.Context(), user.ID); err != nil {
		log.Printf("Failed to delete account %s: %v", user.ID, err)
		respondError(w, http.StatusInternalServerError, "Could not delete account")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Account and related expenses deleted successfully"})
}
