package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/ExpenseFlow-io/expenseflow/internal/models"
)

// ErrResetInvalid is returned for both unknown and expired reset tokens,
// so a caller cannot tell the two cases apart.
var ErrResetInvalid = errors.New("invalid or expired token")

// ResetStore is the slice of the credential store the reset flow needs.
type ResetStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetResetToken(ctx context.Context, userID, token string, expire time.Time) error
	GetUserByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error)
	ConsumePasswordReset(ctx context.Context, userID, token, passwordHash string) error
}

// ResetManager issues and consumes single-use, time-limited password
// reset tokens.
type ResetManager struct {
	store ResetStore
	ttl   time.Duration
}

// NewResetManager creates a ResetManager with the given token lifetime
func NewResetManager(store ResetStore, ttl time.Duration) *ResetManager {
	return &ResetManager{store: store, ttl: ttl}
}

// RequestReset generates an opaque reset token for the account registered
// under email and persists it with its expiry. The token is returned to
// the caller, which is responsible for delivering it.
func (rm *ResetManager) RequestReset(ctx context.Context, email string) (string, error) {
	user, err := rm.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	token, err := generateResetToken()
	if err != nil {
		return "", err
	}

	expire := time.Now().Add(rm.ttl)
	if err := rm.store.SetResetToken(ctx, user.ID, token, expire); err != nil {
		return "", err
	}

	return token, nil
}

// ConsumeReset sets a new password for the user holding the given reset
// token. The token must exist and be unexpired; either failure yields
// ErrResetInvalid. The clearing update is conditioned on the token, so
// even callers racing past the lookup cannot both consume it.
func (rm *ResetManager) ConsumeReset(ctx context.Context, token, newPassword string) error {
	user, err := rm.store.GetUserByResetToken(ctx, token, time.Now())
	if err != nil {
		return ErrResetInvalid
	}

	hash, err := models.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := rm.store.ConsumePasswordReset(ctx, user.ID, token, hash); err != nil {
		return ErrResetInvalid
	}
	return nil
}

// generateResetToken produces 20 random bytes hex-encoded, giving 160
// bits of entropy.
func generateResetToken() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
