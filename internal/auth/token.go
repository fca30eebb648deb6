package auth

import (
	"errors"
	"time"

	"github.com/ExpenseFlow-io/expenseflow/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// TokenClaims represents the claims in a JWT token
type TokenClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenManager handles token operations. The signing key is injected at
// construction; rotating it invalidates all outstanding tokens.
type TokenManager struct {
	secretKey []byte
	duration  time.Duration
	now       func() time.Time // overridable in tests
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secretKey string, duration time.Duration) *TokenManager {
	return &TokenManager{
		secretKey: []byte(secretKey),
		duration:  duration,
		now:       time.Now,
	}
}

// GenerateToken creates a new JWT token for a user. The expiry is an
// absolute timestamp baked into the token, not a duration.
func (tm *TokenManager) GenerateToken(user *models.User) (string, error) {
	now := tm.now()
	claims := TokenClaims{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secretKey)
}

// ValidateToken validates a JWT token and returns the claims. It does not
// consult the credential store; a deleted user's still-valid token parses
// successfully here and is rejected later when the identity is resolved.
func (tm *TokenManager) ValidateToken(tokenString string) (*TokenClaims, error) {
	parser := jwt.NewParser(jwt.WithTimeFunc(tm.now))
	token, err := parser.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return tm.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
