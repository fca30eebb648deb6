package models

import (
	"time"

	"github.com/google/uuid"
)

// Expense represents a single expense record owned by a user
type Expense struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Amount    float64   `json:"amount" db:"amount"`
	Category  string    `json:"category" db:"category"`
	Date      time.Time `json:"date" db:"date"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewExpense creates an expense owned by the given user. The owner is fixed
// at creation and never changes.
func NewExpense(userID, title string, amount float64, category string, date time.Time) *Expense {
	if date.IsZero() {
		date = time.Now().UTC()
	}
	now := time.Now().UTC()
	return &Expense{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Amount:    amount,
		Category:  category,
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// OwnedBy reports whether the expense belongs to the given user
func (e *Expense) OwnedBy(userID string) bool {
	return e.UserID == userID
}

// CategoryTotal holds aggregated spending for one category
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}
