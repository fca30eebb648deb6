package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/ExpenseFlow-io/expenseflow/internal/auth"
	"github.com/ExpenseFlow-io/expenseflow/internal/database"
	"github.com/ExpenseFlow-io/expenseflow/internal/models"
	"github.com/go-chi/chi/v5"
)

type expenseRequest struct {
	Title    string     `json:"title"`
	Amount   float64    `json:"amount"`
	Category string     `json:"category"`
	Date     *time.Time `json:"date,omitempty"`
}

type statsResponse struct {
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	Total      float64         `json:"total"`
	Categories []categoryStats `json:"categories"`
}

type categoryStats struct {
	Category   string  `json:"category"`
	Total      float64 `json:"total"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// AddExpenseHandler creates an expense owned by the acting identity
func (api *Api) AddExpenseHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized, token failed")
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Title == "" || req.Amount == 0 || req.Category == "" {
		respondError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	var date time.Time
	if req.Date != nil {
		date = *req.Date
	}

	expense := models.NewExpense(user.ID, req.Title, req.Amount, req.Category, date)
	if err := api.db.CreateExpense(r.Context(), expense); err != nil {
		log.Printf("Failed to create expense: %v", err)
		respondError(w, http.StatusInternalServerError, "Could not save expense")
		return
	}

	respondJSON(w, http.StatusCreated, expense)
}

// ListExpensesHandler returns the acting identity's expenses, newest
// first. The owner filter lives in the store query.
func (api *Api) ListExpensesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized, token failed")
		return
	}

	expenses, err := api.db.ListExpenses(r.Context(), user.ID)
	if err != nil {
		log.Printf("Failed to list expenses: %v", err)
		respondError(w, http.StatusInternalServerError, "Could not load expenses")
		return
	}
	if expenses == nil {
		expenses = []*models.Expense{}
	}

	respondJSON(w, http.StatusOK, expenses)
}

// GetExpenseHandler returns a single expense after an ownership check
func (api *Api) GetExpenseHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized, token failed")
		return
	}

	expense, err := api.db.GetExpense(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, database.ErrExpenseNotFound) {
			respondError(w, http.StatusNotFound, "Expense not found")
			return
		}
		log.Printf("Failed to load expense: %v", err)
		respondError(w, http.StatusInternalServerError, "Could not load expense")
		return
	}

	if !expense.OwnedBy(user.ID) {
		respondError(w, http.StatusUnauthorized, "Not authorized to view this expense")
		return
	}

	respondJSON(w, http.StatusOK, expense)
}

// UpdateExpenseHandler updates fields of an owned expense. Omitted fields
// keep their stored values.
func (api *Api) UpdateExpenseHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized, token failed")
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	expense, err := api.db.GetExpense(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, database.ErrExpenseNotFound) {
			respondError(w, http.StatusNotFound, "Expense not found")
			return
		}
		log.Printf("Failed to load expense: %v", err)
		respondError(w, http.StatusInternalServerError, "Could not load expense")
		return
	}

	if !expense.OwnedBy(user.ID) {
		respondError(w, http.StatusUnauthorized, "Not authorized to update this expense")
		return
	}

	if req.Title != "" {
		expense.Title = req.Title
	}
	if req.Amount != 0 {
		expense.Amount = req.Amount
	}
	if req.Category != "" {
		expense.Category = req.Category
	}
	if req.Date != nil {
		expense.Date = *req.Date
	}

	if err := api.db.UpdateExpense(r.Context(), expense); err != nil {
		log.Printf("Failed to update expense: %v", err)
		respondError(w, http.StatusInternalServerError, "Could not update expense")
		return
	}

	respondJSON(w, http.StatusOK, expense)
}

// DeleteExpenseHandler removes an owned expense
func (api *Api) DeleteExpenseHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized, token failed")
		return
	}

	expense, err := api.db.GetExpense(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, database.ErrExpenseNotFound) {
			respondError(w, http.StatusNotFound, "Expense not found")
			return
		}
		log.Printf("Failed to load expense: %v", err)
		respondError(w, http.StatusInternalServerError, "Could not load expense")
		return
	}

	if !expense.OwnedBy(user.ID) {
		respondError(w, http.StatusUnauthorized, "Not authorized to delete this expense")
		return
	}

	if err := api.db.DeleteExpense(r.Context(), expense.ID); err != nil {
		log.Printf("Failed to delete expense: %v", err)
		respondError(w, http.StatusInternalServerError, "Could not delete expense")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Expense deleted successfully"})
}

// ExpenseStatsHandler aggregates the acting identity's spending per
// category for a month (defaults to the current one).
func (api *Api) ExpenseStatsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized, token failed")
		return
	}

	now := time.Now()
	year := now.Year()
	month := int(now.Month())

	if s := r.URL.Query().Get("year"); s != "" {
		if y, err := strconv.Atoi(s); err == nil {
			year = y
		}
	}
	if s := r.URL.Query().Get("month"); s != "" {
		if m, err := strconv.Atoi(s); err == nil && m >= 1 && m <= 12 {
			month = m
		}
	}

	totals, err := api.db.GetCategoryTotals(r.Context(), user.ID, year, month)
	if err != nil {
		log.Printf("Failed to aggregate expenses: %v", err)
		respondError(w, http.StatusInternalServerError, "Could not load statistics")
		return
	}

	resp := statsResponse{
		Year:       year,
		Month:      month,
		Categories: []categoryStats{},
	}
	for _, ct := range totals {
		resp.Total += ct.Total
	}
	for _, ct := range totals {
		cs := categoryStats{Category: ct.Category, Total: ct.Total, Count: ct.Count}
		if resp.Total > 0 {
			cs.Percentage = ct.Total / resp.Total * 100
		}
		resp.Categories = append(resp.Categories, cs)
	}

	respondJSON(w, http.StatusOK, resp)
}
