package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/ExpenseFlow-io/expenseflow/internal/models"
)

const expenseColumns = "id, user_id, title, amount, category, date, created_at, updated_at"

func scanExpense(row *sql.Row) (*models.Expense, error) {
	var e models.Expense
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.Title,
		&e.Amount,
		&e.Category,
		&e.Date,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrExpenseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateExpense inserts a new expense
func (db *DB) CreateExpense(ctx context.Context, e *models.Expense) error {
	_, err := db.conn.ExecContext(ctx,
		db.rebind("INSERT INTO expenses (id, user_id, title, amount, category, date, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"),
		e.ID, e.UserID, e.Title, e.Amount, e.Category, e.Date, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

// GetExpense retrieves a single expense by ID regardless of owner. Callers
// are responsible for the ownership check before acting on the result.
func (db *DB) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	row := db.conn.QueryRowContext(ctx,
		db.rebind("SELECT "+expenseColumns+" FROM expenses WHERE id = ?"),
		id,
	)
	return scanExpense(row)
}

// ListExpenses returns all expenses owned by the given user, newest first.
// Filtering by owner happens in the query so other users' records never
// leave the store.
func (db *DB) ListExpenses(ctx context.Context, userID string) ([]*models.Expense, error) {
	rows, err := db.conn.QueryContext(ctx,
		db.rebind("SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? ORDER BY date DESC"),
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		var e models.Expense
		err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Amount, &e.Category, &e.Date, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, &e)
	}
	return expenses, rows.Err()
}

// UpdateExpense updates a stored expense's mutable fields
func (db *DB) UpdateExpense(ctx context.Context, e *models.Expense) error {
	result, err := db.conn.ExecContext(ctx,
		db.rebind("UPDATE expenses SET title = ?, amount = ?, category = ?, date = ?, updated_at = ? WHERE id = ?"),
		e.Title, e.Amount, e.Category, e.Date, time.Now().UTC(), e.ID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

// DeleteExpense removes an expense by ID
func (db *DB) DeleteExpense(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, db.rebind("DELETE FROM expenses WHERE id = ?"), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

// GetCategoryTotals aggregates the user's spending per category for the
// given month.
func (db *DB) GetCategoryTotals(ctx context.Context, userID string, year, month int) ([]models.CategoryTotal, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	rows, err := db.conn.QueryContext(ctx,
		db.rebind(`SELECT category, SUM(amount), COUNT(*)
			FROM expenses
			WHERE user_id = ? AND date >= ? AND date < ?
			GROUP BY category
			ORDER BY SUM(amount) DESC`),
		userID, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []models.CategoryTotal
	for rows.Next() {
		var ct models.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total, &ct.Count); err != nil {
			return nil, err
		}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}
