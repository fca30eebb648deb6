package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/ExpenseFlow-io/expenseflow/internal/models"
)

const userColumns = "id, name, email, password, reset_token, reset_token_expire, created_at, updated_at"

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Password,
		&user.ResetToken,
		&user.ResetTokenExpire,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser stores a new user. Email uniqueness is enforced both by a
// pre-check and by the UNIQUE column, so a concurrent duplicate insert
// still surfaces as ErrEmailTaken.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		db.rebind("SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)"),
		user.Email,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return ErrEmailTaken
	}

	_, err = db.conn.ExecContext(ctx,
		db.rebind("INSERT INTO users (id, name, email, password, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)"),
		user.ID, user.Name, user.Email, user.Password, user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

// GetUserByID retrieves a user by ID
func (db *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		db.rebind("SELECT "+userColumns+" FROM users WHERE id = ?"),
		id,
	)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by email
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		db.rebind("SELECT "+userColumns+" FROM users WHERE email = ?"),
		email,
	)
	return scanUser(row)
}

// SetResetToken stores a pending reset token on the user row. Both fields
// are written together so they are always present or absent as a pair.
func (db *DB) SetResetToken(ctx context.Context, userID, token string, expire time.Time) error {
	result, err := db.conn.ExecContext(ctx,
		db.rebind("UPDATE users SET reset_token = ?, reset_token_expire = ?, updated_at = ? WHERE id = ?"),
		token, expire.UTC(), time.Now().UTC(), userID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GetUserByResetToken looks up the user holding the given reset token,
// provided the token has not yet expired at the supplied instant. A token
// whose expiry equals now is already expired.
func (db *DB) GetUserByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		db.rebind("SELECT "+userColumns+" FROM users WHERE reset_token = ? AND reset_token_expire > ?"),
		token, now.UTC(),
	)
	return scanUser(row)
}

// UpdatePassword replaces the user's password hash and clears any pending
// reset token in the same statement, making reset-token consumption
// single-use.
func (db *DB) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	result, err := db.conn.ExecContext(ctx,
		db.rebind("UPDATE users SET password = ?, reset_token = NULL, reset_token_expire = NULL, updated_at = ? WHERE id = ?"),
		passwordHash, time.Now().UTC(), userID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ConsumePasswordReset replaces the user's password and clears the reset
// token in one statement, conditioned on the token still being current.
// Concurrent consumers of the same token lose cleanly: only the first
// writer finds the token present, the rest affect zero rows.
func (db *DB) ConsumePasswordReset(ctx context.Context, userID, token, passwordHash string) error {
	result, err := db.conn.ExecContext(ctx,
		db.rebind("UPDATE users SET password = ?, reset_token = NULL, reset_token_expire = NULL, updated_at = ? WHERE id = ? AND reset_token = ?"),
		passwordHash, time.Now().UTC(), userID, token,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteUser removes a user and every expense they own in one transaction.
func (db *DB) DeleteUser(ctx context.Context, userID string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, db.rebind("DELETE FROM expenses WHERE user_id = ?"), userID); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, db.rebind("DELETE FROM users WHERE id = ?"), userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return tx.Commit()
}
