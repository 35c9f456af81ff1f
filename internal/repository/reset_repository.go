package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ResetTokenRepo persists password reset tokens (hashed, single 'token_hash' column).
type ResetTokenRepo struct{ DB *sql.DB }

func NewResetTokenRepo(db *sql.DB) *ResetTokenRepo { return &ResetTokenRepo{DB: db} }

// Save inserts a reset token hash row.
func (r *ResetTokenRepo) Save(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO password_reset_tokens (token_hash, user_id, expires_at) VALUES (?,?,?)",
		tokenHash, userID, exp.UTC())
	return err
}

// Redeem stores newHash as the owner's password and deletes the token in one
// transaction.  The token row is locked first, so of two concurrent
// redemptions only one sees it, and a failed password update leaves the
// token in place.  An expired row is removed and reported as
// ErrTokenNotFound.
func (r *ResetTokenRepo) Redeem(ctx context.Context, tokenHash string, now time.Time, newHash string) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }() // no-op once committed

	var (
		userID    uint64
		expiresAt time.Time
	)
	err = tx.QueryRowContext(ctx,
		"SELECT user_id, expires_at FROM password_reset_tokens WHERE token_hash = ? FOR UPDATE",
		tokenHash).Scan(&userID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrTokenNotFound
	}
	if err != nil {
		return 0, err
	}

	if !now.Before(expiresAt) {
		if _, err = tx.ExecContext(ctx, "DELETE FROM password_reset_tokens WHERE token_hash = ?", tokenHash); err != nil {
			return 0, err
		}
		if err = tx.Commit(); err != nil {
			return 0, err
		}
		return 0, ErrTokenNotFound
	}

	res, err := tx.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", newHash, userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNotFound
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM password_reset_tokens WHERE token_hash = ?", tokenHash); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return userID, nil
}

// RevokeAllForUser drops every outstanding reset token of the user.
func (r *ResetTokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM password_reset_tokens WHERE user_id = ?", userID)
	return err
}
