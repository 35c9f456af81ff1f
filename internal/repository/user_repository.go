package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/harshkumar35/finalleagalsathi-sub000/internal/model"
)

// UserRepo is the MySQL credential store.  Identities live in `users`, role
// specific data in `client_profiles` / `lawyer_profiles`.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const selectUser = `SELECT u.id, u.email, u.full_name, COALESCE(u.phone, ''), u.password_hash, u.role,
       u.is_verified, u.is_active, COALESCE(lp.is_verified, 0), u.created_at, u.updated_at
  FROM users u
  LEFT JOIN lawyer_profiles lp ON lp.user_id = u.id`

// Create inserts the identity and its role profile in one transaction.  If
// the profile insert fails the identity row is rolled back with it.
func (r *UserRepo) Create(ctx context.Context, in model.NewIdentity) (model.User, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.User{}, err
	}
	defer func() { _ = tx.Rollback() }() // no-op once committed

	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (email, full_name, phone, password_hash, role, is_verified) VALUES (?,?,?,?,?,?)",
		in.Email, in.FullName, nullString(in.Phone), in.PasswordHash, in.Role, in.IsVerified)
	if err != nil {
		return model.User{}, mapInsertErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}

	approved := false
	switch {
	case in.Lawyer != nil:
		lp := in.Lawyer
		approved = lp.IsVerified
		var approvedAt any
		if lp.IsVerified {
			approvedAt = time.Now().UTC()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO lawyer_profiles (user_id, bar_council_id, specialization, years_of_experience, hourly_rate, is_verified, approved_at)
			 VALUES (?,?,?,?,?,?,?)`,
			id, lp.BarCouncilID, lp.Specialization, lp.YearsOfExperience, lp.HourlyRate, lp.IsVerified, approvedAt)
	case in.Client != nil:
		_, err = tx.ExecContext(ctx,
			"INSERT INTO client_profiles (user_id, location) VALUES (?,?)",
			id, nullString(in.Client.Location))
	}
	if err != nil {
		return model.User{}, mapInsertErr(err)
	}
	if err = tx.Commit(); err != nil {
		return model.User{}, err
	}

	now := time.Now().UTC()
	return model.User{
		ID:             uint64(id),
		Email:          in.Email,
		FullName:       in.FullName,
		Phone:          in.Phone,
		PasswordHash:   in.PasswordHash,
		Role:           in.Role,
		IsVerified:     in.IsVerified,
		IsActive:       true,
		LawyerApproved: approved,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// GetByEmail fetches a user by email.  Callers normalise the address.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx, selectUser+" WHERE u.email = ? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx, selectUser+" WHERE u.id = ? LIMIT 1", id))
}

// SetVerified marks the identity's email as OTP-confirmed.
func (r *UserRepo) SetVerified(ctx context.Context, id uint64) error {
	return r.execOne(ctx, "UPDATE users SET is_verified = 1 WHERE id = ?", id)
}

// SetLawyerApproved flips the admin approval flag on a lawyer profile.
func (r *UserRepo) SetLawyerApproved(ctx context.Context, userID uint64, approved bool) error {
	var approvedAt any
	if approved {
		approvedAt = time.Now().UTC()
	}
	return r.execOne(ctx,
		"UPDATE lawyer_profiles SET is_verified = ?, approved_at = ? WHERE user_id = ?",
		approved, approvedAt, userID)
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Phone, &u.PasswordHash, &u.Role,
		&u.IsVerified, &u.IsActive, &u.LawyerApproved, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// execOne runs an UPDATE that must match exactly one row.
func (r *UserRepo) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func mapInsertErr(err error) error {
	switch duplicateKey(err) {
	case "":
		return err
	case "uq_lawyer_bar_council_id":
		return ErrBarIDExists
	case "uq_users_email":
		return ErrEmailExists
	default:
		return fmt.Errorf("duplicate entry: %w", err)
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
