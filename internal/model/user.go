package model

import "time"

// Role names stored in users.role and carried in session claims.
const (
	RoleClient = "client"
	RoleLawyer = "lawyer"
	RoleAdmin  = "admin"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool {
	switch r {
	case RoleClient, RoleLawyer, RoleAdmin:
		return true
	}
	return false
}

// User represents an identity record as stored in the `users` table,
// joined with the lawyer approval flag when the role is lawyer.
//
// IsVerified and LawyerApproved are separate gates: the first is set once
// the owner proves control of the email address with an OTP, the second
// only by an administrator reviewing a lawyer's bar council credentials.
type User struct {
	ID             uint64    // users.id
	Email          string    // users.email
	FullName       string    // users.full_name
	Phone          string    // users.phone (empty when null)
	PasswordHash   string    // users.password_hash
	Role           string    // users.role
	IsVerified     bool      // users.is_verified
	IsActive       bool      // users.is_active
	LawyerApproved bool      // lawyer_profiles.is_verified; always false for non-lawyers
	CreatedAt      time.Time // users.created_at
	UpdatedAt      time.Time // users.updated_at
}

// AwaitingApproval reports whether the user is a lawyer whose credentials
// have not yet been approved by an administrator.
func (u User) AwaitingApproval() bool {
	return u.Role == RoleLawyer && !u.LawyerApproved
}

// ClientProfile models a row in `client_profiles`.
type ClientProfile struct {
	UserID    uint64
	Location  string
	CreatedAt time.Time
}

// LawyerProfile models a row in `lawyer_profiles`.  BarCouncilID is unique
// across all lawyers.  IsVerified is the admin approval flag.
type LawyerProfile struct {
	UserID            uint64
	BarCouncilID      string
	Specialization    string
	YearsOfExperience int
	HourlyRate        float64
	Rating            float64
	TotalCases        int
	IsVerified        bool
	ApprovedAt        *time.Time
	CreatedAt         time.Time
}

// NewIdentity is the input for creating an identity together with its role
// profile.  Exactly one of Client and Lawyer is set for the client and
// lawyer roles; admins carry no profile.
type NewIdentity struct {
	Email        string
	FullName     string
	Phone        string
	PasswordHash string
	Role         string
	IsVerified   bool

	Client *ClientProfile
	Lawyer *LawyerProfile
}
