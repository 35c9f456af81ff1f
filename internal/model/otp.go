package model

import "time"

// Purpose tells the OTP ledger which flow a code belongs to.  A code issued
// for one purpose never verifies for another.
type Purpose string

const (
	PurposeSignup Purpose = "signup"
	PurposeLogin  Purpose = "login"
	PurposeReset  Purpose = "reset"
)

// Valid reports whether p is a known purpose.
func (p Purpose) Valid() bool {
	switch p {
	case PurposeSignup, PurposeLogin, PurposeReset:
		return true
	}
	return false
}

// RequiresExistingUser reports whether an OTP may only be sent to an email
// that already belongs to an identity.
func (p Purpose) RequiresExistingUser() bool {
	return p == PurposeLogin || p == PurposeReset
}

// OTP is one outstanding one-time passcode.
type OTP struct {
	Email     string
	Code      string
	Purpose   Purpose
	CreatedAt time.Time
	ExpiresAt time.Time
}
