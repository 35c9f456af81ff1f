// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// AuthEventsQueue is the durable queue carrying auth lifecycle events.
const AuthEventsQueue = "auth.events"

// Auth event types.
const (
	EventUserRegistered = "user.registered"
	EventLawyerPending  = "lawyer.pending_approval"
	EventLawyerApproved = "lawyer.approved"
	EventUserVerified   = "user.verified"
	EventUserLoggedIn   = "user.logged_in"
	EventPasswordReset  = "password.reset"
)

// AuthEvent is published after an auth flow changes or proves an identity.
// It carries enough for downstream consumers (audit log, admin notifications)
// to act without querying the primary database.  It never carries secrets.
type AuthEvent struct {
	Type   string    `json:"type"`
	UserID uint64    `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	At     time.Time `json:"at"`
}
