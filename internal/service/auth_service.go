package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/harshkumar35/finalleagalsathi-sub000/internal/mail"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/model"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/queue"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/repository"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/session"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/utils"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/validator"
)

// CredentialStore persists identities and their role profiles.  Create must
// be atomic across the identity and its profile and must report duplicate
// emails and bar council ids from the storage layer's unique constraints.
type CredentialStore interface {
	Create(ctx context.Context, in model.NewIdentity) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	SetVerified(ctx context.Context, id uint64) error
	SetLawyerApproved(ctx context.Context, userID uint64, approved bool) error
}

// OTPLedger issues and consumes one-time passcodes.
type OTPLedger interface {
	Issue(ctx context.Context, email string, purpose model.Purpose) (model.OTP, error)
	Verify(ctx context.Context, email, code string, purpose model.Purpose) error
}

// ResetTokenStore persists hashed password reset tokens.  Redeem must store
// the new password hash and delete the token atomically: a token survives any
// failed redemption.
type ResetTokenStore interface {
	Save(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	Redeem(ctx context.Context, tokenHash string, now time.Time, newHash string) (uint64, error)
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// SessionIssuer mints and verifies session tokens.
type SessionIssuer interface {
	Mint(id uint64, email, role string) (string, time.Time, error)
	Verify(raw string) (session.Claims, error)
}

// Options tunes the auth flows.
type Options struct {
	BcryptCost               int
	OTPTTL                   time.Duration
	ResetTokenTTL            time.Duration
	RequireEmailVerification bool
	Production               bool
}

// Deps are the collaborators of AuthService.  Events may be nil.
type Deps struct {
	Users    CredentialStore
	OTPs     OTPLedger
	Resets   ResetTokenStore
	Sessions SessionIssuer
	Mailer   mail.Sender
	Events   EventPublisher
}

// AuthService sequences registration, login, OTP and password reset flows.
type AuthService struct {
	users    CredentialStore
	otps     OTPLedger
	resets   ResetTokenStore
	sessions SessionIssuer
	mailer   mail.Sender
	events   EventPublisher
	validate *validator.Validator
	decoy    *utils.DecoyHash
	opts     Options
	now      func() time.Time
}

func NewAuthService(d Deps, opts Options) *AuthService {
	return &AuthService{
		users:    d.Users,
		otps:     d.OTPs,
		resets:   d.Resets,
		sessions: d.Sessions,
		mailer:   d.Mailer,
		events:   d.Events,
		validate: validator.New(),
		decoy:    utils.NewDecoyHash(opts.BcryptCost),
		opts:     opts,
		now:      time.Now,
	}
}

// WithClock overrides the time source.  Tests only.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// ClientSignup is the registration input for a client.
type ClientSignup struct {
	FullName string `json:"full_name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	Location string `json:"location" validate:"omitempty,max=255"`
}

// LawyerSignup is the registration input for a lawyer.
type LawyerSignup struct {
	FullName          string  `json:"full_name" validate:"required,max=255"`
	Email             string  `json:"email" validate:"required,email,max=255"`
	Password          string  `json:"password" validate:"required,min=8,max=72"`
	Phone             string  `json:"phone" validate:"omitempty,max=32"`
	BarCouncilID      string  `json:"bar_council_id" validate:"required,max=64"`
	Specialization    string  `json:"specialization" validate:"required,max=255"`
	YearsOfExperience *int    `json:"years_of_experience" validate:"required,min=0,max=80"`
	HourlyRate        float64 `json:"hourly_rate" validate:"min=0"`
}

// TestUser seeds a ready-to-use account outside production.
type TestUser struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"full_name" validate:"omitempty,max=255"`
	Role     string `json:"role" validate:"omitempty,oneof=client lawyer admin"`
}

// Session is a freshly minted session token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// LoginResult is returned by a successful password or OTP login.
type LoginResult struct {
	User    model.User
	Session Session
}

// VerifyResult is returned by VerifyOTP.  Session is set for the login
// purpose, ResetToken for the reset purpose.
type VerifyResult struct {
	Purpose        model.Purpose
	User           model.User
	Session        *Session
	ResetToken     string
	ResetExpiresAt time.Time
}

// RegisterClient creates a client identity with its profile.
func (s *AuthService) RegisterClient(ctx context.Context, in ClientSignup) (model.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := s.check(in); err != nil {
		return model.User{}, err
	}
	hash, err := utils.HashPassword(in.Password, s.opts.BcryptCost)
	if err != nil {
		return model.User{}, s.internal(ctx, "hash password", err)
	}

	u, err := s.users.Create(ctx, model.NewIdentity{
		Email:        in.Email,
		FullName:     in.FullName,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		Role:         model.RoleClient,
		Client:       &model.ClientProfile{Location: strings.TrimSpace(in.Location)},
	})
	if err != nil {
		return model.User{}, s.createErr(ctx, err)
	}
	s.publish(ctx, queue.EventUserRegistered, u)
	return u, nil
}

// RegisterLawyer creates a lawyer identity whose profile awaits admin
// approval.
func (s *AuthService) RegisterLawyer(ctx context.Context, in LawyerSignup) (model.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	in.BarCouncilID = strings.TrimSpace(in.BarCouncilID)
	in.Specialization = strings.TrimSpace(in.Specialization)
	if err := s.check(in); err != nil {
		return model.User{}, err
	}
	hash, err := utils.HashPassword(in.Password, s.opts.BcryptCost)
	if err != nil {
		return model.User{}, s.internal(ctx, "hash password", err)
	}

	u, err := s.users.Create(ctx, model.NewIdentity{
		Email:        in.Email,
		FullName:     in.FullName,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		Role:         model.RoleLawyer,
		Lawyer: &model.LawyerProfile{
			BarCouncilID:      in.BarCouncilID,
			Specialization:    in.Specialization,
			YearsOfExperience: *in.YearsOfExperience,
			HourlyRate:        in.HourlyRate,
		},
	})
	if err != nil {
		return model.User{}, s.createErr(ctx, err)
	}
	s.publish(ctx, queue.EventUserRegistered, u)
	s.publish(ctx, queue.EventLawyerPending, u)
	return u, nil
}

// Login checks a password and mints a session.  Unknown email, wrong
// password and a deactivated account are indistinguishable to the caller.
// An unapproved lawyer is told so before the password is checked.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = normalizeEmail(email)
	fields := map[string]string{}
	if email == "" {
		fields["email"] = "This field is required"
	}
	if password == "" {
		fields["password"] = "This field is required"
	}
	if len(fields) > 0 {
		return LoginResult{}, invalid(fields)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.decoy.Burn(password)
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, s.storeErr(ctx, "load user", err)
	}
	if !u.IsActive {
		s.decoy.Burn(password)
		return LoginResult{}, ErrInvalidCredentials
	}
	if u.AwaitingApproval() {
		return LoginResult{}, ErrPendingVerification
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if s.opts.RequireEmailVerification && !u.IsVerified {
		return LoginResult{}, ErrEmailNotVerified
	}
	return s.startSession(ctx, u)
}

// SendOTP issues a code for (email, purpose) and emails it.  Login and reset
// codes are only sent to existing identities.
func (s *AuthService) SendOTP(ctx context.Context, email string, purpose model.Purpose) error {
	email = normalizeEmail(email)
	if err := s.checkEmailPurpose(email, purpose); err != nil {
		return err
	}

	if purpose.RequiresExistingUser() {
		if _, err := s.users.GetByEmail(ctx, email); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return s.storeErr(ctx, "load user", err)
		}
	}

	otp, err := s.otps.Issue(ctx, email, purpose)
	if err != nil {
		return s.storeErr(ctx, "issue otp", err)
	}
	subject, body, err := mail.RenderOTP(string(purpose), otp.Code, s.opts.OTPTTL)
	if err != nil {
		return s.internal(ctx, "render otp mail", err)
	}
	// The code already sits in the ledger, but one the user never receives
	// is useless, so a send failure is reported to the caller.
	if err := s.mailer.Send(ctx, email, subject, body); err != nil {
		slog.ErrorContext(ctx, "otp delivery failed", "purpose", purpose, "error", err)
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	slog.InfoContext(ctx, "otp sent", "purpose", purpose, "expires_at", otp.ExpiresAt)
	return nil
}

// VerifyOTP consumes a code and completes the flow its purpose belongs to.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string, purpose model.Purpose) (VerifyResult, error) {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if err := s.checkEmailPurpose(email, purpose); err != nil {
		return VerifyResult{}, err
	}
	if fields := s.validate.Var("code", code, "required,len=6,numeric"); fields != nil {
		return VerifyResult{}, invalid(fields)
	}

	switch err := s.otps.Verify(ctx, email, code, purpose); {
	case errors.Is(err, repository.ErrOTPInvalid):
		return VerifyResult{}, ErrInvalidOTP
	case errors.Is(err, repository.ErrOTPExpired):
		return VerifyResult{}, ErrExpiredOTP
	case err != nil:
		return VerifyResult{}, s.storeErr(ctx, "verify otp", err)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return VerifyResult{}, ErrUserNotFound
	}
	if err != nil {
		return VerifyResult{}, s.storeErr(ctx, "load user", err)
	}

	res := VerifyResult{Purpose: purpose, User: u}
	switch purpose {
	case model.PurposeSignup:
		if !u.IsVerified {
			if err := s.users.SetVerified(ctx, u.ID); err != nil {
				return VerifyResult{}, s.storeErr(ctx, "mark verified", err)
			}
			res.User.IsVerified = true
			s.publish(ctx, queue.EventUserVerified, res.User)
		}

	case model.PurposeLogin:
		if !u.IsActive {
			return VerifyResult{}, ErrInvalidCredentials
		}
		if u.AwaitingApproval() {
			return VerifyResult{}, ErrPendingVerification
		}
		// The code reached the mailbox, which proves control of the email.
		if !u.IsVerified {
			if err := s.users.SetVerified(ctx, u.ID); err != nil {
				return VerifyResult{}, s.storeErr(ctx, "mark verified", err)
			}
			u.IsVerified = true
			res.User.IsVerified = true
			s.publish(ctx, queue.EventUserVerified, u)
		}
		lr, err := s.startSession(ctx, u)
		if err != nil {
			return VerifyResult{}, err
		}
		res.Session = &lr.Session

	case model.PurposeReset:
		raw := utils.GenerateResetToken()
		exp := s.now().UTC().Add(s.opts.ResetTokenTTL)
		// One outstanding reset token per user.
		if err := s.resets.RevokeAllForUser(ctx, u.ID); err != nil {
			return VerifyResult{}, s.storeErr(ctx, "revoke reset tokens", err)
		}
		if err := s.resets.Save(ctx, u.ID, utils.HashToken(raw), exp); err != nil {
			return VerifyResult{}, s.storeErr(ctx, "save reset token", err)
		}
		res.ResetToken = raw
		res.ResetExpiresAt = exp
	}
	return res, nil
}

// ResetPassword redeems a reset token and stores the new password.  A store
// failure leaves the token usable for a retry.  It does not log the user in.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	fields := map[string]string{}
	if f := s.validate.Var("token", token, "required"); f != nil {
		fields["token"] = f["token"]
	}
	if f := s.validate.Var("password", newPassword, "required,min=8,max=72"); f != nil {
		fields["password"] = f["password"]
	}
	if len(fields) > 0 {
		return invalid(fields)
	}

	hash, err := utils.HashPassword(newPassword, s.opts.BcryptCost)
	if err != nil {
		return s.internal(ctx, "hash password", err)
	}
	uid, err := s.resets.Redeem(ctx, utils.HashToken(token), s.now(), hash)
	switch {
	case errors.Is(err, repository.ErrTokenNotFound), errors.Is(err, repository.ErrNotFound):
		return ErrInvalidOrExpiredToken
	case err != nil:
		return s.storeErr(ctx, "redeem reset token", err)
	}
	s.publish(ctx, queue.EventPasswordReset, model.User{ID: uid})
	return nil
}

// Me returns the claims of a valid session token.
func (s *AuthService) Me(raw string) (session.Claims, error) {
	claims, err := s.sessions.Verify(raw)
	if err != nil {
		return session.Claims{}, ErrUnauthenticated
	}
	return claims, nil
}

// ApproveLawyer records an administrator's approval of a lawyer's
// credentials, after which the lawyer can log in.
func (s *AuthService) ApproveLawyer(ctx context.Context, userID uint64) (model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, s.storeErr(ctx, "load user", err)
	}
	if u.Role != model.RoleLawyer {
		return model.User{}, invalid(map[string]string{"id": "User is not a lawyer"})
	}
	if err := s.users.SetLawyerApproved(ctx, u.ID, true); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, s.storeErr(ctx, "approve lawyer", err)
	}
	u.LawyerApproved = true
	s.publish(ctx, queue.EventLawyerApproved, u)
	return u, nil
}

// CreateTestUser seeds a verified (and, for lawyers, approved) account.  It
// is refused in production.  Seeding an existing email returns that account.
func (s *AuthService) CreateTestUser(ctx context.Context, in TestUser) (model.User, error) {
	if s.opts.Production {
		return model.User{}, ErrForbidden
	}
	in.Email = normalizeEmail(in.Email)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if err := s.check(in); err != nil {
		return model.User{}, err
	}
	if in.Role == "" {
		in.Role = model.RoleClient
	}
	if in.FullName == "" {
		in.FullName = "Test " + in.Role
	}
	hash, err := utils.HashPassword(in.Password, s.opts.BcryptCost)
	if err != nil {
		return model.User{}, s.internal(ctx, "hash password", err)
	}

	ni := model.NewIdentity{
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: hash,
		Role:         in.Role,
		IsVerified:   true,
	}
	switch in.Role {
	case model.RoleClient:
		ni.Client = &model.ClientProfile{}
	case model.RoleLawyer:
		ni.Lawyer = &model.LawyerProfile{
			BarCouncilID:   "TEST/" + in.Email,
			Specialization: "General Practice",
			IsVerified:     true,
		}
	}

	u, err := s.users.Create(ctx, ni)
	if err == nil {
		return u, nil
	}
	if errors.Is(err, repository.ErrEmailExists) {
		existing, gerr := s.users.GetByEmail(ctx, in.Email)
		if gerr != nil {
			return model.User{}, s.storeErr(ctx, "load user", gerr)
		}
		return existing, nil
	}
	return model.User{}, s.createErr(ctx, err)
}

func (s *AuthService) startSession(ctx context.Context, u model.User) (LoginResult, error) {
	tok, exp, err := s.sessions.Mint(u.ID, u.Email, u.Role)
	if err != nil {
		return LoginResult{}, s.internal(ctx, "mint session", err)
	}
	s.publish(ctx, queue.EventUserLoggedIn, u)
	return LoginResult{User: u, Session: Session{Token: tok, ExpiresAt: exp}}, nil
}

func (s *AuthService) check(in any) error {
	fields, err := s.validate.Struct(in)
	if err != nil {
		return fmt.Errorf("validate %T: %w", in, err)
	}
	if fields != nil {
		return invalid(fields)
	}
	return nil
}

func (s *AuthService) checkEmailPurpose(email string, purpose model.Purpose) error {
	fields := map[string]string{}
	if f := s.validate.Var("email", email, "required,email"); f != nil {
		fields["email"] = f["email"]
	}
	if !purpose.Valid() {
		fields["purpose"] = "Must be one of: signup, login, reset"
	}
	if len(fields) > 0 {
		return invalid(fields)
	}
	return nil
}

func (s *AuthService) createErr(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return ErrDuplicateEmail
	case errors.Is(err, repository.ErrBarIDExists):
		return ErrDuplicateBarID
	}
	return s.storeErr(ctx, "create identity", err)
}

// storeErr maps a backend failure onto the taxonomy.  The backend error is
// logged and kept in the chain but its text never reaches a client.
func (s *AuthService) storeErr(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		slog.WarnContext(ctx, "auth store timeout", "op", op, "error", err)
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}
	slog.ErrorContext(ctx, "auth store failure", "op", op, "error", err)
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// internal reports a local failure (hashing, signing) as unavailable.
func (s *AuthService) internal(ctx context.Context, op string, err error) error {
	slog.ErrorContext(ctx, "auth internal failure", "op", op, "error", err)
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// publish emits an auth event.  Failures are logged and otherwise ignored.
func (s *AuthService) publish(ctx context.Context, typ string, u model.User) {
	if s.events == nil {
		return
	}
	ev := queue.AuthEvent{Type: typ, UserID: u.ID, Email: u.Email, Role: u.Role, At: s.now().UTC()}
	if err := s.events.Publish(ctx, ev); err != nil {
		slog.WarnContext(ctx, "auth event publish failed", "type", typ, "error", err)
	}
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
