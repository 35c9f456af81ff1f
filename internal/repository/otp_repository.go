package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/harshkumar35/finalleagalsathi-sub000/internal/model"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/utils"
)

// consumeScript removes a code from the ledger and returns its record in one
// step.  Two concurrent verifications of the same code cannot both see it.
var consumeScript = redis.NewScript(`
	local v = redis.call('HGET', KEYS[1], ARGV[1])
	if v then
		redis.call('HDEL', KEYS[1], ARGV[1])
	end
	return v
`)

// otpEntry is the JSON value stored per code.
type otpEntry struct {
	CreatedAt int64 `json:"created_at"` // unix millis
	ExpiresAt int64 `json:"expires_at"` // unix millis
}

// OTPRepo is the Redis OTP ledger.  Outstanding codes for one (purpose, email)
// pair live in a single hash keyed by the code itself, so re-issuing an
// identical code simply overwrites the older record.
type OTPRepo struct {
	rdb             redis.UniversalClient
	prefix          string
	ttl             time.Duration
	invalidatePrior bool
	now             func() time.Time
	generate        func() (string, error)
}

// NewOTPRepo returns a ledger issuing codes valid for ttl.  With
// invalidatePrior set, issuing a code drops every other outstanding code for
// the same email and purpose.
func NewOTPRepo(rdb redis.UniversalClient, ttl time.Duration, invalidatePrior bool) *OTPRepo {
	return &OTPRepo{
		rdb:             rdb,
		prefix:          "otp",
		ttl:             ttl,
		invalidatePrior: invalidatePrior,
		now:             time.Now,
		generate:        utils.GenerateOTP,
	}
}

// WithClock overrides the time source.  Tests only.
func (r *OTPRepo) WithClock(now func() time.Time) *OTPRepo {
	r.now = now
	return r
}

// WithGenerator overrides the code generator.  Tests only.
func (r *OTPRepo) WithGenerator(gen func() (string, error)) *OTPRepo {
	r.generate = gen
	return r
}

func (r *OTPRepo) key(email string, purpose model.Purpose) string {
	return r.prefix + ":" + string(purpose) + ":" + email
}

// Issue stores a fresh code for (email, purpose) and returns it.
func (r *OTPRepo) Issue(ctx context.Context, email string, purpose model.Purpose) (model.OTP, error) {
	code, err := r.generate()
	if err != nil {
		return model.OTP{}, fmt.Errorf("generate otp: %w", err)
	}
	now := r.now().UTC()
	otp := model.OTP{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
	}
	payload, err := json.Marshal(otpEntry{
		CreatedAt: otp.CreatedAt.UnixMilli(),
		ExpiresAt: otp.ExpiresAt.UnixMilli(),
	})
	if err != nil {
		return model.OTP{}, err
	}

	key := r.key(email, purpose)
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if r.invalidatePrior {
			pipe.Del(ctx, key)
		}
		pipe.HSet(ctx, key, code, payload)
		// The hash outlives its newest code so a late attempt is reported as
		// expired rather than invalid.
		pipe.PExpire(ctx, key, 2*r.ttl)
		return nil
	})
	if err != nil {
		return model.OTP{}, err
	}
	return otp, nil
}

// Verify consumes the code when it matches an outstanding record for
// (email, purpose).  A matching record is removed whether or not it has
// expired.
func (r *OTPRepo) Verify(ctx context.Context, email, code string, purpose model.Purpose) error {
	if len(code) != 6 {
		return ErrOTPInvalid
	}
	raw, err := consumeScript.Run(ctx, r.rdb, []string{r.key(email, purpose)}, code).Text()
	if errors.Is(err, redis.Nil) {
		return ErrOTPInvalid
	}
	if err != nil {
		return err
	}
	var e otpEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return fmt.Errorf("decode otp record: %w", err)
	}
	if !r.now().Before(time.UnixMilli(e.ExpiresAt)) {
		return ErrOTPExpired
	}
	return nil
}
