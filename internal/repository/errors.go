// Package repository holds the MySQL and Redis backed stores used by the
// auth flows.  These sentinel values let the service layer distinguish
// failure scenarios without inspecting driver errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when no identity matches a lookup.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when the users.email unique index rejects an insert.
var ErrEmailExists = errors.New("email already exists")

// ErrBarIDExists is returned when lawyer_profiles.bar_council_id is already taken.
var ErrBarIDExists = errors.New("bar council id already exists")

// ErrOTPInvalid is returned when no outstanding code matches (email, code, purpose).
var ErrOTPInvalid = errors.New("otp invalid")

// ErrOTPExpired is returned when the matching code is past its expiry.
var ErrOTPExpired = errors.New("otp expired")

// ErrTokenNotFound is returned when a reset token is unknown, used or expired.
var ErrTokenNotFound = errors.New("reset token not found")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// duplicateKey reports the index name of a duplicate-entry error, or "" when
// err is not one.
func duplicateKey(err error) string {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return ""
	}
	// Message: Duplicate entry 'x' for key 'users.uq_users_email'
	msg := me.Message
	if i := strings.LastIndex(msg, "key '"); i >= 0 {
		key := strings.TrimSuffix(msg[i+len("key '"):], "'")
		if j := strings.LastIndex(key, "."); j >= 0 {
			key = key[j+1:]
		}
		return key
	}
	return "unknown"
}
