package utils

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// DecoyHash is compared against when no usable identity matches a login, so
// that path spends the same bcrypt time as a wrong password.  The hash is
// built on first use at the cost real hashes are stored with.
type DecoyHash struct {
	cost int
	once sync.Once
	hash []byte
}

func NewDecoyHash(cost int) *DecoyHash { return &DecoyHash{cost: cost} }

// Bytes returns the decoy hash, generating it once.
func (d *DecoyHash) Bytes() []byte {
	d.once.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), d.cost)
		if err != nil {
			h, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
		}
		d.hash = h
	})
	return d.hash
}

// Burn runs one bcrypt comparison and discards the result.
func (d *DecoyHash) Burn(plain string) {
	_ = bcrypt.CompareHashAndPassword(d.Bytes(), []byte(plain))
}
