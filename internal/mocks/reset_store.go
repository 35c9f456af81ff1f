package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/harshkumar35/finalleagalsathi-sub000/internal/repository"
)

type resetEntry struct {
	userID uint64
	exp    time.Time
}

// MemoryResetStore is an in-memory reset token store.  Redeem writes the new
// password through Users, mirroring the shared transaction of
// repository.ResetTokenRepo.
type MemoryResetStore struct {
	Users *MemoryUserStore

	mu     sync.Mutex
	tokens map[string]resetEntry
}

func NewMemoryResetStore(users *MemoryUserStore) *MemoryResetStore {
	return &MemoryResetStore{Users: users, tokens: make(map[string]resetEntry)}
}

// Save stores a token hash.
func (m *MemoryResetStore) Save(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[tokenHash] = resetEntry{userID: userID, exp: exp}
	return nil
}

// Redeem updates the owner's password and then removes the token.  A failed
// update keeps the token.
func (m *MemoryResetStore) Redeem(ctx context.Context, tokenHash string, now time.Time, newHash string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.tokens[tokenHash]
	if !ok {
		return 0, repository.ErrTokenNotFound
	}
	if !now.Before(e.exp) {
		delete(m.tokens, tokenHash)
		return 0, repository.ErrTokenNotFound
	}
	if err := m.Users.UpdatePassword(ctx, e.userID, newHash); err != nil {
		return 0, err
	}
	delete(m.tokens, tokenHash)
	return e.userID, nil
}

// RevokeAllForUser removes every token of the user.
func (m *MemoryResetStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, e := range m.tokens {
		if e.userID == userID {
			delete(m.tokens, h)
		}
	}
	return nil
}

// Len reports how many tokens are stored.
func (m *MemoryResetStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}
