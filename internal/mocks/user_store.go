package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/harshkumar35/finalleagalsathi-sub000/internal/model"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/repository"
)

// MemoryUserStore is an in-memory credential store with the same uniqueness
// and not-found semantics as repository.UserRepo.  Any XxxFunc that is set
// replaces the default behaviour of its method.
type MemoryUserStore struct {
	CreateFunc         func(ctx context.Context, in model.NewIdentity) (model.User, error)
	GetByEmailFunc     func(ctx context.Context, email string) (model.User, error)
	UpdatePasswordFunc func(ctx context.Context, id uint64, hash string) error

	mu      sync.Mutex
	nextID  uint64
	byID    map[uint64]model.User
	byEmail map[string]uint64
	barIDs  map[string]uint64
}

// NewMemoryUserStore creates an empty store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    make(map[uint64]model.User),
		byEmail: make(map[string]uint64),
		barIDs:  make(map[string]uint64),
	}
}

// Create inserts the identity unless its email or bar council id is taken.
func (m *MemoryUserStore) Create(ctx context.Context, in model.NewIdentity) (model.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, in)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[in.Email]; ok {
		return model.User{}, repository.ErrEmailExists
	}
	if in.Lawyer != nil {
		if _, ok := m.barIDs[in.Lawyer.BarCouncilID]; ok {
			return model.User{}, repository.ErrBarIDExists
		}
	}
	m.nextID++
	now := time.Now().UTC()
	u := model.User{
		ID:           m.nextID,
		Email:        in.Email,
		FullName:     in.FullName,
		Phone:        in.Phone,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		IsVerified:   in.IsVerified,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Lawyer != nil {
		u.LawyerApproved = in.Lawyer.IsVerified
		m.barIDs[in.Lawyer.BarCouncilID] = u.ID
	}
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u.ID
	return u, nil
}

// GetByEmail returns the user with the given email.
func (m *MemoryUserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[email]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return m.byID[id], nil
}

// GetByID returns the user with the given id.
func (m *MemoryUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

// SetVerified marks the identity as email-verified.
func (m *MemoryUserStore) SetVerified(_ context.Context, id uint64) error {
	return m.update(id, func(u *model.User) bool { u.IsVerified = true; return true })
}

// SetLawyerApproved flips the lawyer approval flag.
func (m *MemoryUserStore) SetLawyerApproved(_ context.Context, id uint64, approved bool) error {
	return m.update(id, func(u *model.User) bool {
		if u.Role != model.RoleLawyer {
			return false
		}
		u.LawyerApproved = approved
		return true
	})
}

// UpdatePassword replaces the stored hash.  MemoryResetStore.Redeem calls it.
func (m *MemoryUserStore) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, hash)
	}
	return m.update(id, func(u *model.User) bool { u.PasswordHash = hash; return true })
}

// Deactivate clears is_active.  Tests only; the service never deactivates.
func (m *MemoryUserStore) Deactivate(id uint64) error {
	return m.update(id, func(u *model.User) bool { u.IsActive = false; return true })
}

func (m *MemoryUserStore) update(id uint64, fn func(u *model.User) bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok || !fn(&u) {
		return repository.ErrNotFound
	}
	u.UpdatedAt = time.Now().UTC()
	m.byID[id] = u
	return nil
}
