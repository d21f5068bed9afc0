package account

import (
	"context"
	"sync"

	id "corebank/pkg/domain"
	"corebank/pkg/platform/sentinel"
)

// InMemoryStore keeps accounts in process memory. A single RWMutex gives
// every mutation the same exclusion scope a row lock gives the postgres
// store, and read paths a consistent snapshot.
type InMemoryStore struct {
	mu       sync.RWMutex
	byID     map[id.AccountID]*Account
	byNumber map[id.AccountNumber]id.AccountID
	byOwner  map[id.UserID][]id.AccountID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:     make(map[id.AccountID]*Account),
		byNumber: make(map[id.AccountNumber]id.AccountID),
		byOwner:  make(map[id.UserID][]id.AccountID),
	}
}

func (s *InMemoryStore) Save(_ context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byNumber[a.Number]; taken {
		return sentinel.ErrConflict
	}
	if _, exists := s.byID[a.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := *a
	s.byID[a.ID] = &copied
	s.byNumber[a.Number] = a.ID
	s.byOwner[a.OwnerID] = append(s.byOwner[a.OwnerID], a.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, accountID id.AccountID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (s *InMemoryStore) FindByOwner(_ context.Context, ownerID id.UserID) ([]*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byOwner[ownerID]
	out := make([]*Account, 0, len(ids))
	for _, accountID := range ids {
		copied := *s.byID[accountID]
		out = append(out, &copied)
	}
	return out, nil
}

func (s *InMemoryStore) FindByNumber(_ context.Context, number id.AccountNumber) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accountID, ok := s.byNumber[number]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.byID[accountID]
	return &copied, nil
}

func (s *InMemoryStore) Debit(_ context.Context, accountID id.AccountID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[accountID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if a.Status != StatusActive {
		return sentinel.ErrInvalidState
	}
	if a.Balance < amount {
		return sentinel.ErrInsufficientFunds
	}
	a.Balance -= amount
	return nil
}

func (s *InMemoryStore) Credit(_ context.Context, accountID id.AccountID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[accountID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if a.Status != StatusActive {
		return sentinel.ErrInvalidState
	}
	a.Balance += amount
	return nil
}

func (s *InMemoryStore) SetStatus(_ context.Context, accountID id.AccountID, from, to Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[accountID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if a.Status != from {
		return sentinel.ErrConflict
	}
	a.Status = to
	return nil
}
