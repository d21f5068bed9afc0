package transfer

import (
	"context"
	"sort"
	"sync"

	id "corebank/pkg/domain"
	"corebank/pkg/platform/sentinel"
)

// InMemoryStore keeps the ledger in maps guarded by a single RWMutex. The
// byKey map is the in-memory equivalent of the unique index on the
// idempotency key.
type InMemoryStore struct {
	mu    sync.RWMutex
	byID  map[id.TransferID]*Transfer
	byKey map[string]id.TransferID
	order []id.TransferID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:  make(map[id.TransferID]*Transfer),
		byKey: make(map[string]id.TransferID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, t *Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[t.ID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byKey[t.IdempotencyKey]; ok {
		return sentinel.ErrConflict
	}
	cp := *t
	s.byID[t.ID] = &cp
	s.byKey[t.IdempotencyKey] = t.ID
	s.order = append(s.order, t.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, transferID id.TransferID) (*Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.byID[transferID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *InMemoryStore) FindByIdempotencyKey(_ context.Context, key string) (*Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	transferID, ok := s.byKey[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[transferID]
	return &cp, nil
}

func (s *InMemoryStore) Finalize(_ context.Context, transferID id.TransferID, status Status, failureCode, failureReason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[transferID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if t.Status != StatusPending {
		return sentinel.ErrInvalidState
	}
	t.Status = status
	t.FailureCode = failureCode
	t.FailureReason = failureReason
	return nil
}

func (s *InMemoryStore) ListRecentByAccounts(_ context.Context, accountIDs []id.AccountID, limit int) ([]*Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[id.AccountID]bool, len(accountIDs))
	for _, accountID := range accountIDs {
		wanted[accountID] = true
	}

	// Walk newest insertion first so CreatedAt ties keep that order after
	// the stable sort.
	var out []*Transfer
	for i := len(s.order) - 1; i >= 0; i-- {
		t := s.byID[s.order[i]]
		if wanted[t.SenderAccountID] || wanted[t.RecipientAccountID] {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
