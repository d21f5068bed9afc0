package beneficiary

import (
	"context"
	"slices"
	"sync"

	id "corebank/pkg/domain"
	"corebank/pkg/platform/sentinel"
)

// InMemoryStore keeps beneficiaries in maps guarded by a single RWMutex.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[id.BeneficiaryID]*Beneficiary
	byOwner map[id.UserID][]id.BeneficiaryID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[id.BeneficiaryID]*Beneficiary),
		byOwner: make(map[id.UserID][]id.BeneficiaryID),
	}
}

func (s *InMemoryStore) Save(_ context.Context, b *Beneficiary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[b.ID]; ok {
		return sentinel.ErrConflict
	}
	for _, existingID := range s.byOwner[b.OwnerID] {
		if s.byID[existingID].AccountNumber == b.AccountNumber {
			return sentinel.ErrConflict
		}
	}
	cp := *b
	s.byID[b.ID] = &cp
	s.byOwner[b.OwnerID] = append(s.byOwner[b.OwnerID], b.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, beneficiaryID id.BeneficiaryID) (*Beneficiary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.byID[beneficiaryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, ownerID id.UserID) ([]*Beneficiary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byOwner[ownerID]
	out := make([]*Beneficiary, 0, len(ids))
	for _, beneficiaryID := range ids {
		cp := *s.byID[beneficiaryID]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, beneficiaryID id.BeneficiaryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.byID[beneficiaryID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byID, beneficiaryID)
	s.byOwner[b.OwnerID] = slices.DeleteFunc(s.byOwner[b.OwnerID], func(other id.BeneficiaryID) bool {
		return other == beneficiaryID
	})
	return nil
}
