package kyc

import (
	"context"
	"sort"
	"sync"

	id "corebank/pkg/domain"
	"corebank/pkg/platform/sentinel"
)

// InMemoryStore keeps verifications in process memory. Reads take the read
// lock so gating checks never observe a half-written record.
type InMemoryStore struct {
	mu     sync.RWMutex
	byID   map[id.VerificationID]*Verification
	byUser map[id.UserID][]id.VerificationID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[id.VerificationID]*Verification),
		byUser: make(map[id.UserID][]id.VerificationID),
	}
}

func (s *InMemoryStore) Save(_ context.Context, v *Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *v
	if _, exists := s.byID[v.ID]; !exists {
		s.byUser[v.UserID] = append(s.byUser[v.UserID], v.ID)
	}
	s.byID[v.ID] = &copied
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, verificationID id.VerificationID) (*Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.byID[verificationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *v
	return &copied, nil
}

func (s *InMemoryStore) FindLatestByUser(_ context.Context, userID id.UserID) (*Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byUser[userID]
	if len(ids) == 0 {
		return nil, sentinel.ErrNotFound
	}
	var latest *Verification
	for _, vid := range ids {
		v := s.byID[vid]
		if latest == nil || v.SubmittedAt.After(latest.SubmittedAt) {
			latest = v
		}
	}
	copied := *latest
	return &copied, nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]*Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byUser[userID]
	out := make([]*Verification, 0, len(ids))
	for _, vid := range ids {
		copied := *s.byID[vid]
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}
