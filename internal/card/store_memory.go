package card

import (
	"context"
	"sync"
	"time"

	id "corebank/pkg/domain"
	"corebank/pkg/platform/sentinel"
)

// InMemoryStore keeps cards in maps guarded by a single RWMutex. Useful for
// tests and for running the server without PostgreSQL.
type InMemoryStore struct {
	mu        sync.RWMutex
	byID      map[id.CardID]*Card
	byAccount map[id.AccountID][]id.CardID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:      make(map[id.CardID]*Card),
		byAccount: make(map[id.AccountID][]id.CardID),
	}
}

func (s *InMemoryStore) Save(_ context.Context, c *Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[c.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := *c
	s.byID[c.ID] = &cp
	s.byAccount[c.AccountID] = append(s.byAccount[c.AccountID], c.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, cardID id.CardID) (*Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[cardID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemoryStore) ListByAccount(_ context.Context, accountID id.AccountID) ([]*Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byAccount[accountID]
	out := make([]*Card, 0, len(ids))
	for _, cardID := range ids {
		cp := *s.byID[cardID]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) SetStatus(_ context.Context, cardID id.CardID, from, to Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[cardID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if c.Status != from {
		return sentinel.ErrConflict
	}
	c.Status = to
	c.UpdatedAt = at
	return nil
}

func (s *InMemoryStore) FindExpiring(_ context.Context, cutoff time.Time) ([]*Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Card
	for _, c := range s.byID {
		if c.ExpiresAt.After(cutoff) {
			continue
		}
		if !CanTransition(c.Status, StatusExpired) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}
