package card

import (
	"context"
	"time"

	id "corebank/pkg/domain"
)

// Store persists cards. Implementations return sentinel errors:
// sentinel.ErrNotFound for missing cards, sentinel.ErrConflict when a
// compare-and-set loses a race.
type Store interface {
	Save(ctx context.Context, c *Card) error
	FindByID(ctx context.Context, cardID id.CardID) (*Card, error)
	// ListByAccount returns the account's cards in insertion order.
	ListByAccount(ctx context.Context, accountID id.AccountID) ([]*Card, error)
	// SetStatus applies to→from as a compare-and-set: sentinel.ErrConflict
	// when the current status is not from, sentinel.ErrNotFound when the
	// card does not exist.
	SetStatus(ctx context.Context, cardID id.CardID, from, to Status, at time.Time) error
	// FindExpiring returns cards whose ExpiresAt is at or before the cutoff
	// and whose status still allows the EXPIRED transition.
	FindExpiring(ctx context.Context, cutoff time.Time) ([]*Card, error)
}
