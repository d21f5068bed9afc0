package card

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"corebank/internal/account"
	id "corebank/pkg/domain"
	dErrors "corebank/pkg/domain-errors"
	"corebank/pkg/platform/sentinel"
	"corebank/pkg/requestcontext"
)

// AccountDirectory is the slice of the account registry the card service
// needs: resolving the account a card is issued against.
type AccountDirectory interface {
	FindByID(ctx context.Context, accountID id.AccountID) (*account.Account, error)
}

// Service manages the card lifecycle: issuing, status changes through the
// closed transition table, and the time-driven expiry sweep.
type Service struct {
	store    Store
	accounts AccountDirectory
	lifetime time.Duration
	logger   *slog.Logger
}

func NewService(store Store, accounts AccountDirectory, lifetime time.Duration, logger *slog.Logger) *Service {
	return &Service{store: store, accounts: accounts, lifetime: lifetime, logger: logger}
}

// Issue creates an ACTIVE card against an existing ACTIVE account. The expiry
// date is set from the configured card lifetime.
func (s *Service) Issue(ctx context.Context, accountID id.AccountID) (*Card, error) {
	a, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if a.Status != account.StatusActive {
		return nil, dErrors.New(dErrors.CodeAccountNotActive, "cards can only be issued against an active account")
	}

	now := requestcontext.Now(ctx)
	c := &Card{
		ID:        id.NewCardID(),
		AccountID: accountID,
		Status:    StatusActive,
		ExpiresAt: now.Add(s.lifetime),
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "save card", err)
	}
	return c, nil
}

// FindByID returns a single card.
func (s *Service) FindByID(ctx context.Context, cardID id.CardID) (*Card, error) {
	c, err := s.store.FindByID(ctx, cardID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "card not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "find card", err)
	}
	return c, nil
}

// ListByAccount returns all cards linked to an account.
func (s *Service) ListByAccount(ctx context.Context, accountID id.AccountID) ([]*Card, error) {
	cards, err := s.store.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list cards", err)
	}
	return cards, nil
}

// UpdateStatus moves a card through the lifecycle table. Re-applying the
// current status is accepted as a no-op so retried requests do not fail;
// any move out of a terminal status is rejected.
func (s *Service) UpdateStatus(ctx context.Context, cardID id.CardID, status Status) (*Card, error) {
	if !status.Valid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown card status %q", status))
	}
	c, err := s.FindByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if c.Status == status {
		return c, nil
	}
	if !CanTransition(c.Status, status) {
		return nil, dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("card cannot move from %s to %s", c.Status, status))
	}

	now := requestcontext.Now(ctx)
	err = s.store.SetStatus(ctx, cardID, c.Status, status, now)
	switch {
	case err == nil:
	case errors.Is(err, sentinel.ErrConflict):
		return nil, dErrors.New(dErrors.CodeConflict, "card status changed concurrently")
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.New(dErrors.CodeNotFound, "card not found")
	default:
		return nil, dErrors.Wrap(dErrors.CodeInternal, "set card status", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "card status changed",
			"card_id", c.ID,
			"from", c.Status,
			"to", status,
		)
	}
	c.Status = status
	c.UpdatedAt = now
	return c, nil
}

// ExpireDue moves every card past its expiry date to EXPIRED. Cards whose
// status changed between the scan and the update are skipped; the next sweep
// picks them up if they are still eligible. Returns the number expired.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	now := requestcontext.Now(ctx)
	due, err := s.store.FindExpiring(ctx, now)
	if err != nil {
		return 0, dErrors.Wrap(dErrors.CodeInternal, "scan expiring cards", err)
	}

	expired := 0
	for _, c := range due {
		err := s.store.SetStatus(ctx, c.ID, c.Status, StatusExpired, now)
		if errors.Is(err, sentinel.ErrConflict) || errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			return expired, dErrors.Wrap(dErrors.CodeInternal, "expire card", err)
		}
		expired++
	}
	if expired > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "expired cards", "count", expired)
	}
	return expired, nil
}
