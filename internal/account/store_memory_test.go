package account

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "corebank/pkg/domain"
	"corebank/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) seed(balance int64, status Status) *Account {
	a := &Account{
		ID:        id.NewAccountID(),
		OwnerID:   id.NewUserID(),
		Number:    id.GenerateAccountNumber(),
		Balance:   balance,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.store.Save(context.Background(), a))
	return a
}

func (s *InMemoryStoreSuite) TestLookupBehavior() {
	ctx := context.Background()

	s.Run("finds by id and by number", func() {
		a := s.seed(500, StatusActive)

		byID, err := s.store.FindByID(ctx, a.ID)
		s.Require().NoError(err)
		s.Equal(a.Number, byID.Number)

		byNumber, err := s.store.FindByNumber(ctx, a.Number)
		s.Require().NoError(err)
		s.Equal(a.ID, byNumber.ID)
	})

	s.Run("returns ErrNotFound for unknown account", func() {
		_, err := s.store.FindByID(ctx, id.NewAccountID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		_, err = s.store.FindByNumber(ctx, id.GenerateAccountNumber())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("lists owner accounts in insertion order", func() {
		ownerID := id.NewUserID()
		first := &Account{ID: id.NewAccountID(), OwnerID: ownerID, Number: id.GenerateAccountNumber(), Status: StatusActive}
		second := &Account{ID: id.NewAccountID(), OwnerID: ownerID, Number: id.GenerateAccountNumber(), Status: StatusActive}
		s.Require().NoError(s.store.Save(ctx, first))
		s.Require().NoError(s.store.Save(ctx, second))

		accounts, err := s.store.FindByOwner(ctx, ownerID)
		s.Require().NoError(err)
		s.Require().Len(accounts, 2)
		s.Equal(first.ID, accounts[0].ID)
		s.Equal(second.ID, accounts[1].ID)
	})

	s.Run("rejects duplicate account numbers", func() {
		a := s.seed(0, StatusActive)
		dup := &Account{ID: id.NewAccountID(), OwnerID: id.NewUserID(), Number: a.Number, Status: StatusActive}
		s.Require().ErrorIs(s.store.Save(ctx, dup), sentinel.ErrConflict)
	})

	s.Run("returned accounts are copies", func() {
		a := s.seed(100, StatusActive)
		got, err := s.store.FindByID(ctx, a.ID)
		s.Require().NoError(err)
		got.Balance = 999999

		again, err := s.store.FindByID(ctx, a.ID)
		s.Require().NoError(err)
		s.Equal(int64(100), again.Balance)
	})
}

func (s *InMemoryStoreSuite) TestDebitCredit() {
	ctx := context.Background()

	s.Run("debit to exactly zero is allowed", func() {
		a := s.seed(250, StatusActive)
		s.Require().NoError(s.store.Debit(ctx, a.ID, 250))

		got, err := s.store.FindByID(ctx, a.ID)
		s.Require().NoError(err)
		s.Equal(int64(0), got.Balance)
	})

	s.Run("debit below zero is refused without mutation", func() {
		a := s.seed(100, StatusActive)
		s.Require().ErrorIs(s.store.Debit(ctx, a.ID, 101), sentinel.ErrInsufficientFunds)

		got, err := s.store.FindByID(ctx, a.ID)
		s.Require().NoError(err)
		s.Equal(int64(100), got.Balance)
	})

	s.Run("frozen accounts are inert for both directions", func() {
		a := s.seed(100, StatusFrozen)
		s.Require().ErrorIs(s.store.Debit(ctx, a.ID, 10), sentinel.ErrInvalidState)
		s.Require().ErrorIs(s.store.Credit(ctx, a.ID, 10), sentinel.ErrInvalidState)
	})

	s.Run("closed accounts cannot receive funds", func() {
		a := s.seed(0, StatusClosed)
		s.Require().ErrorIs(s.store.Credit(ctx, a.ID, 10), sentinel.ErrInvalidState)
	})

	s.Run("credit increases balance", func() {
		a := s.seed(0, StatusActive)
		s.Require().NoError(s.store.Credit(ctx, a.ID, 4200))

		got, err := s.store.FindByID(ctx, a.ID)
		s.Require().NoError(err)
		s.Equal(int64(4200), got.Balance)
	})
}

// TestConcurrentDebits drains an account with 100 concurrent debits of
// balance/100 each: the final balance must be exactly zero with no lost or
// duplicated debits.
func (s *InMemoryStoreSuite) TestConcurrentDebits() {
	ctx := context.Background()
	const workers = 100
	const slice = int64(70)
	a := s.seed(workers*slice, StatusActive)

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.store.Debit(ctx, a.ID, slice)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		s.Require().NoError(err)
	}

	got, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(int64(0), got.Balance)
}

func (s *InMemoryStoreSuite) TestSetStatus() {
	ctx := context.Background()

	s.Run("applies when expected status matches", func() {
		a := s.seed(0, StatusActive)
		s.Require().NoError(s.store.SetStatus(ctx, a.ID, StatusActive, StatusFrozen))

		got, err := s.store.FindByID(ctx, a.ID)
		s.Require().NoError(err)
		s.Equal(StatusFrozen, got.Status)
	})

	s.Run("reports conflict on lost race", func() {
		a := s.seed(0, StatusFrozen)
		s.Require().ErrorIs(s.store.SetStatus(ctx, a.ID, StatusActive, StatusClosed), sentinel.ErrConflict)
	})

	s.Run("reports not found for unknown account", func() {
		s.Require().ErrorIs(s.store.SetStatus(ctx, id.NewAccountID(), StatusActive, StatusFrozen), sentinel.ErrNotFound)
	})
}
