package transfer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corebank/internal/account"
	"corebank/internal/insight"
	"corebank/internal/kyc"
	id "corebank/pkg/domain"
	dErrors "corebank/pkg/domain-errors"
	"corebank/pkg/requestcontext"
)

type fixture struct {
	engine   *Engine
	accounts *account.Service
	kyc      *kyc.Service
	emitter  *insight.MemoryEmitter
	store    *InMemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	accounts := account.NewService(account.NewInMemoryStore(), nil)
	gate := kyc.NewService(kyc.NewInMemoryStore(), nil, 365*24*time.Hour, nil)
	emitter := insight.NewMemoryEmitter()
	store := NewInMemoryStore()
	return &fixture{
		engine:   NewEngine(store, accounts, gate, emitter, nil, nil, nil),
		accounts: accounts,
		kyc:      gate,
		emitter:  emitter,
		store:    store,
	}
}

// newUser opens an approved user with one active account holding balance.
func (f *fixture) newUser(t *testing.T, balance int64) (id.UserID, *account.Account) {
	t.Helper()
	ctx := context.Background()
	userID := id.NewUserID()
	a, err := f.accounts.Open(ctx, userID)
	require.NoError(t, err)
	if balance > 0 {
		require.NoError(t, f.accounts.Credit(ctx, a.ID, balance))
	}
	v, err := f.kyc.Submit(ctx, userID)
	require.NoError(t, err)
	_, err = f.kyc.Review(ctx, v.ID, kyc.StatusApproved)
	require.NoError(t, err)
	return userID, a
}

func (f *fixture) balance(t *testing.T, accountID id.AccountID) int64 {
	t.Helper()
	a, err := f.accounts.FindByID(context.Background(), accountID)
	require.NoError(t, err)
	return a.Balance
}

func TestExecute_CompletedTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	senderID, senderAcc := f.newUser(t, 10_000)
	_, recipientAcc := f.newUser(t, 0)

	got, err := f.engine.Execute(ctx, senderID, Request{
		RecipientNumber: recipientAcc.Number.String(),
		Amount:          2_500,
		IdempotencyKey:  "k1",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, senderAcc.ID, got.SenderAccountID)
	assert.Equal(t, recipientAcc.ID, got.RecipientAccountID)

	assert.Equal(t, int64(7_500), f.balance(t, senderAcc.ID))
	assert.Equal(t, int64(2_500), f.balance(t, recipientAcc.ID))

	events := f.emitter.Events()
	require.Len(t, events, 1)
	assert.Equal(t, got.ID, events[0].TransferID)
	assert.Equal(t, int64(2_500), events[0].Amount)
}

func TestExecute_IdempotentReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	senderID, senderAcc := f.newUser(t, 10_000)
	_, recipientAcc := f.newUser(t, 0)

	req := Request{RecipientNumber: recipientAcc.Number.String(), Amount: 2_500, IdempotencyKey: "k1"}

	first, err := f.engine.Execute(ctx, senderID, req)
	require.NoError(t, err)

	t.Run("sequential replay returns the original outcome", func(t *testing.T) {
		replayed, err := f.engine.Execute(ctx, senderID, req)
		require.NoError(t, err)
		assert.Equal(t, first.ID, replayed.ID)
		assert.Equal(t, int64(7_500), f.balance(t, senderAcc.ID), "money moves exactly once")
		assert.Equal(t, int64(2_500), f.balance(t, recipientAcc.ID))
	})

	t.Run("only one event is emitted", func(t *testing.T) {
		assert.Len(t, f.emitter.Events(), 1)
	})
}

func TestExecute_ConcurrentSameKey(t *testing.T) {
	f := newFixture(t)
	senderID, senderAcc := f.newUser(t, 10_000)
	_, recipientAcc := f.newUser(t, 0)

	req := Request{RecipientNumber: recipientAcc.Number.String(), Amount: 1_000, IdempotencyKey: "shared"}

	const callers = 10
	results := make(chan *Transfer, callers)
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := f.engine.Execute(context.Background(), senderID, req)
			if err != nil {
				errs <- err
				return
			}
			results <- got
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		// A caller that raced the winner may observe the in-progress
		// conflict, never a second execution.
		require.True(t, dErrors.HasCode(err, dErrors.CodeConflict), "unexpected error: %v", err)
	}
	var ids []id.TransferID
	for got := range results {
		ids = append(ids, got.ID)
	}
	require.NotEmpty(t, ids)
	for _, transferID := range ids {
		assert.Equal(t, ids[0], transferID, "every successful caller observes the same execution")
	}

	assert.Equal(t, int64(9_000), f.balance(t, senderAcc.ID), "exactly one debit")
	assert.Equal(t, int64(1_000), f.balance(t, recipientAcc.ID), "exactly one credit")
	assert.Len(t, f.emitter.Events(), 1)
}

func TestExecute_InsufficientFunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	senderID, senderAcc := f.newUser(t, 500)
	_, recipientAcc := f.newUser(t, 0)

	req := Request{RecipientNumber: recipientAcc.Number.String(), Amount: 900, IdempotencyKey: "k2"}

	_, err := f.engine.Execute(ctx, senderID, req)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientFunds))

	t.Run("balances are untouched", func(t *testing.T) {
		assert.Equal(t, int64(500), f.balance(t, senderAcc.ID))
		assert.Equal(t, int64(0), f.balance(t, recipientAcc.ID))
	})

	t.Run("the failure is recorded", func(t *testing.T) {
		stored, err := f.store.FindByIdempotencyKey(ctx, "k2")
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, stored.Status)
		assert.Equal(t, string(dErrors.CodeInsufficientFunds), stored.FailureCode)
		assert.NotEmpty(t, stored.FailureReason)
	})

	t.Run("replay reproduces the rejection without re-executing", func(t *testing.T) {
		// Funding the account afterwards must not let the same key succeed.
		require.NoError(t, f.accounts.Credit(ctx, senderAcc.ID, 10_000))

		_, err := f.engine.Execute(ctx, senderID, req)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
		assert.Equal(t, int64(10_500), f.balance(t, senderAcc.ID))
	})

	t.Run("no event is emitted", func(t *testing.T) {
		assert.Empty(t, f.emitter.Events())
	})
}

func TestExecute_ComplianceGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, recipientAcc := f.newUser(t, 0)

	// Account holder with money but no verification on file.
	userID := id.NewUserID()
	senderAcc, err := f.accounts.Open(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, f.accounts.Credit(ctx, senderAcc.ID, 5_000))

	req := Request{RecipientNumber: recipientAcc.Number.String(), Amount: 100, IdempotencyKey: "gated"}

	_, err = f.engine.Execute(ctx, userID, req)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeComplianceDenied))
	assert.Equal(t, int64(5_000), f.balance(t, senderAcc.ID))

	t.Run("denial is recorded as a failed transfer under the key", func(t *testing.T) {
		recorded, err := f.store.FindByIdempotencyKey(ctx, "gated")
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, recorded.Status)
		assert.Equal(t, string(dErrors.CodeComplianceDenied), recorded.FailureCode)
	})

	t.Run("approval does not revisit the failed key, a fresh key succeeds", func(t *testing.T) {
		v, err := f.kyc.Submit(ctx, userID)
		require.NoError(t, err)
		_, err = f.kyc.Review(ctx, v.ID, kyc.StatusApproved)
		require.NoError(t, err)

		_, err = f.engine.Execute(ctx, userID, req)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeComplianceDenied),
			"terminal results replay even after the gate would now allow")

		retried := req
		retried.IdempotencyKey = "gated-after-approval"
		got, err := f.engine.Execute(ctx, userID, retried)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, got.Status)
	})
}

func TestExecute_RecipientResolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	senderID, _ := f.newUser(t, 1_000)

	t.Run("malformed recipient number is a validation error", func(t *testing.T) {
		_, err := f.engine.Execute(ctx, senderID, Request{
			RecipientNumber: "12-34", Amount: 100, IdempotencyKey: "m1",
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("unassigned recipient number reports recipient not found", func(t *testing.T) {
		_, err := f.engine.Execute(ctx, senderID, Request{
			RecipientNumber: "0000000001", Amount: 100, IdempotencyKey: "m2",
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeRecipientNotFound))
	})

	t.Run("self transfer is refused", func(t *testing.T) {
		sender, err := f.accounts.PrimaryByOwner(ctx, senderID)
		require.NoError(t, err)

		_, err = f.engine.Execute(ctx, senderID, Request{
			RecipientNumber: sender.Number.String(), Amount: 100, IdempotencyKey: "m3",
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeSelfTransfer))
	})
}

func TestExecute_InputValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	senderID, _ := f.newUser(t, 1_000)
	_, recipientAcc := f.newUser(t, 0)

	for _, amount := range []int64{0, -1} {
		_, err := f.engine.Execute(ctx, senderID, Request{
			RecipientNumber: recipientAcc.Number.String(), Amount: amount, IdempotencyKey: "k",
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAmount))
	}

	_, err := f.engine.Execute(ctx, senderID, Request{
		RecipientNumber: recipientAcc.Number.String(), Amount: 100, IdempotencyKey: "  ",
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestExecute_FrozenSender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	senderID, senderAcc := f.newUser(t, 1_000)
	_, recipientAcc := f.newUser(t, 0)

	_, err := f.accounts.SetStatus(ctx, senderAcc.ID, account.StatusFrozen)
	require.NoError(t, err)

	_, err = f.engine.Execute(ctx, senderID, Request{
		RecipientNumber: recipientAcc.Number.String(), Amount: 100, IdempotencyKey: "frozen",
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAccountNotActive))
	assert.Equal(t, int64(1_000), f.balance(t, senderAcc.ID))
}

func TestExecute_CompensationOnFrozenRecipient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	senderID, senderAcc := f.newUser(t, 1_000)
	_, recipientAcc := f.newUser(t, 0)

	_, err := f.accounts.SetStatus(ctx, recipientAcc.ID, account.StatusFrozen)
	require.NoError(t, err)

	_, err = f.engine.Execute(ctx, senderID, Request{
		RecipientNumber: recipientAcc.Number.String(), Amount: 400, IdempotencyKey: "comp",
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeRecipientNotActive))

	t.Run("the debit is compensated", func(t *testing.T) {
		assert.Equal(t, int64(1_000), f.balance(t, senderAcc.ID))
		assert.Equal(t, int64(0), f.balance(t, recipientAcc.ID))
	})

	t.Run("the failure is recorded with the recipient code", func(t *testing.T) {
		stored, err := f.store.FindByIdempotencyKey(ctx, "comp")
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, stored.Status)
		assert.Equal(t, string(dErrors.CodeRecipientNotActive), stored.FailureCode)
	})
}

// flakyRegistry fails credits to one account, simulating a registry outage
// exactly at compensation time.
type flakyRegistry struct {
	AccountRegistry
	failCreditTo id.AccountID
}

func (f *flakyRegistry) Credit(ctx context.Context, accountID id.AccountID, amount int64) error {
	if accountID == f.failCreditTo {
		return dErrors.New(dErrors.CodeInternal, "registry unavailable")
	}
	return f.AccountRegistry.Credit(ctx, accountID, amount)
}

func TestExecute_CompensationFailureIsInconsistent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	senderID, senderAcc := f.newUser(t, 1_000)
	_, recipientAcc := f.newUser(t, 0)

	_, err := f.accounts.SetStatus(ctx, recipientAcc.ID, account.StatusFrozen)
	require.NoError(t, err)

	engine := NewEngine(f.store, &flakyRegistry{AccountRegistry: f.accounts, failCreditTo: senderAcc.ID},
		f.kyc, f.emitter, nil, nil, nil)

	_, err = engine.Execute(ctx, senderID, Request{
		RecipientNumber: recipientAcc.Number.String(), Amount: 400, IdempotencyKey: "lost",
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInconsistent),
		"a failed compensation must never be masked as an ordinary failure")

	stored, err := f.store.FindByIdempotencyKey(ctx, "lost")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, stored.Status)
	assert.Equal(t, string(dErrors.CodeInconsistent), stored.FailureCode)
}

// TestExecute_ConcurrentConservation runs 100 concurrent transfers that
// together drain the sender exactly to zero. Total money in the system must
// be conserved at every step and no debit may be lost or doubled.
func TestExecute_ConcurrentConservation(t *testing.T) {
	f := newFixture(t)
	const workers = 100
	const slice = int64(50)
	senderID, senderAcc := f.newUser(t, workers*slice)
	_, recipientAcc := f.newUser(t, 0)

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Execute(context.Background(), senderID, Request{
				RecipientNumber: recipientAcc.Number.String(),
				Amount:          slice,
				IdempotencyKey:  fmt.Sprintf("drain-%d", i),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int64(0), f.balance(t, senderAcc.ID))
	assert.Equal(t, workers*slice, f.balance(t, recipientAcc.ID))
	assert.Len(t, f.emitter.Events(), workers)
}

func TestListRecent(t *testing.T) {
	f := newFixture(t)
	senderID, _ := f.newUser(t, 10_000)
	recipientID, recipientAcc := f.newUser(t, 0)

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	var made []*Transfer
	for i := range 3 {
		ctx := requestcontext.WithTime(context.Background(), base.Add(time.Duration(i)*time.Minute))
		got, err := f.engine.Execute(ctx, senderID, Request{
			RecipientNumber: recipientAcc.Number.String(),
			Amount:          100,
			IdempotencyKey:  fmt.Sprintf("list-%d", i),
		})
		require.NoError(t, err)
		made = append(made, got)
	}

	t.Run("newest first", func(t *testing.T) {
		got, err := f.engine.ListRecent(context.Background(), senderID, 0)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, made[2].ID, got[0].ID)
		assert.Equal(t, made[0].ID, got[2].ID)
	})

	t.Run("limit caps the page", func(t *testing.T) {
		got, err := f.engine.ListRecent(context.Background(), senderID, 2)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("recipient sees incoming transfers", func(t *testing.T) {
		got, err := f.engine.ListRecent(context.Background(), recipientID, 0)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("user with no accounts sees nothing", func(t *testing.T) {
		got, err := f.engine.ListRecent(context.Background(), id.NewUserID(), 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
