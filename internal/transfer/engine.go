package transfer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/singleflight"

	"corebank/internal/account"
	"corebank/internal/insight"
	"corebank/internal/transfer/metrics"
	id "corebank/pkg/domain"
	dErrors "corebank/pkg/domain-errors"
	"corebank/pkg/platform/sentinel"
	"corebank/pkg/requestcontext"
)

// AccountRegistry is the slice of the account service the engine needs.
type AccountRegistry interface {
	PrimaryByOwner(ctx context.Context, ownerID id.UserID) (*account.Account, error)
	FindByOwner(ctx context.Context, ownerID id.UserID) ([]*account.Account, error)
	FindByNumber(ctx context.Context, raw string) (*account.Account, error)
	Debit(ctx context.Context, accountID id.AccountID, amount int64) error
	Credit(ctx context.Context, accountID id.AccountID, amount int64) error
}

// ComplianceGate decides whether a user may initiate transfers at all.
type ComplianceGate interface {
	CheckTransferEligibility(ctx context.Context, userID id.UserID) error
}

// Request is one transfer attempt. The idempotency key is client-chosen:
// retries with the same key observe the first attempt's outcome instead of
// moving money twice.
type Request struct {
	RecipientNumber string
	Amount          int64
	IdempotencyKey  string
}

// Engine executes transfers. Atomicity is layered: the ledger row claims the
// idempotency key, the per-account pair lock serializes executions touching
// the same accounts, and the registry's debit/credit are individually atomic.
type Engine struct {
	store    Store
	accounts AccountRegistry
	gate     ComplianceGate
	emitter  insight.Emitter
	locks    *accountLocks
	metrics  *metrics.Recorder
	logger   *slog.Logger
	tracer   trace.Tracer

	// inflight collapses same-key concurrent requests within this process;
	// the store's unique key claim covers other processes.
	inflight singleflight.Group
}

func NewEngine(store Store, accounts AccountRegistry, gate ComplianceGate, emitter insight.Emitter, rec *metrics.Recorder, logger *slog.Logger, tracer trace.Tracer) *Engine {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		store:    store,
		accounts: accounts,
		gate:     gate,
		emitter:  emitter,
		locks:    newAccountLocks(),
		metrics:  rec,
		logger:   logger,
		tracer:   tracer,
	}
}

// Execute runs one transfer attempt to a terminal outcome. Concurrent calls
// with the same idempotency key collapse onto a single execution; all of them
// observe its result.
func (e *Engine) Execute(ctx context.Context, userID id.UserID, req Request) (*Transfer, error) {
	if req.Amount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "transfer amount must be positive")
	}
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	if req.IdempotencyKey == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "idempotency key must not be empty")
	}

	v, err, _ := e.inflight.Do(req.IdempotencyKey, func() (any, error) {
		return e.execute(ctx, userID, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Transfer), nil
}

func (e *Engine) execute(ctx context.Context, userID id.UserID, req Request) (*Transfer, error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "transfer.execute", trace.WithAttributes(
		attribute.String("transfer.idempotency_key", req.IdempotencyKey),
		attribute.Int64("transfer.amount", req.Amount),
	))
	defer span.End()

	// A key that already reached a terminal state replays its outcome.
	if existing, err := e.store.FindByIdempotencyKey(ctx, req.IdempotencyKey); err == nil {
		e.metrics.ObserveExecution(metrics.OutcomeReplayed, time.Since(start))
		return e.replay(existing)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "look up idempotency key", err)
	}

	// A denial is terminal for this key: the rejection is recorded as a
	// FAILED entry so retries replay it instead of re-running the gate.
	// Accounts are not resolved yet, so the entry carries no account IDs.
	if gateErr := e.gate.CheckTransferEligibility(ctx, userID); gateErr != nil {
		t := &Transfer{
			ID:             id.NewTransferID(),
			Amount:         req.Amount,
			Status:         StatusPending,
			IdempotencyKey: req.IdempotencyKey,
			CreatedAt:      requestcontext.Now(ctx),
		}
		winner, err := e.claimKey(ctx, t)
		if err != nil {
			return nil, err
		}
		if winner != nil {
			e.metrics.ObserveExecution(metrics.OutcomeReplayed, time.Since(start))
			return e.replay(winner)
		}
		return nil, e.fail(ctx, t, gateErr, start)
	}

	sender, err := e.accounts.PrimaryByOwner(ctx, userID)
	if err != nil {
		e.metrics.ObserveExecution(metrics.OutcomeRejected, time.Since(start))
		return nil, err
	}
	recipient, err := e.accounts.FindByNumber(ctx, req.RecipientNumber)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		e.metrics.ObserveExecution(metrics.OutcomeRejected, time.Since(start))
		return nil, dErrors.New(dErrors.CodeRecipientNotFound, "recipient account not found")
	}
	if err != nil {
		e.metrics.ObserveExecution(metrics.OutcomeRejected, time.Since(start))
		return nil, err
	}
	if sender.ID == recipient.ID {
		e.metrics.ObserveExecution(metrics.OutcomeRejected, time.Since(start))
		return nil, dErrors.New(dErrors.CodeSelfTransfer, "sender and recipient are the same account")
	}

	t := &Transfer{
		ID:                 id.NewTransferID(),
		SenderAccountID:    sender.ID,
		RecipientAccountID: recipient.ID,
		Amount:             req.Amount,
		Status:             StatusPending,
		IdempotencyKey:     req.IdempotencyKey,
		CreatedAt:          requestcontext.Now(ctx),
	}
	winner, err := e.claimKey(ctx, t)
	if err != nil {
		return nil, err
	}
	if winner != nil {
		e.metrics.ObserveExecution(metrics.OutcomeReplayed, time.Since(start))
		return e.replay(winner)
	}

	span.SetAttributes(attribute.String("transfer.id", t.ID.String()))

	unlock := e.locks.LockPair(sender.ID, recipient.ID)
	defer unlock()

	if err := e.accounts.Debit(ctx, sender.ID, req.Amount); err != nil {
		return nil, e.fail(ctx, t, err, start)
	}

	if err := e.accounts.Credit(ctx, recipient.ID, req.Amount); err != nil {
		return nil, e.compensate(ctx, t, sender.ID, err, start)
	}

	if err := e.store.Finalize(ctx, t.ID, StatusCompleted, "", ""); err != nil {
		// Money moved but the ledger entry is stuck PENDING. Surface it as
		// an inconsistency so it is reconciled, never retried blindly.
		e.metrics.ObserveExecution(metrics.OutcomeInconsistent, time.Since(start))
		e.logger.ErrorContext(ctx, "transfer completed but ledger finalize failed",
			"transfer_id", t.ID, "error", err)
		return nil, dErrors.Wrap(dErrors.CodeInconsistent, "transfer applied but not recorded", err)
	}
	t.Status = StatusCompleted

	e.emit(ctx, t)
	e.metrics.ObserveExecution(metrics.OutcomeCompleted, time.Since(start))
	e.metrics.ObserveCompletedAmount(t.Amount)
	e.logger.InfoContext(ctx, "transfer completed",
		"transfer_id", t.ID,
		"sender_account_id", t.SenderAccountID,
		"recipient_account_id", t.RecipientAccountID,
		"amount", t.Amount,
	)
	return t, nil
}

// claimKey inserts the pending ledger entry, claiming the idempotency key.
// When another process claimed the key first, the winner's record is
// returned instead of an entry of our own.
func (e *Engine) claimKey(ctx context.Context, t *Transfer) (*Transfer, error) {
	err := e.store.Create(ctx, t)
	if errors.Is(err, sentinel.ErrConflict) {
		winner, ferr := e.store.FindByIdempotencyKey(ctx, t.IdempotencyKey)
		if ferr != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "load winning transfer", ferr)
		}
		return winner, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "record transfer", err)
	}
	return nil, nil
}

// fail finalizes the ledger entry as FAILED with the rejection it will replay
// and returns the original error.
func (e *Engine) fail(ctx context.Context, t *Transfer, cause error, start time.Time) error {
	code := dErrors.CodeOf(cause)
	reason := dErrors.MessageOf(cause)
	if err := e.store.Finalize(ctx, t.ID, StatusFailed, string(code), reason); err != nil {
		e.logger.ErrorContext(ctx, "failed transfer could not be recorded",
			"transfer_id", t.ID, "error", err)
	}
	e.metrics.ObserveExecution(metrics.OutcomeFailed, time.Since(start))
	e.logger.InfoContext(ctx, "transfer failed",
		"transfer_id", t.ID, "code", code, "reason", reason)
	return cause
}

// compensate undoes the sender debit after a recipient credit was refused.
// A compensation failure is the one unrecoverable outcome: it is reported as
// CodeInconsistent and never masked by the original credit error.
func (e *Engine) compensate(ctx context.Context, t *Transfer, senderID id.AccountID, creditErr error, start time.Time) error {
	cause := creditErr
	if dErrors.HasCode(creditErr, dErrors.CodeAccountNotActive) {
		cause = dErrors.New(dErrors.CodeRecipientNotActive, "recipient account is not active")
	} else if dErrors.HasCode(creditErr, dErrors.CodeNotFound) {
		cause = dErrors.New(dErrors.CodeRecipientNotFound, "recipient account not found")
	}

	if err := e.accounts.Credit(ctx, senderID, t.Amount); err != nil {
		e.metrics.ObserveExecution(metrics.OutcomeInconsistent, time.Since(start))
		e.logger.ErrorContext(ctx, "transfer compensation failed, funds withheld",
			"transfer_id", t.ID,
			"sender_account_id", senderID,
			"amount", t.Amount,
			"credit_error", creditErr,
			"compensation_error", err,
		)
		inconsistent := dErrors.Wrap(dErrors.CodeInconsistent, "debit applied but compensation failed", err)
		if ferr := e.store.Finalize(ctx, t.ID, StatusFailed, string(dErrors.CodeInconsistent), dErrors.MessageOf(inconsistent)); ferr != nil {
			e.logger.ErrorContext(ctx, "inconsistent transfer could not be recorded",
				"transfer_id", t.ID, "error", ferr)
		}
		return inconsistent
	}
	return e.fail(ctx, t, cause, start)
}

// replay reconstructs the outcome of a finished execution. A still-PENDING
// entry belongs to an execution in flight elsewhere; callers must retry
// later rather than race it.
func (e *Engine) replay(t *Transfer) (*Transfer, error) {
	switch t.Status {
	case StatusCompleted:
		return t, nil
	case StatusFailed:
		return nil, dErrors.New(dErrors.Code(t.FailureCode), t.FailureReason)
	default:
		return nil, dErrors.New(dErrors.CodeConflict, "a transfer with this idempotency key is in progress")
	}
}

func (e *Engine) emit(ctx context.Context, t *Transfer) {
	if e.emitter == nil {
		return
	}
	ev := insight.TransferCompletedEvent{
		TransferID:         t.ID,
		SenderAccountID:    t.SenderAccountID,
		RecipientAccountID: t.RecipientAccountID,
		Amount:             t.Amount,
		CompletedAt:        requestcontext.Now(ctx),
	}
	if err := e.emitter.EmitTransferCompleted(ctx, ev); err != nil {
		// Emission is observational; the transfer stands regardless.
		e.logger.WarnContext(ctx, "transfer event emission failed",
			"transfer_id", t.ID, "error", err)
	}
}

// listDefaultLimit and listMaxLimit bound ListRecent result sizes.
const (
	listDefaultLimit = 20
	listMaxLimit     = 100
)

// ListRecent returns the user's transfers across all their accounts, newest
// first.
func (e *Engine) ListRecent(ctx context.Context, userID id.UserID, limit int) ([]*Transfer, error) {
	if limit <= 0 {
		limit = listDefaultLimit
	}
	if limit > listMaxLimit {
		limit = listMaxLimit
	}
	accounts, err := e.accounts.FindByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	ids := make([]id.AccountID, len(accounts))
	for i, a := range accounts {
		ids[i] = a.ID
	}
	out, err := e.store.ListRecentByAccounts(ctx, ids, limit)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list transfers", err)
	}
	return out, nil
}
