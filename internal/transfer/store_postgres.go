package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	id "corebank/pkg/domain"
	"corebank/pkg/platform/sentinel"
)

// PostgresStore persists the transfer ledger. The unique index on
// idempotency_key is what makes Create a cross-process idempotency claim.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const uniqueViolation = "23505"

func (s *PostgresStore) Create(ctx context.Context, t *Transfer) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transfers (id, sender_account_id, recipient_account_id, amount, status, failure_code, failure_reason, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(t.ID), uuid.UUID(t.SenderAccountID), uuid.UUID(t.RecipientAccountID),
		t.Amount, string(t.Status), t.FailureCode, t.FailureReason, t.IdempotencyKey, t.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create transfer: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, transferID id.TransferID) (*Transfer, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, sender_account_id, recipient_account_id, amount, status, failure_code, failure_reason, idempotency_key, created_at
		FROM transfers WHERE id = $1`,
		uuid.UUID(transferID),
	)
	return scanTransfer(row)
}

func (s *PostgresStore) FindByIdempotencyKey(ctx context.Context, key string) (*Transfer, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, sender_account_id, recipient_account_id, amount, status, failure_code, failure_reason, idempotency_key, created_at
		FROM transfers WHERE idempotency_key = $1`,
		key,
	)
	return scanTransfer(row)
}

func (s *PostgresStore) Finalize(ctx context.Context, transferID id.TransferID, status Status, failureCode, failureReason string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE transfers SET status = $1, failure_code = $2, failure_reason = $3
		WHERE id = $4 AND status = $5`,
		string(status), failureCode, failureReason, uuid.UUID(transferID), string(StatusPending),
	)
	if err != nil {
		return fmt.Errorf("finalize transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM transfers WHERE id = $1)`,
			uuid.UUID(transferID),
		).Scan(&exists); err != nil {
			return fmt.Errorf("check transfer existence: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) ListRecentByAccounts(ctx context.Context, accountIDs []id.AccountID, limit int) ([]*Transfer, error) {
	raw := make([]uuid.UUID, len(accountIDs))
	for i, accountID := range accountIDs {
		raw[i] = uuid.UUID(accountID)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, sender_account_id, recipient_account_id, amount, status, failure_code, failure_reason, idempotency_key, created_at
		FROM transfers
		WHERE sender_account_id = ANY($1) OR recipient_account_id = ANY($1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2`,
		raw, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var out []*Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row rowScanner) (*Transfer, error) {
	var (
		t                             Transfer
		rawID, rawSender, rawRecipient uuid.UUID
		status                        string
	)
	err := row.Scan(&rawID, &rawSender, &rawRecipient, &t.Amount, &status,
		&t.FailureCode, &t.FailureReason, &t.IdempotencyKey, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan transfer: %w", err)
	}
	t.ID = id.TransferID(rawID)
	t.SenderAccountID = id.AccountID(rawSender)
	t.RecipientAccountID = id.AccountID(rawRecipient)
	t.Status = Status(status)
	return &t, nil
}
