package account

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

// PostgresStore persists accounts in PostgreSQL. Debit and Credit take a row
// lock (SELECT ... FOR UPDATE) inside a transaction so the status check and
// the balance write cannot interleave with a concurrent mutation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const uniqueViolation = "23505"

func (s *PostgresStore) Save(ctx context.Context, a *Account) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (id, owner_id, number, balance, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(a.ID), uuid.UUID(a.OwnerID), a.Number.String(), a.Balance, string(a.Status), a.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, accountID id.AccountID) (*Account, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, owner_id, number, balance, status, created_at
		FROM accounts WHERE id = $1`,
		uuid.UUID(accountID),
	)
	return scanAccount(row)
}

func (s *PostgresStore) FindByOwner(ctx context.Context, ownerID id.UserID) ([]*Account, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, number, balance, status, created_at
		FROM accounts WHERE owner_id = $1
		ORDER BY created_at ASC, id ASC`,
		uuid.UUID(ownerID),
	)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []*Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindByNumber(ctx context.Context, number id.AccountNumber) (*Account, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, owner_id, number, balance, status, created_at
		FROM accounts WHERE number = $1`,
		number.String(),
	)
	return scanAccount(row)
}

func (s *PostgresStore) Debit(ctx context.Context, accountID id.AccountID, amount int64) error {
	return s.mutateBalance(ctx, accountID, -amount)
}

func (s *PostgresStore) Credit(ctx context.Context, accountID id.AccountID, amount int64) error {
	return s.mutateBalance(ctx, accountID, amount)
}

// mutateBalance applies a signed delta under a row lock. The lock prevents
// interleaved partial mutations; the checks mirror the memory store exactly.
func (s *PostgresStore) mutateBalance(ctx context.Context, accountID id.AccountID, delta int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin balance mutation: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		balance int64
		status  string
	)
	err = tx.QueryRow(ctx,
		`SELECT balance, status FROM accounts WHERE id = $1 FOR UPDATE`,
		uuid.UUID(accountID),
	).Scan(&balance, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock account row: %w", err)
	}
	if Status(status) != StatusActive {
		return sentinel.ErrInvalidState
	}
	if balance+delta < 0 {
		return sentinel.ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx,
		`UPDATE accounts SET balance = balance + $1 WHERE id = $2`,
		delta, uuid.UUID(accountID),
	); err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) SetStatus(ctx context.Context, accountID id.AccountID, from, to Status) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts SET status = $1 WHERE id = $2 AND status = $3`,
		string(to), uuid.UUID(accountID), string(from),
	)
	if err != nil {
		return fmt.Errorf("set account status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a lost status race.
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`,
			uuid.UUID(accountID),
		).Scan(&exists); err != nil {
			return fmt.Errorf("check account existence: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*Account, error) {
	var (
		a        Account
		rawID    uuid.UUID
		rawOwner uuid.UUID
		number   string
		status   string
	)
	err := row.Scan(&rawID, &rawOwner, &number, &a.Balance, &status, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	a.ID = id.AccountID(rawID)
	a.OwnerID = id.UserID(rawOwner)
	a.Number = id.AccountNumber(number)
	a.Status = Status(status)
	return &a, nil
}
