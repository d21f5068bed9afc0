package beneficiary

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

// PostgresStore persists beneficiaries in PostgreSQL. The unique index on
// (owner_id, account_number) enforces the one-entry-per-recipient rule.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const uniqueViolation = "23505"

func (s *PostgresStore) Save(ctx context.Context, b *Beneficiary) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO beneficiaries (id, owner_id, account_number, alias, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(b.ID), uuid.UUID(b.OwnerID), b.AccountNumber.String(), b.Alias, b.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("save beneficiary: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, beneficiaryID id.BeneficiaryID) (*Beneficiary, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, owner_id, account_number, alias, created_at
		FROM beneficiaries WHERE id = $1`,
		uuid.UUID(beneficiaryID),
	)
	return scanBeneficiary(row)
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID id.UserID) ([]*Beneficiary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, account_number, alias, created_at
		FROM beneficiaries WHERE owner_id = $1
		ORDER BY created_at ASC, id ASC`,
		uuid.UUID(ownerID),
	)
	if err != nil {
		return nil, fmt.Errorf("list beneficiaries: %w", err)
	}
	defer rows.Close()

	var out []*Beneficiary
	for rows.Next() {
		b, err := scanBeneficiary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, beneficiaryID id.BeneficiaryID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM beneficiaries WHERE id = $1`,
		uuid.UUID(beneficiaryID),
	)
	if err != nil {
		return fmt.Errorf("delete beneficiary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBeneficiary(row rowScanner) (*Beneficiary, error) {
	var (
		b        Beneficiary
		rawID    uuid.UUID
		rawOwner uuid.UUID
		number   string
	)
	err := row.Scan(&rawID, &rawOwner, &number, &b.Alias, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan beneficiary: %w", err)
	}
	b.ID = id.BeneficiaryID(rawID)
	b.OwnerID = id.UserID(rawOwner)
	b.AccountNumber = id.AccountNumber(number)
	return &b, nil
}
