package card

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	id "corebank/pkg/domain"
	"corebank/pkg/platform/sentinel"
)

// PostgresStore persists cards in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const uniqueViolation = "23505"

func (s *PostgresStore) Save(ctx context.Context, c *Card) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cards (id, account_id, status, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(c.ID), uuid.UUID(c.AccountID), string(c.Status), c.ExpiresAt, c.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("save card: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, cardID id.CardID) (*Card, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, account_id, status, expires_at, updated_at
		FROM cards WHERE id = $1`,
		uuid.UUID(cardID),
	)
	return scanCard(row)
}

func (s *PostgresStore) ListByAccount(ctx context.Context, accountID id.AccountID) ([]*Card, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, account_id, status, expires_at, updated_at
		FROM cards WHERE account_id = $1
		ORDER BY expires_at ASC, id ASC`,
		uuid.UUID(accountID),
	)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var out []*Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetStatus(ctx context.Context, cardID id.CardID, from, to Status, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE cards SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		string(to), at, uuid.UUID(cardID), string(from),
	)
	if err != nil {
		return fmt.Errorf("set card status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM cards WHERE id = $1)`,
			uuid.UUID(cardID),
		).Scan(&exists); err != nil {
			return fmt.Errorf("check card existence: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) FindExpiring(ctx context.Context, cutoff time.Time) ([]*Card, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, account_id, status, expires_at, updated_at
		FROM cards
		WHERE expires_at <= $1 AND status IN ($2, $3)`,
		cutoff, string(StatusActive), string(StatusBlocked),
	)
	if err != nil {
		return nil, fmt.Errorf("list expiring cards: %w", err)
	}
	defer rows.Close()

	var out []*Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*Card, error) {
	var (
		c          Card
		rawID      uuid.UUID
		rawAccount uuid.UUID
		status     string
	)
	err := row.Scan(&rawID, &rawAccount, &status, &c.ExpiresAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan card: %w", err)
	}
	c.ID = id.CardID(rawID)
	c.AccountID = id.AccountID(rawAccount)
	c.Status = Status(status)
	return &c, nil
}
