package kyc

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	id "corebank/pkg/domain"
	"corebank/pkg/platform/sentinel"
)

// PostgresStore persists verifications in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Save(ctx context.Context, v *Verification) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kyc_verifications (id, user_id, status, submitted_at, verified_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET status = $3, verified_at = $5`,
		uuid.UUID(v.ID), uuid.UUID(v.UserID), string(v.Status), v.SubmittedAt, v.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("save verification: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, verificationID id.VerificationID) (*Verification, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, status, submitted_at, verified_at
		FROM kyc_verifications WHERE id = $1`,
		uuid.UUID(verificationID),
	)
	return scanVerification(row)
}

func (s *PostgresStore) FindLatestByUser(ctx context.Context, userID id.UserID) (*Verification, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, status, submitted_at, verified_at
		FROM kyc_verifications WHERE user_id = $1
		ORDER BY submitted_at DESC LIMIT 1`,
		uuid.UUID(userID),
	)
	return scanVerification(row)
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*Verification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, status, submitted_at, verified_at
		FROM kyc_verifications WHERE user_id = $1
		ORDER BY submitted_at DESC`,
		uuid.UUID(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	defer rows.Close()

	var out []*Verification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVerification(row rowScanner) (*Verification, error) {
	var (
		v       Verification
		rawID   uuid.UUID
		rawUser uuid.UUID
		status  string
	)
	err := row.Scan(&rawID, &rawUser, &status, &v.SubmittedAt, &v.VerifiedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan verification: %w", err)
	}
	v.ID = id.VerificationID(rawID)
	v.UserID = id.UserID(rawUser)
	v.Status = VerificationStatus(status)
	return &v, nil
}
