package insight

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Registers the "postgres" database/sql driver used by the archive.
	_ "github.com/lib/pq"

	id "corebank/pkg/domain"
)

// Archive persists emitted events into a flat SQL table for offline
// analytics. It runs over database/sql so it can share a DSN with, but stay
// independent of, the transactional pgx pool.
type Archive struct {
	db *sql.DB
}

func NewArchive(dsn string) (*Archive, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping archive db: %w", err)
	}
	return &Archive{db: db}, nil
}

// EmitTransferCompleted stores the event; Archive doubles as an Emitter sink.
func (a *Archive) EmitTransferCompleted(ctx context.Context, ev TransferCompletedEvent) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO transfer_events (transfer_id, sender_account_id, recipient_account_id, amount, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (transfer_id) DO NOTHING`,
		ev.TransferID.String(), ev.SenderAccountID.String(), ev.RecipientAccountID.String(), ev.Amount, ev.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("archive transfer event: %w", err)
	}
	return nil
}

// Recent returns the newest archived events, most recent first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]TransferCompletedEvent, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT transfer_id, sender_account_id, recipient_account_id, amount, completed_at
		FROM transfer_events
		ORDER BY completed_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query archived events: %w", err)
	}
	defer rows.Close()

	var out []TransferCompletedEvent
	for rows.Next() {
		var (
			ev                             TransferCompletedEvent
			rawTransfer, rawSender, rawRcp string
			completedAt                    time.Time
		)
		if err := rows.Scan(&rawTransfer, &rawSender, &rawRcp, &ev.Amount, &completedAt); err != nil {
			return nil, fmt.Errorf("scan archived event: %w", err)
		}
		transferID, err := id.ParseTransferID(rawTransfer)
		if err != nil {
			return nil, fmt.Errorf("archived transfer id: %w", err)
		}
		senderID, err := id.ParseAccountID(rawSender)
		if err != nil {
			return nil, fmt.Errorf("archived sender id: %w", err)
		}
		recipientID, err := id.ParseAccountID(rawRcp)
		if err != nil {
			return nil, fmt.Errorf("archived recipient id: %w", err)
		}
		ev.TransferID = transferID
		ev.SenderAccountID = senderID
		ev.RecipientAccountID = recipientID
		ev.CompletedAt = completedAt
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (a *Archive) Close() error {
	return a.db.Close()
}
