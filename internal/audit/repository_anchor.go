package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// AnchorRepository persists AnchorRecord rows.
type AnchorRepository struct {
	db *sql.DB
}

// NewAnchorRepository constructs an AnchorRepository over the given client.
func NewAnchorRepository(c *Client) *AnchorRepository {
	return &AnchorRepository{db: c.db}
}

// UpsertAnchor is idempotent on (batch_id, chain): anchored_at is set on
// first success and never overwritten by later calls.
func (r *AnchorRepository) UpsertAnchor(ctx context.Context, batchID, chain, txHash string, status AnchorStatus) error {
	var anchoredAtExpr string
	if status == AnchorStatusAnchored {
		anchoredAtExpr = "now()"
	} else {
		anchoredAtExpr = "NULL"
	}

	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO anchor_records (batch_id, chain, tx_hash, status, anchored_at)
		VALUES ($1, $2, $3, $4, %s)
		ON CONFLICT (batch_id, chain) DO UPDATE
		SET tx_hash = EXCLUDED.tx_hash,
		    status = EXCLUDED.status,
		    anchored_at = COALESCE(anchor_records.anchored_at, EXCLUDED.anchored_at)
	`, anchoredAtExpr), batchID, chain, txHash, status)
	if err != nil {
		return fmt.Errorf("upsert anchor: %w", err)
	}
	return nil
}

// AnchorStatusFor fetches a single anchor record for (batch_id, chain).
func (r *AnchorRepository) AnchorStatusFor(ctx context.Context, batchID, chain string) (*AnchorRecord, error) {
	var a AnchorRecord
	var blockNumber sql.NullInt64
	var anchoredAt sql.NullTime

	err := r.db.QueryRowContext(ctx, `
		SELECT batch_id, chain, tx_hash, block_number, status, anchored_at
		FROM anchor_records WHERE batch_id = $1 AND chain = $2
	`, batchID, chain).Scan(&a.BatchID, &a.Chain, &a.TxHash, &blockNumber, &a.Status, &anchoredAt)
	if err == sql.ErrNoRows {
		return nil, ErrAnchorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("anchor status: %w", err)
	}
	if blockNumber.Valid {
		a.BlockNumber = &blockNumber.Int64
	}
	if anchoredAt.Valid {
		a.AnchoredAt = &anchoredAt.Time
	}
	return &a, nil
}

// ListForBatch returns every anchor recorded for batchID, across chains.
func (r *AnchorRepository) ListForBatch(ctx context.Context, batchID string) ([]*AnchorRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT batch_id, chain, tx_hash, block_number, status, anchored_at
		FROM anchor_records WHERE batch_id = $1
		ORDER BY chain
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list anchors for batch: %w", err)
	}
	defer rows.Close()

	var records []*AnchorRecord
	for rows.Next() {
		var a AnchorRecord
		var blockNumber sql.NullInt64
		var anchoredAt sql.NullTime

		if err := rows.Scan(&a.BatchID, &a.Chain, &a.TxHash, &blockNumber, &a.Status, &anchoredAt); err != nil {
			return nil, fmt.Errorf("list anchors for batch: %w", err)
		}
		if blockNumber.Valid {
			a.BlockNumber = &blockNumber.Int64
		}
		if anchoredAt.Valid {
			a.AnchoredAt = &anchoredAt.Time
		}
		records = append(records, &a)
	}
	return records, rows.Err()
}
