package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// BatchRepository persists MerkleBatch and EventProof rows.
type BatchRepository struct {
	db *sql.DB
}

// NewBatchRepository constructs a BatchRepository over the given client.
func NewBatchRepository(c *Client) *BatchRepository {
	return &BatchRepository{db: c.db}
}

// InsertBatch inserts batch and its per-event proofs in a single
// transaction: either every proof lands referencing batch.BatchID, or
// nothing does.
func (r *BatchRepository) InsertBatch(ctx context.Context, batch *MerkleBatch, proofs []*EventProof) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert batch: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO merkle_batches (batch_id, merkle_root, leaf_count, anchored_tx)
		VALUES ($1, $2, $3, $4)
	`, batch.BatchID, batch.MerkleRoot, batch.LeafCount, batch.AnchoredTx)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO event_proofs (event_id, batch_id, leaf_index, proof_path)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return fmt.Errorf("insert batch: prepare proof insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range proofs {
		pathJSON, err := json.Marshal(p.ProofPath)
		if err != nil {
			return fmt.Errorf("insert batch: marshal proof path for %s: %w", p.EventID, err)
		}
		if _, err := stmt.ExecContext(ctx, p.EventID, batch.BatchID, p.LeafIndex, pathJSON); err != nil {
			return fmt.Errorf("insert batch: insert proof for %s: %w", p.EventID, err)
		}
	}

	return tx.Commit()
}

// GetBatch fetches a batch by id.
func (r *BatchRepository) GetBatch(ctx context.Context, batchID string) (*MerkleBatch, error) {
	var b MerkleBatch
	var anchoredTx sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT batch_id, merkle_root, leaf_count, created_at, anchored_tx
		FROM merkle_batches WHERE batch_id = $1
	`, batchID).Scan(&b.BatchID, &b.MerkleRoot, &b.LeafCount, &b.CreatedAt, &anchoredTx)
	if err == sql.ErrNoRows {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}
	if anchoredTx.Valid {
		b.AnchoredTx = &anchoredTx.String
	}
	return &b, nil
}

// ListRecent returns the most recently created batches, newest first.
func (r *BatchRepository) ListRecent(ctx context.Context, limit int) ([]*MerkleBatch, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT batch_id, merkle_root, leaf_count, created_at, anchored_tx
		FROM merkle_batches
		ORDER BY batch_id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent batches: %w", err)
	}
	defer rows.Close()

	var batches []*MerkleBatch
	for rows.Next() {
		var b MerkleBatch
		var anchoredTx sql.NullString
		if err := rows.Scan(&b.BatchID, &b.MerkleRoot, &b.LeafCount, &b.CreatedAt, &anchoredTx); err != nil {
			return nil, fmt.Errorf("list recent batches: %w", err)
		}
		if anchoredTx.Valid {
			b.AnchoredTx = &anchoredTx.String
		}
		batches = append(batches, &b)
	}
	return batches, rows.Err()
}

// SetAnchoredTx sets a batch's anchored_tx if it is not already set.
func (r *BatchRepository) SetAnchoredTx(ctx context.Context, batchID, tx string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE merkle_batches SET anchored_tx = $2
		WHERE batch_id = $1 AND anchored_tx IS NULL
	`, batchID, tx)
	if err != nil {
		return fmt.Errorf("set anchored tx: %w", err)
	}
	return nil
}
