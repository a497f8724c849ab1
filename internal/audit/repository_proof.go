package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// ProofRepository reads EventProof rows and assembles verification
// bundles across events, proofs, batches, and anchors.
type ProofRepository struct {
	db *sql.DB
}

// NewProofRepository constructs a ProofRepository over the given client.
func NewProofRepository(c *Client) *ProofRepository {
	return &ProofRepository{db: c.db}
}

// GetProof fetches the proof for a single event.
func (r *ProofRepository) GetProof(ctx context.Context, eventID string) (*EventProof, error) {
	var p EventProof
	var pathJSON []byte

	err := r.db.QueryRowContext(ctx, `
		SELECT event_id, batch_id, leaf_index, proof_path
		FROM event_proofs WHERE event_id = $1
	`, eventID).Scan(&p.EventID, &p.BatchID, &p.LeafIndex, &pathJSON)
	if err == sql.ErrNoRows {
		return nil, ErrProofNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get proof: %w", err)
	}
	if err := json.Unmarshal(pathJSON, &p.ProofPath); err != nil {
		return nil, fmt.Errorf("get proof: decode proof path: %w", err)
	}
	return &p, nil
}

// JoinEventProofBatchAnchor returns the complete verification bundle for
// an event: the event itself, its proof (if any), the proof's batch, and
// every anchor recorded for that batch across chains.
func (r *ProofRepository) JoinEventProofBatchAnchor(ctx context.Context, eventID string) (*VerificationBundle, error) {
	events := &EventRepository{db: r.db}
	event, err := events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	bundle := &VerificationBundle{Event: event}

	proof, err := r.GetProof(ctx, eventID)
	if err == ErrProofNotFound {
		return bundle, nil
	}
	if err != nil {
		return nil, err
	}
	bundle.Proof = proof

	batches := &BatchRepository{db: r.db}
	batch, err := batches.GetBatch(ctx, proof.BatchID)
	if err != nil {
		return nil, err
	}
	bundle.Batch = batch

	anchors := &AnchorRepository{db: r.db}
	anchorList, err := anchors.ListForBatch(ctx, proof.BatchID)
	if err != nil {
		return nil, err
	}
	bundle.Anchors = anchorList

	return bundle, nil
}
