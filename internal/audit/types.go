package audit

import (
	"encoding/json"
	"time"
)

// AuditEvent is an append-only record of a single on-chain transfer.
type AuditEvent struct {
	EventID          string          `json:"event_id"`
	BlockNumber      int64           `json:"block_number"`
	Timestamp        time.Time       `json:"timestamp"`
	From             string          `json:"from"`
	To               string          `json:"to"`
	ContractAddress  string          `json:"contract_address"`
	Amount           string          `json:"amount"`
	RawJSON          json.RawMessage `json:"raw_json"`
	DetailsHash      string          `json:"details_hash"`
	CreatedAt        time.Time       `json:"created_at"`
}

// MerkleBatch is an immutable set of event leaves committed to one root.
type MerkleBatch struct {
	BatchID    string    `json:"batch_id"`
	MerkleRoot string    `json:"merkle_root"`
	LeafCount  int       `json:"leaf_count"`
	CreatedAt  time.Time `json:"created_at"`
	AnchoredTx *string   `json:"anchored_tx,omitempty"`
}

// ProofPathNode mirrors merkle.ProofNode for JSONB storage/round-trip.
type ProofPathNode struct {
	Hash string `json:"hash"`
	Pos  string `json:"pos"`
}

// EventProof is the inclusion witness for one event in one batch.
type EventProof struct {
	EventID   string          `json:"event_id"`
	BatchID   string          `json:"batch_id"`
	LeafIndex int             `json:"leaf_index"`
	ProofPath []ProofPathNode `json:"proof_path"`
}

// AnchorStatus enumerates the lifecycle of publishing a batch root.
type AnchorStatus string

const (
	AnchorStatusAnchored    AnchorStatus = "anchored"
	AnchorStatusNotAnchored AnchorStatus = "not_anchored"
	AnchorStatusPending     AnchorStatus = "pending"
)

// AnchorRecord records publishing a batch root to an external ledger.
type AnchorRecord struct {
	BatchID     string       `json:"batch_id"`
	Chain       string       `json:"chain"`
	TxHash      string       `json:"tx_hash"`
	BlockNumber *int64       `json:"block_number,omitempty"`
	Status      AnchorStatus `json:"status"`
	AnchoredAt  *time.Time   `json:"anchored_at,omitempty"`
}

// VerificationBundle is the complete result of join_event_proof_batch_anchor:
// an event plus its proof, batch metadata, and every anchor recorded for
// that batch.
type VerificationBundle struct {
	Event   *AuditEvent     `json:"event"`
	Proof   *EventProof     `json:"proof,omitempty"`
	Batch   *MerkleBatch    `json:"batch,omitempty"`
	Anchors []*AnchorRecord `json:"anchors,omitempty"`
}

// SortOrder selects ascending ("oldest") or descending ("latest") ordering
// by (block_number, event_id).
type SortOrder string

const (
	SortOldest SortOrder = "oldest"
	SortLatest SortOrder = "latest"
)
