// Package batch implements the periodic batcher/anchorer (C4): it selects
// unproven events, commits them to a Merkle root, persists the batch and
// per-event proofs in one transaction, and anchors the root to a mock or
// real external ledger.
package batch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kwon-project/compliance-backplane/internal/adapters"
	"github.com/kwon-project/compliance-backplane/internal/audit"
	"github.com/kwon-project/compliance-backplane/internal/merkle"
	"github.com/kwon-project/compliance-backplane/internal/metrics"
)

// Config tunes a Batcher's periodic cycle.
type Config struct {
	PollInterval     time.Duration
	MinPendingEvents int
	BatchLimit       int
	BatchMode        string // "oldest" | "latest"
	AnchorChain      string
}

// Batcher runs the periodic batch/anchor cycle over the audit store.
type Batcher struct {
	events  *audit.EventRepository
	batches *audit.BatchRepository
	anchors *audit.AnchorRepository
	writer  adapters.AnchorWriter
	cfg     Config
	logger  *log.Logger
}

// New constructs a Batcher. writer publishes each committed root to its
// target ledger; pass an *adapters.MockAnchorWriter when no real chain RPC
// is configured.
func New(events *audit.EventRepository, batches *audit.BatchRepository, anchors *audit.AnchorRepository, writer adapters.AnchorWriter, cfg Config) *Batcher {
	return &Batcher{
		events:  events,
		batches: batches,
		anchors: anchors,
		writer:  writer,
		cfg:     cfg,
		logger:  log.New(log.Writer(), "[Batcher] ", log.LstdFlags),
	}
}

// MakeBatch selects up to limit unproven events in mode order, builds a
// Merkle tree over their details_hash leaves, and persists the resulting
// batch and proofs atomically. It returns (nil, nil) when there is nothing
// to batch.
func (b *Batcher) MakeBatch(ctx context.Context, limit int, mode string, minBlock *int64) (*audit.MerkleBatch, error) {
	order := audit.SortOldest
	if mode == "latest" {
		order = audit.SortLatest
	}

	events, err := b.events.SelectUnproven(ctx, limit, order, minBlock)
	if err != nil {
		return nil, fmt.Errorf("make batch: select unproven: %w", err)
	}

	type candidate struct {
		event *audit.AuditEvent
		leaf  []byte
	}

	var candidates []candidate
	for _, e := range events {
		leafHex := e.DetailsHash
		if merkle.NormalizeHex(leafHex) == "" {
			leafHex = e.EventID // fallback to tx_hash
		}
		leaf, err := merkle.LeafFromHex(leafHex)
		if err != nil {
			b.logger.Printf("discarding event %s: invalid leaf hash: %v", e.EventID, err)
			continue
		}
		candidates = append(candidates, candidate{event: e, leaf: leaf})
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	leaves := make([][]byte, len(candidates))
	for i, c := range candidates {
		leaves[i] = c.leaf
	}

	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		return nil, fmt.Errorf("make batch: build tree: %w", err)
	}

	batchID := NewBatchID()
	merkleBatch := &audit.MerkleBatch{
		BatchID:    batchID,
		MerkleRoot: tree.RootHex(),
		LeafCount:  len(candidates),
	}

	proofs := make([]*audit.EventProof, 0, len(candidates))
	for i, c := range candidates {
		proof, err := tree.GenerateProof(i)
		if err != nil {
			return nil, fmt.Errorf("make batch: generate proof for %s: %w", c.event.EventID, err)
		}

		path := make([]audit.ProofPathNode, len(proof.Path))
		for j, node := range proof.Path {
			path[j] = audit.ProofPathNode{Hash: node.Hash, Pos: string(node.Position)}
		}

		proofs = append(proofs, &audit.EventProof{
			EventID:   c.event.EventID,
			BatchID:   batchID,
			LeafIndex: i,
			ProofPath: path,
		})
	}

	if err := b.batches.InsertBatch(ctx, merkleBatch, proofs); err != nil {
		return nil, fmt.Errorf("make batch: persist: %w", err)
	}

	if _, err := b.AnchorBatch(ctx, batchID, b.cfg.AnchorChain); err != nil {
		// Anchoring failures are non-fatal: the batch remains queryable
		// and anchor_status reports not_anchored.
		b.logger.Printf("anchor failed for batch %s: %v", batchID, err)
	}

	return merkleBatch, nil
}

// AnchorBatch publishes batchID's root to chain. It is idempotent on
// (batch_id, chain): repeated calls reuse anchor_prefix||batch_id as the
// tx hash and never overwrite an already-set anchored_at.
func (b *Batcher) AnchorBatch(ctx context.Context, batchID, chain string) (*audit.AnchorRecord, error) {
	if chain == "" {
		chain = b.cfg.AnchorChain
	}

	txHash, _, err := b.writer.Anchor(ctx, batchID, chain)
	if err != nil {
		metrics.AnchorFailures.Inc()
		return nil, fmt.Errorf("anchor batch: write anchor: %w", err)
	}

	if err := b.anchors.UpsertAnchor(ctx, batchID, chain, txHash, audit.AnchorStatusAnchored); err != nil {
		metrics.AnchorFailures.Inc()
		return nil, fmt.Errorf("anchor batch: %w", err)
	}
	if err := b.batches.SetAnchoredTx(ctx, batchID, txHash); err != nil {
		return nil, fmt.Errorf("anchor batch: set anchored tx: %w", err)
	}

	return b.anchors.AnchorStatusFor(ctx, batchID, chain)
}

// AnchorStatus returns the anchor record for (batchID, chain).
func (b *Batcher) AnchorStatus(ctx context.Context, batchID, chain string) (*audit.AnchorRecord, error) {
	return b.anchors.AnchorStatusFor(ctx, batchID, chain)
}

// RunCycle performs one threshold-gated batch attempt: if fewer than
// MinPendingEvents are pending, it returns without work.
func (b *Batcher) RunCycle(ctx context.Context) (*audit.MerkleBatch, error) {
	pending, err := b.events.CountUnproven(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("run cycle: count pending: %w", err)
	}
	metrics.PendingEvents.Set(float64(pending))
	if pending < b.cfg.MinPendingEvents {
		return nil, nil
	}
	batch, err := b.MakeBatch(ctx, b.cfg.BatchLimit, b.cfg.BatchMode, nil)
	if err == nil && batch != nil {
		metrics.BatchesCreated.Inc()
	}
	return batch, err
}

// Run drives RunCycle on cfg.PollInterval until ctx is cancelled.
func (b *Batcher) Run(ctx context.Context) {
	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()

	for {
		batch, err := b.RunCycle(ctx)
		if err != nil {
			b.logger.Printf("cycle error: %v", err)
		} else if batch != nil {
			b.logger.Printf("created batch %s (leaves=%d root=%s)", batch.BatchID, batch.LeafCount, batch.MerkleRoot)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
