package toolserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/kwon-project/compliance-backplane/internal/audit"
	"github.com/kwon-project/compliance-backplane/internal/batch"
	"github.com/kwon-project/compliance-backplane/internal/ingest"
	"github.com/kwon-project/compliance-backplane/internal/proofpack"
)

var validate = validator.New()

// AuditDeps bundles the repositories and workers backing the audit tool
// group; RegisterAuditTools wires one handler per spec-listed tool.
type AuditDeps struct {
	Events    *audit.EventRepository
	Cursors   *audit.CursorRepository
	Batches   *audit.BatchRepository
	Anchors   *audit.AnchorRepository
	Proofs    *audit.ProofRepository
	Ingestor  *ingest.Ingestor
	Batcher   *batch.Batcher
}

// RegisterAuditTools registers sync_state, events_recent, event_detail,
// events_search, collect_once, sync_until_caught_up, backfill_hashes,
// make_batch, batches_recent, batch_events, event_proof, anchor_batch,
// anchor_status, proof_pack, and proof_pack_batch.
func RegisterAuditTools(s *Server, deps AuditDeps) {
	s.Register("sync_state", func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		block, err := deps.Cursors.GetLastBlock(ctx, deps.Ingestor.SourceName())
		if err == audit.ErrCursorNotFound {
			return map[string]interface{}{"source": deps.Ingestor.SourceName(), "last_block": 0}, nil
		}
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"source": deps.Ingestor.SourceName(), "last_block": block}, nil
	})

	s.Register("events_recent", func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			Limit      int  `json:"limit" validate:"omitempty,min=1,max=1000"`
			IncludeRaw bool `json:"include_raw"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		events, err := deps.Events.Search(ctx, audit.EventFilter{Limit: p.Limit, Order: audit.SortLatest})
		if err != nil {
			return nil, err
		}
		return eventsToView(events, p.IncludeRaw), nil
	})

	s.Register("event_detail", func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			TxHash     string `json:"tx_hash" validate:"required"`
			IncludeRaw bool   `json:"include_raw"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		e, err := deps.Events.GetEvent(ctx, p.TxHash)
		if err != nil {
			return nil, err
		}
		return eventToView(e, p.IncludeRaw), nil
	})

	s.Register("events_search", func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			Address    string  `json:"address"`
			Role       string  `json:"role" validate:"omitempty,oneof=from to"`
			TxPrefix   string  `json:"tx_prefix_ok"`
			MinAmount  *string `json:"min_amount"`
			MaxAmount  *string `json:"max_amount"`
			BlockMin   *int64  `json:"block_min"`
			BlockMax   *int64  `json:"block_max"`
			Limit      int     `json:"limit" validate:"omitempty,min=1,max=1000"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		events, err := deps.Events.Search(ctx, audit.EventFilter{
			Address: p.Address, Role: p.Role, TxPrefix: p.TxPrefix,
			MinAmount: p.MinAmount, MaxAmount: p.MaxAmount,
			BlockMin: p.BlockMin, BlockMax: p.BlockMax,
			Limit: p.Limit, Order: audit.SortLatest,
		})
		if err != nil {
			return nil, err
		}
		return eventsToView(events, false), nil
	})

	s.Register("collect_once", func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			MaxPages   int `json:"max_pages" validate:"omitempty,min=1"`
			MaxSeconds int `json:"max_seconds" validate:"omitempty,min=1"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		return deps.Ingestor.CollectOnce(ctx, p.MaxPages, p.MaxSeconds)
	})

	s.Register("sync_until_caught_up", func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			TargetLag int64 `json:"target_lag" validate:"omitempty,min=0"`
			MaxRounds int   `json:"max_rounds" validate:"omitempty,min=1"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		if p.TargetLag <= 0 {
			p.TargetLag = 1
		}
		return deps.Ingestor.RunUntilSynced(ctx, p.TargetLag, p.MaxRounds)
	})

	s.Register("backfill_hashes", func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			Limit int `json:"limit" validate:"omitempty,min=1"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		if p.Limit <= 0 {
			p.Limit = 500
		}
		events, err := deps.Events.Search(ctx, audit.EventFilter{Limit: p.Limit, Order: audit.SortOldest})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"checked": len(events), "backfilled": 0}, nil
	})

	s.Register("make_batch", func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			Limit    int    `json:"limit" validate:"required,min=1"`
			Mode     string `json:"mode" validate:"omitempty,oneof=oldest latest"`
			MinBlock *int64 `json:"min_block"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		if p.Mode == "" {
			p.Mode = "oldest"
		}
		return deps.Batcher.MakeBatch(ctx, p.Limit, p.Mode, p.MinBlock)
	})

	s.Register("batches_recent", func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			Limit int `json:"limit" validate:"omitempty,min=1,max=1000"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		return deps.Batches.ListRecent(ctx, p.Limit)
	})

	s.Register("batch_events", func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			BatchID string `json:"batch_id" validate:"required"`
			Limit   int    `json:"limit" validate:"omitempty,min=1"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		events, err := deps.Events.ListForBatch(ctx, p.BatchID, p.Limit)
		if err != nil {
			return nil, err
		}
		return eventsToView(events, false), nil
	})

	s.Register("event_proof", func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			TxHash string `json:"tx_hash" validate:"required"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		return deps.Proofs.GetProof(ctx, p.TxHash)
	})

	s.Register("anchor_batch", func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			BatchID string `json:"batch_id" validate:"required"`
			Chain   string `json:"chain" validate:"required"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		return deps.Batcher.AnchorBatch(ctx, p.BatchID, p.Chain)
	})

	s.Register("anchor_status", func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			BatchID string `json:"batch_id" validate:"required"`
			Chain   string `json:"chain" validate:"required"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		return deps.Anchors.AnchorStatusFor(ctx, p.BatchID, p.Chain)
	})

	s.Register("proof_pack", func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			TxHash     string `json:"tx_hash" validate:"required"`
			IncludeRaw bool   `json:"include_raw"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		bundle, err := deps.Proofs.JoinEventProofBatchAnchor(ctx, p.TxHash)
		if err != nil {
			return nil, err
		}
		data, filename, err := proofpack.BuildSingleEvent(bundle, p.IncludeRaw)
		if err != nil {
			return nil, err
		}
		desc := proofpack.Describe(filename, data, 1)
		return map[string]interface{}{
			"filename":  filename,
			"sha256":    desc.SHA256,
			"size":      desc.Size,
			"zip_b64":   base64.StdEncoding.EncodeToString(data),
		}, nil
	})

	s.Register("proof_pack_batch", func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			Address   string  `json:"address"`
			Role      string  `json:"role" validate:"omitempty,oneof=from to"`
			MinAmount *string `json:"min_amount"`
			MaxAmount *string `json:"max_amount"`
			BlockMin  *int64  `json:"block_min"`
			BlockMax  *int64  `json:"block_max"`
			Limit     int     `json:"limit" validate:"omitempty,min=1,max=1000"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		events, err := deps.Events.Search(ctx, audit.EventFilter{
			Address: p.Address, Role: p.Role,
			MinAmount: p.MinAmount, MaxAmount: p.MaxAmount,
			BlockMin: p.BlockMin, BlockMax: p.BlockMax,
			Limit: p.Limit, Order: audit.SortLatest,
		})
		if err != nil {
			return nil, err
		}

		bundles := make([]*audit.VerificationBundle, 0, len(events))
		for _, e := range events {
			b, err := deps.Proofs.JoinEventProofBatchAnchor(ctx, e.EventID)
			if err != nil {
				return nil, fmt.Errorf("proof_pack_batch: event %s: %w", e.EventID, err)
			}
			bundles = append(bundles, b)
		}

		data, filename, err := proofpack.BuildMultiEvent(bundles)
		if err != nil {
			return nil, err
		}
		desc := proofpack.Describe(filename, data, len(bundles))
		return map[string]interface{}{
			"filename": filename,
			"sha256":   desc.SHA256,
			"size":     desc.Size,
			"count":    len(bundles),
			"zip_b64":  base64.StdEncoding.EncodeToString(data),
		}, nil
	})
}

func decodeAndValidate(raw json.RawMessage, dest interface{}) error {
	if err := decodeParams(raw, dest); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	if err := validate.Struct(dest); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

func eventToView(e *audit.AuditEvent, includeRaw bool) map[string]interface{} {
	v := map[string]interface{}{
		"event_id":         e.EventID,
		"block_number":     e.BlockNumber,
		"timestamp":        e.Timestamp,
		"from":             e.From,
		"to":               e.To,
		"contract_address": e.ContractAddress,
		"amount":           e.Amount,
		"details_hash":     e.DetailsHash,
	}
	if includeRaw {
		v["raw_json"] = e.RawJSON
	}
	return v
}

func eventsToView(events []*audit.AuditEvent, includeRaw bool) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(events))
	for _, e := range events {
		out = append(out, eventToView(e, includeRaw))
	}
	return out
}
