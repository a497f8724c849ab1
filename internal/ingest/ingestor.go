package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/kwon-project/compliance-backplane/internal/audit"
	"github.com/kwon-project/compliance-backplane/internal/merkle"
	"github.com/kwon-project/compliance-backplane/internal/metrics"
)

// Config tunes a single Ingestor's poll cycle.
type Config struct {
	SourceName     string
	PollInterval   time.Duration
	RateSleep      time.Duration
	MaxPages       int
	MaxSeconds     int
	SafeLagBlocks  int64
}

// Ingestor polls one Source on a cycle, computing details_hash for each row
// and committing it via the audit store with duplicate-safe semantics.
type Ingestor struct {
	source  Source
	events  *audit.EventRepository
	cursors *audit.CursorRepository
	cfg     Config
	logger  *log.Logger
}

// New constructs an Ingestor.
func New(source Source, events *audit.EventRepository, cursors *audit.CursorRepository, cfg Config) *Ingestor {
	return &Ingestor{
		source:  source,
		events:  events,
		cursors: cursors,
		cfg:     cfg,
		logger:  log.New(log.Writer(), fmt.Sprintf("[Ingestor:%s] ", cfg.SourceName), log.LstdFlags),
	}
}

// SourceName returns the configured source identifier used as the
// sync_cursors key.
func (in *Ingestor) SourceName() string {
	return in.cfg.SourceName
}

// CycleResult summarizes one collect_once call.
type CycleResult struct {
	Inserted int
	Skipped  int
	Pages    int
}

// CollectOnce runs exactly one ingestion cycle bounded by maxPages and
// maxSeconds, overriding the Ingestor's configured defaults when positive.
func (in *Ingestor) CollectOnce(ctx context.Context, maxPages, maxSeconds int) (*CycleResult, error) {
	if maxPages <= 0 {
		maxPages = in.cfg.MaxPages
	}
	if maxSeconds <= 0 {
		maxSeconds = in.cfg.MaxSeconds
	}

	last, err := in.cursors.GetLastBlock(ctx, in.cfg.SourceName)
	if err == audit.ErrCursorNotFound {
		last, err = in.events.MaxBlock(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("collect once: load cursor: %w", err)
	}

	deadline := time.Now().Add(time.Duration(maxSeconds) * time.Second)
	result := &CycleResult{}
	maxBlockSeen := last

	for page := 1; page <= maxPages; page++ {
		if time.Now().After(deadline) {
			break
		}

		rows, headBlock, err := in.source.FetchPage(ctx, last+1, page)
		if err != nil {
			// UpstreamUnavailable: log and end the cycle gracefully; the
			// cursor is never rewound.
			in.logger.Printf("upstream fetch failed on page %d: %v", page, err)
			break
		}
		result.Pages = page

		if len(rows) == 0 {
			if in.source.Paginated() && in.cfg.SafeLagBlocks > 0 {
				safe := maxBlockSeen
				if headBlock > 0 {
					safe = headBlock - in.cfg.SafeLagBlocks
				}
				if safe > last {
					last = safe
					if err := in.cursors.SetLastBlock(ctx, in.cfg.SourceName, last); err != nil {
						return result, fmt.Errorf("collect once: persist cursor: %w", err)
					}
				}
			}
			break
		}

		pageMaxBlock := maxBlockSeen
		for _, row := range rows {
			blockNum, perr := strconv.ParseInt(row.BlockNumber, 10, 64)
			if perr != nil {
				result.Skipped++
				continue
			}

			if err := in.commitRow(ctx, row, blockNum); err != nil {
				if err == audit.ErrDuplicateEvent {
					result.Skipped++
				} else {
					in.logger.Printf("row insert failed for %s: %v", row.Hash, err)
					result.Skipped++
				}
				continue
			}
			result.Inserted++

			if blockNum > pageMaxBlock {
				pageMaxBlock = blockNum
			}
		}

		if pageMaxBlock > maxBlockSeen {
			maxBlockSeen = pageMaxBlock
		}
		// One-block safety margin: never advance the cursor past the
		// highest block that might still receive more rows in this page.
		if maxBlockSeen-1 > last {
			last = maxBlockSeen - 1
			if err := in.cursors.SetLastBlock(ctx, in.cfg.SourceName, last); err != nil {
				return result, fmt.Errorf("collect once: persist cursor: %w", err)
			}
		}

		if in.cfg.RateSleep > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(in.cfg.RateSleep):
			}
		}
	}

	if maxBlockSeen > last {
		if err := in.cursors.SetLastBlock(ctx, in.cfg.SourceName, maxBlockSeen); err != nil {
			return result, fmt.Errorf("collect once: final cursor persist: %w", err)
		}
	}

	metrics.EventsIngested.WithLabelValues(in.cfg.SourceName).Add(float64(result.Inserted))
	metrics.EventsSkipped.WithLabelValues(in.cfg.SourceName).Add(float64(result.Skipped))

	return result, nil
}

func (in *Ingestor) commitRow(ctx context.Context, row TransferRow, blockNum int64) error {
	ts, err := strconv.ParseInt(row.TimeStamp, 10, 64)
	if err != nil {
		ts = 0
	}

	detailsHash := merkle.DetailsHash(merkle.TransferFields{
		Hash:            row.Hash,
		BlockNumber:     row.BlockNumber,
		TimeStamp:       row.TimeStamp,
		From:            row.From,
		To:              row.To,
		ContractAddress: row.ContractAddress,
		Value:           row.Value,
		TokenDecimal:    row.TokenDecimal,
	})

	raw, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal raw row: %w", err)
	}

	return in.events.AppendEvent(ctx, &audit.AuditEvent{
		EventID:         row.Hash,
		BlockNumber:     blockNum,
		Timestamp:       time.Unix(ts, 0).UTC(),
		From:            row.From,
		To:              row.To,
		ContractAddress: row.ContractAddress,
		Amount:          row.Value,
		RawJSON:         raw,
		DetailsHash:     detailsHash,
	})
}

// SyncResult summarizes a run_until_synced loop.
type SyncResult struct {
	Rounds   int
	LastLag  int64
	LagKnown bool
	Reached  bool
}

// RunUntilSynced repeats CollectOnce until the source's reported chain head
// is within targetLag blocks of the committed cursor, or maxRounds cycles
// have run (0 means unbounded). When the source doesn't implement
// ChainHeadSource — the local full-array backend never does — lag stays
// unknown for the whole run and only maxRounds stops it, the same fallback
// the original collector's run_until_synced takes in local mode.
func (in *Ingestor) RunUntilSynced(ctx context.Context, targetLag int64, maxRounds int) (*SyncResult, error) {
	result := &SyncResult{}
	headSrc, reportsHead := in.source.(ChainHeadSource)

	for {
		if _, err := in.CollectOnce(ctx, 0, 0); err != nil {
			return result, fmt.Errorf("run until synced: %w", err)
		}
		result.Rounds++

		if reportsHead {
			if head, err := headSrc.ChainHead(ctx); err != nil {
				in.logger.Printf("chain head lookup failed: %v", err)
			} else if head > 0 {
				if last, cerr := in.cursors.GetLastBlock(ctx, in.cfg.SourceName); cerr == nil && last > 0 {
					lag := head - last
					result.LastLag = lag
					result.LagKnown = true
					in.logger.Printf("sync status: head=%d cursor=%d lag=%d", head, last, lag)
					if lag <= targetLag {
						result.Reached = true
						return result, nil
					}
				}
			}
		}

		if maxRounds > 0 && result.Rounds >= maxRounds {
			return result, nil
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(in.cfg.PollInterval):
		}
	}
}

// Run polls on cfg.PollInterval until ctx is cancelled.
func (in *Ingestor) Run(ctx context.Context) {
	ticker := time.NewTicker(in.cfg.PollInterval)
	defer ticker.Stop()

	for {
		result, err := in.CollectOnce(ctx, 0, 0)
		if err != nil {
			in.logger.Printf("cycle error: %v", err)
		} else {
			in.logger.Printf("cycle complete: inserted=%d skipped=%d pages=%d", result.Inserted, result.Skipped, result.Pages)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
