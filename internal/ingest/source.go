// Package ingest polls upstream transfer sources and commits new rows into
// the audit store, the way the teacher's block-range collector polls a
// chain RPC: a cursor, a bounded page loop, and duplicate-safe inserts.
package ingest

import "context"

// TransferRow is one upstream ERC-20 Transfer row, in the shape both the
// local backend and the Etherscan-style API return it.
type TransferRow struct {
	Hash            string
	BlockNumber     string
	TimeStamp       string
	From            string
	To              string
	ContractAddress string
	Value           string
	TokenDecimal    string
	Input           string // raw calldata; only the local backend populates this
}

// Source fetches transfer rows at or above startBlock. Implementations
// return an empty, non-error slice on an empty page; FetchPage never
// blocks past ctx's deadline.
type Source interface {
	// FetchPage returns rows for one page starting at startBlock. headBlock
	// is the upstream chain head if known (remote sources only); 0 means
	// unknown.
	FetchPage(ctx context.Context, startBlock int64, page int) (rows []TransferRow, headBlock int64, err error)

	// Paginated reports whether this source returns bounded pages (true,
	// remote mode) or the full result array in one call (false, local
	// mode) — callers use it to decide SAFE_LAG cursor handling.
	Paginated() bool
}

// ChainHeadSource is implemented by sources that can report the current
// chain head independently of a page fetch. A local full-array backend has
// no such notion and simply doesn't implement it; RunUntilSynced treats a
// source without this method the way the original collector treats local
// mode — lag stays unknown and only max_rounds bounds the loop.
type ChainHeadSource interface {
	ChainHead(ctx context.Context) (int64, error)
}
