package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// CursorRepository persists per-source ingestion checkpoints.
type CursorRepository struct {
	db *sql.DB
}

// NewCursorRepository constructs a CursorRepository over the given client.
func NewCursorRepository(c *Client) *CursorRepository {
	return &CursorRepository{db: c.db}
}

// GetLastBlock returns the last_block for source, or ErrCursorNotFound if
// no cursor has been created for it yet.
func (r *CursorRepository) GetLastBlock(ctx context.Context, source string) (int64, error) {
	var last int64
	err := r.db.QueryRowContext(ctx,
		`SELECT last_block FROM sync_cursors WHERE source = $1`, source).Scan(&last)
	if err == sql.ErrNoRows {
		return 0, ErrCursorNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get last block: %w", err)
	}
	return last, nil
}

// SetLastBlock is idempotent and monotone: it never moves last_block
// backward, and creates the cursor row on first call for source.
func (r *CursorRepository) SetLastBlock(ctx context.Context, source string, n int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_cursors (source, last_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (source) DO UPDATE
		SET last_block = GREATEST(sync_cursors.last_block, EXCLUDED.last_block),
		    updated_at = now()
	`, source, n)
	if err != nil {
		return fmt.Errorf("set last block: %w", err)
	}
	return nil
}
