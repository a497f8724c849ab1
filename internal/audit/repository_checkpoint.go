package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// CheckpointRepository persists orchestrator workflow state keyed by
// thread_id, giving the monthly orchestrator's human-review interrupt
// point durable, at-least-once resume semantics.
type CheckpointRepository struct {
	db *sql.DB
}

// NewCheckpointRepository constructs a CheckpointRepository over the
// given client.
func NewCheckpointRepository(c *Client) *CheckpointRepository {
	return &CheckpointRepository{db: c.db}
}

// Get loads the checkpointed state for threadID, unmarshalling into out.
func (r *CheckpointRepository) Get(ctx context.Context, threadID string, out interface{}) error {
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT state_json FROM orchestrator_checkpoints WHERE thread_id = $1`, threadID).Scan(&raw)
	if err == sql.ErrNoRows {
		return ErrCheckpointNotFound
	}
	if err != nil {
		return fmt.Errorf("get checkpoint: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("get checkpoint: decode state: %w", err)
	}
	return nil
}

// Update persists state for threadID, creating the checkpoint row on
// first call.
func (r *CheckpointRepository) Update(ctx context.Context, threadID string, state interface{}) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("update checkpoint: encode state: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO orchestrator_checkpoints (thread_id, state_json, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (thread_id) DO UPDATE
		SET state_json = EXCLUDED.state_json, updated_at = now()
	`, threadID, raw)
	if err != nil {
		return fmt.Errorf("update checkpoint: %w", err)
	}
	return nil
}
