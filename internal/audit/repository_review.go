package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// ReviewStatus enumerates a HumanReviewTask's lifecycle.
type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "pending"
	ReviewApproved  ReviewStatus = "approved"
	ReviewRejected  ReviewStatus = "rejected"
	ReviewRevised   ReviewStatus = "revised"
	ReviewCompleted ReviewStatus = "completed"
)

// HumanReviewTask externalizes an in-flight workflow awaiting approval.
type HumanReviewTask struct {
	ID             string          `json:"id"`
	Period         string          `json:"period"`
	Status         ReviewStatus    `json:"status"`
	ReportPath     string          `json:"report_path,omitempty"`
	SummaryJSON    json.RawMessage `json:"summary_json,omitempty"`
	FlowRunID      string          `json:"flow_run_id"`
	CheckpointID   string          `json:"checkpoint_id"`
	RevisionCount  int             `json:"revision_count"`
	LastDecision   string          `json:"last_decision,omitempty"`
	Reviewer       string          `json:"reviewer,omitempty"`
	Comment        string          `json:"comment,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ReviewRepository persists HumanReviewTask rows.
type ReviewRepository struct {
	db *sql.DB
}

// NewReviewRepository constructs a ReviewRepository over the given client.
func NewReviewRepository(c *Client) *ReviewRepository {
	return &ReviewRepository{db: c.db}
}

// Create inserts a new review task in "pending" status.
func (r *ReviewRepository) Create(ctx context.Context, t *HumanReviewTask) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO human_review_tasks
			(id, period, status, report_path, summary_json, flow_run_id,
			 checkpoint_id, revision_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, t.ID, t.Period, t.Status, t.ReportPath, []byte(t.SummaryJSON), t.FlowRunID,
		t.CheckpointID, t.RevisionCount)
	if err != nil {
		return fmt.Errorf("create review task: %w", err)
	}
	return nil
}

// Get fetches a task by id.
func (r *ReviewRepository) Get(ctx context.Context, id string) (*HumanReviewTask, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, period, status, report_path, summary_json, flow_run_id,
		       checkpoint_id, revision_count, last_decision, reviewer, comment,
		       created_at, updated_at
		FROM human_review_tasks WHERE id = $1
	`, id)
	return scanReviewTask(row)
}

// GetByFlowRunID fetches the currently open (pending/revised) task for a
// flow run, per the invariant that exactly one exists at a time.
func (r *ReviewRepository) GetByFlowRunID(ctx context.Context, flowRunID string) (*HumanReviewTask, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, period, status, report_path, summary_json, flow_run_id,
		       checkpoint_id, revision_count, last_decision, reviewer, comment,
		       created_at, updated_at
		FROM human_review_tasks
		WHERE flow_run_id = $1 AND status IN ('pending', 'revised')
	`, flowRunID)
	return scanReviewTask(row)
}

// ListByStatus returns tasks with the given status, newest first.
func (r *ReviewRepository) ListByStatus(ctx context.Context, status ReviewStatus) ([]*HumanReviewTask, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, period, status, report_path, summary_json, flow_run_id,
		       checkpoint_id, revision_count, last_decision, reviewer, comment,
		       created_at, updated_at
		FROM human_review_tasks
		WHERE status = $1
		ORDER BY created_at DESC
	`, status)
	if err != nil {
		return nil, fmt.Errorf("list review tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*HumanReviewTask
	for rows.Next() {
		t, err := scanReviewTask(rows)
		if err != nil {
			return nil, fmt.Errorf("list review tasks: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ApplyDecision records a review decision, incrementing revision_count on
// "revise" and updating status accordingly.
func (r *ReviewRepository) ApplyDecision(ctx context.Context, id, decision, comment, reviewer string, nextStatus ReviewStatus, bumpRevision bool) error {
	revisionExpr := "revision_count"
	if bumpRevision {
		revisionExpr = "revision_count + 1"
	}

	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE human_review_tasks
		SET status = $2, last_decision = $3, comment = $4, reviewer = $5,
		    revision_count = %s, updated_at = now()
		WHERE id = $1
	`, revisionExpr), id, nextStatus, decision, comment, reviewer)
	if err != nil {
		return fmt.Errorf("apply review decision: %w", err)
	}
	return nil
}

func scanReviewTask(row rowScanner) (*HumanReviewTask, error) {
	var t HumanReviewTask
	var reportPath, lastDecision, reviewer, comment sql.NullString
	var summary []byte

	err := row.Scan(&t.ID, &t.Period, &t.Status, &reportPath, &summary, &t.FlowRunID,
		&t.CheckpointID, &t.RevisionCount, &lastDecision, &reviewer, &comment,
		&t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	t.ReportPath = reportPath.String
	t.LastDecision = lastDecision.String
	t.Reviewer = reviewer.String
	t.Comment = comment.String
	if summary != nil {
		t.SummaryJSON = json.RawMessage(summary)
	}
	return &t, nil
}
