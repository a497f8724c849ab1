package toolserver

import (
	"context"
	"encoding/json"

	"github.com/kwon-project/compliance-backplane/internal/audit"
	"github.com/kwon-project/compliance-backplane/internal/orchestrator"
)

// OrchestratorDeps bundles the dependencies RegisterOrchestratorTools needs.
type OrchestratorDeps struct {
	Workflow          *orchestrator.Workflow
	Reviews           *audit.ReviewRepository
	MaxRevisions      int
	MaxRetriesDataLoad int
}

// RegisterOrchestratorTools registers run, review/submit, review/tasks,
// and review/tasks/detail (which takes the task id in its params).
func RegisterOrchestratorTools(s *Server, deps OrchestratorDeps) {
	s.Register("run", func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			Period string `json:"period" validate:"required"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		threadID, status, err := deps.Workflow.Run(ctx, p.Period, deps.MaxRevisions, deps.MaxRetriesDataLoad)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"task_id": threadID, "status": status}, nil
	})

	s.Register("review/submit", func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			ThreadID string `json:"thread_id" validate:"required"`
			Decision string `json:"decision" validate:"required,oneof=approve reject revise approve_with_comment"`
			Comment  string `json:"comment"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		status, err := deps.Workflow.Resume(ctx, p.ThreadID, p.Decision, p.Comment)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"thread_id": p.ThreadID, "status": status}, nil
	})

	s.Register("review/tasks", func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			Status string `json:"status" validate:"omitempty,oneof=pending approved rejected revised completed"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		if p.Status == "" {
			p.Status = string(audit.ReviewPending)
		}
		return deps.Reviews.ListByStatus(ctx, audit.ReviewStatus(p.Status))
	})

	s.Register("review/tasks/detail", func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			ID string `json:"id" validate:"required"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		return deps.Reviews.Get(ctx, p.ID)
	})
}
