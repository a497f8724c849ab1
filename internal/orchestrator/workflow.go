package orchestrator

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/kwon-project/compliance-backplane/internal/adapters"
	"github.com/kwon-project/compliance-backplane/internal/audit"
	"github.com/kwon-project/compliance-backplane/internal/metrics"
	"github.com/kwon-project/compliance-backplane/internal/report"
)

// maxRecheckDepth bounds the total cross_check_consistency recursion, per
// the requirement that the graph enforce a maximum total recursion depth
// of at least 100.
const maxRecheckDepth = 100

// checkpointStore is the subset of audit.CheckpointRepository the
// workflow needs; narrowed to an interface so it can be faked in tests.
type checkpointStore interface {
	Get(ctx context.Context, threadID string, out interface{}) error
	Update(ctx context.Context, threadID string, state interface{}) error
}

// reviewStore is the subset of audit.ReviewRepository the workflow needs.
type reviewStore interface {
	Create(ctx context.Context, t *audit.HumanReviewTask) error
	GetByFlowRunID(ctx context.Context, flowRunID string) (*audit.HumanReviewTask, error)
	ApplyDecision(ctx context.Context, id, decision, comment, reviewer string, nextStatus audit.ReviewStatus, bumpRevision bool) error
}

// Workflow drives the monthly compliance graph for one thread_id at a
// time; distinct thread_ids run independently and share only the
// checkpoint store.
type Workflow struct {
	checkpoints checkpointStore
	reviews     reviewStore
	metrics     adapters.MetricSource
	notifier    adapters.Notifier
	writer      *report.Writer
	artifactsDir string
	logger      *log.Logger
}

// New constructs a Workflow.
func New(checkpoints *audit.CheckpointRepository, reviews *audit.ReviewRepository, metrics adapters.MetricSource, notifier adapters.Notifier, writer *report.Writer, artifactsDir string) *Workflow {
	return &Workflow{
		checkpoints: checkpoints,
		reviews:     reviews,
		metrics:     metrics,
		notifier:    notifier,
		writer:      writer,
		artifactsDir: artifactsDir,
		logger:      log.New(log.Writer(), "[Orchestrator] ", log.LstdFlags),
	}
}

// Run starts a new workflow instance for period, running every stage up
// to and including the human_review interrupt, then persisting a
// checkpoint and returning its thread_id.
func (w *Workflow) Run(ctx context.Context, period string, maxRevisions, maxRetriesDataLoad int) (threadID string, status string, err error) {
	threadID = NewThreadID(period)
	state := NewMonthlyState(period, maxRevisions, maxRetriesDataLoad)

	state, terminalStatus := w.advance(ctx, state)
	metrics.WorkflowRuns.WithLabelValues(terminalStatus).Inc()

	if err := w.checkpoints.Update(ctx, threadID, state); err != nil {
		return "", "", fmt.Errorf("run: persist checkpoint: %w", err)
	}

	if state.Stage == "human_review" {
		if err := w.createReviewTask(ctx, threadID, state); err != nil {
			return "", "", fmt.Errorf("run: create review task: %w", err)
		}
	}

	return threadID, terminalStatus, nil
}

// Resume loads threadID's checkpoint, applies decision (approve | reject |
// revise | approve_with_comment), and continues the graph from
// human_review.
func (w *Workflow) Resume(ctx context.Context, threadID, decision, comment string) (status string, err error) {
	state := &MonthlyState{}
	if err := w.checkpoints.Get(ctx, threadID, state); err != nil {
		return "", fmt.Errorf("resume: %w", err)
	}

	state.HumanDecision = decision
	state.HumanFeedback = comment

	task, terr := w.reviews.GetByFlowRunID(ctx, threadID)
	taskID := threadID
	if terr == nil {
		taskID = task.ID
	}

	switch decision {
	case "approve", "approve_with_comment":
		if terr == nil {
			_ = w.reviews.ApplyDecision(ctx, task.ID, decision, comment, "", audit.ReviewApproved, false)
		}
		if err := w.notifier.NotifyDecision(ctx, taskID, state.Period, decision, comment, state.ReportPath); err != nil {
			w.logger.Printf("notify decision failed: %v", err)
		}
		state.Terminal = true
		state.Stage = "notify_approved_report"
		status = "approved"

	case "reject":
		if terr == nil {
			_ = w.reviews.ApplyDecision(ctx, task.ID, decision, comment, "", audit.ReviewRejected, false)
		}
		state.Terminal = true
		status = "rejected"

	case "revise":
		atLimit := state.RevisionCount >= state.MaxRevisions
		if !atLimit {
			state.RevisionCount++
		}
		state.Summary = summarizeConclusion(state, atLimit)

		reportPath, werr := w.writer.Write(ctx, state.Period, summaryContext(state), w.artifactsDir)
		if werr != nil {
			w.logger.Printf("report regeneration failed: %v", werr)
		} else {
			state.ReportPath = reportPath
		}

		if terr == nil {
			_ = w.reviews.ApplyDecision(ctx, task.ID, decision, comment, "", audit.ReviewRevised, !atLimit)
		}

		if state.Summary.RevisionStatus == "limit_reached" {
			if err := w.notifier.NotifyDecision(ctx, taskID, state.Period, decision, "revision limit reached", state.ReportPath); err != nil {
				w.logger.Printf("notify decision failed: %v", err)
			}
			state.Terminal = true
			status = "limit_reached"
		} else {
			state.Stage = "human_review"
			status = "revised"
		}

	default:
		return "", fmt.Errorf("resume: unknown decision %q", decision)
	}

	if err := w.checkpoints.Update(ctx, threadID, state); err != nil {
		return "", fmt.Errorf("resume: persist checkpoint: %w", err)
	}

	metrics.WorkflowRuns.WithLabelValues(status).Inc()
	return status, nil
}

// advance runs stages from state.Stage up to the human_review interrupt
// (or a terminal stage), returning the updated state and a coarse status
// string.
func (w *Workflow) advance(ctx context.Context, state *MonthlyState) (*MonthlyState, string) {
	state = loadPeriodData(ctx, w.metrics, state)

	for {
		switch dataQualityCheck(state) {
		case "retry":
			state.RetryCounts["data_load"]++
			if state.RetryCounts["data_load"] > state.MaxRetries["data_load"] {
				state.Summary = &Summary{FinalGrade: GradeD, KeyPoints: []string{"DATA_QUALITY_FAILURE"}}
				state.Terminal = true
				state.Stage = "data_quality_fail"
				return state, "data_quality_fail"
			}
			state = loadPeriodData(ctx, w.metrics, state)
			continue
		case "fail":
			state.Summary = &Summary{FinalGrade: GradeD, KeyPoints: []string{"DATA_QUALITY_FAILURE"}}
			state.Terminal = true
			state.Stage = "data_quality_fail"
			return state, "data_quality_fail"
		}
		break
	}

	// The five dimension graders only read raw_data and write to their own
	// field of state, so they run concurrently; cross_check_consistency
	// below is the synchronization point.
	var g errgroup.Group
	g.Go(func() error { state.Collateral = evalCollateral(state); return nil })
	g.Go(func() error { state.Peg = evalPeg(state); return nil })
	g.Go(func() error { state.Disclosure = evalDisclosure(state); return nil })
	g.Go(func() error { state.Liquidity = evalLiquidity(state); return nil })
	g.Go(func() error { state.Por = evalPor(state); return nil })
	_ = g.Wait()

	for depth := 0; depth < maxRecheckDepth; depth++ {
		state.Consistency = crossCheckConsistency(state)
		switch state.Consistency.Status {
		case "recheck_collateral":
			state.Collateral = evalCollateral(state)
		case "recheck_liquidity":
			state.Liquidity = evalLiquidity(state)
		default:
			goto consistent
		}
	}
consistent:

	state.Summary = summarizeConclusion(state, false)

	reportPath, err := w.writer.Write(ctx, state.Period, summaryContext(state), w.artifactsDir)
	if err != nil {
		w.logger.Printf("report generation failed: %v", err)
	} else {
		state.ReportPath = reportPath
	}

	state.Stage = "human_review"
	return state, "awaiting_review"
}

func (w *Workflow) createReviewTask(ctx context.Context, threadID string, state *MonthlyState) error {
	task := &audit.HumanReviewTask{
		ID:            threadID + "-task",
		Period:        state.Period,
		Status:        audit.ReviewPending,
		ReportPath:    state.ReportPath,
		FlowRunID:     threadID,
		CheckpointID:  threadID,
		RevisionCount: state.RevisionCount,
	}
	if err := w.reviews.Create(ctx, task); err != nil {
		return err
	}
	return w.notifier.NotifyHumanReview(ctx, task.ID, state.Period, state.ReportPath, map[string]interface{}{
		"final_grade": state.Summary.FinalGrade,
		"key_points":  state.Summary.KeyPoints,
	})
}

func summaryContext(s *MonthlyState) map[string]string {
	return map[string]string{
		"period":       s.Period,
		"final_grade":  string(s.Summary.FinalGrade),
		"collateral":   string(s.Collateral.Grade),
		"peg":          string(s.Peg.Grade),
		"disclosure":   string(s.Disclosure.Grade),
		"liquidity":    string(s.Liquidity.Grade),
		"por":          string(s.Por.Grade),
		"consistency":  s.Consistency.Status,
		"key_points":   joinLines(s.Summary.KeyPoints),
	}
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
