package orchestrator

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"testing"

	"github.com/kwon-project/compliance-backplane/internal/adapters"
	"github.com/kwon-project/compliance-backplane/internal/audit"
	"github.com/kwon-project/compliance-backplane/internal/report"
)

type memCheckpoints struct {
	states map[string][]byte
}

func newMemCheckpoints() *memCheckpoints {
	return &memCheckpoints{states: map[string][]byte{}}
}

func (m *memCheckpoints) Get(_ context.Context, threadID string, out interface{}) error {
	raw, ok := m.states[threadID]
	if !ok {
		return audit.ErrCheckpointNotFound
	}
	return json.Unmarshal(raw, out)
}

func (m *memCheckpoints) Update(_ context.Context, threadID string, state interface{}) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.states[threadID] = raw
	return nil
}

type memReviews struct {
	tasks map[string]*audit.HumanReviewTask
}

func newMemReviews() *memReviews {
	return &memReviews{tasks: map[string]*audit.HumanReviewTask{}}
}

func (m *memReviews) Create(_ context.Context, t *audit.HumanReviewTask) error {
	m.tasks[t.ID] = t
	return nil
}

func (m *memReviews) GetByFlowRunID(_ context.Context, flowRunID string) (*audit.HumanReviewTask, error) {
	for _, t := range m.tasks {
		if t.FlowRunID == flowRunID && (t.Status == audit.ReviewPending || t.Status == audit.ReviewRevised) {
			return t, nil
		}
	}
	return nil, audit.ErrNotFound
}

func (m *memReviews) ApplyDecision(_ context.Context, id, decision, comment, reviewer string, nextStatus audit.ReviewStatus, bumpRevision bool) error {
	t, ok := m.tasks[id]
	if !ok {
		return audit.ErrNotFound
	}
	t.Status = nextStatus
	t.LastDecision = decision
	t.Comment = comment
	if bumpRevision {
		t.RevisionCount++
	}
	return nil
}

type fixedMetrics struct {
	m adapters.MonthlyMetrics
}

func (f fixedMetrics) LoadMetrics(_ context.Context, period string) (*adapters.MonthlyMetrics, error) {
	m := f.m
	return &m, nil
}

type countingNotifier struct {
	reviewCalls   int
	decisionCalls []string
}

func (n *countingNotifier) NotifyHumanReview(_ context.Context, taskID, period, reportURL string, summary map[string]interface{}) error {
	n.reviewCalls++
	return nil
}

func (n *countingNotifier) NotifyDecision(_ context.Context, taskID, period, decision, comment, reportPath string) error {
	n.decisionCalls = append(n.decisionCalls, decision)
	return nil
}

func newTestWorkflow(t *testing.T, notifier *countingNotifier) (*Workflow, *memCheckpoints, *memReviews) {
	t.Helper()
	cps := newMemCheckpoints()
	revs := newMemReviews()
	// Tuned to reproduce the A/B/A/B/A dimension pattern with an "ok"
	// consistency check: collateral=A, peg=B, disclosure=A, liquidity=B,
	// por=A, final_grade=B.
	metrics := fixedMetrics{m: adapters.MonthlyMetrics{
		AvgCollateralRatio: 1.09, MinCollateralRatio: 1.06,
		AvgPegDeviation: 0.003, PegAlertCount: 1,
		AvgLiquidityRatio: 1.10,
		AvgPorFailureRate: 0.0005,
		DaysCovered: 30, TotalDays: 30, LastUpdateHoursAgo: 2,
		CollateralSamples: 30, DisclosureSamples: 30,
	}}
	w := &Workflow{
		checkpoints:  cps,
		reviews:      revs,
		metrics:      metrics,
		notifier:     notifier,
		writer:       report.New(""),
		artifactsDir: t.TempDir(),
	}
	w.logger = log.New(io.Discard, "", 0)
	return w, cps, revs
}

func TestWorkflow_HappyPathApprove(t *testing.T) {
	notifier := &countingNotifier{}
	w, _, reviews := newTestWorkflow(t, notifier)
	ctx := context.Background()

	threadID, status, err := w.Run(ctx, "2025-10", 3, 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status != "awaiting_review" {
		t.Fatalf("status = %q, want awaiting_review", status)
	}
	if notifier.reviewCalls != 1 {
		t.Fatalf("reviewCalls = %d, want 1", notifier.reviewCalls)
	}

	task, err := reviews.GetByFlowRunID(ctx, threadID)
	if err != nil {
		t.Fatalf("GetByFlowRunID: %v", err)
	}
	if task.Status != audit.ReviewPending {
		t.Fatalf("task status = %q, want pending", task.Status)
	}

	var state MonthlyState
	if err := w.checkpoints.Get(ctx, threadID, &state); err != nil {
		t.Fatalf("Get checkpoint: %v", err)
	}
	if state.Consistency.Status != "ok" {
		t.Fatalf("consistency = %q, want ok", state.Consistency.Status)
	}
	if state.Summary.FinalGrade != GradeB {
		t.Fatalf("final_grade = %q, want B", state.Summary.FinalGrade)
	}

	status, err = w.Resume(ctx, threadID, "approve", "")
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if status != "approved" {
		t.Fatalf("resume status = %q, want approved", status)
	}
	if len(notifier.decisionCalls) != 1 || notifier.decisionCalls[0] != "approve" {
		t.Fatalf("decisionCalls = %v", notifier.decisionCalls)
	}
}

func TestWorkflow_ReviseLoopReachesLimit(t *testing.T) {
	notifier := &countingNotifier{}
	w, _, _ := newTestWorkflow(t, notifier)
	ctx := context.Background()

	threadID, _, err := w.Run(ctx, "2025-10", 3, 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for i := 1; i <= 3; i++ {
		status, err := w.Resume(ctx, threadID, "revise", "redo collateral")
		if err != nil {
			t.Fatalf("Resume revise %d: %v", i, err)
		}
		if status != "revised" {
			t.Fatalf("revise %d status = %q, want revised", i, status)
		}

		var state MonthlyState
		if err := w.checkpoints.Get(ctx, threadID, &state); err != nil {
			t.Fatalf("Get checkpoint: %v", err)
		}
		if state.RevisionCount != i {
			t.Fatalf("revision_count after revise %d = %d, want %d", i, state.RevisionCount, i)
		}
	}

	status, err := w.Resume(ctx, threadID, "revise", "one too many")
	if err != nil {
		t.Fatalf("Resume final revise: %v", err)
	}
	if status != "limit_reached" {
		t.Fatalf("status = %q, want limit_reached", status)
	}

	var final MonthlyState
	if err := w.checkpoints.Get(ctx, threadID, &final); err != nil {
		t.Fatalf("Get checkpoint: %v", err)
	}
	if final.RevisionCount != 3 {
		t.Fatalf("final revision_count = %d, want 3 (unchanged past limit)", final.RevisionCount)
	}
	if final.Summary.FinalGrade != GradePending {
		t.Fatalf("final_grade = %q, want PENDING", final.Summary.FinalGrade)
	}
	if final.Summary.RevisionStatus != "limit_reached" {
		t.Fatalf("revision_status = %q, want limit_reached", final.Summary.RevisionStatus)
	}
	if !final.Terminal {
		t.Fatalf("expected terminal state at revision limit")
	}

	last := notifier.decisionCalls[len(notifier.decisionCalls)-1]
	if last != "revise" {
		t.Fatalf("last decision notification = %q, want revise", last)
	}
}

func TestWorkflow_DataQualityFailTerminatesWithoutReview(t *testing.T) {
	notifier := &countingNotifier{}
	w, _, _ := newTestWorkflow(t, notifier)
	w.metrics = fixedMetrics{m: adapters.MonthlyMetrics{
		DaysCovered: 3, TotalDays: 30, LastUpdateHoursAgo: 1,
	}}

	threadID, status, err := w.Run(context.Background(), "2025-11", 3, 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status != "data_quality_fail" {
		t.Fatalf("status = %q, want data_quality_fail", status)
	}
	if notifier.reviewCalls != 0 {
		t.Fatalf("expected no human review to be requested, got %d calls", notifier.reviewCalls)
	}
	if threadID == "" {
		t.Fatalf("expected a thread id even on terminal failure")
	}
}
