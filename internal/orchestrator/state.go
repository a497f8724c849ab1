// Package orchestrator implements the monthly compliance workflow (C8): a
// directed graph of pure state-transition nodes, predicate-guarded
// conditional edges, a durable checkpoint at the human-review interrupt,
// and bounded retry/revise loops.
package orchestrator

import (
	"fmt"

	"github.com/google/uuid"
)

// NewThreadID returns a checkpoint key unique to one workflow run of
// period, of the form "<period>-<uuid>".
func NewThreadID(period string) string {
	return fmt.Sprintf("%s-%s", period, uuid.NewString())
}

// Grade enumerates the letter grades every evaluation dimension produces.
type Grade string

const (
	GradeA       Grade = "A"
	GradeB       Grade = "B"
	GradeC       Grade = "C"
	GradeD       Grade = "D"
	GradeF       Grade = "F"
	GradePending Grade = "PENDING"
)

// gradeRank maps a Grade to its ordinal for worst-of comparisons; higher
// is better.
var gradeRank = map[Grade]int{
	GradeA: 4, GradeB: 3, GradeC: 2, GradeD: 1, GradeF: 0,
}

// DimensionResult is the outcome of one evaluation stage.
type DimensionResult struct {
	Grade    Grade                  `json:"grade"`
	Metrics  map[string]interface{} `json:"metrics,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Fallback bool                   `json:"fallback,omitempty"`
	LowSample bool                  `json:"low_sample,omitempty"`
}

// ConsistencyResult is the outcome of cross_check_consistency.
type ConsistencyResult struct {
	Status string   `json:"status"` // ok | recheck_collateral | recheck_liquidity
	Notes  []string `json:"notes,omitempty"`
}

// Summary is the final conclusion emitted by summarize_conclusion.
type Summary struct {
	FinalGrade     Grade    `json:"final_grade"`
	KeyPoints      []string `json:"key_points"`
	RevisionStatus string   `json:"revision_status,omitempty"`
}

// MonthlyState is the value object carried across every stage of the
// workflow for one thread_id.
type MonthlyState struct {
	Period string `json:"period"`

	RawData     map[string]interface{} `json:"raw_data,omitempty"`
	DataQuality string                  `json:"data_quality,omitempty"` // ok | retry | fail

	Collateral  DimensionResult `json:"collateral"`
	Peg         DimensionResult `json:"peg"`
	Disclosure  DimensionResult `json:"disclosure"`
	Liquidity   DimensionResult `json:"liquidity"`
	Por         DimensionResult `json:"por"`

	Consistency ConsistencyResult `json:"consistency"`
	Summary     *Summary          `json:"summary,omitempty"`
	ReportPath  string            `json:"report_path,omitempty"`

	HumanDecision string `json:"human_decision,omitempty"`
	HumanFeedback string `json:"human_feedback,omitempty"`

	RevisionCount int `json:"revision_count"`
	MaxRevisions  int `json:"max_revisions"`

	RetryCounts map[string]int `json:"retry_counts"`
	MaxRetries  map[string]int `json:"max_retries"`

	RecheckDepth int    `json:"recheck_depth"`
	Stage        string `json:"stage"`
	Terminal     bool   `json:"terminal"`
}

// NewMonthlyState constructs the initial state for period.
func NewMonthlyState(period string, maxRevisions, maxRetriesDataLoad int) *MonthlyState {
	return &MonthlyState{
		Period:       period,
		MaxRevisions: maxRevisions,
		RetryCounts:  map[string]int{},
		MaxRetries:   map[string]int{"data_load": maxRetriesDataLoad},
		Stage:        "load_period_data",
	}
}

// worstGrade returns the lowest-ranked grade among the five dimensions.
func worstGrade(s *MonthlyState) Grade {
	worst := GradeA
	for _, dim := range []DimensionResult{s.Collateral, s.Peg, s.Disclosure, s.Liquidity, s.Por} {
		if gradeRank[dim.Grade] < gradeRank[worst] {
			worst = dim.Grade
		}
	}
	return worst
}
