package orchestrator

import (
	"context"
	"fmt"

	"github.com/kwon-project/compliance-backplane/internal/adapters"
)

// loadPeriodData fetches raw_data from the metric source. A fetch error
// or nil metrics leaves raw_data nil rather than crashing the graph;
// data_quality_check then reports "retry", and the workflow's bounded
// retry routing decides between reloading and data_quality_fail.
func loadPeriodData(ctx context.Context, metrics adapters.MetricSource, s *MonthlyState) *MonthlyState {
	m, err := metrics.LoadMetrics(ctx, s.Period)
	if err != nil || m == nil {
		s.RawData = nil
		return s
	}

	s.RawData = map[string]interface{}{
		"avg_collateral_ratio": m.AvgCollateralRatio,
		"min_collateral_ratio": m.MinCollateralRatio,
		"avg_peg_deviation":    m.AvgPegDeviation,
		"peg_alert_count":      m.PegAlertCount,
		"avg_liquidity_ratio":  m.AvgLiquidityRatio,
		"avg_por_failure_rate": m.AvgPorFailureRate,
		"days_covered":         m.DaysCovered,
		"total_days":           m.TotalDays,
		"last_update_hours_ago": m.LastUpdateHoursAgo,
		"collateral_samples":   m.CollateralSamples,
		"disclosure_samples":   m.DisclosureSamples,
	}
	return s
}

// dataQualityCheck returns "ok" or "retry" based on raw_data's
// completeness and freshness. It never returns "fail" itself: the
// workflow ends in data_quality_fail once retries exceed the data-load
// retry limit.
func dataQualityCheck(s *MonthlyState) string {
	if s.RawData == nil {
		return "retry"
	}

	totalDays, _ := s.RawData["total_days"].(int)
	daysCovered, _ := s.RawData["days_covered"].(int)
	lastUpdate, _ := s.RawData["last_update_hours_ago"].(float64)

	if totalDays > 0 && daysCovered < totalDays/2 {
		return "retry"
	}
	if lastUpdate > 72 {
		return "retry"
	}
	return "ok"
}

func floatOf(m map[string]interface{}, key string) float64 {
	v, _ := m[key].(float64)
	return v
}

func intOf(m map[string]interface{}, key string) int {
	v, _ := m[key].(int)
	return v
}

// evalCollateral grades the collateralization dimension from raw_data.
func evalCollateral(s *MonthlyState) DimensionResult {
	if s.RawData == nil {
		return DimensionResult{Grade: GradeF, Error: "missing raw_data", Fallback: true}
	}
	avg := floatOf(s.RawData, "avg_collateral_ratio")
	min := floatOf(s.RawData, "min_collateral_ratio")
	samples := intOf(s.RawData, "collateral_samples")

	result := DimensionResult{Metrics: map[string]interface{}{"avg": avg, "min": min}}
	switch {
	case min >= 1.05 && avg >= 1.08:
		result.Grade = GradeA
	case min >= 1.02:
		result.Grade = GradeB
	case min >= 1.0:
		result.Grade = GradeC
	case min >= 0.95:
		result.Grade = GradeD
	default:
		result.Grade = GradeF
	}
	if samples > 0 && samples < 5 {
		result.LowSample = true
	}
	return result
}

// evalPeg grades the peg-stability dimension.
func evalPeg(s *MonthlyState) DimensionResult {
	if s.RawData == nil {
		return DimensionResult{Grade: GradeF, Error: "missing raw_data", Fallback: true}
	}
	dev := floatOf(s.RawData, "avg_peg_deviation")
	alerts := intOf(s.RawData, "peg_alert_count")

	result := DimensionResult{Metrics: map[string]interface{}{"avg_deviation": dev, "alert_count": alerts}}
	switch {
	case dev <= 0.002 && alerts == 0:
		result.Grade = GradeA
	case dev <= 0.005 && alerts <= 2:
		result.Grade = GradeB
	case dev <= 0.01:
		result.Grade = GradeC
	case dev <= 0.02:
		result.Grade = GradeD
	default:
		result.Grade = GradeF
	}
	return result
}

// evalDisclosure grades the disclosure-timeliness dimension.
func evalDisclosure(s *MonthlyState) DimensionResult {
	if s.RawData == nil {
		return DimensionResult{Grade: GradeF, Error: "missing raw_data", Fallback: true}
	}
	daysCovered := intOf(s.RawData, "days_covered")
	totalDays := intOf(s.RawData, "total_days")
	samples := intOf(s.RawData, "disclosure_samples")

	result := DimensionResult{Metrics: map[string]interface{}{"days_covered": daysCovered, "total_days": totalDays}}
	if totalDays == 0 {
		result.Grade = GradeF
		return result
	}
	coverage := float64(daysCovered) / float64(totalDays)
	switch {
	case coverage >= 0.98:
		result.Grade = GradeA
	case coverage >= 0.90:
		result.Grade = GradeB
	case coverage >= 0.75:
		result.Grade = GradeC
	case coverage >= 0.50:
		result.Grade = GradeD
	default:
		result.Grade = GradeF
	}
	if samples > 0 && samples < 5 {
		result.LowSample = true
	}
	return result
}

// evalLiquidity grades the liquidity dimension.
func evalLiquidity(s *MonthlyState) DimensionResult {
	if s.RawData == nil {
		return DimensionResult{Grade: GradeF, Error: "missing raw_data", Fallback: true}
	}
	ratio := floatOf(s.RawData, "avg_liquidity_ratio")

	result := DimensionResult{Metrics: map[string]interface{}{"avg_ratio": ratio}}
	switch {
	case ratio >= 1.20:
		result.Grade = GradeA
	case ratio >= 1.05:
		result.Grade = GradeB
	case ratio >= 1.0:
		result.Grade = GradeC
	case ratio >= 0.9:
		result.Grade = GradeD
	default:
		result.Grade = GradeF
	}
	return result
}

// evalPor grades the proof-of-reserve dimension.
func evalPor(s *MonthlyState) DimensionResult {
	if s.RawData == nil {
		return DimensionResult{Grade: GradeF, Error: "missing raw_data", Fallback: true}
	}
	failureRate := floatOf(s.RawData, "avg_por_failure_rate")

	result := DimensionResult{Metrics: map[string]interface{}{"failure_rate": failureRate}}
	switch {
	case failureRate <= 0.001:
		result.Grade = GradeA
	case failureRate <= 0.01:
		result.Grade = GradeB
	case failureRate <= 0.03:
		result.Grade = GradeC
	case failureRate <= 0.08:
		result.Grade = GradeD
	default:
		result.Grade = GradeF
	}
	return result
}

// crossCheckConsistency applies the fixed conflict rules between
// dimension grades, routing to a recheck when they disagree sharply.
func crossCheckConsistency(s *MonthlyState) ConsistencyResult {
	if s.Collateral.Grade == GradeA && s.Liquidity.Grade == GradeD {
		return ConsistencyResult{Status: "recheck_liquidity", Notes: []string{"collateral=A but liquidity=D"}}
	}
	if s.Peg.Grade == GradeD && allOthersGradeA(s) {
		return ConsistencyResult{Status: "recheck_collateral", Notes: []string{"peg=D while others=A"}}
	}
	if s.Collateral.LowSample {
		return ConsistencyResult{Status: "recheck_collateral", Notes: []string{"collateral evaluation has a low sample count"}}
	}
	return ConsistencyResult{Status: "ok"}
}

func allOthersGradeA(s *MonthlyState) bool {
	return s.Collateral.Grade == GradeA && s.Disclosure.Grade == GradeA &&
		s.Liquidity.Grade == GradeA && s.Por.Grade == GradeA
}

// summarizeConclusion computes the final grade as the worst across
// dimensions, appends human feedback to key_points, and handles the
// revision-limit-reached terminal case. limitReached is true exactly
// when a "revise" was requested after revision_count already reached
// max_revisions.
func summarizeConclusion(s *MonthlyState, limitReached bool) *Summary {
	if limitReached {
		return &Summary{
			FinalGrade:     GradePending,
			RevisionStatus: "limit_reached",
			KeyPoints:      []string{fmt.Sprintf("revision limit (%d) reached", s.MaxRevisions)},
		}
	}

	points := []string{
		fmt.Sprintf("collateral=%s peg=%s disclosure=%s liquidity=%s por=%s",
			s.Collateral.Grade, s.Peg.Grade, s.Disclosure.Grade, s.Liquidity.Grade, s.Por.Grade),
	}
	if s.HumanFeedback != "" {
		points = append(points, "feedback: "+s.HumanFeedback)
	}

	return &Summary{FinalGrade: worstGrade(s), KeyPoints: points}
}
