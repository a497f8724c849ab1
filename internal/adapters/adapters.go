// Package adapters declares the external-collaborator interfaces (C10):
// notification, anchor writing, and monthly metric sourcing. Only
// interfaces and minimal mock implementations live here — the real
// transports (SMTP/Slack, a production chain client, DART) are out of
// scope.
package adapters

import (
	"context"
	"time"
)

// Notifier delivers human-review and decision notifications. Both methods
// must be idempotent per their key so a retried delivery never double-sends.
type Notifier interface {
	NotifyHumanReview(ctx context.Context, taskID, period, reportURL string, summary map[string]interface{}) error
	NotifyDecision(ctx context.Context, taskID, period, decision, comment, reportPath string) error
}

// AnchorWriter publishes a batch root to an external ledger.
type AnchorWriter interface {
	Anchor(ctx context.Context, batchID, chain string) (txHash string, anchoredAt time.Time, err error)
}

// MonthlyMetrics is the read-only per-period data MetricSource provides;
// field names mirror the orchestrator's raw_data consumers directly.
type MonthlyMetrics struct {
	AvgCollateralRatio  float64 `json:"avg_collateral_ratio"`
	MinCollateralRatio  float64 `json:"min_collateral_ratio"`
	AvgPegDeviation     float64 `json:"avg_peg_deviation"`
	PegAlertCount       int     `json:"peg_alert_count"`
	AvgLiquidityRatio   float64 `json:"avg_liquidity_ratio"`
	AvgPorFailureRate   float64 `json:"avg_por_failure_rate"`
	DaysCovered         int     `json:"days_covered"`
	TotalDays           int     `json:"total_days"`
	LastUpdateHoursAgo  float64 `json:"last_update_hours_ago"`
	CollateralSamples   int     `json:"collateral_samples"`
	DisclosureSamples   int     `json:"disclosure_samples"`
}

// MetricSource is a read-only provider of monthly metrics for a period.
type MetricSource interface {
	LoadMetrics(ctx context.Context, period string) (*MonthlyMetrics, error)
}
