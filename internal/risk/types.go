// Package risk implements the Bank Risk Score, stress test, and
// role-weighted allocation/rebalance algorithms of the Risk & Allocation
// Engine (C7).
package risk

import (
	"github.com/kwon-project/compliance-backplane/internal/institution"
	"github.com/kwon-project/compliance-backplane/internal/policy"
)

// ScoreInputs is the raw per-bank data the five risk sub-scores are
// computed from.
type ScoreInputs struct {
	BankID          string               `json:"bank_id"`
	Name            string               `json:"name"`
	InstitutionType institution.Type     `json:"institution_type,omitempty"`
	CreditRating    policy.CreditRating  `json:"credit_rating,omitempty"`
	LCRPercent      float64              `json:"lcr_percent"` // liquidity coverage ratio, percent
	DepositInsured  bool                 `json:"deposit_insured,omitempty"`
	CDSSpreadBps    float64              `json:"cds_spread_bps"` // credit default swap spread, basis points
	NewsSentiment   float64              `json:"news_sentiment"` // -1 (very negative) .. +1 (very positive)
}

// Score is the weighted FSS (Fitness/Safety Score, 0-100) and its
// component breakdown.
type Score struct {
	BankID   string             `json:"bank_id"`
	FSS      float64            `json:"fss"`
	Excluded bool               `json:"excluded"`
	Reason   string             `json:"reason,omitempty"`
	Sub      map[string]float64 `json:"sub_scores,omitempty"`
}

// Scenario parameterizes a stress test run.
type Scenario struct {
	BankLiquidityShock map[string]float64 `json:"bank_liquidity_shock,omitempty"` // bank_id -> fraction of exposure unavailable
	DailyRunoffRate    float64            `json:"daily_runoff_rate"`
	InterestShockBps   float64            `json:"interest_shock_bps"`
}

// StressResult is the output of RunStressTest.
type StressResult struct {
	UnavailableAmount float64 `json:"unavailable_amount"`
	RunOffAmount      float64 `json:"run_off_amount"`
	LiquidAssets      float64 `json:"liquid_assets"`
	CoverageRatio     float64 `json:"coverage_ratio"`
	ConcentrationHHI  float64 `json:"concentration_hhi"`
}

// AllocationTarget is one institution's role-weighted target allocation.
type AllocationTarget struct {
	BankID string  `json:"bank_id"`
	Target float64 `json:"target"`
}

// RebalanceMove is one suggested transfer between institutions.
type RebalanceMove struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}
