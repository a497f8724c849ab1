// Package policy implements the deterministic reserve-policy evaluator
// (C6): exposure/group/rating limits, maturity-bucket target bands, and a
// rule-based rebalancing-suggestion generator.
package policy

import "github.com/kwon-project/compliance-backplane/internal/institution"

// MaturityBucket enumerates the maturity buckets reserve exposures are
// classified into.
type MaturityBucket string

const (
	MaturityOvernight MaturityBucket = "OVERNIGHT"
	MaturityWithin7D  MaturityBucket = "WITHIN_7D"
	MaturityWithin1M  MaturityBucket = "WITHIN_1M"
	MaturityWithin3M  MaturityBucket = "WITHIN_3M"
	MaturityLonger    MaturityBucket = "LONGER"
)

// CreditRating enumerates the credit-rating enum used by rating-adjusted
// exposure limits.
type CreditRating string

const (
	RatingAAA CreditRating = "AAA"
	RatingAAPlus CreditRating = "AA+"
	RatingAA  CreditRating = "AA"
	RatingAAMinus CreditRating = "AA-"
	RatingAPlus CreditRating = "A+"
	RatingA   CreditRating = "A"
	RatingNR  CreditRating = "NR"
)

// BankExposure is a single institution's share of reserves at a point in
// time.
type BankExposure struct {
	BankID          string         `json:"bank_id"`
	Name            string         `json:"name"`
	GroupID         string         `json:"group_id,omitempty"`
	IsPolicyBank    bool           `json:"is_policy_bank,omitempty"`
	Exposure        float64        `json:"exposure"`
	CreditRating    CreditRating   `json:"credit_rating,omitempty"`
	MaturityBucket  MaturityBucket `json:"maturity_bucket,omitempty"`
	InstitutionType institution.Type `json:"institution_type,omitempty"`
}

// Severity enumerates how badly a check's ratio has breached its limit.
type Severity string

const (
	SeverityOK       Severity = "OK"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// ViolationType enumerates the kinds of PolicyViolation a check can yield.
type ViolationType string

const (
	ViolationExposureLimit     ViolationType = "EXPOSURE_LIMIT"
	ViolationCreditRatingLimit ViolationType = "CREDIT_RATING_LIMIT"
	ViolationMaturityDist      ViolationType = "MATURITY_DISTRIBUTION"
)

// Violation is a structured compliance finding.
type Violation struct {
	Type     ViolationType          `json:"type"`
	Severity Severity               `json:"severity"`
	Code     string                 `json:"code"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details"`
}

// Report is the aggregate result of CheckCompliance.
type Report struct {
	Violations  []Violation    `json:"violations"`
	HighestLevel Severity      `json:"highest_level"`
	Summary     ReportSummary  `json:"summary"`
}

// ReportSummary tabulates violations by type and level.
type ReportSummary struct {
	ByType  map[ViolationType]int `json:"by_type"`
	ByLevel map[Severity]int      `json:"by_level"`
}

// Action is a rebalancing suggestion emitted for a violation.
type Action struct {
	Type          string         `json:"type"` // EXPOSURE_REDUCTION | MATURITY_ADJUSTMENT
	BankID        string         `json:"bank_id,omitempty"`
	Bucket        MaturityBucket `json:"bucket,omitempty"`
	Direction     string         `json:"direction,omitempty"` // OVER | UNDER
	Amount        float64        `json:"amount,omitempty"`
	Rationale     string         `json:"rationale"`
}
