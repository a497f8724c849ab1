package toolserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kwon-project/compliance-backplane/internal/policy"
	"github.com/kwon-project/compliance-backplane/internal/risk"
)

// RegisterPolicyTools registers check_policy_compliance and
// get_rebalancing_suggestions against cfg.
func RegisterPolicyTools(s *Server, cfg *policy.Config) {
	s.Register("check_policy_compliance", func(_ context.Context, raw json.RawMessage) (interface{}, error) {
		// Accepts either the current {"exposures":[...]} shape or the
		// legacy {"banks":[...]} shape a UI-facing caller may still send.
		exposures, err := policy.ParseExposuresPayload(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid params: %w", err)
		}
		if len(exposures) == 0 {
			return nil, fmt.Errorf("invalid params: exposures or banks is required")
		}
		return policy.CheckCompliance(cfg, exposures), nil
	})

	s.Register("get_rebalancing_suggestions", func(_ context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			Violations []policy.Violation `json:"violations" validate:"required"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		return policy.GetRebalancingSuggestions(p.Violations), nil
	})
}

// RegisterRiskTools registers get_bank_risk_score, run_bank_stress_test,
// suggest_bank_rebalance, role_based_allocation, and role_based_rebalance.
func RegisterRiskTools(s *Server) {
	s.Register("get_bank_risk_score", func(_ context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			risk.ScoreInputs
			// Exposures is optional portfolio context: when the caller
			// supplies it, the response becomes an aggregate carrying the
			// single bank's score alongside the portfolio's concentration,
			// matching bank_risk.py's hhi diagnostic next to its per-bank
			// score.
			Exposures []policy.BankExposure `json:"exposures,omitempty" validate:"omitempty,dive"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}

		score := risk.BankRiskScore(p.ScoreInputs)
		if len(p.Exposures) == 0 {
			return score, nil
		}
		return map[string]interface{}{
			"score":             score,
			"concentration_hhi": risk.HerfindahlIndex(p.Exposures),
		}, nil
	})

	s.Register("run_bank_stress_test", func(_ context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			Exposures []policy.BankExposure `json:"exposures" validate:"required"`
			Scenario  risk.Scenario         `json:"scenario"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		return risk.RunStressTest(p.Scenario, p.Exposures), nil
	})

	s.Register("suggest_bank_rebalance", func(_ context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			Exposures      []policy.BankExposure `json:"exposures" validate:"required"`
			ScoresOverride map[string]float64    `json:"scores_override,omitempty"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		return risk.SuggestBankRebalance(p.Exposures, p.ScoresOverride), nil
	})

	s.Register("role_based_allocation", func(_ context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			Institutions []risk.RoleInstitution `json:"institutions" validate:"required"`
			TotalReserve float64                `json:"total_reserve" validate:"required,gt=0"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		return risk.RoleBasedAllocation(p.Institutions, p.TotalReserve), nil
	})

	s.Register("role_based_rebalance", func(_ context.Context, raw json.RawMessage) (interface{}, error) {
		var p struct {
			Targets []risk.AllocationTarget `json:"targets" validate:"required"`
			Current map[string]float64      `json:"current" validate:"required"`
		}
		if err := decodeAndValidate(raw, &p); err != nil {
			return nil, err
		}
		return risk.RoleBasedRebalance(p.Targets, p.Current), nil
	})
}
