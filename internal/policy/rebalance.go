package policy

import "fmt"

// GetRebalancingSuggestions deterministically converts violations into
// rule-based rebalancing actions: no optimization, no randomness. Only
// CRITICAL exposure/rating violations and any maturity violation produce
// an action.
func GetRebalancingSuggestions(violations []Violation) []Action {
	var actions []Action

	for _, v := range violations {
		switch v.Type {
		case ViolationExposureLimit, ViolationCreditRatingLimit:
			if v.Severity != SeverityCritical {
				continue
			}
			excess, _ := v.Details["excess_amount"].(float64)
			bankID, _ := v.Details["bank_id"].(string)
			if bankID == "" {
				bankID, _ = v.Details["group_id"].(string)
			}
			actions = append(actions, Action{
				Type:      "EXPOSURE_REDUCTION",
				BankID:    bankID,
				Amount:    excess,
				Rationale: fmt.Sprintf("reduce exposure for %s by %.2f to clear %s", bankID, excess, v.Code),
			})

		case ViolationMaturityDist:
			bucket, _ := v.Details["bucket"].(MaturityBucket)
			direction, _ := v.Details["direction"].(string)
			actions = append(actions, Action{
				Type:      "MATURITY_ADJUSTMENT",
				Bucket:    bucket,
				Direction: direction,
				Rationale: fmt.Sprintf("adjust %s allocation (%s band)", bucket, direction),
			})
		}
	}

	return actions
}
