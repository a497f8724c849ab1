package policy

import (
	"encoding/json"
	"fmt"
)

// legacyBankRow is the shape check_policy_compliance's older UI-facing
// caller sends under the top-level "banks" key: id/balance in place of the
// current API's bank_id/exposure (policy_check.py's _parse_exposures_payload
// "UI 구조" branch).
type legacyBankRow struct {
	ID             string         `json:"id"`
	BankID         string         `json:"bank_id"`
	Name           string         `json:"name"`
	BankName       string         `json:"bank_name"`
	GroupID        string         `json:"group_id"`
	Balance        float64        `json:"balance"`
	Exposure       float64        `json:"exposure"`
	CreditRating   CreditRating   `json:"credit_rating"`
	MaturityBucket MaturityBucket `json:"maturity_bucket"`
	IsPolicyBank   bool           `json:"is_policy_bank"`
}

func (r legacyBankRow) toExposure() BankExposure {
	bankID := coalesce(r.BankID, r.ID)
	exposure := r.Exposure
	if exposure == 0 {
		exposure = r.Balance
	}
	return BankExposure{
		BankID:         bankID,
		Name:           coalesce(r.Name, r.BankName, bankID),
		GroupID:        r.GroupID,
		IsPolicyBank:   r.IsPolicyBank,
		Exposure:       exposure,
		CreditRating:   r.CreditRating,
		MaturityBucket: r.MaturityBucket,
	}
}

// ParseExposuresPayload decodes a check_policy_compliance request body,
// accepting either the current top-level "exposures" key or the legacy
// top-level "banks" key a UI-facing caller may still send. "exposures"
// wins when both are present.
func ParseExposuresPayload(raw []byte) ([]BankExposure, error) {
	var body struct {
		Exposures []BankExposure  `json:"exposures"`
		Banks     []legacyBankRow `json:"banks"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode exposures payload: %w", err)
	}

	if len(body.Exposures) > 0 {
		return body.Exposures, nil
	}
	if len(body.Banks) == 0 {
		return nil, nil
	}

	out := make([]BankExposure, 0, len(body.Banks))
	for _, b := range body.Banks {
		out = append(out, b.toExposure())
	}
	return out, nil
}
