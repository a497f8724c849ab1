// Package institution provides the shared institution-type and role
// inference used by both the Policy Engine (C6) and the Risk & Allocation
// Engine (C7), so the two never disagree about what a given bank name or
// id is.
package institution

import "strings"

// Type enumerates the institution categories the policy and risk engines
// reason about.
type Type string

const (
	TypeCommercialBank      Type = "commercial_bank"
	TypePolicyBank          Type = "policy_bank"
	TypeSecondaryCustodian  Type = "secondary_custodian"
	TypeBroker              Type = "broker"
	TypeCustodyAgent        Type = "custody_agent"
	TypeOther               Type = "other"
)

// nameRules is the fixed name-matching table institution detection runs
// through, in priority order. The first match wins.
var nameRules = []struct {
	keywords []string
	typ      Type
}{
	{[]string{"하나", "hana"}, TypeSecondaryCustodian},
	{[]string{"산업은행", "kdb", "policy bank", "policybank"}, TypePolicyBank},
	{[]string{"custody", "custodian agent", "custody agent"}, TypeCustodyAgent},
	{[]string{"증권", "securities", "broker"}, TypeBroker},
	{[]string{"은행", "bank"}, TypeCommercialBank},
}

// DetectType infers an institution's Type from its name or id using the
// fixed rule table; unmatched names fall through to TypeOther.
func DetectType(nameOrID string) Type {
	lower := strings.ToLower(nameOrID)
	for _, rule := range nameRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, strings.ToLower(kw)) || strings.Contains(nameOrID, kw) {
				return rule.typ
			}
		}
	}
	return TypeOther
}

// RoleWeight is C7's divisor applied to FSS/100 when computing a bank's
// base target-allocation weight; lower values mean a larger natural share
// of reserves for the same risk score.
var RoleWeight = map[Type]float64{
	TypeCommercialBank:     1.0,
	TypePolicyBank:         0.8,
	TypeSecondaryCustodian: 1.2,
	TypeBroker:             1.5,
	TypeCustodyAgent:       1.0,
	TypeOther:              1.3,
}

// RoleTargetLimit caps the fraction of total reserves a single role-based
// allocation may assign to one institution of that type.
var RoleTargetLimit = map[Type]float64{
	TypeCommercialBank:     0.30,
	TypePolicyBank:         0.35,
	TypeSecondaryCustodian: 0.20,
	TypeBroker:             0.15,
	TypeCustodyAgent:       0.0,
	TypeOther:              0.10,
}

// IsCustodyAgent reports whether t should be excluded from exposure and
// risk evaluations, per spec: custody_agent exposures are excluded from
// all evaluations.
func IsCustodyAgent(t Type) bool {
	return t == TypeCustodyAgent
}
