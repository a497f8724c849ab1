package risk

import (
	"sort"

	"github.com/kwon-project/compliance-backplane/internal/institution"
)

// RoleInstitution is one institution input to role-weighted allocation.
type RoleInstitution struct {
	BankID          string           `json:"bank_id"`
	InstitutionType institution.Type `json:"institution_type,omitempty"`
	FSS             float64          `json:"fss"` // 0-100, typically from BankRiskScore
}

// RoleBasedAllocation computes a role-weighted target allocation of
// totalReserve across institutions: base_weight = (FSS/100)/role_weight,
// normalized across the pool, then capped per role and redistributed
// proportionally to totalReserve. Custody entries are preserved with a
// zero target.
func RoleBasedAllocation(institutions []RoleInstitution, totalReserve float64) []AllocationTarget {
	weights := make(map[string]float64, len(institutions))
	var weightSum float64

	for _, inst := range institutions {
		if institution.IsCustodyAgent(inst.InstitutionType) {
			continue
		}
		roleWeight := institution.RoleWeight[inst.InstitutionType]
		if roleWeight == 0 {
			roleWeight = 1.0
		}
		w := (inst.FSS / 100) / roleWeight
		weights[inst.BankID] = w
		weightSum += w
	}

	targets := make([]AllocationTarget, 0, len(institutions))
	for _, inst := range institutions {
		if institution.IsCustodyAgent(inst.InstitutionType) {
			targets = append(targets, AllocationTarget{BankID: inst.BankID, Target: 0})
			continue
		}

		var share float64
		if weightSum > 0 {
			share = weights[inst.BankID] / weightSum
		}

		cap := institution.RoleTargetLimit[inst.InstitutionType]
		if cap > 0 && share > cap {
			share = cap
		}

		targets = append(targets, AllocationTarget{BankID: inst.BankID, Target: share * totalReserve})
	}

	return targets
}

// RoleBasedRebalance pairs over-allocated sources with under-allocated
// destinations by amount, greedily, producing a deterministic list of
// moves that brings current allocations toward targets. current maps
// bank_id to its present allocation.
func RoleBasedRebalance(targets []AllocationTarget, current map[string]float64) []RebalanceMove {
	type delta struct {
		bankID string
		amount float64 // positive = over-allocated (source), negative = under (destination)
	}

	deltas := make([]delta, 0, len(targets))
	for _, t := range targets {
		deltas = append(deltas, delta{bankID: t.BankID, amount: current[t.BankID] - t.Target})
	}

	sort.Slice(deltas, func(i, j int) bool { return deltas[i].bankID < deltas[j].bankID })

	var sources, dests []delta
	for _, d := range deltas {
		switch {
		case d.amount > 1e-9:
			sources = append(sources, d)
		case d.amount < -1e-9:
			dests = append(dests, delta{bankID: d.bankID, amount: -d.amount})
		}
	}

	var moves []RebalanceMove
	si, di := 0, 0
	for si < len(sources) && di < len(dests) {
		amount := min(sources[si].amount, dests[di].amount)
		if amount > 1e-9 {
			moves = append(moves, RebalanceMove{From: sources[si].bankID, To: dests[di].bankID, Amount: amount})
		}
		sources[si].amount -= amount
		dests[di].amount -= amount

		if sources[si].amount <= 1e-9 {
			si++
		}
		if dests[di].amount <= 1e-9 {
			di++
		}
	}

	return moves
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
