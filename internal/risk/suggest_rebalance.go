package risk

import (
	"sort"

	"github.com/kwon-project/compliance-backplane/internal/policy"
)

// SuggestBankRebalance is the exposure-level counterpart to
// RoleBasedRebalance: given raw exposures and an optional FSS override per
// bank, it pairs the highest-exposure, lowest-FSS banks (reduce) against
// the lowest-exposure, highest-FSS banks (increase), by amount. This is a
// distinct algorithm from role-based rebalancing — it operates on
// exposure/FSS imbalance directly, not against a role-weighted target —
// and both are exposed separately.
func SuggestBankRebalance(exposures []policy.BankExposure, scoresOverride map[string]float64) []RebalanceMove {
	total := 0.0
	for _, e := range exposures {
		total += e.Exposure
	}
	if total == 0 || len(exposures) == 0 {
		return nil
	}
	avgShare := 1.0 / float64(len(exposures))

	type ranked struct {
		bankID string
		share  float64
		fss    float64
	}

	ranks := make([]ranked, 0, len(exposures))
	for _, e := range exposures {
		fss, ok := scoresOverride[e.BankID]
		if !ok {
			fss = 70 // neutral default when no score override supplied
		}
		ranks = append(ranks, ranked{bankID: e.BankID, share: e.Exposure / total, fss: fss})
	}

	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].fss != ranks[j].fss {
			return ranks[i].fss < ranks[j].fss
		}
		return ranks[i].bankID < ranks[j].bankID
	})

	var overExposedLowFSS, underExposedHighFSS []ranked
	for _, r := range ranks {
		if r.share > avgShare {
			overExposedLowFSS = append(overExposedLowFSS, r)
		}
	}

	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].fss != ranks[j].fss {
			return ranks[i].fss > ranks[j].fss
		}
		return ranks[i].bankID < ranks[j].bankID
	})
	for _, r := range ranks {
		if r.share < avgShare {
			underExposedHighFSS = append(underExposedHighFSS, r)
		}
	}

	var moves []RebalanceMove
	si, di := 0, 0
	srcRemaining := make([]float64, len(overExposedLowFSS))
	for i, r := range overExposedLowFSS {
		srcRemaining[i] = (r.share - avgShare) * total
	}
	dstRemaining := make([]float64, len(underExposedHighFSS))
	for i, r := range underExposedHighFSS {
		dstRemaining[i] = (avgShare - r.share) * total
	}

	for si < len(overExposedLowFSS) && di < len(underExposedHighFSS) {
		amount := min(srcRemaining[si], dstRemaining[di])
		if amount > 1e-9 {
			moves = append(moves, RebalanceMove{
				From:   overExposedLowFSS[si].bankID,
				To:     underExposedHighFSS[di].bankID,
				Amount: amount,
			})
		}
		srcRemaining[si] -= amount
		dstRemaining[di] -= amount
		if srcRemaining[si] <= 1e-9 {
			si++
		}
		if dstRemaining[di] <= 1e-9 {
			di++
		}
	}

	return moves
}
