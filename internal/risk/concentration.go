package risk

import "github.com/kwon-project/compliance-backplane/internal/policy"

// HighConcentrationHHI is the threshold above which a portfolio is
// considered highly concentrated from a regulatory standpoint.
const HighConcentrationHHI = 1800.0

// HerfindahlIndex computes the Herfindahl-Hirschman concentration index on
// the conventional 0..10,000 scale: Σ(share·100)² over exposure shares,
// supplementary to the policy engine's single/group limit checks — a high
// HHI flags concentration even when no single check has tripped. 1,800 and
// above is the conventional highly-concentrated cutoff.
func HerfindahlIndex(exposures []policy.BankExposure) float64 {
	var total float64
	for _, e := range exposures {
		total += e.Exposure
	}
	if total == 0 {
		return 0
	}

	var hhi float64
	for _, e := range exposures {
		sharePct := (e.Exposure / total) * 100
		hhi += sharePct * sharePct
	}
	return hhi
}
