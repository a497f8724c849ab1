package risk

import "github.com/kwon-project/compliance-backplane/internal/policy"

var liquidBuckets = map[policy.MaturityBucket]bool{
	policy.MaturityOvernight: true,
	policy.MaturityWithin7D:  true,
}

// RunStressTest applies scenario to exposures and returns the coverage
// ratio of liquid assets against the combined unavailable and run-off
// amounts. A zero denominator yields coverage 1.0 (fully covered by
// definition, since nothing is demanded).
func RunStressTest(scenario Scenario, exposures []policy.BankExposure) StressResult {
	var unavailable, total, liquid float64

	for _, e := range exposures {
		shock := scenario.BankLiquidityShock[e.BankID]
		unavailable += e.Exposure * shock
		total += e.Exposure

		if liquidBuckets[e.MaturityBucket] {
			liquid += (1 - shock) * e.Exposure
		}
	}

	runoff := total * scenario.DailyRunoffRate
	denom := unavailable + runoff

	result := StressResult{
		UnavailableAmount: unavailable,
		RunOffAmount:      runoff,
		LiquidAssets:      liquid,
		ConcentrationHHI:  HerfindahlIndex(exposures),
	}

	if denom == 0 {
		result.CoverageRatio = 1.0
	} else {
		result.CoverageRatio = liquid / denom
	}

	return result
}
