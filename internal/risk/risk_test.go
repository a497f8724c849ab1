package risk

import (
	"testing"

	"github.com/kwon-project/compliance-backplane/internal/institution"
	"github.com/kwon-project/compliance-backplane/internal/policy"
)

func TestBankRiskScore_CustodyAgentExcluded(t *testing.T) {
	score := BankRiskScore(ScoreInputs{BankID: "X", InstitutionType: institution.TypeCustodyAgent})
	if !score.Excluded {
		t.Fatal("expected custody agent to be excluded")
	}
	if score.Reason == "" {
		t.Error("expected a reason for exclusion")
	}
}

func TestBankRiskScore_HigherRatingYieldsHigherScore(t *testing.T) {
	aaa := BankRiskScore(ScoreInputs{BankID: "A", CreditRating: policy.RatingAAA, LCRPercent: 130, DepositInsured: true, CDSSpreadBps: 10, NewsSentiment: 0.8})
	weak := BankRiskScore(ScoreInputs{BankID: "B", CreditRating: policy.RatingNR, LCRPercent: 50, DepositInsured: false, CDSSpreadBps: 300, NewsSentiment: -0.9})

	if aaa.FSS <= weak.FSS {
		t.Fatalf("expected AAA bank to score higher: aaa=%.2f weak=%.2f", aaa.FSS, weak.FSS)
	}
}

func TestRunStressTest_ZeroDenominatorYieldsFullCoverage(t *testing.T) {
	result := RunStressTest(Scenario{}, nil)
	if result.CoverageRatio != 1.0 {
		t.Errorf("expected coverage_ratio=1.0 for zero demand, got %f", result.CoverageRatio)
	}
}

func TestRunStressTest_ComputesCoverage(t *testing.T) {
	exposures := []policy.BankExposure{
		{BankID: "A", Exposure: 100, MaturityBucket: policy.MaturityOvernight},
		{BankID: "B", Exposure: 100, MaturityBucket: policy.MaturityWithin1M},
	}
	scenario := Scenario{
		BankLiquidityShock: map[string]float64{"A": 0.5, "B": 0.2},
		DailyRunoffRate:    0.1,
	}

	result := RunStressTest(scenario, exposures)
	wantUnavailable := 100*0.5 + 100*0.2
	if result.UnavailableAmount != wantUnavailable {
		t.Errorf("expected unavailable=%.2f, got %.2f", wantUnavailable, result.UnavailableAmount)
	}
	if result.RunOffAmount != 20 {
		t.Errorf("expected run_off_amount=20, got %.2f", result.RunOffAmount)
	}
}

func TestRoleBasedAllocation_CustodyPreservedAtZero(t *testing.T) {
	institutions := []RoleInstitution{
		{BankID: "A", InstitutionType: institution.TypeCommercialBank, FSS: 80},
		{BankID: "C", InstitutionType: institution.TypeCustodyAgent, FSS: 90},
	}

	targets := RoleBasedAllocation(institutions, 1000)

	for _, target := range targets {
		if target.BankID == "C" && target.Target != 0 {
			t.Errorf("expected custody agent target=0, got %.2f", target.Target)
		}
	}
}

func TestHerfindahlIndex_ConcentratedPortfolio(t *testing.T) {
	exposures := []policy.BankExposure{
		{BankID: "A", Exposure: 900},
		{BankID: "B", Exposure: 100},
	}
	hhi := HerfindahlIndex(exposures)
	// 90^2 + 10^2 = 8200, well past the 1,800 highly-concentrated cutoff.
	if hhi < HighConcentrationHHI {
		t.Errorf("expected high HHI for concentrated portfolio, got %f", hhi)
	}
	if hhi != 8200 {
		t.Errorf("expected hhi=8200 for a 90/10 split, got %f", hhi)
	}
}

func TestHerfindahlIndex_EvenTwoWaySplit(t *testing.T) {
	exposures := []policy.BankExposure{
		{BankID: "A", Exposure: 500},
		{BankID: "B", Exposure: 500},
	}
	// 50^2 + 50^2 = 5000: still above the cutoff, since only two banks
	// share the whole portfolio. The cutoff only reads as "low" once a
	// portfolio is split across enough institutions.
	if got := HerfindahlIndex(exposures); got != 5000 {
		t.Errorf("expected hhi=5000 for an even two-way split, got %f", got)
	}
}

func TestRunStressTest_ReportsConcentrationHHI(t *testing.T) {
	exposures := []policy.BankExposure{
		{BankID: "A", Exposure: 900, MaturityBucket: policy.MaturityOvernight},
		{BankID: "B", Exposure: 100, MaturityBucket: policy.MaturityOvernight},
	}
	result := RunStressTest(Scenario{}, exposures)
	if result.ConcentrationHHI != 8200 {
		t.Errorf("expected stress result to carry concentration_hhi=8200, got %f", result.ConcentrationHHI)
	}
}
