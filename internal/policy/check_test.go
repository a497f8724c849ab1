package policy

import "testing"

func TestCheckCompliance_ZeroExposureYieldsNoViolations(t *testing.T) {
	report := CheckCompliance(DefaultConfig(), nil)
	if len(report.Violations) != 0 {
		t.Fatalf("expected no violations for empty exposures, got %d", len(report.Violations))
	}
	if report.HighestLevel != SeverityOK {
		t.Errorf("expected OK highest level, got %s", report.HighestLevel)
	}
}

func TestCheckCompliance_SingleInstitutionBreach(t *testing.T) {
	exposures := []BankExposure{
		{BankID: "A", Name: "Bank A", Exposure: 600, MaturityBucket: MaturityWithin1M},
		{BankID: "B", Name: "Bank B", Exposure: 200, MaturityBucket: MaturityWithin1M},
		{BankID: "C", Name: "Bank C", Exposure: 200, MaturityBucket: MaturityWithin1M},
	}

	report := CheckCompliance(DefaultConfig(), exposures)

	var found *Violation
	for i := range report.Violations {
		v := &report.Violations[i]
		if v.Code == "SINGLE_LIMIT" {
			found = v
		}
	}
	if found == nil {
		t.Fatal("expected a SINGLE_LIMIT violation for bank A")
	}
	if found.Severity != SeverityCritical {
		t.Errorf("expected CRITICAL severity, got %s", found.Severity)
	}
	excess, _ := found.Details["excess_amount"].(float64)
	if excess < 349.9 || excess > 350.1 {
		t.Errorf("expected excess_amount ~350, got %v", excess)
	}

	actions := GetRebalancingSuggestions(report.Violations)
	var reduction *Action
	for i := range actions {
		if actions[i].Type == "EXPOSURE_REDUCTION" && actions[i].BankID == "A" {
			reduction = &actions[i]
		}
	}
	if reduction == nil {
		t.Fatal("expected an EXPOSURE_REDUCTION action targeting bank A")
	}
}

func TestCheckMaturityDistribution_UnderAllocationIsCritical(t *testing.T) {
	// Distribution {OVERNIGHT:0.10, 7D:0.30, 1M:0.40, 3M:0.20}, total 1.0.
	// This exercises the check in isolation from Normalize's auto-split,
	// since the OVERNIGHT bucket is itself a split target.
	cfg := DefaultConfig()
	scenario := []BankExposure{
		{BankID: "A", Exposure: 0.10, MaturityBucket: MaturityOvernight},
		{BankID: "B", Exposure: 0.30, MaturityBucket: MaturityWithin7D},
		{BankID: "C", Exposure: 0.40, MaturityBucket: MaturityWithin1M},
		{BankID: "D", Exposure: 0.20, MaturityBucket: MaturityWithin3M},
	}

	violations := checkMaturityDistribution(cfg, scenario, 1.0)

	var found *Violation
	for i := range violations {
		if violations[i].Code == "MATURITY_UNDER" && violations[i].Details["bucket"] == MaturityOvernight {
			found = &violations[i]
		}
	}
	if found == nil {
		t.Fatal("expected a MATURITY_UNDER violation for OVERNIGHT")
	}
	if found.Severity != SeverityCritical {
		t.Errorf("expected CRITICAL severity, got %s", found.Severity)
	}
	if found.Details["direction"] != "UNDER" {
		t.Errorf("expected direction=UNDER, got %v", found.Details["direction"])
	}
}
