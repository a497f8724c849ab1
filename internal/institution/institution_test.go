package institution

import "testing"

func TestDetectType_SecondaryCustodianForHana(t *testing.T) {
	if got := DetectType("하나은행"); got != TypeSecondaryCustodian {
		t.Errorf("expected secondary_custodian for 하나은행, got %s", got)
	}
	if got := DetectType("Hana Bank"); got != TypeSecondaryCustodian {
		t.Errorf("expected secondary_custodian for Hana Bank, got %s", got)
	}
}

func TestDetectType_DefaultCommercialBank(t *testing.T) {
	if got := DetectType("Kookmin Bank"); got != TypeCommercialBank {
		t.Errorf("expected commercial_bank, got %s", got)
	}
}

func TestDetectType_FallsBackToOther(t *testing.T) {
	if got := DetectType("Acme Corp"); got != TypeOther {
		t.Errorf("expected other, got %s", got)
	}
}

func TestIsCustodyAgent(t *testing.T) {
	if !IsCustodyAgent(TypeCustodyAgent) {
		t.Error("expected custody_agent to be excluded")
	}
	if IsCustodyAgent(TypeCommercialBank) {
		t.Error("expected commercial_bank not to be excluded")
	}
}
