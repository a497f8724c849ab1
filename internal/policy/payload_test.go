package policy

import "testing"

func TestParseExposuresPayload_CurrentShape(t *testing.T) {
	body := []byte(`{"exposures":[{"bank_id":"A","exposure":100,"maturity_bucket":"WITHIN_1M"}]}`)

	exposures, err := ParseExposuresPayload(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exposures) != 1 || exposures[0].BankID != "A" || exposures[0].Exposure != 100 {
		t.Fatalf("unexpected exposures: %+v", exposures)
	}
}

func TestParseExposuresPayload_LegacyBanksShape(t *testing.T) {
	body := []byte(`{"banks":[
		{"id":"A","balance":100,"maturity_bucket":"WITHIN_1M"},
		{"bank_id":"B","bank_name":"Bank B","exposure":50}
	]}`)

	exposures, err := ParseExposuresPayload(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exposures) != 2 {
		t.Fatalf("expected 2 exposures, got %d", len(exposures))
	}
	if exposures[0].BankID != "A" || exposures[0].Exposure != 100 {
		t.Errorf("row 0: unexpected mapping: %+v", exposures[0])
	}
	if exposures[1].BankID != "B" || exposures[1].Name != "Bank B" || exposures[1].Exposure != 50 {
		t.Errorf("row 1: unexpected mapping: %+v", exposures[1])
	}
}

func TestParseExposuresPayload_ExposuresKeyWinsOverBanks(t *testing.T) {
	body := []byte(`{"exposures":[{"bank_id":"A","exposure":1}],"banks":[{"id":"B","balance":2}]}`)

	exposures, err := ParseExposuresPayload(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exposures) != 1 || exposures[0].BankID != "A" {
		t.Fatalf("expected exposures key to win, got %+v", exposures)
	}
}

func TestParseExposuresPayload_EmptyPayload(t *testing.T) {
	exposures, err := ParseExposuresPayload([]byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exposures) != 0 {
		t.Fatalf("expected no exposures, got %d", len(exposures))
	}
}
