package proofpack

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/kwon-project/compliance-backplane/internal/audit"
)

func fixedClock(t *testing.T) func() {
	old := nowFn
	nowFn = func() time.Time { return time.Date(2026, 1, 15, 3, 0, 0, 0, time.UTC) }
	return func() { nowFn = old }
}

func TestBuildSingleEvent_Deterministic(t *testing.T) {
	restore := fixedClock(t)
	defer restore()

	bundle := &audit.VerificationBundle{
		Event: &audit.AuditEvent{EventID: "0xAA", RawJSON: json.RawMessage(`{"hash":"0xAA"}`)},
		Proof: &audit.EventProof{EventID: "0xAA", BatchID: "b1", LeafIndex: 0},
		Batch: &audit.MerkleBatch{BatchID: "b1", MerkleRoot: "deadbeef", LeafCount: 1},
	}

	data1, name1, err := BuildSingleEvent(bundle, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data2, name2, err := BuildSingleEvent(bundle, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if name1 != "0xAA.zip" || name2 != name1 {
		t.Fatalf("expected deterministic filename, got %q and %q", name1, name2)
	}
	if !bytes.Equal(data1, data2) {
		t.Fatal("expected byte-identical archives for a fixed clock")
	}

	zr, err := zip.NewReader(bytes.NewReader(data1), int64(len(data1)))
	if err != nil {
		t.Fatalf("archive did not parse as zip: %v", err)
	}
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{"proof_pack.json", "event_raw.json", "README.txt"} {
		if !names[want] {
			t.Errorf("expected archive to contain %s", want)
		}
	}
}

func TestDescribe_ReportsSizeAndHash(t *testing.T) {
	data := []byte("hello")
	res := Describe("/tmp/out.zip", data, 1)
	if res.Bytes != len(data) {
		t.Errorf("expected bytes=%d, got %d", len(data), res.Bytes)
	}
	if res.SHA256 == "" {
		t.Error("expected non-empty sha256")
	}
	if res.Count != 1 {
		t.Errorf("expected count=1, got %d", res.Count)
	}
}
