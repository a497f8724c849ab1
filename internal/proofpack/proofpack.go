// Package proofpack assembles self-describing ZIP archives (C5) that let a
// third party verify an event's inclusion in an anchored Merkle root
// without touching the audit store.
package proofpack

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kwon-project/compliance-backplane/internal/audit"
)

const packVersion = "1.0"

const verificationInstructions = "Fold the event's leaf hash upward through proof_path: for each " +
	"{pos, hash} entry, compute SHA256(hash||node) if pos==\"L\" else SHA256(node||hash). " +
	"The final value must equal batch.merkle_root."

// Manifest is the JSON document embedded as proof_pack.json.
type Manifest struct {
	Version          string                    `json:"version"`
	GeneratedAt      string                    `json:"generated_at"`
	Event            *audit.AuditEvent         `json:"event,omitempty"`
	Events           []*audit.AuditEvent       `json:"events,omitempty"`
	Proof            *audit.EventProof         `json:"proof,omitempty"`
	Batch            *audit.MerkleBatch        `json:"batch,omitempty"`
	Anchors          []*audit.AnchorRecord     `json:"anchors,omitempty"`
	Verification     verificationBlock         `json:"verification"`
}

type verificationBlock struct {
	Instructions string `json:"instructions"`
}

// Result is the metadata returned after writing a pack archive.
type Result struct {
	Path  string `json:"path"`
	SHA256 string `json:"sha256"`
	Bytes int    `json:"bytes"`
	Count int    `json:"count"`
}

// nowFn is overridable in tests so archive output is deterministic.
var nowFn = func() time.Time { return time.Now().UTC() }

// BuildSingleEvent assembles a single-event proof pack for bundle. When
// includeRaw is true, the event's raw_json is additionally embedded as
// event_raw.json.
func BuildSingleEvent(bundle *audit.VerificationBundle, includeRaw bool) ([]byte, string, error) {
	manifest := Manifest{
		Version:     packVersion,
		GeneratedAt: nowFn().Format("2006-01-02T15:04:05Z"),
		Event:       bundle.Event,
		Proof:       bundle.Proof,
		Batch:       bundle.Batch,
		Anchors:     bundle.Anchors,
		Verification: verificationBlock{Instructions: verificationInstructions},
	}

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	if err := writeJSONEntry(zw, "proof_pack.json", manifest); err != nil {
		return nil, "", err
	}

	if includeRaw && bundle.Event != nil {
		rawWriter, err := zw.Create("event_raw.json")
		if err != nil {
			return nil, "", fmt.Errorf("proof pack: create event_raw.json: %w", err)
		}
		if _, err := rawWriter.Write(bundle.Event.RawJSON); err != nil {
			return nil, "", fmt.Errorf("proof pack: write event_raw.json: %w", err)
		}
	}

	if err := writeReadme(zw); err != nil {
		return nil, "", err
	}

	if err := zw.Close(); err != nil {
		return nil, "", fmt.Errorf("proof pack: close archive: %w", err)
	}

	filename := bundle.Event.EventID + ".zip"
	return buf.Bytes(), filename, nil
}

// BuildMultiEvent assembles a multi-event proof pack over bundles matched
// by a search query.
func BuildMultiEvent(bundles []*audit.VerificationBundle) ([]byte, string, error) {
	events := make([]*audit.AuditEvent, 0, len(bundles))
	for _, b := range bundles {
		events = append(events, b.Event)
	}

	manifest := struct {
		Version      string                       `json:"version"`
		GeneratedAt  string                        `json:"generated_at"`
		Events       []*audit.AuditEvent           `json:"events"`
		Entries      []*audit.VerificationBundle   `json:"entries"`
		Verification verificationBlock             `json:"verification"`
	}{
		Version:      packVersion,
		GeneratedAt:  nowFn().Format("2006-01-02T15:04:05Z"),
		Events:       events,
		Entries:      bundles,
		Verification: verificationBlock{Instructions: verificationInstructions},
	}

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	if err := writeJSONEntry(zw, "proof_pack.json", manifest); err != nil {
		return nil, "", err
	}
	if err := writeReadme(zw); err != nil {
		return nil, "", err
	}
	if err := zw.Close(); err != nil {
		return nil, "", fmt.Errorf("proof pack: close archive: %w", err)
	}

	filename := fmt.Sprintf("proof_pack_batch_%s_n%d.zip", nowFn().Format("20060102T150405Z"), len(bundles))
	return buf.Bytes(), filename, nil
}

// Describe computes the {path, sha256, bytes, count} metadata for a
// produced archive, so callers never need to re-read the file to learn
// its hash.
func Describe(path string, data []byte, count int) Result {
	sum := sha256.Sum256(data)
	return Result{
		Path:   path,
		SHA256: hex.EncodeToString(sum[:]),
		Bytes:  len(data),
		Count:  count,
	}
}

func writeJSONEntry(zw *zip.Writer, name string, v interface{}) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("proof pack: create %s: %w", name, err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("proof pack: encode %s: %w", name, err)
	}
	return nil
}

func writeReadme(zw *zip.Writer) error {
	w, err := zw.Create("README.txt")
	if err != nil {
		return fmt.Errorf("proof pack: create README.txt: %w", err)
	}
	_, err = w.Write([]byte("K-WON audit proof pack\n\n" + verificationInstructions + "\n"))
	if err != nil {
		return fmt.Errorf("proof pack: write README.txt: %w", err)
	}
	return nil
}
