// Package report implements the monthly report artifact writer (C9):
// filling a .docx template's {{key}} placeholders from the orchestrator's
// summary context, with a plain-text fallback when no template is
// configured or the template file is missing.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/lukasjarosch/go-docx"
)

// Writer fills TemplatePath's placeholders and writes the result under an
// artifacts directory, one file per period (REP-<period>); a later write
// for the same period replaces the earlier file.
type Writer struct {
	TemplatePath string
}

// New constructs a Writer for the given .docx template path. An empty
// path always falls back to the plain-text writer.
func New(templatePath string) *Writer {
	return &Writer{TemplatePath: templatePath}
}

// Write renders a report for period into artifactsDir, returning the
// written file's path. context values are substituted into every
// {{key}} placeholder found in the template's paragraphs and tables.
func (w *Writer) Write(_ context.Context, period string, context map[string]string, artifactsDir string) (string, error) {
	if err := os.MkdirAll(artifactsDir, 0o755); err != nil {
		return "", fmt.Errorf("report: create artifacts dir: %w", err)
	}

	if w.TemplatePath == "" {
		return w.writeFallback(period, context, artifactsDir)
	}
	if _, err := os.Stat(w.TemplatePath); err != nil {
		return w.writeFallback(period, context, artifactsDir)
	}
	return w.writeFromTemplate(period, context, artifactsDir)
}

func (w *Writer) writeFromTemplate(period string, context map[string]string, artifactsDir string) (string, error) {
	doc, err := docx.Open(w.TemplatePath)
	if err != nil {
		return "", fmt.Errorf("report: open template: %w", err)
	}

	placeholders := make(docx.PlaceholderMap, len(context))
	for k, v := range context {
		placeholders[k] = v
	}
	if err := doc.ReplaceAll(placeholders); err != nil {
		return "", fmt.Errorf("report: fill template: %w", err)
	}

	outPath := filepath.Join(artifactsDir, outputName(period)+".docx")
	if err := doc.WriteToFile(outPath); err != nil {
		return "", fmt.Errorf("report: write docx: %w", err)
	}
	return outPath, nil
}

// writeFallback writes a plain-text report when no usable template
// exists, mirroring the blank-document fallback of generating something
// rather than failing the run outright.
func (w *Writer) writeFallback(period string, context map[string]string, artifactsDir string) (string, error) {
	outPath := filepath.Join(artifactsDir, outputName(period)+".txt")

	keys := make([]string, 0, len(context))
	for k := range context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	body := fmt.Sprintf("Monthly Compliance Report (template unavailable)\nPeriod: %s\n\n", period)
	for _, k := range keys {
		body += fmt.Sprintf("%s: %s\n", k, context[k])
	}

	if err := os.WriteFile(outPath, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("report: write fallback: %w", err)
	}
	return outPath, nil
}

func outputName(period string) string {
	return "REP-" + period
}
