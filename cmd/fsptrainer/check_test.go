package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fsptrainer"
)

func writeBank(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bank.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write bank: %v", err)
	}
	return path
}

func TestRunCheck_BundledBank(t *testing.T) {
	var out bytes.Buffer
	if err := runCheck(&out, "../../data/terminologie.json", false, 100); err != nil {
		t.Fatalf("bundled bank should pass: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "Term bank OK") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestRunCheck_TooFewTerms(t *testing.T) {
	path := writeBank(t, `{"Abdomen": "Bauch", "Cephalgia": ["Kopfschmerz", "Kopfweh"]}`)

	var out bytes.Buffer
	err := runCheck(&out, path, false, 10)
	if !errors.Is(err, errBankInvalid) {
		t.Fatalf("expected errBankInvalid, got %v", err)
	}
	if !strings.Contains(out.String(), "Too few distractors") {
		t.Fatalf("expected infeasible terms listed:\n%s", out.String())
	}
}

func TestRunCheck_JSON(t *testing.T) {
	path := writeBank(t, `{"Abdomen": "Bauch", "Cephalgia": ["Kopfschmerz", "Kopfweh"]}`)

	var out bytes.Buffer
	_ = runCheck(&out, path, true, 0)

	var report fsptrainer.AuditReport
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if report.Terms != 2 || len(report.Infeasible) == 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestRunCheck_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"missing file", filepath.Join(t.TempDir(), "missing.json"), errBankInvalid},
		{"malformed", writeBank(t, `["Abdomen"]`), errBankInvalid},
		{"empty", writeBank(t, `{}`), fsptrainer.ErrEmptyBank},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := runCheck(&out, tt.path, false, 10); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
