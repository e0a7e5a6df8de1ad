package fsptrainer

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// newTestBank returns a bank large enough for both question directions
func newTestBank(t *testing.T) *TermBank {
	t.Helper()
	bank, err := NewTermBank(map[string][]string{
		"Abdomen":     {"Bauch"},
		"Cephalgia":   {"Kopfschmerz", "Kopfweh"},
		"Dyspnoe":     {"Atemnot", "Kurzatmigkeit"},
		"Emesis":      {"Erbrechen"},
		"Hepar":       {"Leber"},
		"Ren":         {"Niere"},
		"Pyrexie":     {"Fieber"},
		"Tachykardie": {"Herzrasen"},
	})
	if err != nil {
		t.Fatalf("new bank: %v", err)
	}
	return bank
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "terms.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestLoadTermBank_StringAndListValues(t *testing.T) {
	path := writeFile(t, `{"Abdomen": "Bauch", "Cephalgia": ["Kopfschmerz", "Kopfweh"]}`)

	bank, err := LoadTermBank(path)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got, want := bank.Terms(), []string{"Abdomen", "Cephalgia"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("terms: want %v got %v", want, got)
	}
	if got, want := bank.MeaningsOf("Abdomen"), []string{"Bauch"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("meanings of Abdomen: want %v got %v", want, got)
	}
	if got, want := bank.Meanings(), []string{"Bauch", "Kopfschmerz", "Kopfweh"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("all meanings: want %v got %v", want, got)
	}
}

func TestLoadTermBank_MissingFile(t *testing.T) {
	bank, err := LoadTermBank(filepath.Join(t.TempDir(), "missing.json"))

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected *LoadError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped os.ErrNotExist, got %v", err)
	}
	if bank == nil || !bank.IsEmpty() {
		t.Fatalf("expected an empty bank on failure")
	}

	questions, err := NewGenerator(bank, nil).Generate(10)
	if err != nil || len(questions) != 0 {
		t.Fatalf("empty bank should yield zero questions, got %d (err %v)", len(questions), err)
	}
}

func TestLoadTermBank_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", `{"Abdomen": `},
		{"array top level", `["Abdomen"]`},
		{"null top level", `null`},
		{"number value", `{"Abdomen": 1}`},
		{"null value", `{"Abdomen": null}`},
		{"empty list", `{"Abdomen": []}`},
		{"empty meaning", `{"Abdomen": ["Bauch", " "]}`},
		{"empty key", `{" ": "Bauch"}`},
		{"mixed list", `{"Abdomen": ["Bauch", 2]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bank, err := LoadTermBank(writeFile(t, tt.content))
			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("expected *LoadError, got %v", err)
			}
			if !bank.IsEmpty() {
				t.Fatalf("expected empty bank, got %d terms", bank.Len())
			}
		})
	}
}

func TestNewTermBank_NormalizesUnicode(t *testing.T) {
	decomposed := "O\u0308dem" // O + combining diaeresis
	bank, err := NewTermBank(map[string][]string{
		decomposed: {" Wassereinlagerung "},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !bank.Has("\u00d6dem") {
		t.Fatalf("expected NFC key Ödem, got %v", bank.Terms())
	}
	if got := bank.MeaningsOf("\u00d6dem"); got[0] != "Wassereinlagerung" {
		t.Fatalf("expected trimmed meaning, got %q", got[0])
	}
}

func TestNewTermBank_DuplicateAfterNormalization(t *testing.T) {
	_, err := NewTermBank(map[string][]string{
		"\u00d6dem":  {"Wassereinlagerung"},
		"O\u0308dem": {"Schwellung"},
	})
	if err == nil {
		t.Fatalf("expected duplicate term error")
	}
}

func TestTermBank_TermsWithMeaning(t *testing.T) {
	bank, err := NewTermBank(map[string][]string{
		"Abdomen": {"Bauch"},
		"Venter":  {"Bauch", "Magen"},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got, want := bank.TermsWithMeaning("Bauch"), []string{"Abdomen", "Venter"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v got %v", want, got)
	}
	if got := bank.TermsWithMeaning("Leber"); len(got) != 0 {
		t.Fatalf("expected no terms, got %v", got)
	}
}

func TestLoadTermBank_BundledData(t *testing.T) {
	bank, err := LoadTermBank("data/terminologie.json")
	if err != nil {
		t.Fatalf("bundled term bank: %v", err)
	}
	if bank.Len() < NumOptions {
		t.Fatalf("bundled bank too small: %d", bank.Len())
	}
	if report := bank.Audit(); !report.OK() {
		t.Fatalf("bundled bank has infeasible terms: %+v", report.Infeasible)
	}
}
