package fsptrainer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/unicode/norm"
)

// TermBank is the read-only mapping of canonical terms to their synonyms.
// It is never mutated after construction and may be shared between sessions.
type TermBank struct {
	entries  map[string][]string
	terms    []string            // sorted keys
	meanings []string            // flattened in term order
	byMean   map[string][]string // meaning -> terms listing it
}

// LoadTermBank reads a term bank file. It always returns a usable bank;
// on failure the bank is empty and the error is a *LoadError.
func LoadTermBank(path string) (*TermBank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return emptyBank(), &LoadError{Path: path, Err: err}
	}

	raw, err := parseTermBank(data)
	if err != nil {
		return emptyBank(), &LoadError{Path: path, Err: err}
	}

	bank, err := NewTermBank(raw)
	if err != nil {
		return emptyBank(), &LoadError{Path: path, Err: err}
	}

	VerboseLog("Loaded term bank %s: %d terms, %d meanings", path, bank.Len(), len(bank.meanings))
	return bank, nil
}

// parseTermBank accepts an object whose values are a string or an array of strings
func parseTermBank(data []byte) (map[string][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if obj == nil {
		return nil, errors.New("top level must be an object")
	}

	out := make(map[string][]string, len(obj))
	for term, value := range obj {
		var single string
		if err := json.Unmarshal(value, &single); err == nil && !isJSONNull(value) {
			out[term] = []string{single}
			continue
		}
		var list []string
		if err := json.Unmarshal(value, &list); err != nil || list == nil {
			return nil, fmt.Errorf("term %q: value must be a string or an array of strings", term)
		}
		out[term] = list
	}
	return out, nil
}

func isJSONNull(v json.RawMessage) bool {
	return string(bytes.TrimSpace(v)) == "null"
}

// NewTermBank validates and normalizes an in-memory mapping
func NewTermBank(raw map[string][]string) (*TermBank, error) {
	entries := make(map[string][]string, len(raw))
	for rawTerm, rawMeanings := range raw {
		term := normalizeText(rawTerm)
		if term == "" {
			return nil, errors.New("empty term key")
		}
		if _, dup := entries[term]; dup {
			return nil, fmt.Errorf("duplicate term %q after normalization", term)
		}
		if len(rawMeanings) == 0 {
			return nil, fmt.Errorf("term %q has no meanings", term)
		}
		meanings := lo.Map(rawMeanings, func(m string, _ int) string { return normalizeText(m) })
		if lo.Contains(meanings, "") {
			return nil, fmt.Errorf("term %q has an empty meaning", term)
		}
		entries[term] = lo.Uniq(meanings)
	}

	b := &TermBank{
		entries: entries,
		terms:   lo.Keys(entries),
		byMean:  make(map[string][]string),
	}
	sort.Strings(b.terms)
	for _, term := range b.terms {
		for _, m := range entries[term] {
			b.meanings = append(b.meanings, m)
			b.byMean[m] = append(b.byMean[m], term)
		}
	}
	return b, nil
}

func emptyBank() *TermBank {
	b, _ := NewTermBank(nil)
	return b
}

// normalizeText applies NFC so composed and decomposed umlauts compare equal
func normalizeText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// Terms returns all term keys in sorted order
func (b *TermBank) Terms() []string {
	return append([]string(nil), b.terms...)
}

// Meanings returns every synonym of every term, duplicates included
func (b *TermBank) Meanings() []string {
	return append([]string(nil), b.meanings...)
}

// MeaningsOf returns the synonym list of one term
func (b *TermBank) MeaningsOf(term string) []string {
	return append([]string(nil), b.entries[term]...)
}

// TermsWithMeaning returns the terms that list m as a synonym
func (b *TermBank) TermsWithMeaning(m string) []string {
	return append([]string(nil), b.byMean[m]...)
}

// Has reports whether term is a key of the bank
func (b *TermBank) Has(term string) bool {
	_, ok := b.entries[term]
	return ok
}

// Len returns the number of terms
func (b *TermBank) Len() int { return len(b.terms) }

// IsEmpty reports whether the bank has no terms
func (b *TermBank) IsEmpty() bool { return len(b.terms) == 0 }
