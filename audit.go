package fsptrainer

import (
	"sort"

	"github.com/samber/lo"
)

// SharedMeaning is a meaning listed under more than one term
type SharedMeaning struct {
	Meaning string   `json:"meaning"`
	Terms   []string `json:"terms"`
}

// InfeasibleTerm is a term that cannot get four distractors in some direction
type InfeasibleTerm struct {
	Term      string    `json:"term"`
	Direction Direction `json:"direction"`
	Meaning   string    `json:"meaning,omitempty"`
	Eligible  int       `json:"eligible"`
}

// AuditReport summarises data problems in a term bank
type AuditReport struct {
	Terms      int              `json:"terms"`
	Meanings   int              `json:"meanings"`
	Shared     []SharedMeaning  `json:"shared,omitempty"`
	Infeasible []InfeasibleTerm `json:"infeasible,omitempty"`
}

// OK reports whether every term can be asked in both directions
func (r AuditReport) OK() bool {
	return len(r.Infeasible) == 0
}

// Audit inspects the bank for shared meanings and distractor pools that are
// too small. Generation for an infeasible term fails with ErrInsufficientDistractorPool.
func (b *TermBank) Audit() AuditReport {
	report := AuditReport{
		Terms:    b.Len(),
		Meanings: len(lo.Uniq(b.meanings)),
	}

	for meaning, terms := range b.byMean {
		if len(terms) > 1 {
			report.Shared = append(report.Shared, SharedMeaning{Meaning: meaning, Terms: append([]string(nil), terms...)})
		}
	}
	sort.Slice(report.Shared, func(i, j int) bool {
		return report.Shared[i].Meaning < report.Shared[j].Meaning
	})

	for _, term := range b.terms {
		if n := len(b.eligibleDistractors(term, Forward, b.entries[term][0])); n < NumDistractors {
			report.Infeasible = append(report.Infeasible, InfeasibleTerm{Term: term, Direction: Forward, Eligible: n})
		}
		for _, meaning := range b.entries[term] {
			if n := len(b.eligibleDistractors(term, Reverse, meaning)); n < NumDistractors {
				report.Infeasible = append(report.Infeasible, InfeasibleTerm{Term: term, Direction: Reverse, Meaning: meaning, Eligible: n})
			}
		}
	}

	if !report.OK() {
		logger.Warnf("term bank audit: %d infeasible term/direction pairs", len(report.Infeasible))
	}
	return report
}
