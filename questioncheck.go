package fsptrainer

import (
	"fmt"

	"github.com/samber/lo"
)

// ValidationAction is what the checker decided for a question
type ValidationAction string

const (
	ActionAccept ValidationAction = "accept"
	ActionReject ValidationAction = "reject"
)

// ValidationResult represents the result of checking a question
type ValidationResult struct {
	QuestionID int              `json:"question_id"`
	Action     ValidationAction `json:"action"`
	Reason     string           `json:"reason"`
}

// CheckQuestion validates a generated question against the bank it came from
func CheckQuestion(q Question, bank *TermBank) ValidationResult {
	result := ValidationResult{QuestionID: q.ID, Action: ActionAccept, Reason: "ok"}
	if err := ValidateQuestion(q, bank); err != nil {
		result.Action = ActionReject
		result.Reason = err.Error()
	}
	VerboseLog("Question %d: %s - %s", q.ID, result.Action, result.Reason)
	return result
}

// ValidateQuestion checks that a question has five distinct options, contains
// its correct answer exactly once and offers no synonym of its term as a wrong answer.
func ValidateQuestion(q Question, bank *TermBank) error {
	if len(q.Options) != NumOptions {
		return fmt.Errorf("question %d: %d options, want %d", q.ID, len(q.Options), NumOptions)
	}
	if n := lo.Count(q.Options, q.Correct); n != 1 {
		return fmt.Errorf("question %d: correct answer %q appears %d times", q.ID, q.Correct, n)
	}
	if dups := lo.FindDuplicates(q.Options); len(dups) > 0 {
		return fmt.Errorf("question %d: duplicate options %v", q.ID, dups)
	}
	if !bank.Has(q.Term) {
		return fmt.Errorf("question %d: %w: %q", q.ID, ErrUnknownTerm, q.Term)
	}

	synonyms := bank.entries[q.Term]
	for _, opt := range q.Options {
		if opt != q.Correct && lo.Contains(synonyms, opt) {
			return fmt.Errorf("question %d: distractor %q is a synonym of %q", q.ID, opt, q.Term)
		}
	}

	switch q.Direction {
	case Forward:
		if q.Correct != synonyms[0] {
			return fmt.Errorf("question %d: forward answer %q is not the first meaning %q", q.ID, q.Correct, synonyms[0])
		}
	case Reverse:
		if q.Correct != q.Term || !lo.Contains(synonyms, q.Meaning) {
			return fmt.Errorf("question %d: reverse question does not match term %q", q.ID, q.Term)
		}
	default:
		return fmt.Errorf("question %d: unknown direction %q", q.ID, q.Direction)
	}
	return nil
}
