package fsptrainer

import "time"

const (
	// NumOptions is the number of candidate answers per question
	NumOptions     = 5
	NumDistractors = NumOptions - 1
	MaxQuizLength  = 50
)

// Direction is whether a question asks term→meaning or meaning→term
type Direction string

const (
	Forward Direction = "forward" // term → meaning
	Reverse Direction = "reverse" // meaning → term
)

// Question represents a single multiple choice question built from the term bank
type Question struct {
	ID        int       `json:"id"`
	Prompt    string    `json:"prompt"`
	Correct   string    `json:"correct"`
	Options   []string  `json:"options"`
	Direction Direction `json:"direction"`
	// Term and Meaning are forwarded verbatim to the context generator
	Term    string `json:"term"`
	Meaning string `json:"meaning"`
}

// Outcome of a submitted answer
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
)

// Feedback is shown after an answer is submitted and cleared on advance
type Feedback struct {
	Outcome  Outcome `json:"outcome"`
	Selected string  `json:"selected"`
	Correct  string  `json:"correct"`
	Example  string  `json:"example"`
}

// IsCorrect reports whether the submitted answer matched
func (f *Feedback) IsCorrect() bool {
	return f != nil && f.Outcome == OutcomeCorrect
}

// Answer records one submitted answer for the attempt history
type Answer struct {
	QuestionNum int       `json:"question_num"`
	Term        string    `json:"term"`
	Direction   Direction `json:"direction"`
	Prompt      string    `json:"prompt"`
	Selected    string    `json:"selected"`
	Correct     string    `json:"correct"`
	IsCorrect   bool      `json:"is_correct"`
	AnsweredAt  time.Time `json:"answered_at"`
}

// Result summarises a session's score
type Result struct {
	Score   int     `json:"score"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// NewResult computes the percentage; an empty quiz scores 0%
func NewResult(score, total int) Result {
	r := Result{Score: score, Total: total}
	if total > 0 {
		r.Percent = 100 * float64(score) / float64(total)
	}
	return r
}
