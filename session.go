package fsptrainer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State of a quiz session
type State int

const (
	StateIdle State = iota
	StateAwaitingAnswer
	StateShowingFeedback
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingAnswer:
		return "awaiting answer"
	case StateShowingFeedback:
		return "showing feedback"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is one quiz run. Questions are fixed when the session is created.
type Session struct {
	ID         string
	Questions  []Question
	Index      int
	Score      int
	Feedback   *Feedback
	Answers    []Answer
	StartedAt  time.Time
	FinishedAt time.Time
}

// State derives the state from index and feedback; a nil session is idle
func (s *Session) State() State {
	switch {
	case s == nil:
		return StateIdle
	case s.Index >= len(s.Questions):
		return StateComplete
	case s.Feedback != nil:
		return StateShowingFeedback
	default:
		return StateAwaitingAnswer
	}
}

// Result returns score, total and percentage
func (s *Session) Result() Result {
	if s == nil {
		return NewResult(0, 0)
	}
	return NewResult(s.Score, len(s.Questions))
}

// AttemptRecorder stores finished sessions
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, s *Session) error
}

// DescriberFunc adapts a function to the Describer interface
type DescriberFunc func(ctx context.Context, term, meaning string) string

func (f DescriberFunc) Describe(ctx context.Context, term, meaning string) string {
	return f(ctx, term, meaning)
}

// Controller drives one user's quiz through its states. Calls must be
// sequential; a controller is never shared between users.
type Controller struct {
	gen       *Generator
	describer Describer
	recorder  AttemptRecorder
	session   *Session
}

// NewController creates an idle controller. A nil describer uses FallbackSentence.
func NewController(gen *Generator, describer Describer) *Controller {
	if describer == nil {
		describer = DescriberFunc(func(_ context.Context, term, meaning string) string {
			return FallbackSentence(term, meaning)
		})
	}
	return &Controller{gen: gen, describer: describer}
}

// SetRecorder registers where finished sessions are stored
func (c *Controller) SetRecorder(r AttemptRecorder) {
	c.recorder = r
}

// State returns the current state
func (c *Controller) State() State {
	return c.session.State()
}

// Session returns the active session, nil when idle. Callers must not modify it.
func (c *Controller) Session() *Session {
	return c.session
}

// Start generates a new quiz of up to count questions. It is valid when idle
// or complete; a generation error leaves the previous state untouched.
func (c *Controller) Start(ctx context.Context, count int) error {
	return c.start(ctx, "start", func() ([]Question, error) {
		return c.gen.Generate(count)
	})
}

// StartFor starts a quiz restricted to the given terms
func (c *Controller) StartFor(ctx context.Context, terms []string, count int) error {
	return c.start(ctx, "start", func() ([]Question, error) {
		return c.gen.GenerateFor(terms, count)
	})
}

func (c *Controller) start(_ context.Context, action string, generate func() ([]Question, error)) error {
	if st := c.State(); st != StateIdle && st != StateComplete {
		return &StateError{Action: action, State: st}
	}

	questions, err := generate()
	if err != nil {
		return fmt.Errorf("failed to generate quiz: %w", err)
	}

	now := time.Now()
	c.session = &Session{
		ID:        uuid.NewString(),
		Questions: questions,
		Answers:   make([]Answer, 0, len(questions)),
		StartedAt: now,
	}
	if len(questions) == 0 {
		c.session.FinishedAt = now
	}

	logger.WithField("session", c.session.ID).Infof("Started quiz with %d questions", len(questions))
	return nil
}

// Current returns the question awaiting an answer or showing feedback
func (c *Controller) Current() (Question, bool) {
	st := c.State()
	if st != StateAwaitingAnswer && st != StateShowingFeedback {
		return Question{}, false
	}
	return c.session.Questions[c.session.Index], true
}

// Submit scores an answer by exact string match and records feedback with an
// example sentence. The describer call blocks until it returns or times out.
func (c *Controller) Submit(ctx context.Context, selection string) (*Feedback, error) {
	if st := c.State(); st != StateAwaitingAnswer {
		return nil, &StateError{Action: "submit", State: st}
	}

	q := c.session.Questions[c.session.Index]
	example := c.describer.Describe(ctx, q.Term, q.Meaning)

	fb := &Feedback{
		Outcome:  OutcomeIncorrect,
		Selected: selection,
		Correct:  q.Correct,
		Example:  example,
	}
	if selection == q.Correct {
		fb.Outcome = OutcomeCorrect
		c.session.Score++
	}
	c.session.Feedback = fb
	c.session.Answers = append(c.session.Answers, Answer{
		QuestionNum: c.session.Index + 1,
		Term:        q.Term,
		Direction:   q.Direction,
		Prompt:      q.Prompt,
		Selected:    selection,
		Correct:     q.Correct,
		IsCorrect:   fb.IsCorrect(),
		AnsweredAt:  time.Now(),
	})

	VerboseLog("Session %s question %d: %s", c.session.ID, q.ID, fb.Outcome)
	return fb, nil
}

// Advance clears feedback and moves to the next question, completing the
// quiz after the last one.
func (c *Controller) Advance(ctx context.Context) error {
	if st := c.State(); st != StateShowingFeedback {
		return &StateError{Action: "advance", State: st}
	}

	c.session.Feedback = nil
	c.session.Index++

	if c.session.State() == StateComplete {
		c.session.FinishedAt = time.Now()
		res := c.session.Result()
		logger.WithField("session", c.session.ID).Infof("Quiz complete: %d/%d (%.1f%%)", res.Score, res.Total, res.Percent)
		if c.recorder != nil {
			if err := c.recorder.RecordAttempt(ctx, c.session); err != nil {
				logger.WithError(err).WithField("session", c.session.ID).Error("failed to record attempt")
			}
		}
	}
	return nil
}

// Restart discards a completed quiz and returns to idle
func (c *Controller) Restart() error {
	if st := c.State(); st != StateComplete {
		return &StateError{Action: "restart", State: st}
	}
	c.session = nil
	return nil
}

// Result returns the score of the active session
func (c *Controller) Result() Result {
	return c.session.Result()
}

// Progress returns the zero-based index and the number of questions
func (c *Controller) Progress() (index, total int) {
	if c.session == nil {
		return 0, 0
	}
	return c.session.Index, len(c.session.Questions)
}
