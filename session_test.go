package fsptrainer

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
)

type recorderFunc func(ctx context.Context, s *Session) error

func (f recorderFunc) RecordAttempt(ctx context.Context, s *Session) error { return f(ctx, s) }

func failingDescriber() Describer {
	return NewContextGeneratorWithClient(&fakeCompleter{err: errors.New("service down")}, testLLMConfig())
}

func newTestController(t *testing.T) *Controller {
	t.Helper()
	return NewController(NewGenerator(newTestBank(t), rand.New(rand.NewSource(11))), failingDescriber())
}

func wrongOption(q Question) string {
	for _, opt := range q.Options {
		if opt != q.Correct {
			return opt
		}
	}
	return ""
}

func TestController_FullSession(t *testing.T) {
	ctx := context.Background()
	c := newTestController(t)

	var recorded *Session
	c.SetRecorder(recorderFunc(func(_ context.Context, s *Session) error {
		recorded = s
		return nil
	}))

	if c.State() != StateIdle {
		t.Fatalf("expected idle, got %s", c.State())
	}
	if err := c.Start(ctx, 5); err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 0; i < 5; i++ {
		if c.State() != StateAwaitingAnswer {
			t.Fatalf("question %d: expected awaiting answer, got %s", i, c.State())
		}
		q, ok := c.Current()
		if !ok {
			t.Fatalf("question %d: no current question", i)
		}

		selection := q.Correct
		if i >= 3 {
			selection = wrongOption(q)
		}
		fb, err := c.Submit(ctx, selection)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if fb.IsCorrect() != (i < 3) {
			t.Fatalf("question %d: unexpected outcome %s", i, fb.Outcome)
		}
		if fb.Correct != q.Correct {
			t.Fatalf("feedback should carry the correct answer")
		}
		if fb.Example == "" || !strings.Contains(fb.Example, q.Term) {
			t.Fatalf("expected fallback sentence naming %q, got %q", q.Term, fb.Example)
		}
		if c.State() != StateShowingFeedback {
			t.Fatalf("expected showing feedback, got %s", c.State())
		}
		if err := c.Advance(ctx); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	if c.State() != StateComplete {
		t.Fatalf("expected complete, got %s", c.State())
	}
	res := c.Result()
	if res.Score != 3 || res.Total != 5 || res.Percent != 60.0 {
		t.Fatalf("expected 3/5 = 60%%, got %+v", res)
	}
	if recorded == nil || len(recorded.Answers) != 5 {
		t.Fatalf("expected recorded attempt with 5 answers, got %+v", recorded)
	}

	if err := c.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if c.State() != StateIdle {
		t.Fatalf("expected idle after restart, got %s", c.State())
	}
}

func TestController_ScoreCountsOncePerQuestion(t *testing.T) {
	ctx := context.Background()
	c := newTestController(t)
	if err := c.Start(ctx, 2); err != nil {
		t.Fatalf("start: %v", err)
	}

	q, _ := c.Current()
	if _, err := c.Submit(ctx, q.Correct); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := c.Submit(ctx, q.Correct); !errors.Is(err, ErrStateViolation) {
		t.Fatalf("second submit should be rejected, got %v", err)
	}
	if got := c.Result().Score; got != 1 {
		t.Fatalf("expected score 1, got %d", got)
	}
}

func TestController_InvalidTransitions(t *testing.T) {
	ctx := context.Background()
	c := newTestController(t)

	// idle
	if _, err := c.Submit(ctx, "x"); !errors.Is(err, ErrStateViolation) {
		t.Fatalf("submit while idle: %v", err)
	}
	if err := c.Advance(ctx); !errors.Is(err, ErrStateViolation) {
		t.Fatalf("advance while idle: %v", err)
	}
	if err := c.Restart(); !errors.Is(err, ErrStateViolation) {
		t.Fatalf("restart while idle: %v", err)
	}

	// awaiting answer
	if err := c.Start(ctx, 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := c.Start(ctx, 1); !errors.Is(err, ErrStateViolation) {
		t.Fatalf("start while awaiting answer: %v", err)
	}
	if err := c.Advance(ctx); !errors.Is(err, ErrStateViolation) {
		t.Fatalf("advance while awaiting answer: %v", err)
	}
	if err := c.Restart(); !errors.Is(err, ErrStateViolation) {
		t.Fatalf("restart while awaiting answer: %v", err)
	}

	// showing feedback
	q, _ := c.Current()
	if _, err := c.Submit(ctx, q.Correct); err != nil {
		t.Fatalf("submit: %v", err)
	}
	var stateErr *StateError
	if err := c.Start(ctx, 1); !errors.As(err, &stateErr) || stateErr.State != StateShowingFeedback {
		t.Fatalf("start while showing feedback: %v", err)
	}
	if err := c.Restart(); !errors.Is(err, ErrStateViolation) {
		t.Fatalf("restart while showing feedback: %v", err)
	}
	if c.State() != StateShowingFeedback {
		t.Fatalf("rejected actions must not change state, got %s", c.State())
	}

	// complete
	if err := c.Advance(ctx); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := c.Submit(ctx, q.Correct); !errors.Is(err, ErrStateViolation) {
		t.Fatalf("submit while complete: %v", err)
	}
	if err := c.Advance(ctx); !errors.Is(err, ErrStateViolation) {
		t.Fatalf("advance while complete: %v", err)
	}
	// start is allowed again from complete
	if err := c.Start(ctx, 1); err != nil {
		t.Fatalf("start from complete: %v", err)
	}
}

func TestController_EmptyQuiz(t *testing.T) {
	c := NewController(NewGenerator(emptyBank(), nil), nil)

	if err := c.Start(context.Background(), 10); err != nil {
		t.Fatalf("start: %v", err)
	}
	if c.State() != StateComplete {
		t.Fatalf("empty quiz should be complete immediately, got %s", c.State())
	}
	if res := c.Result(); res.Total != 0 || res.Percent != 0 {
		t.Fatalf("expected 0/0 = 0%%, got %+v", res)
	}
	if _, ok := c.Current(); ok {
		t.Fatalf("empty quiz has no current question")
	}
}

func TestController_StartErrorKeepsState(t *testing.T) {
	bank, err := NewTermBank(map[string][]string{
		"Abdomen":   {"Bauch"},
		"Cephalgia": {"Kopfschmerz", "Kopfweh"},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	c := NewController(NewGenerator(bank, nil), nil)

	if err := c.Start(context.Background(), 2); !errors.Is(err, ErrInsufficientDistractorPool) {
		t.Fatalf("expected ErrInsufficientDistractorPool, got %v", err)
	}
	if c.State() != StateIdle {
		t.Fatalf("expected idle after failed start, got %s", c.State())
	}
}

func TestController_RecorderErrorIsNotFatal(t *testing.T) {
	ctx := context.Background()
	c := newTestController(t)
	c.SetRecorder(recorderFunc(func(context.Context, *Session) error {
		return errors.New("disk full")
	}))

	if err := c.Start(ctx, 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	q, _ := c.Current()
	if _, err := c.Submit(ctx, q.Correct); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := c.Advance(ctx); err != nil {
		t.Fatalf("advance should not surface recorder errors: %v", err)
	}
	if c.State() != StateComplete {
		t.Fatalf("expected complete, got %s", c.State())
	}
}

func TestNewResult(t *testing.T) {
	tests := []struct {
		score, total int
		want         float64
	}{
		{3, 5, 60},
		{0, 0, 0},
		{10, 10, 100},
		{0, 4, 0},
	}
	for _, tt := range tests {
		if got := NewResult(tt.score, tt.total).Percent; got != tt.want {
			t.Fatalf("NewResult(%d, %d): want %v got %v", tt.score, tt.total, tt.want, got)
		}
	}
}

func TestController_StartIsStableForOneWayTerms(t *testing.T) {
	bank := oneWayBank(t)
	for seed := int64(1); seed <= 40; seed++ {
		c := NewController(NewGenerator(bank, rand.New(rand.NewSource(seed))), nil)
		if err := c.Start(context.Background(), bank.Len()); err != nil {
			t.Fatalf("seed %d: start: %v", seed, err)
		}
		if c.State() != StateAwaitingAnswer {
			t.Fatalf("seed %d: expected awaiting answer, got %s", seed, c.State())
		}
	}
}
