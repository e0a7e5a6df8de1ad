package fsptrainer

import (
	"errors"
	"fmt"
)

var (
	// ErrStateViolation is returned when an action is not valid in the session's current state.
	ErrStateViolation = errors.New("action not allowed in current session state")
	// ErrInsufficientDistractorPool is returned when a term has fewer than four eligible distractors.
	ErrInsufficientDistractorPool = errors.New("insufficient distractor pool")
	ErrUnknownTerm                = errors.New("unknown term")
	ErrEmptyBank                  = errors.New("term bank is empty")
)

// LoadError reports a missing or malformed term bank file
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load term bank %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// StateError carries the rejected action and the state it was attempted in
type StateError struct {
	Action string
	State  State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s not allowed while %s", ErrStateViolation, e.Action, e.State)
}

func (e *StateError) Is(target error) bool { return target == ErrStateViolation }

// InsufficientDistractorsError names the term whose pool is too small
type InsufficientDistractorsError struct {
	Term      string
	Direction Direction
	Eligible  int
}

func (e *InsufficientDistractorsError) Error() string {
	return fmt.Sprintf("%s: term %q (%s) has %d eligible distractors, need %d",
		ErrInsufficientDistractorPool, e.Term, e.Direction, e.Eligible, NumDistractors)
}

func (e *InsufficientDistractorsError) Is(target error) bool {
	return target == ErrInsufficientDistractorPool
}
