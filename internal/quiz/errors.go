package quiz

import "errors"

var (
	// ErrNotFound means the test (or a dependent row) does not resolve.
	// Fatal to starting a session; surfaced, never retried here.
	ErrNotFound = errors.New("test not found")

	// ErrSessionFinished guards mutations after the terminal state.
	ErrSessionFinished = errors.New("session already finished")

	// ErrSessionNotStarted guards operations before Load.
	ErrSessionNotStarted = errors.New("session not started")
)
