package quiz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type SessionState int

const (
	StateNotStarted SessionState = iota
	StateInProgress
	StateFinished
)

func (s SessionState) String() string {
	switch s {
	case StateInProgress:
		return "in_progress"
	case StateFinished:
		return "finished"
	default:
		return "not_started"
	}
}

// CompletionFunc records a finished test against its playlist context.
// Failures must not block or hide the computed result.
type CompletionFunc func(ctx context.Context, playlistID, studentID, itemID string) error

// Session is one timed test attempt. Lifecycle:
// NotStarted -> (Load) -> InProgress -> (Finish | timeout) -> Finished.
// Finished is terminal: answers and timer are frozen and a second Finish is a
// no-op returning the original result.
type Session struct {
	ID        string
	TestID    string
	StudentID string

	// PlaylistID is empty when the test was opened outside a playlist.
	PlaylistID string

	mu        sync.Mutex
	state     SessionState
	test      Test
	questions []Question
	answers   AnswerMap
	allotted  int // seconds
	remaining int // seconds
	result    Result

	cancelTick context.CancelFunc
	onComplete CompletionFunc
	log        *zap.Logger
}

// NewSession builds an unstarted session. onComplete may be nil for tests
// taken outside any playlist.
func NewSession(id, testID, studentID, playlistID string, onComplete CompletionFunc, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		ID:         id,
		TestID:     testID,
		StudentID:  studentID,
		PlaylistID: playlistID,
		answers:    AnswerMap{},
		onComplete: onComplete,
		log:        log,
	}
}

// Load fetches the test with its ordered questions and variants, arms the
// countdown and moves to InProgress. A missing test surfaces ErrNotFound.
func (s *Session) Load(ctx context.Context, store Store) error {
	t, err := store.GetTest(ctx, s.TestID)
	if err != nil {
		return err
	}
	qs, err := LoadQuestions(ctx, store, s.TestID)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateNotStarted {
		return nil
	}
	s.test = t
	s.questions = qs
	s.allotted = t.TimeLimitMin * 60
	s.remaining = s.allotted
	s.state = StateInProgress

	tickCtx, cancel := context.WithCancel(context.Background())
	s.cancelTick = cancel
	go s.runTimer(tickCtx)
	return nil
}

// runTimer decrements remaining once per second and forces Finish at zero.
// It exits when the session leaves InProgress or the context is cancelled,
// so no tick outlives the session.
func (s *Session) runTimer(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.tick() {
				return
			}
		}
	}
}

// tick reports whether the timer loop should stop.
func (s *Session) tick() bool {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return true
	}
	s.remaining--
	expired := s.remaining <= 0
	if expired && s.remaining < 0 {
		s.remaining = 0
	}
	s.mu.Unlock()

	if expired {
		s.log.Info("test time expired, forcing finish",
			zap.String("session_id", s.ID), zap.String("test_id", s.TestID))
		s.Finish(context.Background())
		return true
	}
	return false
}

// SetAnswer records the chosen variant position for a question position,
// overwriting any prior choice. Ignored outside InProgress.
func (s *Session) SetAnswer(questionPos, variantPos int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateNotStarted:
		return ErrSessionNotStarted
	case StateFinished:
		return ErrSessionFinished
	}
	s.answers[questionPos] = variantPos
	return nil
}

// Resume merges an answer map built outside the normal SetAnswer flow (the
// continue-from-document path). Pairs are validated as non-negative position
// ints; the last writer for a given position wins, answers already present
// for other positions are kept.
func (s *Session) Resume(answers map[int]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateNotStarted:
		return ErrSessionNotStarted
	case StateFinished:
		return ErrSessionFinished
	}
	for q, v := range answers {
		if q < 0 || v < 0 {
			continue
		}
		s.answers[q] = v
	}
	return nil
}

// Finish scores the current answer map against the current remaining time and
// transitions to Finished. Idempotent: a second call returns the stored
// result without re-scoring or re-recording. Progress recording runs after
// the result is fixed; its failure is logged, never propagated into the
// result the student sees.
func (s *Session) Finish(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if s.state == StateNotStarted {
		s.mu.Unlock()
		return Result{}, ErrSessionNotStarted
	}
	if s.state == StateFinished {
		r := s.result
		s.mu.Unlock()
		return r, nil
	}
	s.result = Score(s.questions, s.answers, s.allotted, s.remaining)
	s.state = StateFinished
	if s.cancelTick != nil {
		s.cancelTick()
		s.cancelTick = nil
	}
	r := s.result
	playlistID := s.PlaylistID
	onComplete := s.onComplete
	s.mu.Unlock()

	if playlistID != "" && onComplete != nil {
		if err := onComplete(ctx, playlistID, s.StudentID, s.TestID); err != nil {
			s.log.Error("progress record failed after finish",
				zap.String("session_id", s.ID),
				zap.String("playlist_id", playlistID),
				zap.String("test_id", s.TestID),
				zap.Error(err))
		}
	}
	return r, nil
}

// Teardown cancels the countdown without finishing. An unfinished session
// persists nothing.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelTick != nil {
		s.cancelTick()
		s.cancelTick = nil
	}
}

// Test returns the loaded test metadata.
func (s *Session) Test() Test {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.test
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Result returns the stored result and whether the session has finished.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.state == StateFinished
}

// Questions returns the loaded question sequence with correctness flags
// stripped, safe to hand to the student.
func (s *Session) Questions() []Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Question, len(s.questions))
	for i, q := range s.questions {
		cq := q
		cq.Variants = make([]Variant, len(q.Variants))
		for j, v := range q.Variants {
			v.IsCorrect = false
			cq.Variants[j] = v
		}
		out[i] = cq
	}
	return out
}

// FormatRemaining renders seconds as M:SS for display, e.g. 245 -> "4:05".
func FormatRemaining(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}
