package quiz

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// fixture arms a session in InProgress without starting the wall-clock
// timer, so tests drive ticks deterministically via tick().
func fixture(t *testing.T, questions []Question, limitMin int, playlistID string, onComplete CompletionFunc) *Session {
	t.Helper()
	s := NewSession("sess-1", "test-1", "stu-1", playlistID, onComplete, nil)
	s.test = Test{ID: "test-1", TimeLimitMin: limitMin}
	s.questions = questions
	s.allotted = limitMin * 60
	s.remaining = s.allotted
	s.state = StateInProgress
	return s
}

type completionSpy struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (c *completionSpy) record(_ context.Context, playlistID, studentID, itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, playlistID+"|"+studentID+"|"+itemID)
	return c.err
}

func (c *completionSpy) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func TestSession_AnswerAndFinish(t *testing.T) {
	// two questions: Q1 correct=variant[0], Q2 correct=variant[1]
	qs := []Question{mcq(0, 3), mcq(1, 3)}
	spy := &completionSpy{}
	s := fixture(t, qs, 1, "pl-1", spy.record)

	if err := s.SetAnswer(0, 0); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.SetAnswer(1, 1); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	for i := 0; i < 10; i++ {
		s.tick()
	}

	res, err := s.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	want := Result{Total: 2, Correct: 2, Wrong: 0, TimeTaken: 10}
	if res != want {
		t.Fatalf("result = %+v, want %+v", res, want)
	}
	if spy.count() != 1 {
		t.Fatalf("expected 1 completion call, got %d", spy.count())
	}
}

func TestSession_FinishIdempotent(t *testing.T) {
	spy := &completionSpy{}
	s := fixture(t, []Question{mcq(0, 2)}, 1, "pl-1", spy.record)

	first, err := s.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	// mutations after finish are rejected and the second finish is a no-op
	if err := s.SetAnswer(0, 0); !errors.Is(err, ErrSessionFinished) {
		t.Fatalf("SetAnswer after finish = %v, want ErrSessionFinished", err)
	}
	second, err := s.Finish(context.Background())
	if err != nil {
		t.Fatalf("second Finish: %v", err)
	}
	if first != second {
		t.Fatalf("second finish produced different result: %+v vs %+v", first, second)
	}
	if spy.count() != 1 {
		t.Fatalf("second finish must not re-record; got %d calls", spy.count())
	}
}

func TestSession_TimeoutAutoFinishOnce(t *testing.T) {
	spy := &completionSpy{}
	s := fixture(t, []Question{mcq(0, 2), mcq(1, 2)}, 1, "pl-1", spy.record)

	// drive the full minute; the 60th tick forces finish
	for i := 0; i < 60; i++ {
		if stopped := s.tick(); stopped && i < 59 {
			t.Fatalf("timer stopped early at tick %d", i+1)
		}
	}
	res, ok := s.Result()
	if !ok {
		t.Fatalf("expected session finished after timeout")
	}
	want := Result{Total: 2, Correct: 0, Wrong: 2, TimeTaken: 60}
	if res != want {
		t.Fatalf("result = %+v, want %+v", res, want)
	}
	// a user finish racing after timeout is a no-op
	if _, err := s.Finish(context.Background()); err != nil {
		t.Fatalf("finish after timeout: %v", err)
	}
	if spy.count() != 1 {
		t.Fatalf("auto-finish must record exactly once, got %d", spy.count())
	}
	// ticks after finish do not resurrect the timer
	if !s.tick() {
		t.Fatalf("tick after finish should report stopped")
	}
}

func TestSession_RecordFailureDoesNotHideResult(t *testing.T) {
	spy := &completionSpy{err: errors.New("gateway down")}
	s := fixture(t, []Question{mcq(0, 2)}, 1, "pl-1", spy.record)
	_ = s.SetAnswer(0, 0)

	res, err := s.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish must not propagate record errors, got %v", err)
	}
	if res.Correct != 1 {
		t.Fatalf("result lost on record failure: %+v", res)
	}
	if s.State() != StateFinished {
		t.Fatalf("finished state rolled back on record failure")
	}
}

func TestSession_NoPlaylistSkipsRecorder(t *testing.T) {
	spy := &completionSpy{}
	s := fixture(t, []Question{mcq(0, 2)}, 1, "", spy.record)
	if _, err := s.Finish(context.Background()); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if spy.count() != 0 {
		t.Fatalf("no playlist context, recorder must not be called")
	}
}

func TestSession_Resume(t *testing.T) {
	s := fixture(t, []Question{mcq(0, 2), mcq(1, 2), mcq(0, 2)}, 1, "", nil)
	_ = s.SetAnswer(0, 1)
	_ = s.SetAnswer(2, 0)

	// negative pairs are dropped; position 0 is overwritten, position 2 kept
	if err := s.Resume(map[int]int{0: 0, 1: 1, -1: 0, 5: -2}); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	res, err := s.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if res.Correct != 3 {
		t.Fatalf("merged answers should all be correct, got %+v", res)
	}
}

func TestSession_LoadNotFound(t *testing.T) {
	store := NewInMemoryStore()
	s := NewSession("sess-x", "missing", "stu-1", "", nil, nil)
	if err := s.Load(context.Background(), store); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load missing test = %v, want ErrNotFound", err)
	}
	if s.State() != StateNotStarted {
		t.Fatalf("failed load must not start the session")
	}
}

func TestSession_LoadAndTeardown(t *testing.T) {
	store := NewInMemoryStore()
	qs := []Question{mcq(0, 2)}
	qs[0].ID = "q1"
	qs[0].Variants[0].QuestionID = "q1"
	qs[0].Variants[1].QuestionID = "q1"
	if err := store.PutTest(context.Background(), Test{ID: "t1", Title: "T", TimeLimitMin: 2}, qs); err != nil {
		t.Fatalf("PutTest: %v", err)
	}

	s := NewSession("sess-y", "t1", "stu-1", "", nil, nil)
	if err := s.Load(context.Background(), store); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.State() != StateInProgress {
		t.Fatalf("state after load = %v", s.State())
	}
	if s.Remaining() != 120 {
		t.Fatalf("remaining = %d, want 120", s.Remaining())
	}
	// student view must not leak correctness flags
	for _, q := range s.Questions() {
		for _, v := range q.Variants {
			if v.IsCorrect {
				t.Fatalf("correctness flag leaked to student view")
			}
		}
	}
	s.Teardown()
	if _, ok := s.Result(); ok {
		t.Fatalf("teardown must not produce a result")
	}
}
