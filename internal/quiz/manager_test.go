package quiz

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seedStore(t *testing.T) Store {
	t.Helper()
	store := NewInMemoryStore()
	q1 := Question{ID: "q1", TestID: "t1", Text: "1+1?", OrderIndex: 0, Variants: []Variant{
		{ID: "v1", QuestionID: "q1", Text: "2", IsCorrect: true, OrderIndex: 0},
		{ID: "v2", QuestionID: "q1", Text: "3", OrderIndex: 1},
	}}
	q2 := Question{ID: "q2", TestID: "t1", Text: "2+2?", OrderIndex: 1, Variants: []Variant{
		{ID: "v3", QuestionID: "q2", Text: "3", OrderIndex: 0},
		{ID: "v4", QuestionID: "q2", Text: "4", IsCorrect: true, OrderIndex: 1},
	}}
	err := store.PutTest(context.Background(), Test{ID: "t1", Title: "Arithmetic", TimeLimitMin: 1, TeacherID: "tea-1"}, []Question{q1, q2})
	if err != nil {
		t.Fatalf("PutTest: %v", err)
	}
	return store
}

func TestManager_StartFinish(t *testing.T) {
	store := seedStore(t)
	spy := &completionSpy{}
	mgr := NewManager(store, spy.record, time.Minute, nil)

	s, err := mgr.Start(context.Background(), "t1", "stu-1", "pl-1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := mgr.Get(s.ID, "someone-else"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("foreign student must not see the session")
	}

	_ = s.SetAnswer(0, 0)
	_ = s.SetAnswer(1, 1)
	res, err := mgr.Finish(context.Background(), s.ID, "stu-1")
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if res.Correct != 2 || res.Total != 2 {
		t.Fatalf("result = %+v", res)
	}
	// still readable during the eviction grace period
	if _, err := mgr.Get(s.ID, "stu-1"); err != nil {
		t.Fatalf("finished session should remain readable: %v", err)
	}
	if spy.count() != 1 {
		t.Fatalf("expected one completion, got %d", spy.count())
	}
}

func TestManager_StartUnknownTest(t *testing.T) {
	mgr := NewManager(NewInMemoryStore(), nil, time.Minute, nil)
	if _, err := mgr.Start(context.Background(), "nope", "stu-1", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Start unknown test = %v, want ErrNotFound", err)
	}
}

func TestManager_Abandon(t *testing.T) {
	store := seedStore(t)
	spy := &completionSpy{}
	mgr := NewManager(store, spy.record, time.Minute, nil)

	s, err := mgr.Start(context.Background(), "t1", "stu-1", "pl-1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := mgr.Abandon(s.ID, "stu-1"); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if _, err := mgr.Get(s.ID, "stu-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("abandoned session still reachable")
	}
	if spy.count() != 0 {
		t.Fatalf("abandon must not record progress")
	}
}

func TestLoadQuestions_GroupsAndOrdersVariants(t *testing.T) {
	store := seedStore(t)
	qs, err := LoadQuestions(context.Background(), store, "t1")
	if err != nil {
		t.Fatalf("LoadQuestions: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
	if qs[0].ID != "q1" || qs[1].ID != "q2" {
		t.Fatalf("questions out of order: %s, %s", qs[0].ID, qs[1].ID)
	}
	if got := qs[1].CorrectVariantPos(); got != 1 {
		t.Fatalf("q2 correct pos = %d, want 1", got)
	}
}
