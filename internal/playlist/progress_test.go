package playlist

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kulugbekwork/course-patform/internal/events"
)

func seedPlaylist(t *testing.T, mode AccessMode) Store {
	t.Helper()
	store := NewInMemoryStore()
	ctx := context.Background()
	if err := store.PutPlaylist(ctx, Playlist{ID: "pl-1", Title: "Unit 1", AccessMode: mode, OwnerID: "tea-1"}); err != nil {
		t.Fatalf("PutPlaylist: %v", err)
	}
	if err := store.AddItem(ctx, "pl-1", "testA", KindTest, 0); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := store.AddItem(ctx, "pl-1", "testB", KindTest, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	return store
}

func TestRecorder_Idempotent(t *testing.T) {
	store := seedPlaylist(t, AccessSequential)
	rec := NewRecorder(store, events.NewBus(), nil)
	ctx := context.Background()

	first, err := rec.RecordCompletion(ctx, "pl-1", "stu-1", "testA", KindTest)
	if err != nil {
		t.Fatalf("RecordCompletion: %v", err)
	}
	second, err := rec.RecordCompletion(ctx, "pl-1", "stu-1", "testA", KindTest)
	if err != nil {
		t.Fatalf("second RecordCompletion: %v", err)
	}
	if len(first) != 1 || len(second) != 1 || second[0] != "testA" {
		t.Fatalf("completion set must hold testA exactly once: %v / %v", first, second)
	}

	p, _ := store.GetProgress(ctx, "pl-1", "stu-1")
	if len(p.CompletedIDs) != 1 {
		t.Fatalf("persisted set duplicated: %v", p.CompletedIDs)
	}
	if p.CurrentItemID != "testB" {
		t.Fatalf("current item = %q, want testB", p.CurrentItemID)
	}
}

func TestRecorder_CompletionUnlocksSuccessor(t *testing.T) {
	store := seedPlaylist(t, AccessSequential)
	rec := NewRecorder(store, events.NewBus(), nil)
	ctx := context.Background()

	if _, err := rec.RecordCompletion(ctx, "pl-1", "stu-1", "testA", KindTest); err != nil {
		t.Fatalf("RecordCompletion: %v", err)
	}
	items, _, err := store.GetItems(ctx, "pl-1")
	if err != nil {
		t.Fatalf("GetItems: %v", err)
	}
	prog, _ := store.GetProgress(ctx, "pl-1", "stu-1")
	views := ComputeAvailability(items, AccessSequential, CompletedSet(prog), false)
	if !views[1].IsAvailable {
		t.Fatalf("completing testA must unlock testB: %+v", views)
	}
}

// The bus fires only after the write is acknowledged: a subscriber re-reading
// the store must already observe the completion.
func TestRecorder_WriteThenNotify(t *testing.T) {
	store := seedPlaylist(t, AccessAny)
	bus := events.NewBus()
	rec := NewRecorder(store, bus, nil)

	sawWrite := false
	unsub := bus.Subscribe(func(c events.Completion) {
		p, err := store.GetProgress(context.Background(), c.PlaylistID, c.StudentID)
		if err != nil {
			t.Errorf("GetProgress in handler: %v", err)
			return
		}
		sawWrite = p.Completed(c.ItemID)
	})
	defer unsub()

	if _, err := rec.RecordCompletion(context.Background(), "pl-1", "stu-1", "testA", KindTest); err != nil {
		t.Fatalf("RecordCompletion: %v", err)
	}
	if !sawWrite {
		t.Fatalf("event published before the write was acknowledged")
	}
}

func TestRecorder_NoEventOnRepeat(t *testing.T) {
	store := seedPlaylist(t, AccessAny)
	bus := events.NewBus()
	rec := NewRecorder(store, bus, nil)

	published := 0
	bus.Subscribe(func(events.Completion) { published++ })

	ctx := context.Background()
	_, _ = rec.RecordCompletion(ctx, "pl-1", "stu-1", "testA", KindTest)
	_, _ = rec.RecordCompletion(ctx, "pl-1", "stu-1", "testA", KindTest)
	if published != 1 {
		t.Fatalf("repeat completion must not publish again, got %d events", published)
	}
}

func TestRecorder_ConcurrentCompletions(t *testing.T) {
	store := seedPlaylist(t, AccessSequential)
	rec := NewRecorder(store, events.NewBus(), nil)

	var wg sync.WaitGroup
	for _, item := range []string{"testA", "testB"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := rec.RecordCompletion(context.Background(), "pl-1", "stu-1", id, KindTest); err != nil {
				t.Errorf("RecordCompletion(%s): %v", id, err)
			}
		}(item)
	}
	wg.Wait()

	p, _ := store.GetProgress(context.Background(), "pl-1", "stu-1")
	if len(p.CompletedIDs) != 2 {
		t.Fatalf("lost update: %v", p.CompletedIDs)
	}
}

// flakyStore fails the first upsert to exercise the retry path.
type flakyStore struct {
	Store
	mu       sync.Mutex
	failures int
	writes   int
}

func (f *flakyStore) UpsertProgress(ctx context.Context, p Progress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.failures > 0 {
		f.failures--
		return errors.New("gateway unavailable")
	}
	return f.Store.UpsertProgress(ctx, p)
}

func TestRecorder_RetriesOnce(t *testing.T) {
	inner := seedPlaylist(t, AccessAny)
	store := &flakyStore{Store: inner, failures: 1}
	rec := NewRecorder(store, events.NewBus(), nil)

	ids, err := rec.RecordCompletion(context.Background(), "pl-1", "stu-1", "testA", KindTest)
	if err != nil {
		t.Fatalf("retry should have recovered: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("completed = %v", ids)
	}
	if store.writes != 2 {
		t.Fatalf("expected 2 write attempts, got %d", store.writes)
	}
}

func TestRecorder_SurfacesPersistentFailure(t *testing.T) {
	inner := seedPlaylist(t, AccessAny)
	store := &flakyStore{Store: inner, failures: 2}
	bus := events.NewBus()
	published := 0
	bus.Subscribe(func(events.Completion) { published++ })
	rec := NewRecorder(store, bus, nil)

	if _, err := rec.RecordCompletion(context.Background(), "pl-1", "stu-1", "testA", KindTest); err == nil {
		t.Fatalf("expected error after retry exhausted")
	}
	if published != 0 {
		t.Fatalf("failed write must not publish a completion event")
	}
}
