package playlist

import "testing"

func threeItems() []Item {
	return []Item{{ItemID: "a", OrderIndex: 0}, {ItemID: "b", OrderIndex: 1}, {ItemID: "c", OrderIndex: 2}}
}

func TestComputeAvailability_Sequential(t *testing.T) {
	views := ComputeAvailability(threeItems(), AccessSequential, map[string]bool{"a": true}, false)
	want := []struct{ avail, done bool }{
		{true, true},   // completed head
		{true, false},  // unlocked by predecessor
		{false, false}, // still locked
	}
	for i, w := range want {
		if views[i].IsAvailable != w.avail || views[i].IsCompleted != w.done {
			t.Fatalf("item %d = {avail:%v done:%v}, want {avail:%v done:%v}",
				i, views[i].IsAvailable, views[i].IsCompleted, w.avail, w.done)
		}
	}
}

func TestComputeAvailability_SequentialNoProgress(t *testing.T) {
	views := ComputeAvailability(threeItems(), AccessSequential, map[string]bool{}, false)
	if !views[0].IsAvailable || views[1].IsAvailable || views[2].IsAvailable {
		t.Fatalf("only the first item should be available: %+v", views)
	}
}

func TestComputeAvailability_AnyMode(t *testing.T) {
	views := ComputeAvailability(threeItems(), AccessAny, map[string]bool{}, false)
	for i, v := range views {
		if !v.IsAvailable {
			t.Fatalf("item %d should be available in any mode", i)
		}
		if v.IsCompleted {
			t.Fatalf("item %d should not be completed", i)
		}
	}
}

func TestComputeAvailability_OwnerBypass(t *testing.T) {
	views := ComputeAvailability(threeItems(), AccessSequential, map[string]bool{}, true)
	for i, v := range views {
		if !v.IsAvailable {
			t.Fatalf("owner must see item %d as available", i)
		}
	}
}

func TestComputeAvailability_EmptyList(t *testing.T) {
	if views := ComputeAvailability(nil, AccessSequential, map[string]bool{"x": true}, false); len(views) != 0 {
		t.Fatalf("empty in, empty out; got %+v", views)
	}
}

func TestNextUncompleted(t *testing.T) {
	items := threeItems()
	if got := NextUncompleted(items, map[string]bool{"a": true}); got != "b" {
		t.Fatalf("next = %q, want b", got)
	}
	if got := NextUncompleted(items, map[string]bool{"a": true, "b": true, "c": true}); got != "" {
		t.Fatalf("all done, next = %q, want empty", got)
	}
}
