package playlist

// ComputeAvailability derives, for an ordered item list and a completion set,
// which items the viewer may open. Owners see everything (authoring view);
// "any" mode unlocks everything; "sequential" unlocks item 0 and each item
// whose predecessor is completed. Deterministic and total: an empty item list
// yields an empty result, never an error.
//
// Re-run on every completion event instead of patching the previous output,
// so the derived view cannot drift from the completion set of record.
func ComputeAvailability(items []Item, mode AccessMode, completed map[string]bool, viewerIsOwner bool) []ItemView {
	out := make([]ItemView, len(items))
	for i, it := range items {
		v := ItemView{ItemID: it.ItemID, OrderIndex: it.OrderIndex, IsCompleted: completed[it.ItemID]}
		switch {
		case viewerIsOwner, mode != AccessSequential:
			v.IsAvailable = true
		case i == 0:
			v.IsAvailable = true
		default:
			v.IsAvailable = completed[items[i-1].ItemID]
		}
		out[i] = v
	}
	return out
}

// CompletedSet converts a progress record's id list into the set shape
// ComputeAvailability consumes.
func CompletedSet(p Progress) map[string]bool {
	s := make(map[string]bool, len(p.CompletedIDs))
	for _, id := range p.CompletedIDs {
		s[id] = true
	}
	return s
}

// NextUncompleted returns the first item not in the completion set, or ""
// when every item is done. The recorder uses it to maintain current_item_id.
func NextUncompleted(items []Item, completed map[string]bool) string {
	for _, it := range items {
		if !completed[it.ItemID] {
			return it.ItemID
		}
	}
	return ""
}
