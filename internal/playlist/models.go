package playlist

import "github.com/kulugbekwork/course-patform/internal/events"

type AccessMode string

const (
	AccessAny        AccessMode = "any"
	AccessSequential AccessMode = "sequential"
)

// Playlist is a homogeneous ordered container: all tests or all courses,
// never mixed. Kind is not stored; it is inferred from which junction table
// holds the items.
type Playlist struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	AccessMode AccessMode `json:"access_mode"`
	OwnerID    string     `json:"owner_id"`
	CreatedAt  int64      `json:"created_at,omitempty"`
}

type Item struct {
	ItemID     string `json:"item_id"`
	OrderIndex int    `json:"order_index"`
}

// Progress is the per-(playlist, student) completion record. Absence of a row
// is equivalent to no progress; CompletedIDs accumulates monotonically.
type Progress struct {
	PlaylistID    string   `json:"playlist_id"`
	StudentID     string   `json:"student_id"`
	CurrentItemID string   `json:"current_item_id,omitempty"`
	CompletedIDs  []string `json:"completed_item_ids"`
}

// Completed reports membership in the completion set.
func (p Progress) Completed(itemID string) bool {
	for _, id := range p.CompletedIDs {
		if id == itemID {
			return true
		}
	}
	return false
}

// ItemView is one row of the availability computation.
type ItemView struct {
	ItemID      string `json:"item_id"`
	OrderIndex  int    `json:"order_index"`
	IsAvailable bool   `json:"is_available"`
	IsCompleted bool   `json:"is_completed"`
}

// Kind aliases the event-bus item kind so callers deal with one vocabulary.
type Kind = events.ItemKind

const (
	KindTest   = events.KindTest
	KindCourse = events.KindCourse
)
