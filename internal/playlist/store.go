package playlist

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("playlist not found")

// Store is the persistence boundary for playlists and progress rows.
//
// GetItems reports the inferred kind alongside the ordered items: the test
// junction is queried first and the course junction only when it is empty,
// which is what keeps playlists homogeneous in practice.
//
// GetProgress returns a zero-value Progress (empty completion set) when no
// row exists; absence is not an error. UpsertProgress is the plain
// last-writer-wins write the recorder serializes around.
type Store interface {
	PutPlaylist(ctx context.Context, p Playlist) error
	GetPlaylist(ctx context.Context, id string) (Playlist, error)
	AddItem(ctx context.Context, playlistID, itemID string, kind Kind, orderIndex int) error
	GetItems(ctx context.Context, playlistID string) ([]Item, Kind, error)
	ListPlaylists(ctx context.Context, ownerID string) ([]Playlist, error)

	GetProgress(ctx context.Context, playlistID, studentID string) (Progress, error)
	UpsertProgress(ctx context.Context, p Progress) error
}
