package playlist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kulugbekwork/course-patform/internal/events"
)

// Recorder appends completed item ids to the per-(playlist, student) progress
// row. Both completion paths — a finished test session and an explicit
// "mark lesson complete" — converge here; there is no other writer of
// progress rows.
//
// The read-modify-write is serialized per (playlistID, studentID) with a
// keyed mutex, so concurrent in-process completions cannot lose updates.
// The store's upsert is still last-writer-wins, so completions racing from
// separate processes keep the documented lost-update window; closing that
// needs an atomic set-append in the backend.
type Recorder struct {
	store Store
	bus   *events.Bus
	log   *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRecorder(store Store, bus *events.Bus, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{store: store, bus: bus, log: log, locks: map[string]*sync.Mutex{}}
}

// RecordCompletion unions itemID into the completion set and returns the
// updated set. Idempotent: an already-completed item is a no-op that skips
// the write. The completion event publishes only after the write is
// acknowledged, never before.
func (r *Recorder) RecordCompletion(ctx context.Context, playlistID, studentID, itemID string, kind Kind) ([]string, error) {
	lock := r.keyLock(playlistID + "|" + studentID)
	lock.Lock()
	defer lock.Unlock()

	p, err := r.store.GetProgress(ctx, playlistID, studentID)
	if err != nil {
		return nil, fmt.Errorf("read progress: %w", err)
	}
	if p.Completed(itemID) {
		return p.CompletedIDs, nil
	}
	p.CompletedIDs = append(p.CompletedIDs, itemID)

	if items, _, err := r.store.GetItems(ctx, playlistID); err == nil {
		p.CurrentItemID = NextUncompleted(items, CompletedSet(p))
	}

	if err := r.write(ctx, p); err != nil {
		return nil, err
	}

	r.log.Info("completion recorded",
		zap.String("playlist_id", playlistID),
		zap.String("student_id", studentID),
		zap.String("item_id", itemID),
		zap.String("kind", string(kind)))
	if r.bus != nil {
		r.bus.Publish(events.Completion{
			PlaylistID: playlistID,
			StudentID:  studentID,
			ItemID:     itemID,
			Kind:       kind,
		})
	}
	return p.CompletedIDs, nil
}

// write upserts with one best-effort retry. Progress loss is non-fatal to the
// caller's flow but worth a second attempt before surfacing.
func (r *Recorder) write(ctx context.Context, p Progress) error {
	err := r.store.UpsertProgress(ctx, p)
	if err == nil {
		return nil
	}
	r.log.Warn("progress write failed, retrying once",
		zap.String("playlist_id", p.PlaylistID),
		zap.String("student_id", p.StudentID),
		zap.Error(err))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(200 * time.Millisecond):
	}
	if err := r.store.UpsertProgress(ctx, p); err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	return nil
}

func (r *Recorder) keyLock(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[key]
	if !ok {
		l = &sync.Mutex{}
		r.locks[key] = l
	}
	return l
}
