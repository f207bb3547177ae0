package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authmw "github.com/kulugbekwork/course-patform/internal/auth/middleware"
	"github.com/kulugbekwork/course-patform/internal/playlist"
)

func CreatePlaylistHandler(store playlist.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := authmw.SubjectFromContext(r.Context())
		var req struct {
			Title      string `json:"title"`
			AccessMode string `json:"access_mode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		mode := playlist.AccessAny
		if req.AccessMode == string(playlist.AccessSequential) {
			mode = playlist.AccessSequential
		}
		p := playlist.Playlist{
			ID:         uuid.NewString(),
			Title:      req.Title,
			AccessMode: mode,
			OwnerID:    ownerID,
		}
		if err := store.PutPlaylist(r.Context(), p); err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": p.ID})
	}
}

func AddPlaylistItemHandler(store playlist.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playlistID := chi.URLParam(r, "playlistID")
		ownerID := authmw.SubjectFromContext(r.Context())
		p, err := store.GetPlaylist(r.Context(), playlistID)
		if err != nil {
			http.Error(w, "playlist not found", http.StatusNotFound)
			return
		}
		if p.OwnerID != ownerID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		var req struct {
			ItemID     string `json:"item_id"`
			Kind       string `json:"kind"` // "test" | "course"
			OrderIndex int    `json:"order_index"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemID == "" {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		kind := playlist.KindTest
		if req.Kind == string(playlist.KindCourse) {
			kind = playlist.KindCourse
		}
		// a playlist holds tests or courses, never both
		if items, existing, err := store.GetItems(r.Context(), playlistID); err == nil && len(items) > 0 && existing != kind {
			http.Error(w, "playlist already holds items of another kind", http.StatusConflict)
			return
		}
		if err := store.AddItem(r.Context(), playlistID, req.ItemID, kind, req.OrderIndex); err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ListPlaylistsHandler(store playlist.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := strings.TrimSpace(r.URL.Query().Get("owner_id"))
		out, err := store.ListPlaylists(r.Context(), ownerID)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

// GetPlaylistHandler returns the playlist with availability computed for the
// viewer. Availability is derived on every read from the completion set of
// record, never cached.
func GetPlaylistHandler(store playlist.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playlistID := chi.URLParam(r, "playlistID")
		viewer := authmw.SubjectFromContext(r.Context())
		p, err := store.GetPlaylist(r.Context(), playlistID)
		if err != nil {
			if errors.Is(err, playlist.ErrNotFound) {
				http.Error(w, "playlist not found", http.StatusNotFound)
				return
			}
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		items, kind, err := store.GetItems(r.Context(), playlistID)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		prog, err := store.GetProgress(r.Context(), playlistID, viewer)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		views := playlist.ComputeAvailability(items, p.AccessMode, playlist.CompletedSet(prog), viewer == p.OwnerID)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"playlist":        p,
			"kind":            kind,
			"items":           views,
			"current_item_id": prog.CurrentItemID,
		})
	}
}

// CompletePlaylistItemHandler is the explicit "mark lesson complete" action.
// It runs through the same Recorder as test finish.
func CompletePlaylistItemHandler(store playlist.Store, rec *playlist.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playlistID := chi.URLParam(r, "playlistID")
		studentID := authmw.SubjectFromContext(r.Context())
		var req struct {
			ItemID string `json:"item_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemID == "" {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		items, kind, err := store.GetItems(r.Context(), playlistID)
		if err != nil {
			http.Error(w, "playlist not found", http.StatusNotFound)
			return
		}
		known := false
		for _, it := range items {
			if it.ItemID == req.ItemID {
				known = true
				break
			}
		}
		if !known {
			http.Error(w, "item not in playlist", http.StatusBadRequest)
			return
		}
		completed, err := rec.RecordCompletion(r.Context(), playlistID, studentID, req.ItemID, kind)
		if err != nil {
			http.Error(w, "record failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"completed_item_ids": completed})
	}
}

// GetProgressHandler exposes the raw progress row for the viewer.
func GetProgressHandler(store playlist.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playlistID := chi.URLParam(r, "playlistID")
		studentID := authmw.SubjectFromContext(r.Context())
		prog, err := store.GetProgress(r.Context(), playlistID, studentID)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		if prog.CompletedIDs == nil {
			prog.CompletedIDs = []string{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(prog)
	}
}
