package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/kulugbekwork/course-patform/internal/auth/middleware"
	"github.com/kulugbekwork/course-patform/internal/quiz"
)

type sessionView struct {
	ID             string          `json:"id"`
	TestID         string          `json:"test_id"`
	Title          string          `json:"title,omitempty"`
	State          string          `json:"state"`
	RemainingSec   int             `json:"remaining_sec"`
	RemainingClock string          `json:"remaining_clock"` // M:SS, display only
	Questions      []quiz.Question `json:"questions,omitempty"`
	Result         *quiz.Result    `json:"result,omitempty"`
}

func viewOf(s *quiz.Session, withQuestions bool) sessionView {
	v := sessionView{
		ID:           s.ID,
		TestID:       s.TestID,
		State:        s.State().String(),
		RemainingSec: s.Remaining(),
	}
	v.RemainingClock = quiz.FormatRemaining(v.RemainingSec)
	v.Title = s.Test().Title
	if withQuestions {
		v.Questions = s.Questions()
	}
	if res, ok := s.Result(); ok {
		v.Result = &res
	}
	return v
}

func StartSessionHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testID := chi.URLParam(r, "testID")
		studentID := authmw.SubjectFromContext(r.Context())
		var req struct {
			PlaylistID string `json:"playlist_id"`
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req) // body is optional
		}
		s, err := mgr.Start(r.Context(), testID, studentID, req.PlaylistID)
		if err != nil {
			if errors.Is(err, quiz.ErrNotFound) {
				http.Error(w, "test not found", http.StatusNotFound)
				return
			}
			http.Error(w, "load failed", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(viewOf(s, true))
	}
}

func GetSessionHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := mgr.Get(chi.URLParam(r, "sessionID"), authmw.SubjectFromContext(r.Context()))
		if err != nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(viewOf(s, false))
	}
}

func SetAnswerHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := mgr.Get(chi.URLParam(r, "sessionID"), authmw.SubjectFromContext(r.Context()))
		if err != nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		var req struct {
			Position int `json:"position"`
			Variant  int `json:"variant"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := s.SetAnswer(req.Position, req.Variant); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ResumeSessionHandler merges an answer map built outside the live flow (the
// continue-from-document path). Keys are question positions as strings.
func ResumeSessionHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := mgr.Get(chi.URLParam(r, "sessionID"), authmw.SubjectFromContext(r.Context()))
		if err != nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		var req struct {
			Answers map[int]int `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := s.Resume(req.Answers); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func FinishSessionHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := mgr.Finish(r.Context(),
			chi.URLParam(r, "sessionID"), authmw.SubjectFromContext(r.Context()))
		if err != nil {
			if errors.Is(err, quiz.ErrSessionNotFound) {
				http.Error(w, "session not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	}
}

// AbandonSessionHandler tears the session down without finishing; nothing is
// persisted for an abandoned attempt.
func AbandonSessionHandler(mgr *quiz.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := mgr.Abandon(chi.URLParam(r, "sessionID"), authmw.SubjectFromContext(r.Context())); err != nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
