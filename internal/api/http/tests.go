package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authmw "github.com/kulugbekwork/course-patform/internal/auth/middleware"
	"github.com/kulugbekwork/course-patform/internal/quiz"
	"github.com/kulugbekwork/course-patform/internal/rbac"
)

type variantReq struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type questionReq struct {
	Text     string       `json:"text"`
	Variants []variantReq `json:"variants"`
}

type createTestReq struct {
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	TimeLimitMin int           `json:"time_limit_min"`
	SourceDocRef *string       `json:"source_doc_ref,omitempty"`
	Questions    []questionReq `json:"questions"`
}

func CreateTestHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teacherID := authmw.SubjectFromContext(r.Context())
		var req createTestReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Title) == "" || req.TimeLimitMin <= 0 {
			http.Error(w, "title and positive time_limit_min required", http.StatusBadRequest)
			return
		}
		t := quiz.Test{
			ID:           uuid.NewString(),
			Title:        req.Title,
			Description:  req.Description,
			TimeLimitMin: req.TimeLimitMin,
			TeacherID:    teacherID,
			SourceDocRef: req.SourceDocRef,
		}
		questions := make([]quiz.Question, 0, len(req.Questions))
		for i, q := range req.Questions {
			qq := quiz.Question{ID: uuid.NewString(), TestID: t.ID, Text: q.Text, OrderIndex: i}
			for j, v := range q.Variants {
				qq.Variants = append(qq.Variants, quiz.Variant{
					ID: uuid.NewString(), QuestionID: qq.ID,
					Text: v.Text, IsCorrect: v.IsCorrect, OrderIndex: j,
				})
			}
			questions = append(questions, qq)
		}
		if err := store.PutTest(r.Context(), t, questions); err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		resp := map[string]any{"id": t.ID}
		if warnings := quiz.ValidateQuestions(questions); len(warnings) > 0 {
			resp["warnings"] = warnings
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// GetTestHandler serves the test with its questions. Correctness flags are
// stripped unless the viewer owns the test (or is admin).
func GetTestHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "testID")
		t, err := store.GetTest(r.Context(), id)
		if err != nil {
			if errors.Is(err, quiz.ErrNotFound) {
				http.Error(w, "test not found", http.StatusNotFound)
				return
			}
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		qs, err := quiz.LoadQuestions(r.Context(), store, id)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		viewer := authmw.SubjectFromContext(r.Context())
		role := rbac.RoleFromContext(r.Context())
		if viewer != t.TeacherID && role != "admin" {
			for i := range qs {
				for j := range qs[i].Variants {
					qs[i].Variants[j].IsCorrect = false
				}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"test": t, "questions": qs})
	}
}

func ListTestsHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := quiz.ListOpts{
			Q:         strings.TrimSpace(r.URL.Query().Get("q")),
			TeacherID: strings.TrimSpace(r.URL.Query().Get("teacher_id")),
		}
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
			opts.Limit = v
		}
		if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
			opts.Offset = v
		}
		out, err := store.ListTests(r.Context(), opts)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

func RateTestHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testID := chi.URLParam(r, "testID")
		userID := authmw.SubjectFromContext(r.Context())
		var req struct {
			Rating  int    `json:"rating"`
			Comment string `json:"comment"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Rating < 1 || req.Rating > 5 {
			http.Error(w, "rating must be 1..5", http.StatusBadRequest)
			return
		}
		err := store.InsertRating(r.Context(), quiz.Rating{
			TestID: testID, UserID: userID, Rating: req.Rating, Comment: req.Comment,
		})
		if err != nil {
			if errors.Is(err, quiz.ErrNotFound) {
				http.Error(w, "test not found", http.StatusNotFound)
				return
			}
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
