package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authmw "github.com/kulugbekwork/course-patform/internal/auth/middleware"
)

// Courses are video lessons. Storage of the video itself is out of scope;
// a course carries a reference URL.

type Course struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	VideoURL    string `json:"video_url,omitempty"`
	TeacherID   string `json:"teacher_id"`
}

func CreateCourseHandler(dbh *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teacherID := authmw.SubjectFromContext(r.Context())
		var req struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			VideoURL    string `json:"video_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		id := uuid.NewString()
		if _, err := dbh.ExecContext(r.Context(),
			`INSERT INTO courses (id,title,description,video_url,teacher_id,created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
			id, req.Title, req.Description, req.VideoURL, teacherID, time.Now().Unix()); err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": id})
	}
}

func GetCourseHandler(dbh *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "courseID")
		var c Course
		err := dbh.QueryRowContext(r.Context(),
			`SELECT id, title, description, video_url, teacher_id FROM courses WHERE id=$1`, id).
			Scan(&c.ID, &c.Title, &c.Description, &c.VideoURL, &c.TeacherID)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "course not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(c)
	}
}
