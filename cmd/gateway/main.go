package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	api "github.com/kulugbekwork/course-patform/internal/api/http"
	"github.com/kulugbekwork/course-patform/internal/audit"
	auth "github.com/kulugbekwork/course-patform/internal/auth/middleware"
	"github.com/kulugbekwork/course-patform/internal/config"
	"github.com/kulugbekwork/course-patform/internal/db"
	"github.com/kulugbekwork/course-patform/internal/events"
	"github.com/kulugbekwork/course-patform/internal/playlist"
	"github.com/kulugbekwork/course-patform/internal/quiz"
	"github.com/kulugbekwork/course-patform/internal/rbac"
)

func main() {
	cfg := config.FromEnv()

	log := newLogger(cfg.Mode)
	defer func() { _ = log.Sync() }()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}

	quizStore := quiz.NewSQLStore(dbh)
	plStore := playlist.NewSQLStore(dbh)

	// --- Core wiring: recorder -> bus -> audit log ---
	bus := events.NewBus()
	recorder := playlist.NewRecorder(plStore, bus, log)
	eventRepo := audit.NewEventRepo(dbh)
	bus.Subscribe(func(c events.Completion) {
		if err := eventRepo.Append(context.Background(), audit.TypeItemCompleted, c.ItemID, c); err != nil {
			log.Warn("audit append failed", zap.Error(err))
		}
	})

	// Test finish and explicit lesson completion converge on the recorder.
	onComplete := func(ctx context.Context, playlistID, studentID, itemID string) error {
		_, err := recorder.RecordCompletion(ctx, playlistID, studentID, itemID, events.KindTest)
		return err
	}
	mgr := quiz.NewManager(quizStore, onComplete,
		time.Duration(cfg.SessionEvictGraceSec)*time.Second, log)

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(requestLogger(log))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))
	}

	// Protected API (JWT -> subject+role in context -> RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Authoring
		pr.With(rbac.Require("test:create")).
			Post("/tests", api.CreateTestHandler(quizStore))
		pr.With(rbac.Require("course:create")).
			Post("/courses", api.CreateCourseHandler(dbh))
		pr.With(rbac.Require("playlist:create")).
			Post("/playlists", api.CreatePlaylistHandler(plStore))
		pr.With(rbac.Require("playlist:edit")).
			Post("/playlists/{playlistID}/items", api.AddPlaylistItemHandler(plStore))

		// Consumption
		pr.With(rbac.Require("test:view")).
			Get("/tests", api.ListTestsHandler(quizStore))
		pr.With(rbac.Require("test:view")).
			Get("/tests/{testID}", api.GetTestHandler(quizStore))
		pr.With(rbac.Require("test:rate")).
			Post("/tests/{testID}/ratings", api.RateTestHandler(quizStore))
		pr.With(rbac.Require("course:view")).
			Get("/courses/{courseID}", api.GetCourseHandler(dbh))

		// Test sessions
		pr.With(rbac.Require("session:create")).
			Post("/tests/{testID}/sessions", api.StartSessionHandler(mgr))
		pr.With(rbac.Require("session:view")).
			Get("/sessions/{sessionID}", api.GetSessionHandler(mgr))
		pr.With(rbac.Require("session:answer")).
			Put("/sessions/{sessionID}/answers", api.SetAnswerHandler(mgr))
		pr.With(rbac.Require("session:answer")).
			Post("/sessions/{sessionID}/resume", api.ResumeSessionHandler(mgr))
		pr.With(rbac.Require("session:finish")).
			Post("/sessions/{sessionID}/finish", api.FinishSessionHandler(mgr))
		pr.With(rbac.Require("session:abandon")).
			Delete("/sessions/{sessionID}", api.AbandonSessionHandler(mgr))

		// Playlists and progress
		pr.With(rbac.Require("playlist:view")).
			Get("/playlists", api.ListPlaylistsHandler(plStore))
		pr.With(rbac.Require("playlist:view")).
			Get("/playlists/{playlistID}", api.GetPlaylistHandler(plStore))
		pr.With(rbac.Require("playlist:view")).
			Get("/playlists/{playlistID}/progress", api.GetProgressHandler(plStore))
		pr.With(rbac.Require("playlist:complete")).
			Post("/playlists/{playlistID}/complete", api.CompletePlaylistItemHandler(plStore, recorder))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Info("listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("mode", string(cfg.Mode)),
		zap.String("db", cfg.DBDriver))
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(mode config.Mode) *zap.Logger {
	var l *zap.Logger
	var err error
	if mode == config.ModeOnline {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	return l
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("http",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)))
		})
	}
}
