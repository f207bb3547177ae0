package quiz

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("session not found")

// Manager owns the live test sessions. Sessions are in-process state: only a
// completed finish produces durable data (through the completion callback).
type Manager struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	store      Store
	onComplete CompletionFunc
	evictAfter time.Duration
	log        *zap.Logger
}

func NewManager(store Store, onComplete CompletionFunc, evictAfter time.Duration, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		sessions:   map[string]*Session{},
		store:      store,
		onComplete: onComplete,
		evictAfter: evictAfter,
		log:        log,
	}
}

// Start creates a session for (testID, studentID), loads the test and arms
// the countdown. playlistID is optional playlist context.
func (m *Manager) Start(ctx context.Context, testID, studentID, playlistID string) (*Session, error) {
	s := NewSession(uuid.NewString(), testID, studentID, playlistID, m.onComplete, m.log)
	if err := s.Load(ctx, m.store); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.log.Info("session started",
		zap.String("session_id", s.ID),
		zap.String("test_id", testID),
		zap.String("student_id", studentID))
	return s, nil
}

// Get returns a session only to its owner.
func (m *Manager) Get(sessionID, studentID string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok || s.StudentID != studentID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Finish finalizes the session and schedules its eviction. The result stays
// readable through Get until the grace period passes.
func (m *Manager) Finish(ctx context.Context, sessionID, studentID string) (Result, error) {
	s, err := m.Get(sessionID, studentID)
	if err != nil {
		return Result{}, err
	}
	res, err := s.Finish(ctx)
	if err != nil {
		return Result{}, err
	}
	time.AfterFunc(m.evictAfter, func() { m.drop(sessionID) })
	return res, nil
}

// Abandon tears the session down without finishing (navigation away).
func (m *Manager) Abandon(sessionID, studentID string) error {
	s, err := m.Get(sessionID, studentID)
	if err != nil {
		return err
	}
	s.Teardown()
	m.drop(sessionID)
	return nil
}

func (m *Manager) drop(sessionID string) {
	m.mu.Lock()
	if s, ok := m.sessions[sessionID]; ok {
		s.Teardown()
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()
}
