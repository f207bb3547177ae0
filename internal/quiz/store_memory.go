package quiz

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type memoryStore struct {
	mu        sync.RWMutex
	tests     map[string]Test
	questions map[string][]Question // testID -> ordered questions (variants inline)
	ratings   map[string]Rating     // testID|userID
}

// NewInMemoryStore backs dev mode and unit tests.
func NewInMemoryStore() Store {
	return &memoryStore{
		tests:     map[string]Test{},
		questions: map[string][]Question{},
		ratings:   map[string]Rating{},
	}
}

func (m *memoryStore) PutTest(_ context.Context, t Test, questions []Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	qs := make([]Question, len(questions))
	copy(qs, questions)
	sort.Slice(qs, func(i, j int) bool { return qs[i].OrderIndex < qs[j].OrderIndex })
	t.QuestionCount = len(qs)
	m.tests[t.ID] = t
	m.questions[t.ID] = qs
	return nil
}

func (m *memoryStore) GetTest(_ context.Context, id string) (Test, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tests[id]
	if !ok {
		return Test{}, ErrNotFound
	}
	return t, nil
}

func (m *memoryStore) GetQuestions(_ context.Context, testID string) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.tests[testID]; !ok {
		return nil, ErrNotFound
	}
	src := m.questions[testID]
	out := make([]Question, len(src))
	for i, q := range src {
		cq := q
		cq.Variants = nil // variants come through GetVariants, like the SQL store
		out[i] = cq
	}
	return out, nil
}

func (m *memoryStore) GetVariants(_ context.Context, questionIDs []string) ([]Variant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := make(map[string]bool, len(questionIDs))
	for _, id := range questionIDs {
		want[id] = true
	}
	var out []Variant
	for _, qs := range m.questions {
		for _, q := range qs {
			if want[q.ID] {
				out = append(out, q.Variants...)
			}
		}
	}
	return out, nil
}

func (m *memoryStore) ListTests(_ context.Context, opts ListOpts) ([]TestSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []TestSummary{}
	for _, t := range m.tests {
		if opts.TeacherID != "" && t.TeacherID != opts.TeacherID {
			continue
		}
		if opts.Q != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(opts.Q)) {
			continue
		}
		out = append(out, TestSummary{
			ID: t.ID, Title: t.Title, TimeLimitMin: t.TimeLimitMin,
			TeacherID: t.TeacherID, QuestionCount: len(m.questions[t.ID]),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []TestSummary{}, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memoryStore) InsertRating(_ context.Context, r Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tests[r.TestID]; !ok {
		return ErrNotFound
	}
	m.ratings[r.TestID+"|"+r.UserID] = r
	return nil
}
