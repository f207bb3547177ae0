package playlist

import (
	"context"
	"sort"
	"sync"
)

type memoryStore struct {
	mu        sync.RWMutex
	playlists map[string]Playlist
	tests     map[string][]Item // playlistID -> test items
	courses   map[string][]Item // playlistID -> course items
	progress  map[string]Progress
}

func NewInMemoryStore() Store {
	return &memoryStore{
		playlists: map[string]Playlist{},
		tests:     map[string][]Item{},
		courses:   map[string][]Item{},
		progress:  map[string]Progress{},
	}
}

func progressKey(playlistID, studentID string) string { return playlistID + "|" + studentID }

func (m *memoryStore) PutPlaylist(_ context.Context, p Playlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playlists[p.ID] = p
	return nil
}

func (m *memoryStore) GetPlaylist(_ context.Context, id string) (Playlist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.playlists[id]
	if !ok {
		return Playlist{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryStore) AddItem(_ context.Context, playlistID, itemID string, kind Kind, orderIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.playlists[playlistID]; !ok {
		return ErrNotFound
	}
	bucket := m.tests
	if kind == KindCourse {
		bucket = m.courses
	}
	items := bucket[playlistID]
	for i, it := range items {
		if it.ItemID == itemID {
			items[i].OrderIndex = orderIndex
			sortItems(items)
			return nil
		}
	}
	items = append(items, Item{ItemID: itemID, OrderIndex: orderIndex})
	sortItems(items)
	bucket[playlistID] = items
	return nil
}

func (m *memoryStore) GetItems(_ context.Context, playlistID string) ([]Item, Kind, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.playlists[playlistID]; !ok {
		return nil, "", ErrNotFound
	}
	if items := m.tests[playlistID]; len(items) > 0 {
		return append([]Item(nil), items...), KindTest, nil
	}
	return append([]Item(nil), m.courses[playlistID]...), KindCourse, nil
}

func (m *memoryStore) ListPlaylists(_ context.Context, ownerID string) ([]Playlist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Playlist{}
	for _, p := range m.playlists {
		if ownerID == "" || p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) GetProgress(_ context.Context, playlistID, studentID string) (Progress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.progress[progressKey(playlistID, studentID)]
	if !ok {
		return Progress{PlaylistID: playlistID, StudentID: studentID}, nil
	}
	cp := p
	cp.CompletedIDs = append([]string(nil), p.CompletedIDs...)
	return cp, nil
}

func (m *memoryStore) UpsertProgress(_ context.Context, p Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := p
	cp.CompletedIDs = append([]string(nil), p.CompletedIDs...)
	m.progress[progressKey(p.PlaylistID, p.StudentID)] = cp
	return nil
}

func sortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool { return items[i].OrderIndex < items[j].OrderIndex })
}
