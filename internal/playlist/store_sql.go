package playlist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutPlaylist(ctx context.Context, p Playlist) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO playlists (id,title,access_mode,owner_id,created_at) VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, access_mode=EXCLUDED.access_mode`,
		p.ID, p.Title, string(p.AccessMode), p.OwnerID, time.Now().Unix())
	return err
}

func (s *SQLStore) GetPlaylist(ctx context.Context, id string) (Playlist, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, access_mode, owner_id, created_at FROM playlists WHERE id=$1`, id)
	var p Playlist
	var mode string
	if err := row.Scan(&p.ID, &p.Title, &mode, &p.OwnerID, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Playlist{}, ErrNotFound
		}
		return Playlist{}, err
	}
	p.AccessMode = AccessMode(mode)
	return p, nil
}

func (s *SQLStore) AddItem(ctx context.Context, playlistID, itemID string, kind Kind, orderIndex int) error {
	if _, err := s.GetPlaylist(ctx, playlistID); err != nil {
		return err
	}
	table, col := "playlist_tests", "test_id"
	if kind == KindCourse {
		table, col = "playlist_courses", "course_id"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO `+table+` (playlist_id,`+col+`,order_index) VALUES ($1,$2,$3)
		 ON CONFLICT (playlist_id,`+col+`) DO UPDATE SET order_index=EXCLUDED.order_index`,
		playlistID, itemID, orderIndex)
	return err
}

// GetItems queries the test junction first; only an empty result falls
// through to courses. That is how a playlist's kind is inferred.
func (s *SQLStore) GetItems(ctx context.Context, playlistID string) ([]Item, Kind, error) {
	if _, err := s.GetPlaylist(ctx, playlistID); err != nil {
		return nil, "", err
	}
	items, err := s.queryItems(ctx,
		`SELECT test_id, order_index FROM playlist_tests WHERE playlist_id=$1 ORDER BY order_index`, playlistID)
	if err != nil {
		return nil, "", err
	}
	if len(items) > 0 {
		return items, KindTest, nil
	}
	items, err = s.queryItems(ctx,
		`SELECT course_id, order_index FROM playlist_courses WHERE playlist_id=$1 ORDER BY order_index`, playlistID)
	if err != nil {
		return nil, "", err
	}
	return items, KindCourse, nil
}

func (s *SQLStore) queryItems(ctx context.Context, q, playlistID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, q, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ItemID, &it.OrderIndex); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListPlaylists(ctx context.Context, ownerID string) ([]Playlist, error) {
	sqlStr := `SELECT id, title, access_mode, owner_id, created_at FROM playlists`
	args := []any{}
	if ownerID != "" {
		sqlStr += ` WHERE owner_id=$1`
		args = append(args, ownerID)
	}
	sqlStr += ` ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Playlist{}
	for rows.Next() {
		var p Playlist
		var mode string
		if err := rows.Scan(&p.ID, &p.Title, &mode, &p.OwnerID, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.AccessMode = AccessMode(mode)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetProgress(ctx context.Context, playlistID, studentID string) (Progress, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT current_item_id, completed_json FROM playlist_progress WHERE playlist_id=$1 AND student_id=$2`,
		playlistID, studentID)
	p := Progress{PlaylistID: playlistID, StudentID: studentID}
	var current sql.NullString
	var cj string
	if err := row.Scan(&current, &cj); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// no row yet means no progress
			return p, nil
		}
		return Progress{}, err
	}
	if current.Valid {
		p.CurrentItemID = current.String
	}
	if err := json.Unmarshal([]byte(cj), &p.CompletedIDs); err != nil {
		p.CompletedIDs = nil
	}
	return p, nil
}

func (s *SQLStore) UpsertProgress(ctx context.Context, p Progress) error {
	if p.CompletedIDs == nil {
		p.CompletedIDs = []string{}
	}
	cj, err := json.Marshal(p.CompletedIDs)
	if err != nil {
		return err
	}
	var current any
	if p.CurrentItemID != "" {
		current = p.CurrentItemID
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO playlist_progress (playlist_id,student_id,current_item_id,completed_json,updated_at)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (playlist_id,student_id) DO UPDATE SET
		   current_item_id=EXCLUDED.current_item_id, completed_json=EXCLUDED.completed_json, updated_at=EXCLUDED.updated_at`,
		p.PlaylistID, p.StudentID, current, string(cj), time.Now().Unix())
	return err
}
