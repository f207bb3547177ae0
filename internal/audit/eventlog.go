// Package audit appends durable records of completion events so operators can
// see progress writes that students never do (record failures are invisible
// to the score screen by design).
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

const TypeItemCompleted = "ItemCompleted"

type Event struct {
	Offset    int64
	Type      string
	Key       string // natural key: session id or item id
	DataJSON  string
	CreatedAt int64
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, typ, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		typ, key, string(data), time.Now().Unix())
	return err
}
