package quiz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutTest(ctx context.Context, t Test, questions []Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tests (id,title,description,time_limit_min,teacher_id,source_doc_ref,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description,
		   time_limit_min=EXCLUDED.time_limit_min, source_doc_ref=EXCLUDED.source_doc_ref`,
		t.ID, t.Title, t.Description, t.TimeLimitMin, t.TeacherID, t.SourceDocRef, time.Now().Unix()); err != nil {
		return err
	}
	// replace the question set wholesale; edits re-send everything
	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE test_id=$1`, t.ID); err != nil {
		return err
	}
	for _, q := range questions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO questions (id,test_id,text,order_index) VALUES ($1,$2,$3,$4)`,
			q.ID, t.ID, q.Text, q.OrderIndex); err != nil {
			return err
		}
		for _, v := range q.Variants {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO variants (id,question_id,text,is_correct,order_index) VALUES ($1,$2,$3,$4,$5)`,
				v.ID, q.ID, v.Text, v.IsCorrect, v.OrderIndex); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetTest(ctx context.Context, id string) (Test, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT t.id, t.title, t.description, t.time_limit_min, t.teacher_id, t.source_doc_ref, t.created_at,
		        (SELECT COUNT(*) FROM questions q WHERE q.test_id=t.id)
		   FROM tests t WHERE t.id=$1`, id)
	var t Test
	var ref sql.NullString
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.TimeLimitMin, &t.TeacherID, &ref, &t.CreatedAt, &t.QuestionCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Test{}, ErrNotFound
		}
		return Test{}, err
	}
	if ref.Valid {
		t.SourceDocRef = &ref.String
	}
	return t, nil
}

func (s *SQLStore) GetQuestions(ctx context.Context, testID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, test_id, text, order_index FROM questions WHERE test_id=$1 ORDER BY order_index`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Question{}
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.TestID, &q.Text, &q.OrderIndex); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetVariants(ctx context.Context, questionIDs []string) ([]Variant, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}
	ph := make([]string, len(questionIDs))
	args := make([]any, len(questionIDs))
	for i, id := range questionIDs {
		ph[i] = "$" + strconv.Itoa(i+1)
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, question_id, text, is_correct, order_index FROM variants WHERE question_id IN (%s)`,
		strings.Join(ph, ",")), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Variant{}
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.QuestionID, &v.Text, &v.IsCorrect, &v.OrderIndex); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListTests(ctx context.Context, opts ListOpts) ([]TestSummary, error) {
	sqlStr := `
		SELECT t.id, t.title, t.time_limit_min, t.teacher_id,
		       (SELECT COUNT(*) FROM questions q WHERE q.test_id=t.id)
		  FROM tests t
		 WHERE 1=1`
	args := []any{}
	if opts.TeacherID != "" {
		args = append(args, opts.TeacherID)
		sqlStr += ` AND t.teacher_id=$` + strconv.Itoa(len(args))
	}
	if opts.Q != "" {
		args = append(args, "%"+strings.ToLower(opts.Q)+"%")
		sqlStr += ` AND LOWER(t.title) LIKE $` + strconv.Itoa(len(args))
	}
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	sqlStr += ` ORDER BY t.created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TestSummary{}
	for rows.Next() {
		var t TestSummary
		if err := rows.Scan(&t.ID, &t.Title, &t.TimeLimitMin, &t.TeacherID, &t.QuestionCount); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLStore) InsertRating(ctx context.Context, r Rating) error {
	if _, err := s.GetTest(ctx, r.TestID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ratings (test_id,user_id,rating,comment,created_at) VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (test_id,user_id) DO UPDATE SET rating=EXCLUDED.rating, comment=EXCLUDED.comment`,
		r.TestID, r.UserID, r.Rating, r.Comment, time.Now().Unix())
	return err
}
