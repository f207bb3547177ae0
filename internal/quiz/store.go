package quiz

import (
	"context"
	"sort"
)

type ListOpts struct {
	Q         string
	TeacherID string
	Limit     int
	Offset    int
}

// Store is the persistence boundary for tests and their questions.
// GetQuestions returns questions ordered by order_index; GetVariants returns
// variants for the given question ids and leaves grouping/ordering to the
// caller (see LoadQuestions).
type Store interface {
	PutTest(ctx context.Context, t Test, questions []Question) error
	GetTest(ctx context.Context, id string) (Test, error)
	GetQuestions(ctx context.Context, testID string) ([]Question, error)
	GetVariants(ctx context.Context, questionIDs []string) ([]Variant, error)
	ListTests(ctx context.Context, opts ListOpts) ([]TestSummary, error)
	InsertRating(ctx context.Context, r Rating) error
}

// LoadQuestions fetches the ordered question sequence with each question's
// variants grouped and re-ordered by order_index.
func LoadQuestions(ctx context.Context, s Store, testID string) ([]Question, error) {
	qs, err := s.GetQuestions(ctx, testID)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return qs, nil
	}
	ids := make([]string, len(qs))
	byID := make(map[string]int, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
		byID[q.ID] = i
	}
	vs, err := s.GetVariants(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, v := range vs {
		if i, ok := byID[v.QuestionID]; ok {
			qs[i].Variants = append(qs[i].Variants, v)
		}
	}
	for i := range qs {
		vv := qs[i].Variants
		sort.Slice(vv, func(a, b int) bool { return vv[a].OrderIndex < vv[b].OrderIndex })
	}
	return qs, nil
}
