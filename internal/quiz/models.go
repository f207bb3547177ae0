package quiz

// Variant is one candidate answer for a question. Order within the question
// is load-bearing: answers are addressed by variant position, not id.
type Variant struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct,omitempty"`
	OrderIndex int    `json:"order_index"`
}

type Question struct {
	ID         string    `json:"id"`
	TestID     string    `json:"test_id"`
	Text       string    `json:"text"`
	OrderIndex int       `json:"order_index"`
	Variants   []Variant `json:"variants,omitempty"`
}

// CorrectVariantPos returns the position of the first variant flagged correct,
// or -1 when the question has no correct variant (such a question can never
// score; authoring should have caught it).
func (q Question) CorrectVariantPos() int {
	for i, v := range q.Variants {
		if v.IsCorrect {
			return i
		}
	}
	return -1
}

type Test struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description,omitempty"`
	TimeLimitMin  int     `json:"time_limit_min"`
	TeacherID     string  `json:"teacher_id"`
	SourceDocRef  *string `json:"source_doc_ref,omitempty"`
	QuestionCount int     `json:"question_count,omitempty"`
	CreatedAt     int64   `json:"created_at,omitempty"`
}

type TestSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	TimeLimitMin  int    `json:"time_limit_min"`
	TeacherID     string `json:"teacher_id"`
	QuestionCount int    `json:"question_count"`
}

type Rating struct {
	TestID  string `json:"test_id"`
	UserID  string `json:"user_id"`
	Rating  int    `json:"rating"` // 1..5
	Comment string `json:"comment,omitempty"`
}

// Result is the outcome of one finished test attempt.
type Result struct {
	Total     int `json:"total"`
	Correct   int `json:"correct"`
	Wrong     int `json:"wrong"`
	TimeTaken int `json:"time_taken"` // seconds
}
