package quiz

import "fmt"

// AnswerMap addresses answers by position: question index in the loaded
// sequence -> chosen variant index within that question's variant list.
// Positional addressing is fragile if question ordering changes between load
// and finish; kept for compatibility with the stored data model.
type AnswerMap map[int]int

// Score grades an ordered question sequence against an answer map.
// Total function: unanswered or out-of-range answers count as wrong, a
// question with no correct variant can never be correct, and nothing here
// returns an error. timeTaken is clamped to zero on timer underflow.
func Score(questions []Question, answers AnswerMap, allottedSec, remainingSec int) Result {
	res := Result{Total: len(questions)}
	for i, q := range questions {
		chosen, ok := answers[i]
		if !ok {
			continue
		}
		correct := q.CorrectVariantPos()
		if correct >= 0 && chosen == correct {
			res.Correct++
		}
	}
	res.Wrong = res.Total - res.Correct
	res.TimeTaken = allottedSec - remainingSec
	if res.TimeTaken < 0 {
		res.TimeTaken = 0
	}
	return res
}

// ValidateQuestions reports authoring-time data-integrity problems: questions
// with zero or more than one correct variant. Scoring stays permissive either
// way; this exists so the authoring surface can warn.
func ValidateQuestions(questions []Question) []string {
	var warnings []string
	for i, q := range questions {
		n := 0
		for _, v := range q.Variants {
			if v.IsCorrect {
				n++
			}
		}
		switch {
		case n == 0:
			warnings = append(warnings, warnf(i, "no correct variant"))
		case n > 1:
			warnings = append(warnings, warnf(i, "multiple correct variants, first in order wins"))
		}
	}
	return warnings
}

func warnf(pos int, msg string) string {
	return fmt.Sprintf("question %d: %s", pos, msg)
}
