package exam

import (
	"math"
	"strings"

	"github.com/mertcaliskan34/ExamGenerator/internal/model"
)

// matchAnswer applies the deterministic comparison policy for non-open-ended
// questions:
//
//   - true_false: case-sensitive match against the literal "True"/"False" token
//   - multiple_choice: exact string match against the correct option
//   - fill_blank: case-insensitive match after trimming surrounding whitespace
func matchAnswer(q model.Question, userAnswer string) bool {
	switch q.QuestionType {
	case model.TypeTrueFalse, model.TypeMultipleChoice:
		return userAnswer == q.CorrectAnswer
	case model.TypeFillBlank:
		return strings.EqualFold(strings.TrimSpace(userAnswer), strings.TrimSpace(q.CorrectAnswer))
	}
	return false
}

// percentScore returns 100*correct/total rounded to two decimals. Exam
// creation guarantees total > 0.
func percentScore(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*100*100) / 100
}
