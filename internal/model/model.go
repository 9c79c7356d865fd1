package model

import (
	"context"
	"time"
)

// ExamType is the generation instruction for an exam. "mixed" is only valid
// here; every generated question resolves to a concrete QuestionType.
type ExamType string

const (
	ExamMultipleChoice ExamType = "multiple_choice"
	ExamTrueFalse      ExamType = "true_false"
	ExamFillBlank      ExamType = "fill_blank"
	ExamOpenEnded      ExamType = "open_ended"
	ExamMixed          ExamType = "mixed"
)

// ValidExamType reports whether t is one of the accepted exam types.
func ValidExamType(t ExamType) bool {
	switch t {
	case ExamMultipleChoice, ExamTrueFalse, ExamFillBlank, ExamOpenEnded, ExamMixed:
		return true
	}
	return false
}

// QuestionType is the concrete type of a single question, never "mixed".
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeTrueFalse      QuestionType = "true_false"
	TypeFillBlank      QuestionType = "fill_blank"
	TypeOpenEnded      QuestionType = "open_ended"
)

// ValidQuestionType reports whether t is a concrete question type.
func ValidQuestionType(t QuestionType) bool {
	switch t {
	case TypeMultipleChoice, TypeTrueFalse, TypeFillBlank, TypeOpenEnded:
		return true
	}
	return false
}

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ValidDifficulty reports whether d is one of the accepted difficulties.
func ValidDifficulty(d Difficulty) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Reference tokens for true/false questions. Matching is exact and
// case-sensitive against these literals.
const (
	AnswerTrue  = "True"
	AnswerFalse = "False"
)

// User represents a registered user.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Question is a single generated exam question. Options is set only for
// multiple-choice questions; ImageData optionally carries a base64 payload for
// questions that reference a figure.
type Question struct {
	ID            string       `json:"id"`
	QuestionText  string       `json:"question_text"`
	QuestionType  QuestionType `json:"question_type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"explanation,omitempty"`
	ImageData     string       `json:"image_data,omitempty"`
}

// Exam is an immutable, ordered set of generated questions. Written once at
// creation, never updated, deletable by its owner only.
type Exam struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	Title      string     `json:"title"`
	ExamType   ExamType   `json:"exam_type"`
	Difficulty Difficulty `json:"difficulty"`
	Questions  []Question `json:"questions"`
	PDFName    string     `json:"pdf_name,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ExamSummary is the list-view projection of an exam, without questions.
type ExamSummary struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	ExamType      ExamType   `json:"exam_type"`
	Difficulty    Difficulty `json:"difficulty"`
	QuestionCount int        `json:"question_count"`
	PDFName       string     `json:"pdf_name,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// GenerationConfig holds the user-supplied parameters for exam creation.
type GenerationConfig struct {
	ExamType     ExamType
	Difficulty   Difficulty
	NumQuestions int
}

// Answer is one submitted answer within a submission.
type Answer struct {
	QuestionID string `json:"question_id"`
	UserAnswer string `json:"user_answer"`
}

// Submission is the ephemeral input to scoring. Questions absent from Answers
// are scored as empty answers.
type Submission struct {
	ExamID  string   `json:"exam_id"`
	Answers []Answer `json:"answers"`
}

// FeedbackItem is the per-question scoring detail within a result. Feedback
// items follow exam question order, not submission order.
type FeedbackItem struct {
	QuestionID    string `json:"question_id"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
	Explanation   string `json:"explanation,omitempty"`
}

// Result is the immutable scored outcome of one submission attempt. Every
// submission creates a new result; results are never recomputed.
type Result struct {
	ID             string         `json:"id"`
	ExamID         string         `json:"exam_id"`
	UserID         string         `json:"user_id"`
	Score          float64        `json:"score"`
	CorrectAnswers int            `json:"correct_answers"`
	TotalQuestions int            `json:"total_questions"`
	Feedback       []FeedbackItem `json:"feedback"`
	SubmittedAt    time.Time      `json:"submitted_at"`
}

// ResultSummary is the list-view projection of a result, without feedback.
type ResultSummary struct {
	ID             string    `json:"id"`
	ExamID         string    `json:"exam_id"`
	Score          float64   `json:"score"`
	CorrectAnswers int       `json:"correct_answers"`
	TotalQuestions int       `json:"total_questions"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type userCtxKey struct{}

// ContextWithUser stores the authenticated user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}
