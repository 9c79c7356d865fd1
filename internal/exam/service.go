// Package exam implements the exam lifecycle and scoring engine: the creation
// pipeline (validate, extract, generate, validate/repair, persist) and the
// per-question answer-matching policy that turns a submission into a result.
package exam

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mertcaliskan34/ExamGenerator/internal/llm"
	"github.com/mertcaliskan34/ExamGenerator/internal/model"
	"github.com/mertcaliskan34/ExamGenerator/internal/store"
)

const (
	minQuestions = 5
	maxQuestions = 50
)

// TextExtractor turns an uploaded document into plain text.
type TextExtractor interface {
	ExtractText(data []byte) (string, error)
}

// QuestionGenerator produces exam questions from extracted text.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, text string, cfg model.GenerationConfig) ([]llm.GeneratedQuestion, error)
}

// OpenEndedGrader judges an open-ended answer against its reference answer.
type OpenEndedGrader interface {
	GradeOpenEnded(ctx context.Context, question model.Question, userAnswer string) (*llm.GradeResult, error)
}

// Service owns exam state transitions and scoring.
type Service struct {
	store     *store.Store
	extractor TextExtractor
	generator QuestionGenerator
	grader    OpenEndedGrader
}

// New creates the exam service.
func New(s *store.Store, extractor TextExtractor, generator QuestionGenerator, grader OpenEndedGrader) *Service {
	return &Service{store: s, extractor: extractor, generator: generator, grader: grader}
}

// CreateExam runs the creation pipeline. Any failure is all-or-nothing: no
// partial exam is ever persisted.
func (s *Service) CreateExam(ctx context.Context, ownerID, fileName string, file []byte, cfg model.GenerationConfig) (*model.Exam, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	text, err := s.extractor.ExtractText(file)
	if err != nil {
		return nil, err
	}

	generated, err := s.generator.GenerateQuestions(ctx, text, cfg)
	if err != nil {
		return nil, err
	}

	questions, err := buildQuestions(generated, cfg)
	if err != nil {
		return nil, err
	}
	if len(questions) != cfg.NumQuestions {
		slog.Warn("generator returned unexpected question count",
			"want", cfg.NumQuestions, "got", len(questions))
	}

	exam := model.Exam{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		Title:      "Exam from " + fileName,
		ExamType:   cfg.ExamType,
		Difficulty: cfg.Difficulty,
		Questions:  questions,
		PDFName:    fileName,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.InsertExam(exam); err != nil {
		return nil, fmt.Errorf("persist exam: %w", err)
	}
	slog.Info("created exam", "id", exam.ID, "owner", ownerID, "questions", len(questions))
	return &exam, nil
}

// validateConfig rejects out-of-bounds configuration before any external call.
func validateConfig(cfg model.GenerationConfig) error {
	if cfg.NumQuestions < minQuestions || cfg.NumQuestions > maxQuestions {
		return fmt.Errorf("%w: num_questions must be between %d and %d",
			model.ErrInvalidConfig, minQuestions, maxQuestions)
	}
	if !model.ValidExamType(cfg.ExamType) {
		return fmt.Errorf("%w: unknown exam type %q", model.ErrInvalidConfig, cfg.ExamType)
	}
	if !model.ValidDifficulty(cfg.Difficulty) {
		return fmt.Errorf("%w: unknown difficulty %q", model.ErrInvalidConfig, cfg.Difficulty)
	}
	return nil
}

// buildQuestions is the validation/repair pass over generator output. A single
// unscoreable question discards the whole batch: persisting it would break the
// score invariant for every submission against this exam.
func buildQuestions(generated []llm.GeneratedQuestion, cfg model.GenerationConfig) ([]model.Question, error) {
	if len(generated) == 0 {
		return nil, fmt.Errorf("%w: empty question set", model.ErrGenerationInvalid)
	}

	questions := make([]model.Question, 0, len(generated))
	for i, g := range generated {
		qType := model.QuestionType(g.QuestionType)
		if !model.ValidQuestionType(qType) {
			return nil, fmt.Errorf("%w: question %d has type %q", model.ErrGenerationInvalid, i, g.QuestionType)
		}
		if strings.TrimSpace(g.QuestionText) == "" {
			return nil, fmt.Errorf("%w: question %d has empty text", model.ErrGenerationInvalid, i)
		}
		if strings.TrimSpace(g.CorrectAnswer) == "" {
			return nil, fmt.Errorf("%w: question %d has empty correct answer", model.ErrGenerationInvalid, i)
		}

		q := model.Question{
			ID:            uuid.NewString(),
			QuestionText:  g.QuestionText,
			QuestionType:  qType,
			CorrectAnswer: g.CorrectAnswer,
			Explanation:   g.Explanation,
		}

		switch qType {
		case model.TypeMultipleChoice:
			if len(g.Options) < 2 {
				return nil, fmt.Errorf("%w: question %d needs at least 2 options", model.ErrGenerationInvalid, i)
			}
			if !contains(g.Options, g.CorrectAnswer) {
				return nil, fmt.Errorf("%w: question %d correct answer not among options", model.ErrGenerationInvalid, i)
			}
			q.Options = g.Options
		case model.TypeTrueFalse:
			if g.CorrectAnswer != model.AnswerTrue && g.CorrectAnswer != model.AnswerFalse {
				return nil, fmt.Errorf("%w: question %d true/false answer must be %q or %q",
					model.ErrGenerationInvalid, i, model.AnswerTrue, model.AnswerFalse)
			}
		}
		// Options returned for non-choice types are dropped: each question
		// carries only the fields valid for its type.

		questions = append(questions, q)
	}
	return questions, nil
}

func contains(options []string, answer string) bool {
	for _, o := range options {
		if o == answer {
			return true
		}
	}
	return false
}

// SubmitExam scores a submission and persists a new result. Any authenticated
// user may take any exam; ownership restricts management, not taking. Each
// call creates a fresh result, so repeated submissions yield equal scores with
// distinct IDs and timestamps.
func (s *Service) SubmitExam(ctx context.Context, userID string, sub model.Submission) (*model.Result, error) {
	exam, err := s.store.GetExamByID(sub.ExamID)
	if err != nil {
		return nil, err
	}
	if exam == nil {
		return nil, model.ErrNotFound
	}

	answers := make(map[string]string, len(sub.Answers))
	for _, a := range sub.Answers {
		answers[a.QuestionID] = a.UserAnswer
	}

	correct := 0
	feedback := make([]model.FeedbackItem, 0, len(exam.Questions))
	for _, q := range exam.Questions {
		// Absent answers score as empty strings, never as an error.
		userAnswer := answers[q.ID]
		item := s.scoreQuestion(ctx, q, userAnswer)
		if item.IsCorrect {
			correct++
		}
		feedback = append(feedback, item)
	}

	result := model.Result{
		ID:             uuid.NewString(),
		ExamID:         exam.ID,
		UserID:         userID,
		Score:          percentScore(correct, len(exam.Questions)),
		CorrectAnswers: correct,
		TotalQuestions: len(exam.Questions),
		Feedback:       feedback,
		SubmittedAt:    time.Now().UTC(),
	}
	if err := s.store.InsertResult(result); err != nil {
		return nil, fmt.Errorf("persist result: %w", err)
	}
	slog.Info("scored submission", "exam", exam.ID, "user", userID,
		"score", result.Score, "correct", correct, "total", result.TotalQuestions)
	return &result, nil
}

// scoreQuestion applies the per-type comparison policy. A grader failure marks
// the single question wrong without aborting the submission.
func (s *Service) scoreQuestion(ctx context.Context, q model.Question, userAnswer string) model.FeedbackItem {
	item := model.FeedbackItem{
		QuestionID:    q.ID,
		UserAnswer:    userAnswer,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
	}

	if q.QuestionType != model.TypeOpenEnded {
		item.IsCorrect = matchAnswer(q, userAnswer)
		return item
	}

	grade, err := s.grader.GradeOpenEnded(ctx, q, userAnswer)
	if err != nil {
		slog.Error("open-ended grading failed", "question", q.ID, "error", err)
		item.IsCorrect = false
		item.Explanation = "grading unavailable"
		return item
	}
	item.IsCorrect = grade.IsCorrect
	if grade.Explanation != "" {
		item.Explanation = grade.Explanation
	}
	return item
}

// GetExam returns one of the user's own exams.
func (s *Service) GetExam(userID, examID string) (*model.Exam, error) {
	exam, err := s.store.GetExam(userID, examID)
	if err != nil {
		return nil, err
	}
	if exam == nil {
		return nil, model.ErrNotFound
	}
	return exam, nil
}

// ListExams returns summaries of the user's exams.
func (s *Service) ListExams(userID string) ([]model.ExamSummary, error) {
	return s.store.ListExams(userID)
}

// DeleteExam hard-deletes one of the user's exams along with its results.
func (s *Service) DeleteExam(userID, examID string) error {
	return s.store.DeleteExam(userID, examID)
}

// GetResult returns one of the user's own results with full feedback.
func (s *Service) GetResult(userID, resultID string) (*model.Result, error) {
	result, err := s.store.GetResult(userID, resultID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, model.ErrNotFound
	}
	return result, nil
}

// ListResults returns summaries of the user's results.
func (s *Service) ListResults(userID string) ([]model.ResultSummary, error) {
	return s.store.ListResults(userID)
}
