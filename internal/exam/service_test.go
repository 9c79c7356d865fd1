package exam

import (
	"context"
	"errors"
	"testing"

	"github.com/mertcaliskan34/ExamGenerator/internal/llm"
	"github.com/mertcaliskan34/ExamGenerator/internal/model"
	"github.com/mertcaliskan34/ExamGenerator/internal/store"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractText(data []byte) (string, error) {
	return f.text, f.err
}

type fakeGenerator struct {
	questions []llm.GeneratedQuestion
	err       error
}

func (f *fakeGenerator) GenerateQuestions(ctx context.Context, text string, cfg model.GenerationConfig) ([]llm.GeneratedQuestion, error) {
	return f.questions, f.err
}

type fakeGrader struct {
	grade func(q model.Question, answer string) (*llm.GradeResult, error)
}

func (f *fakeGrader) GradeOpenEnded(ctx context.Context, q model.Question, answer string) (*llm.GradeResult, error) {
	if f.grade == nil {
		return &llm.GradeResult{IsCorrect: false, Explanation: "ungraded"}, nil
	}
	return f.grade(q, answer)
}

func newTestService(t *testing.T, gen *fakeGenerator, grader *fakeGrader) (*Service, *store.Store) {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if gen == nil {
		gen = &fakeGenerator{}
	}
	if grader == nil {
		grader = &fakeGrader{}
	}
	return New(db, &fakeExtractor{text: "some lecture notes"}, gen, grader), db
}

func validGenerated(n int) []llm.GeneratedQuestion {
	qs := make([]llm.GeneratedQuestion, 0, n)
	for i := 0; i < n; i++ {
		qs = append(qs, llm.GeneratedQuestion{
			QuestionText:  "What is the capital of France?",
			QuestionType:  "fill_blank",
			CorrectAnswer: "Paris",
			Explanation:   "Paris is the capital of France.",
		})
	}
	return qs
}

func validConfig() model.GenerationConfig {
	return model.GenerationConfig{
		ExamType:     model.ExamMixed,
		Difficulty:   model.DifficultyMedium,
		NumQuestions: 5,
	}
}

func TestCreateExamConfigBounds(t *testing.T) {
	svc, _ := newTestService(t, &fakeGenerator{questions: validGenerated(5)}, nil)

	tests := []struct {
		name    string
		mutate  func(*model.GenerationConfig)
		wantErr error
	}{
		{"too few questions", func(c *model.GenerationConfig) { c.NumQuestions = 4 }, model.ErrInvalidConfig},
		{"too many questions", func(c *model.GenerationConfig) { c.NumQuestions = 51 }, model.ErrInvalidConfig},
		{"min questions ok", func(c *model.GenerationConfig) { c.NumQuestions = 5 }, nil},
		{"max questions ok", func(c *model.GenerationConfig) { c.NumQuestions = 50 }, nil},
		{"bad exam type", func(c *model.GenerationConfig) { c.ExamType = "essay" }, model.ErrInvalidConfig},
		{"bad difficulty", func(c *model.GenerationConfig) { c.Difficulty = "impossible" }, model.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			_, err := svc.CreateExam(context.Background(), "user-1", "notes.pdf", []byte("%PDF-"), cfg)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreateExamExtractionFailure(t *testing.T) {
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := New(db,
		&fakeExtractor{err: model.ErrExtractionFailed},
		&fakeGenerator{questions: validGenerated(5)},
		&fakeGrader{},
	)

	_, err = svc.CreateExam(context.Background(), "user-1", "scan.pdf", []byte("%PDF-"), validConfig())
	if !errors.Is(err, model.ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
	if count, _ := db.ExamCount(); count != 0 {
		t.Fatalf("expected no exam persisted, got %d", count)
	}
}

func TestCreateExamGeneratorFailures(t *testing.T) {
	tests := []struct {
		name    string
		gen     fakeGenerator
		wantErr error
	}{
		{"transport failure", fakeGenerator{err: model.ErrGeneratorUnavailable}, model.ErrGeneratorUnavailable},
		{"empty set", fakeGenerator{questions: nil}, model.ErrGenerationInvalid},
		{"mixed type leaks through", fakeGenerator{questions: []llm.GeneratedQuestion{
			{QuestionText: "Q", QuestionType: "mixed", CorrectAnswer: "A"},
		}}, model.ErrGenerationInvalid},
		{"empty question text", fakeGenerator{questions: []llm.GeneratedQuestion{
			{QuestionText: "  ", QuestionType: "fill_blank", CorrectAnswer: "A"},
		}}, model.ErrGenerationInvalid},
		{"empty reference answer", fakeGenerator{questions: []llm.GeneratedQuestion{
			{QuestionText: "Q", QuestionType: "open_ended", CorrectAnswer: ""},
		}}, model.ErrGenerationInvalid},
		{"mc answer outside options", fakeGenerator{questions: []llm.GeneratedQuestion{
			{QuestionText: "Q", QuestionType: "multiple_choice", Options: []string{"A", "B", "C"}, CorrectAnswer: "D"},
		}}, model.ErrGenerationInvalid},
		{"mc too few options", fakeGenerator{questions: []llm.GeneratedQuestion{
			{QuestionText: "Q", QuestionType: "multiple_choice", Options: []string{"A"}, CorrectAnswer: "A"},
		}}, model.ErrGenerationInvalid},
		{"tf non-token answer", fakeGenerator{questions: []llm.GeneratedQuestion{
			{QuestionText: "Q", QuestionType: "true_false", CorrectAnswer: "true"},
		}}, model.ErrGenerationInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := tt.gen
			svc, db := newTestService(t, &gen, nil)
			_, err := svc.CreateExam(context.Background(), "user-1", "notes.pdf", []byte("%PDF-"), validConfig())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			// One unscoreable question discards the whole exam.
			if count, _ := db.ExamCount(); count != 0 {
				t.Fatalf("expected no exam persisted, got %d", count)
			}
		})
	}
}

func TestCreateExamMixedResolvesConcreteTypes(t *testing.T) {
	gen := &fakeGenerator{questions: []llm.GeneratedQuestion{
		{QuestionText: "Q1", QuestionType: "true_false", CorrectAnswer: "True"},
		{QuestionText: "Q2", QuestionType: "multiple_choice", Options: []string{"A", "B"}, CorrectAnswer: "B"},
		{QuestionText: "Q3", QuestionType: "fill_blank", CorrectAnswer: "Paris", Options: []string{"junk"}},
		{QuestionText: "Q4", QuestionType: "open_ended", CorrectAnswer: "Because of gravity."},
		{QuestionText: "Q5", QuestionType: "fill_blank", CorrectAnswer: "42"},
	}}
	svc, _ := newTestService(t, gen, nil)

	created, err := svc.CreateExam(context.Background(), "user-1", "notes.pdf", []byte("%PDF-"), validConfig())
	if err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
	if created.ExamType != model.ExamMixed {
		t.Errorf("exam keeps the mixed generation instruction, got %q", created.ExamType)
	}
	for _, q := range created.Questions {
		if !model.ValidQuestionType(q.QuestionType) {
			t.Errorf("question %s has non-concrete type %q", q.ID, q.QuestionType)
		}
		if q.ID == "" {
			t.Error("question missing generated ID")
		}
	}
	// Options on non-choice questions are dropped during the repair pass.
	if created.Questions[2].Options != nil {
		t.Errorf("expected options dropped for fill_blank, got %v", created.Questions[2].Options)
	}
	if created.Title != "Exam from notes.pdf" {
		t.Errorf("unexpected title %q", created.Title)
	}
}

// createScenarioExam persists the three-question exam used by the scoring
// tests: Q1 true_false "True", Q2 fill_blank "Paris", Q3 multiple_choice "B".
func createScenarioExam(t *testing.T, svc *Service) *model.Exam {
	t.Helper()
	gen := &fakeGenerator{questions: []llm.GeneratedQuestion{
		{QuestionText: "The sky is blue.", QuestionType: "true_false", CorrectAnswer: "True"},
		{QuestionText: "Capital of France?", QuestionType: "fill_blank", CorrectAnswer: "Paris"},
		{QuestionText: "Pick B.", QuestionType: "multiple_choice", Options: []string{"A", "B", "C"}, CorrectAnswer: "B"},
	}}
	svc.generator = gen
	created, err := svc.CreateExam(context.Background(), "owner-1", "notes.pdf", []byte("%PDF-"), validConfig())
	if err != nil {
		t.Fatalf("createScenarioExam: %v", err)
	}
	return created
}

func TestSubmitExamScoring(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)
	created := createScenarioExam(t, svc)

	// Answers submitted in reverse order; feedback must follow exam order.
	sub := model.Submission{
		ExamID: created.ID,
		Answers: []model.Answer{
			{QuestionID: created.Questions[2].ID, UserAnswer: "A"},
			{QuestionID: created.Questions[1].ID, UserAnswer: "paris"},
			{QuestionID: created.Questions[0].ID, UserAnswer: "True"},
		},
	}

	result, err := svc.SubmitExam(context.Background(), "taker-1", sub)
	if err != nil {
		t.Fatalf("SubmitExam: %v", err)
	}

	if result.TotalQuestions != 3 {
		t.Errorf("expected 3 total questions, got %d", result.TotalQuestions)
	}
	if result.CorrectAnswers != 2 {
		t.Errorf("expected 2 correct, got %d", result.CorrectAnswers)
	}
	if result.Score != 66.67 {
		t.Errorf("expected score 66.67, got %v", result.Score)
	}
	if len(result.Feedback) != 3 {
		t.Fatalf("expected 3 feedback items, got %d", len(result.Feedback))
	}

	correctCount := 0
	for i, item := range result.Feedback {
		if item.QuestionID != created.Questions[i].ID {
			t.Errorf("feedback[%d] out of exam order", i)
		}
		if item.IsCorrect {
			correctCount++
		}
	}
	if correctCount != result.CorrectAnswers {
		t.Errorf("correct_answers %d != counted feedback %d", result.CorrectAnswers, correctCount)
	}
	wantCorrect := []bool{true, true, false}
	for i, want := range wantCorrect {
		if result.Feedback[i].IsCorrect != want {
			t.Errorf("feedback[%d].IsCorrect = %v, want %v", i, result.Feedback[i].IsCorrect, want)
		}
	}
}

func TestSubmitExamAbsentAnswers(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)
	created := createScenarioExam(t, svc)

	result, err := svc.SubmitExam(context.Background(), "taker-1", model.Submission{ExamID: created.ID})
	if err != nil {
		t.Fatalf("SubmitExam with no answers: %v", err)
	}
	if result.CorrectAnswers != 0 || result.Score != 0 {
		t.Errorf("expected zero score, got %d correct, score %v", result.CorrectAnswers, result.Score)
	}
	if len(result.Feedback) != 3 {
		t.Fatalf("expected feedback for every question, got %d", len(result.Feedback))
	}
	for i, item := range result.Feedback {
		if item.UserAnswer != "" {
			t.Errorf("feedback[%d] expected empty user answer, got %q", i, item.UserAnswer)
		}
	}
}

func TestSubmitExamRepeatedCreatesNewResults(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)
	created := createScenarioExam(t, svc)

	sub := model.Submission{
		ExamID: created.ID,
		Answers: []model.Answer{
			{QuestionID: created.Questions[0].ID, UserAnswer: "True"},
		},
	}

	first, err := svc.SubmitExam(context.Background(), "taker-1", sub)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := svc.SubmitExam(context.Background(), "taker-1", sub)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}

	if first.ID == second.ID {
		t.Error("expected distinct result IDs")
	}
	if first.Score != second.Score {
		t.Errorf("expected equal scores, got %v and %v", first.Score, second.Score)
	}
}

func TestSubmitExamOpenEndedGrading(t *testing.T) {
	grader := &fakeGrader{grade: func(q model.Question, answer string) (*llm.GradeResult, error) {
		if answer == "gravity pulls things down" {
			return &llm.GradeResult{IsCorrect: true, Explanation: "Matches the reference."}, nil
		}
		return &llm.GradeResult{IsCorrect: false, Explanation: "Does not match."}, nil
	}}
	gen := &fakeGenerator{questions: []llm.GeneratedQuestion{
		{QuestionText: "Why do objects fall?", QuestionType: "open_ended", CorrectAnswer: "Because of gravity."},
		{QuestionText: "The sky is blue.", QuestionType: "true_false", CorrectAnswer: "True"},
	}}
	svc, _ := newTestService(t, gen, grader)

	created, err := svc.CreateExam(context.Background(), "owner-1", "notes.pdf", []byte("%PDF-"), validConfig())
	if err != nil {
		t.Fatalf("CreateExam: %v", err)
	}

	result, err := svc.SubmitExam(context.Background(), "taker-1", model.Submission{
		ExamID: created.ID,
		Answers: []model.Answer{
			{QuestionID: created.Questions[0].ID, UserAnswer: "gravity pulls things down"},
			{QuestionID: created.Questions[1].ID, UserAnswer: "True"},
		},
	})
	if err != nil {
		t.Fatalf("SubmitExam: %v", err)
	}
	if result.CorrectAnswers != 2 {
		t.Errorf("expected 2 correct, got %d", result.CorrectAnswers)
	}
	if result.Feedback[0].Explanation != "Matches the reference." {
		t.Errorf("expected grader explanation, got %q", result.Feedback[0].Explanation)
	}
}

func TestSubmitExamGraderFailureIsIsolated(t *testing.T) {
	grader := &fakeGrader{grade: func(q model.Question, answer string) (*llm.GradeResult, error) {
		return nil, errors.New("grader timeout")
	}}
	gen := &fakeGenerator{questions: []llm.GeneratedQuestion{
		{QuestionText: "Why do objects fall?", QuestionType: "open_ended", CorrectAnswer: "Because of gravity."},
		{QuestionText: "The sky is blue.", QuestionType: "true_false", CorrectAnswer: "True"},
	}}
	svc, _ := newTestService(t, gen, grader)

	created, err := svc.CreateExam(context.Background(), "owner-1", "notes.pdf", []byte("%PDF-"), validConfig())
	if err != nil {
		t.Fatalf("CreateExam: %v", err)
	}

	// The failed grading marks only that question wrong; the submission
	// still succeeds and the deterministic question still scores.
	result, err := svc.SubmitExam(context.Background(), "taker-1", model.Submission{
		ExamID: created.ID,
		Answers: []model.Answer{
			{QuestionID: created.Questions[0].ID, UserAnswer: "an answer"},
			{QuestionID: created.Questions[1].ID, UserAnswer: "True"},
		},
	})
	if err != nil {
		t.Fatalf("SubmitExam: %v", err)
	}
	if result.CorrectAnswers != 1 {
		t.Errorf("expected 1 correct, got %d", result.CorrectAnswers)
	}
	if result.Feedback[0].IsCorrect {
		t.Error("ungradable question should be marked incorrect")
	}
	if result.Feedback[0].Explanation != "grading unavailable" {
		t.Errorf("expected 'grading unavailable', got %q", result.Feedback[0].Explanation)
	}
	if result.Score != 50 {
		t.Errorf("expected score 50, got %v", result.Score)
	}
}

func TestSubmitExamUnknownExam(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)
	_, err := svc.SubmitExam(context.Background(), "taker-1", model.Submission{ExamID: "missing"})
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmitExamAnyUserMayTake(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)
	created := createScenarioExam(t, svc)

	// taker-2 does not own the exam but can still take it.
	result, err := svc.SubmitExam(context.Background(), "taker-2", model.Submission{
		ExamID: created.ID,
		Answers: []model.Answer{
			{QuestionID: created.Questions[0].ID, UserAnswer: "True"},
		},
	})
	if err != nil {
		t.Fatalf("SubmitExam as non-owner: %v", err)
	}
	if result.UserID != "taker-2" {
		t.Errorf("result owned by %q, want taker-2", result.UserID)
	}
}

func TestOwnershipScoping(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)
	created := createScenarioExam(t, svc)

	// Management operations are owner-scoped and leak nothing.
	if _, err := svc.GetExam("intruder", created.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign get, got %v", err)
	}
	if err := svc.DeleteExam("intruder", created.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign delete, got %v", err)
	}

	result, err := svc.SubmitExam(context.Background(), "taker-1", model.Submission{ExamID: created.ID})
	if err != nil {
		t.Fatalf("SubmitExam: %v", err)
	}
	if _, err := svc.GetResult("intruder", result.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign result, got %v", err)
	}
	if _, err := svc.GetResult("taker-1", result.ID); err != nil {
		t.Errorf("owner fetch failed: %v", err)
	}

	if err := svc.DeleteExam("owner-1", created.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if _, err := svc.GetExam("owner-1", created.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
