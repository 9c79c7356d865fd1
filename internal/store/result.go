package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mertcaliskan34/ExamGenerator/internal/model"
)

// InsertResult stores a result with its feedback as a single document.
// Results are write-once; there is no update path.
func (s *Store) InsertResult(r model.Result) error {
	feedback, err := json.Marshal(r.Feedback)
	if err != nil {
		return fmt.Errorf("marshal feedback: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO results (id, exam_id, user_id, score, correct_answers, total_questions, feedback, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ExamID, r.UserID, r.Score, r.CorrectAnswers, r.TotalQuestions, string(feedback), r.SubmittedAt,
	)
	return err
}

// GetResult returns a result by ID scoped to the submitting user, or nil.
func (s *Store) GetResult(userID, resultID string) (*model.Result, error) {
	var r model.Result
	var feedback string
	err := s.db.QueryRow(
		`SELECT id, exam_id, user_id, score, correct_answers, total_questions, feedback, submitted_at
		 FROM results WHERE id = ? AND user_id = ?`, resultID, userID,
	).Scan(&r.ID, &r.ExamID, &r.UserID, &r.Score, &r.CorrectAnswers, &r.TotalQuestions, &feedback, &r.SubmittedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(feedback), &r.Feedback); err != nil {
		return nil, fmt.Errorf("unmarshal feedback for result %s: %w", r.ID, err)
	}
	return &r, nil
}

// ListResults returns summaries of the user's results, newest first.
func (s *Store) ListResults(userID string) ([]model.ResultSummary, error) {
	rows, err := s.db.Query(
		`SELECT id, exam_id, score, correct_answers, total_questions, submitted_at
		 FROM results WHERE user_id = ? ORDER BY submitted_at DESC, id`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var summaries []model.ResultSummary
	for rows.Next() {
		var sm model.ResultSummary
		if err := rows.Scan(&sm.ID, &sm.ExamID, &sm.Score, &sm.CorrectAnswers, &sm.TotalQuestions, &sm.SubmittedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, sm)
	}
	return summaries, rows.Err()
}

// ResultCount returns the number of stored results.
func (s *Store) ResultCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&count)
	return count, err
}
