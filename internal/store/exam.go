package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mertcaliskan34/ExamGenerator/internal/model"
)

// InsertExam stores an exam with its questions as a single document. The
// insert is one statement, so creation is all-or-nothing.
func (s *Store) InsertExam(e model.Exam) error {
	questions, err := json.Marshal(e.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO exams (id, owner_id, title, exam_type, difficulty, questions, pdf_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.Title, e.ExamType, e.Difficulty, string(questions), e.PDFName, e.CreatedAt,
	)
	return err
}

// GetExam returns an exam by ID scoped to its owner. A missing exam and an
// exam owned by someone else are indistinguishable to the caller.
func (s *Store) GetExam(ownerID, examID string) (*model.Exam, error) {
	return s.scanExam(s.db.QueryRow(
		`SELECT id, owner_id, title, exam_type, difficulty, questions, pdf_name, created_at
		 FROM exams WHERE id = ? AND owner_id = ?`, examID, ownerID,
	))
}

// GetExamByID returns an exam by ID regardless of owner. Used when taking an
// exam: any authenticated user may take any exam.
func (s *Store) GetExamByID(examID string) (*model.Exam, error) {
	return s.scanExam(s.db.QueryRow(
		`SELECT id, owner_id, title, exam_type, difficulty, questions, pdf_name, created_at
		 FROM exams WHERE id = ?`, examID,
	))
}

func (s *Store) scanExam(row *sql.Row) (*model.Exam, error) {
	var e model.Exam
	var questions string
	err := row.Scan(&e.ID, &e.OwnerID, &e.Title, &e.ExamType, &e.Difficulty, &questions, &e.PDFName, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(questions), &e.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions for exam %s: %w", e.ID, err)
	}
	return &e, nil
}

// ListExams returns summaries of the user's exams, newest first.
func (s *Store) ListExams(ownerID string) ([]model.ExamSummary, error) {
	rows, err := s.db.Query(
		`SELECT id, title, exam_type, difficulty, questions, pdf_name, created_at
		 FROM exams WHERE owner_id = ? ORDER BY created_at DESC, id`, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var summaries []model.ExamSummary
	for rows.Next() {
		var sm model.ExamSummary
		var questions string
		if err := rows.Scan(&sm.ID, &sm.Title, &sm.ExamType, &sm.Difficulty, &questions, &sm.PDFName, &sm.CreatedAt); err != nil {
			return nil, err
		}
		var qs []model.Question
		if err := json.Unmarshal([]byte(questions), &qs); err != nil {
			return nil, fmt.Errorf("unmarshal questions for exam %s: %w", sm.ID, err)
		}
		sm.QuestionCount = len(qs)
		summaries = append(summaries, sm)
	}
	return summaries, rows.Err()
}

// DeleteExam hard-deletes an owner's exam and all results recorded against it.
// Returns model.ErrNotFound when the exam does not exist or belongs to another
// user.
func (s *Store) DeleteExam(ownerID, examID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM exams WHERE id = ? AND owner_id = ?`, examID, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	if _, err := tx.Exec(`DELETE FROM results WHERE exam_id = ?`, examID); err != nil {
		return err
	}
	return tx.Commit()
}

// ExamCount returns the number of stored exams.
func (s *Store) ExamCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM exams`).Scan(&count)
	return count, err
}
