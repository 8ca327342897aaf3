package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-gateway/internal/domain"
)

// SubmissionStore persists submissions in Postgres, one row per submission
// with the answer set as JSONB. Implements app.SubmissionRepository.
type SubmissionStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewSubmissionStore(pool *pgxpool.Pool) *SubmissionStore {
	return &SubmissionStore{pool: pool, now: time.Now}
}

func (s *SubmissionStore) Create(ctx context.Context, quizID, studentID string, answers []domain.Answer) (domain.Submission, error) {
	submission := domain.Submission{
		ID:          uuid.NewString(),
		QuizID:      quizID,
		StudentID:   studentID,
		Answers:     answers,
		SubmittedAt: s.now().UTC(),
		Status:      domain.StatusPending,
	}

	data, err := json.Marshal(answers)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("marshal answers: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO submissions (id, quiz_id, student_id, answers, submitted_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		submission.ID, quizID, studentID, data, submission.SubmittedAt, submission.Status,
	)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("insert submission: %w", err)
	}
	return submission, nil
}

func (s *SubmissionStore) ListByQuiz(ctx context.Context, quizID string) ([]domain.Submission, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, quiz_id, student_id, answers, submitted_at, status, reviewed_by, reviewed_at, feedback
		FROM submissions
		WHERE quiz_id = $1
		ORDER BY submitted_at DESC`,
		quizID,
	)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	submissions := make([]domain.Submission, 0)
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, submission)
	}
	return submissions, rows.Err()
}

func (s *SubmissionStore) FindByID(ctx context.Context, id string) (domain.Submission, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, quiz_id, student_id, answers, submitted_at, status, reviewed_by, reviewed_at, feedback
		FROM submissions
		WHERE id = $1`,
		id,
	)
	submission, err := scanSubmission(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return submission, err
}

func (s *SubmissionStore) Update(ctx context.Context, submission domain.Submission) error {
	data, err := json.Marshal(submission.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE submissions
		SET answers = $2, status = $3, reviewed_by = NULLIF($4, ''), reviewed_at = $5, feedback = NULLIF($6, '')
		WHERE id = $1`,
		submission.ID, data, submission.Status, submission.ReviewedBy, submission.ReviewedAt, submission.Feedback,
	)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubmissionNotFound
	}
	return nil
}

func (s *SubmissionStore) HasPending(ctx context.Context, quizID, studentID string) (bool, error) {
	var pending bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM submissions
			WHERE quiz_id = $1 AND student_id = $2 AND status = $3
		)`,
		quizID, studentID, domain.StatusPending,
	).Scan(&pending)
	if err != nil {
		return false, fmt.Errorf("check pending: %w", err)
	}
	return pending, nil
}

func scanSubmission(row pgx.Row) (domain.Submission, error) {
	var (
		submission domain.Submission
		raw        []byte
		reviewedBy *string
		feedback   *string
	)
	err := row.Scan(
		&submission.ID, &submission.QuizID, &submission.StudentID, &raw,
		&submission.SubmittedAt, &submission.Status,
		&reviewedBy, &submission.ReviewedAt, &feedback,
	)
	if err != nil {
		return domain.Submission{}, err
	}
	if err := json.Unmarshal(raw, &submission.Answers); err != nil {
		return domain.Submission{}, fmt.Errorf("unmarshal answers: %w", err)
	}
	if reviewedBy != nil {
		submission.ReviewedBy = *reviewedBy
	}
	if feedback != nil {
		submission.Feedback = *feedback
	}
	return submission, nil
}
