package app

import (
	"context"
	"fmt"
	"time"

	"quiz-gateway/internal/bus"
	"quiz-gateway/internal/catalog"
	"quiz-gateway/internal/domain"
)

// SubmissionRepository abstracts how submissions are stored (in-memory, Postgres, etc).
type SubmissionRepository interface {
	Create(ctx context.Context, quizID, studentID string, answers []domain.Answer) (domain.Submission, error)
	ListByQuiz(ctx context.Context, quizID string) ([]domain.Submission, error)
	FindByID(ctx context.Context, id string) (domain.Submission, error)
	Update(ctx context.Context, submission domain.Submission) error
	HasPending(ctx context.Context, quizID, studentID string) (bool, error)
}

// SubmissionService orchestrates the submission lifecycle: it accepts
// submissions, authorizes reviews, transitions status and triggers
// notification delivery. All collaborators are injected; the service keeps
// no state of its own and never caches submission status across calls.
type SubmissionService struct {
	store     SubmissionRepository
	catalog   catalog.Client
	publisher bus.Publisher

	// singleAttempt rejects a second pending submission for the same
	// (quiz, student) pair. Off by default: resubmission is allowed.
	singleAttempt bool
	now           func() time.Time
}

func NewSubmissionService(store SubmissionRepository, cat catalog.Client, publisher bus.Publisher, singleAttempt bool) *SubmissionService {
	return newSubmissionServiceWithClock(store, cat, publisher, singleAttempt, time.Now)
}

// newSubmissionServiceWithClock allows deterministic timestamps in tests.
func newSubmissionServiceWithClock(store SubmissionRepository, cat catalog.Client, publisher bus.Publisher, singleAttempt bool, now func() time.Time) *SubmissionService {
	return &SubmissionService{
		store:         store,
		catalog:       cat,
		publisher:     publisher,
		singleAttempt: singleAttempt,
		now:           now,
	}
}

// Submit records a new pending submission for the caller and notifies the
// quiz channel. The student id is always taken from the authenticated caller.
// Notification delivery is best-effort and never fails the submission.
func (s *SubmissionService) Submit(ctx context.Context, quizID string, caller domain.Identity, answers []*int) (domain.Submission, error) {
	if caller.ID == "" {
		return domain.Submission{}, domain.ErrNoToken
	}
	if s.singleAttempt {
		pending, err := s.store.HasPending(ctx, quizID, caller.ID)
		if err != nil {
			return domain.Submission{}, fmt.Errorf("check pending submission: %w", err)
		}
		if pending {
			return domain.Submission{}, domain.ErrDuplicateSubmission
		}
	}

	// Answers are keyed q0..qN in the order the client presented them.
	formatted := make([]domain.Answer, len(answers))
	for i, selected := range answers {
		formatted[i] = domain.Answer{
			QuestionID:     fmt.Sprintf("q%d", i),
			SelectedAnswer: selected,
		}
	}

	submission, err := s.store.Create(ctx, quizID, caller.ID, formatted)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("save submission: %w", err)
	}

	s.publisher.Publish(bus.QuizChannel(quizID), domain.EventQuizSubmitted, domain.SubmittedEvent{
		StudentID: caller.ID,
		QuizID:    quizID,
		UserName:  caller.Name,
	})
	return submission, nil
}

// Review finalizes a submission's status and notifies the submitting student.
// Gate order: role, status value, existence, quiz/submission pairing. Nothing
// is mutated until every gate passes. Re-reviewing an already-terminal
// submission overwrites the prior review fields; there is no audit trail.
func (s *SubmissionService) Review(ctx context.Context, quizID, submissionID string, caller domain.Identity, status, feedback string) (domain.Submission, error) {
	if !caller.IsAdmin() {
		return domain.Submission{}, domain.ErrForbidden
	}
	if !domain.ValidReviewStatus(status) {
		return domain.Submission{}, domain.ErrInvalidStatus
	}

	submission, err := s.store.FindByID(ctx, submissionID)
	if err != nil {
		return domain.Submission{}, err
	}
	if submission.QuizID != quizID {
		return domain.Submission{}, domain.ErrQuizMismatch
	}

	reviewedAt := s.now()
	submission.Status = status
	submission.Feedback = feedback
	submission.ReviewedBy = caller.ID
	submission.ReviewedAt = &reviewedAt

	if err := s.store.Update(ctx, submission); err != nil {
		return domain.Submission{}, fmt.Errorf("save review: %w", err)
	}

	s.publisher.Publish(bus.UserChannel(submission.StudentID), domain.EventSubmissionReviewed, domain.ReviewedEvent{
		QuizID:       quizID,
		SubmissionID: submission.ID,
		Status:       status,
		Feedback:     feedback,
	})
	return submission, nil
}

// ListSubmissions returns all submissions for a quiz, newest first.
// Restricted to admins; there is no per-reviewer ownership concept.
func (s *SubmissionService) ListSubmissions(ctx context.Context, quizID string, caller domain.Identity) ([]domain.Submission, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.store.ListByQuiz(ctx, quizID)
}

// Quizzes lists the catalog's quizzes. Catalog failures are surfaced as-is.
func (s *SubmissionService) Quizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.catalog.ListQuizzes(ctx)
}

// QuizDetail merges quiz metadata with its question list.
func (s *SubmissionService) QuizDetail(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := s.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	questions, err := s.catalog.ListQuestions(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz.Questions = questions
	return quiz, nil
}
