package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-gateway/internal/domain"
)

// SubmissionStore is an in-memory implementation of app.SubmissionRepository,
// used for tests and for running the gateway without Postgres.
type SubmissionStore struct {
	mu   sync.RWMutex
	byID map[string]domain.Submission
	now  func() time.Time
}

func NewSubmissionStore() *SubmissionStore {
	return NewSubmissionStoreWithClock(time.Now)
}

// NewSubmissionStoreWithClock allows deterministic timestamps in tests.
func NewSubmissionStoreWithClock(now func() time.Time) *SubmissionStore {
	return &SubmissionStore{
		byID: make(map[string]domain.Submission),
		now:  now,
	}
}

func (s *SubmissionStore) Create(_ context.Context, quizID, studentID string, answers []domain.Answer) (domain.Submission, error) {
	submission := domain.Submission{
		ID:          uuid.NewString(),
		QuizID:      quizID,
		StudentID:   studentID,
		Answers:     append([]domain.Answer(nil), answers...),
		SubmittedAt: s.now().UTC(),
		Status:      domain.StatusPending,
	}

	s.mu.Lock()
	s.byID[submission.ID] = submission
	s.mu.Unlock()
	return submission, nil
}

func (s *SubmissionStore) ListByQuiz(_ context.Context, quizID string) ([]domain.Submission, error) {
	s.mu.RLock()
	submissions := make([]domain.Submission, 0)
	for _, sub := range s.byID {
		if sub.QuizID == quizID {
			submissions = append(submissions, sub)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(submissions, func(i, j int) bool {
		return submissions[i].SubmittedAt.After(submissions[j].SubmittedAt)
	})
	return submissions, nil
}

func (s *SubmissionStore) FindByID(_ context.Context, id string) (domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	submission, ok := s.byID[id]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return submission, nil
}

func (s *SubmissionStore) Update(_ context.Context, submission domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[submission.ID]; !ok {
		return domain.ErrSubmissionNotFound
	}
	s.byID[submission.ID] = submission
	return nil
}

func (s *SubmissionStore) HasPending(_ context.Context, quizID, studentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.byID {
		if sub.QuizID == quizID && sub.StudentID == studentID && sub.Status == domain.StatusPending {
			return true, nil
		}
	}
	return false, nil
}
