package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"quiz-gateway/internal/domain"
)

// StaticCatalog is an in-memory catalog.Client backed by maps, useful for
// tests and for running the gateway without the quiz-management service.
type StaticCatalog struct {
	mu        sync.RWMutex
	quizzes   map[string]domain.Quiz
	questions map[string]domain.Question
}

func NewStaticCatalog(quizzes map[string]domain.Quiz) *StaticCatalog {
	c := &StaticCatalog{
		quizzes:   make(map[string]domain.Quiz),
		questions: make(map[string]domain.Question),
	}
	for id, quiz := range quizzes {
		for _, q := range quiz.Questions {
			c.questions[q.ID] = q
		}
		quiz.Questions = nil
		c.quizzes[id] = quiz
	}
	return c
}

func (c *StaticCatalog) ListQuizzes(context.Context) ([]domain.Quiz, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	quizzes := make([]domain.Quiz, 0, len(c.quizzes))
	for _, quiz := range c.quizzes {
		quizzes = append(quizzes, quiz)
	}
	return quizzes, nil
}

func (c *StaticCatalog) GetQuiz(_ context.Context, id string) (domain.Quiz, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	quiz, ok := c.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (c *StaticCatalog) CreateQuiz(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	c.quizzes[quiz.ID] = quiz
	return quiz, nil
}

func (c *StaticCatalog) UpdateQuiz(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.quizzes[quiz.ID]; !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	c.quizzes[quiz.ID] = quiz
	return quiz, nil
}

func (c *StaticCatalog) DeleteQuiz(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.quizzes[id]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(c.quizzes, id)
	return nil
}

func (c *StaticCatalog) ListQuestions(_ context.Context, quizID string) ([]domain.Question, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	questions := make([]domain.Question, 0)
	for _, q := range c.questions {
		if q.QuizID == quizID {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

func (c *StaticCatalog) CreateQuestion(_ context.Context, question domain.Question) (domain.Question, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	c.questions[question.ID] = question
	return question, nil
}

func (c *StaticCatalog) UpdateQuestion(_ context.Context, question domain.Question) (domain.Question, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.questions[question.ID]; !ok {
		return domain.Question{}, domain.ErrQuizNotFound
	}
	c.questions[question.ID] = question
	return question, nil
}

func (c *StaticCatalog) DeleteQuestion(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.questions[id]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(c.questions, id)
	return nil
}
