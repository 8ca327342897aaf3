// Package catalog defines the gateway's view of the external quiz-management
// service, which owns quiz and question definitions. The gateway proxies CRUD
// calls and reads quiz metadata for notification payloads.
package catalog

import (
	"context"

	"quiz-gateway/internal/domain"
)

// Client is the request/response accessor for the quiz catalog. Transport
// failures surface as domain.ErrCatalogUnavailable and must not be masked.
type Client interface {
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	GetQuiz(ctx context.Context, id string) (domain.Quiz, error)
	CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	DeleteQuiz(ctx context.Context, id string) error

	ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error)
	CreateQuestion(ctx context.Context, question domain.Question) (domain.Question, error)
	UpdateQuestion(ctx context.Context, question domain.Question) (domain.Question, error)
	DeleteQuestion(ctx context.Context, id string) error
}
