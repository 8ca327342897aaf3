package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"quiz-gateway/internal/domain"
)

// HTTPClient talks JSON over HTTP to the quiz-management service.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	var out struct {
		Quizzes []domain.Quiz `json:"quizzes"`
	}
	if err := c.do(ctx, http.MethodGet, "/quizzes", nil, &out); err != nil {
		return nil, err
	}
	return out.Quizzes, nil
}

func (c *HTTPClient) GetQuiz(ctx context.Context, id string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := c.do(ctx, http.MethodGet, "/quizzes/"+id, nil, &quiz)
	return quiz, err
}

func (c *HTTPClient) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	var created domain.Quiz
	err := c.do(ctx, http.MethodPost, "/quizzes", quiz, &created)
	return created, err
}

func (c *HTTPClient) UpdateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	var updated domain.Quiz
	err := c.do(ctx, http.MethodPut, "/quizzes/"+quiz.ID, quiz, &updated)
	return updated, err
}

func (c *HTTPClient) DeleteQuiz(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/quizzes/"+id, nil, nil)
}

func (c *HTTPClient) ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	var out struct {
		Questions []domain.Question `json:"questions"`
	}
	if err := c.do(ctx, http.MethodGet, "/quizzes/"+quizID+"/questions", nil, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

func (c *HTTPClient) CreateQuestion(ctx context.Context, question domain.Question) (domain.Question, error) {
	var created domain.Question
	err := c.do(ctx, http.MethodPost, "/quizzes/"+question.QuizID+"/questions", question, &created)
	return created, err
}

func (c *HTTPClient) UpdateQuestion(ctx context.Context, question domain.Question) (domain.Question, error) {
	var updated domain.Question
	err := c.do(ctx, http.MethodPut, "/questions/"+question.ID, question, &updated)
	return updated, err
}

func (c *HTTPClient) DeleteQuestion(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/questions/"+id, nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal catalog request: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build catalog request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrQuizNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: catalog returned %d", domain.ErrCatalogUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("catalog rejected %s %s: %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}
	return nil
}
