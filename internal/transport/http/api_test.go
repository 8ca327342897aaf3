package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quiz-gateway/internal/app"
	"quiz-gateway/internal/auth"
	"quiz-gateway/internal/bus"
	"quiz-gateway/internal/domain"
	"quiz-gateway/internal/infra/memory"
)

const testSecret = "transport-test-secret"

type fixture struct {
	server *httptest.Server
	store  *memory.SubmissionStore
	hub    *bus.Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewSubmissionStore()
	cat := memory.NewStaticCatalog(map[string]domain.Quiz{
		"Q1": {
			ID:          "Q1",
			Title:       "Capitals",
			Description: "European capitals",
			Questions: []domain.Question{
				{ID: "q0", QuizID: "Q1", Text: "Capital of France?", Options: []string{"Paris", "Rome"}, CorrectAnswer: 0},
			},
		},
	})
	hub := bus.NewHub()
	verifier := auth.NewVerifier(testSecret, "")
	service := app.NewSubmissionService(store, cat, hub, false)
	router := NewRouter(NewAPI(service, cat, verifier), NewWSHandler(hub, verifier))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &fixture{server: server, store: store, hub: hub}
}

func token(t *testing.T, identity domain.Identity) string {
	t.Helper()
	tok, err := auth.Mint(testSecret, identity, time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return tok
}

func (f *fixture) request(t *testing.T, method, path, tok, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestPublicQuizListingNeedsNoToken(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.request(t, http.MethodGet, "/api/quizzes", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestSubmitRequiresToken(t *testing.T) {
	f := newFixture(t)

	resp, body := f.request(t, http.MethodPost, "/api/quiz/Q1/submit", "", `{"answers":[1]}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	if body["error"] == "" {
		t.Fatalf("expected error body")
	}

	resp, _ = f.request(t, http.MethodPost, "/api/quiz/Q1/submit", "garbage", `{"answers":[1]}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", resp.StatusCode)
	}
}

func TestSubmitIgnoresClientStudentID(t *testing.T) {
	f := newFixture(t)
	tok := token(t, domain.Identity{ID: "S1", Name: "Alice", Role: domain.RoleUser})

	resp, body := f.request(t, http.MethodPost, "/api/quiz/Q1/submit", tok,
		`{"answers":[1,0,2],"studentId":"someone-else"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", resp.StatusCode, body)
	}

	submission := body["submission"].(map[string]any)
	if submission["studentId"] != "S1" {
		t.Fatalf("expected studentId from token, got %v", submission["studentId"])
	}
	if submission["status"] != domain.StatusPending {
		t.Fatalf("expected pending, got %v", submission["status"])
	}
	answers := submission["answers"].([]any)
	first := answers[0].(map[string]any)
	if first["questionId"] != "q0" || first["selectedAnswer"] != float64(1) {
		t.Fatalf("unexpected first answer %v", first)
	}
}

func TestSubmitValidatesBody(t *testing.T) {
	f := newFixture(t)
	tok := token(t, domain.Identity{ID: "S1", Role: domain.RoleUser})

	resp, _ := f.request(t, http.MethodPost, "/api/quiz/Q1/submit", tok, `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing answers, got %d", resp.StatusCode)
	}
}

func TestListSubmissionsForbiddenForUsers(t *testing.T) {
	f := newFixture(t)
	userTok := token(t, domain.Identity{ID: "S1", Role: domain.RoleUser})
	adminTok := token(t, domain.Identity{ID: "A1", Role: domain.RoleAdmin})

	f.request(t, http.MethodPost, "/api/quiz/Q1/submit", userTok, `{"answers":[1]}`)

	resp, _ := f.request(t, http.MethodGet, "/api/quiz/Q1/submissions", userTok, "")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for user, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, f.server.URL+"/api/quiz/Q1/submissions", nil)
	req.Header.Set("x-auth", adminTok) // legacy header still honored
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", resp2.StatusCode)
	}
	var subs []domain.Submission
	if err := json.NewDecoder(resp2.Body).Decode(&subs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(subs))
	}
}

func TestReviewFlow(t *testing.T) {
	f := newFixture(t)
	userTok := token(t, domain.Identity{ID: "S1", Name: "Alice", Role: domain.RoleUser})
	adminTok := token(t, domain.Identity{ID: "A1", Name: "Reviewer", Role: domain.RoleAdmin})

	_, body := f.request(t, http.MethodPost, "/api/quiz/Q1/submit", userTok, `{"answers":[1]}`)
	subID := body["submission"].(map[string]any)["id"].(string)

	// Invalid status is rejected before anything is touched.
	resp, _ := f.request(t, http.MethodPut, "/api/quiz/Q1/submissions/"+subID+"/review", adminTok,
		`{"status":"graded"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid status, got %d", resp.StatusCode)
	}

	// Wrong quiz in path.
	resp, _ = f.request(t, http.MethodPut, "/api/quiz/Q2/submissions/"+subID+"/review", adminTok,
		`{"status":"approved"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for quiz mismatch, got %d", resp.StatusCode)
	}

	// Non-admin cannot review.
	resp, _ = f.request(t, http.MethodPut, "/api/quiz/Q1/submissions/"+subID+"/review", userTok,
		`{"status":"approved"}`)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for user, got %d", resp.StatusCode)
	}

	resp, body = f.request(t, http.MethodPut, "/api/quiz/Q1/submissions/"+subID+"/review", adminTok,
		`{"status":"approved","feedback":"Good job"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	submission := body["submission"].(map[string]any)
	if submission["status"] != domain.StatusApproved || submission["reviewedBy"] != "A1" || submission["feedback"] != "Good job" {
		t.Fatalf("unexpected reviewed submission %v", submission)
	}
}

func TestReviewUnknownSubmissionIs404(t *testing.T) {
	f := newFixture(t)
	adminTok := token(t, domain.Identity{ID: "A1", Role: domain.RoleAdmin})

	resp, _ := f.request(t, http.MethodPut, "/api/quiz/Q1/submissions/missing/review", adminTok,
		`{"status":"approved"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestQuizDetailMergesQuestions(t *testing.T) {
	f := newFixture(t)
	tok := token(t, domain.Identity{ID: "S1", Role: domain.RoleUser})

	resp, body := f.request(t, http.MethodGet, "/api/quiz/Q1", tok, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["title"] != "Capitals" {
		t.Fatalf("expected quiz metadata, got %v", body)
	}
	questions := body["questions"].([]any)
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}

	resp, _ = f.request(t, http.MethodGet, "/api/quiz/missing", tok, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestQuizCRUDPassthrough(t *testing.T) {
	f := newFixture(t)
	tok := token(t, domain.Identity{ID: "A1", Role: domain.RoleAdmin})

	resp, body := f.request(t, http.MethodPost, "/api/quiz", tok,
		`{"title":"History","description":"World history"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if body["createdBy"] != "A1" {
		t.Fatalf("expected createdBy from caller, got %v", body["createdBy"])
	}
	quizID := body["id"].(string)

	resp, _ = f.request(t, http.MethodDelete, "/api/quiz/"+quizID, tok, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", resp.StatusCode)
	}
}
