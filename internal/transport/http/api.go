package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"quiz-gateway/internal/app"
	"quiz-gateway/internal/auth"
	"quiz-gateway/internal/catalog"
	"quiz-gateway/internal/domain"
)

// API exposes the gateway's REST surface: catalog passthroughs plus the
// submission lifecycle endpoints.
type API struct {
	service  *app.SubmissionService
	catalog  catalog.Client
	verifier *auth.Verifier
	validate *validator.Validate
}

func NewAPI(service *app.SubmissionService, cat catalog.Client, verifier *auth.Verifier) *API {
	return &API{
		service:  service,
		catalog:  cat,
		verifier: verifier,
		validate: validator.New(),
	}
}

// NewRouter wires the REST API and the websocket endpoint.
func NewRouter(api *API, ws *WSHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger, middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		// Public quiz listing, kept from the original gateway's landing page.
		r.Get("/quizzes", api.ListQuizzes)

		r.Group(func(r chi.Router) {
			r.Use(api.Authenticate)

			r.Get("/quiz", api.ListQuizzes)
			r.Post("/quiz", api.CreateQuiz)
			r.Get("/quiz/{id}", api.GetQuiz)
			r.Put("/quiz/{id}", api.UpdateQuiz)
			r.Delete("/quiz/{id}", api.DeleteQuiz)

			r.Post("/quiz/{id}/questions", api.CreateQuestion)
			r.Put("/questions/{id}", api.UpdateQuestion)
			r.Delete("/questions/{id}", api.DeleteQuestion)

			r.Post("/quiz/{id}/submit", api.Submit)
			r.Get("/quiz/{id}/submissions", api.ListSubmissions)
			r.Put("/quiz/{id}/submissions/{submissionID}/review", api.Review)
		})
	})

	return r
}

type quizRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type questionRequest struct {
	Text          string   `json:"text" validate:"required"`
	Options       []string `json:"options" validate:"required,min=2"`
	CorrectAnswer int      `json:"correctAnswer" validate:"gte=0"`
	Type          string   `json:"type"`
}

type submitRequest struct {
	// Answers are selected option indices in question order; null marks a
	// skipped question. Any student id in the body is ignored.
	Answers []*int `json:"answers" validate:"required,min=1"`
}

type reviewRequest struct {
	Status   string `json:"status" validate:"required"`
	Feedback string `json:"feedback"`
}

func (a *API) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := a.service.Quizzes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, quizzes)
}

func (a *API) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := a.service.QuizDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, quiz)
}

func (a *API) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	var req quizRequest
	if !a.decode(w, r, &req) {
		return
	}

	created, err := a.catalog.CreateQuiz(r.Context(), domain.Quiz{
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   caller.ID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, created)
}

func (a *API) UpdateQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if !a.decode(w, r, &req) {
		return
	}

	updated, err := a.catalog.UpdateQuiz(r.Context(), domain.Quiz{
		ID:          chi.URLParam(r, "id"),
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, updated)
}

func (a *API) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := a.catalog.DeleteQuiz(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]string{"message": "Quiz deleted successfully"})
}

func (a *API) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if !a.decode(w, r, &req) {
		return
	}

	created, err := a.catalog.CreateQuestion(r.Context(), domain.Question{
		QuizID:        chi.URLParam(r, "id"),
		Text:          req.Text,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Type:          req.Type,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, created)
}

func (a *API) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if !a.decode(w, r, &req) {
		return
	}

	updated, err := a.catalog.UpdateQuestion(r.Context(), domain.Question{
		ID:            chi.URLParam(r, "id"),
		Text:          req.Text,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Type:          req.Type,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, updated)
}

func (a *API) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := a.catalog.DeleteQuestion(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]string{"message": "Question deleted successfully"})
}

func (a *API) Submit(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	var req submitRequest
	if !a.decode(w, r, &req) {
		return
	}

	submission, err := a.service.Submit(r.Context(), chi.URLParam(r, "id"), caller, req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]any{
		"message":    "Quiz answers submitted successfully",
		"submission": submission,
	})
}

func (a *API) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	submissions, err := a.service.ListSubmissions(r.Context(), chi.URLParam(r, "id"), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, submissions)
}

func (a *API) Review(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	var req reviewRequest
	if !a.decode(w, r, &req) {
		return
	}

	submission, err := a.service.Review(
		r.Context(),
		chi.URLParam(r, "id"),
		chi.URLParam(r, "submissionID"),
		caller,
		req.Status,
		req.Feedback,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"message":    "Submission reviewed successfully",
		"submission": submission,
	})
}

// decode parses and validates a JSON request body, answering 400 on failure.
// Validation runs before any mutation so malformed requests have no effect.
func (a *API) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeBadRequest(w, r, "invalid request body")
		return false
	}
	if err := a.validate.Struct(req); err != nil {
		writeBadRequest(w, r, "missing or invalid request fields")
		return false
	}
	return true
}
