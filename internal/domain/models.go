package domain

import "time"

// Role values carried in token claims. Anything other than RoleAdmin is
// treated as a regular user.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Identity is the authenticated caller, derived per request from a bearer
// token. It is never persisted.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Submission review statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ValidReviewStatus reports whether s is a terminal status a reviewer may set.
func ValidReviewStatus(s string) bool {
	return s == StatusApproved || s == StatusRejected
}

// Answer is one entry of a submission, in question order.
// SelectedAnswer is nil when the student skipped the question.
type Answer struct {
	QuestionID     string `json:"questionId"`
	SelectedAnswer *int   `json:"selectedAnswer"`
}

// Submission is one student's recorded answer set for one quiz attempt.
// StudentID always comes from the authenticated caller, never the request body.
type Submission struct {
	ID          string     `json:"id"`
	QuizID      string     `json:"quizId"`
	StudentID   string     `json:"studentId"`
	Answers     []Answer   `json:"answers"`
	SubmittedAt time.Time  `json:"submittedAt"`
	Status      string     `json:"status"`
	ReviewedBy  string     `json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time `json:"reviewedAt,omitempty"`
	Feedback    string     `json:"feedback,omitempty"`
}

// Reviewed reports whether the submission has reached a terminal status.
func (s Submission) Reviewed() bool {
	return s.Status != StatusPending
}

// Quiz is catalog metadata owned by the external quiz-management service.
// The gateway only reads it; Questions is populated on detail lookups.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	Questions   []Question `json:"questions,omitempty"`
}

// Question is catalog question metadata, opaque to the gateway.
type Question struct {
	ID            string   `json:"id"`
	QuizID        string   `json:"quizId"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Type          string   `json:"type,omitempty"`
}

// Event names delivered over notification channels.
const (
	EventQuizSubmitted      = "quiz-submitted"
	EventSubmissionReviewed = "submission-reviewed"
)

// SubmittedEvent is broadcast to quiz-<quizID> after a successful submit.
type SubmittedEvent struct {
	StudentID string `json:"studentId"`
	QuizID    string `json:"quizId"`
	UserName  string `json:"userName"`
}

// ReviewedEvent is delivered to user-<studentID> after a review.
type ReviewedEvent struct {
	QuizID       string `json:"quizId"`
	SubmissionID string `json:"submissionId"`
	Status       string `json:"status"`
	Feedback     string `json:"feedback"`
}
