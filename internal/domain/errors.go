package domain

import "errors"

var (
	// ErrNoToken is returned when a request carries no bearer credential.
	ErrNoToken = errors.New("access denied, no token provided")
	// ErrInvalidToken is returned for malformed, expired or badly signed tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrForbidden is returned when a valid identity lacks the required role.
	ErrForbidden = errors.New("insufficient role")
	// ErrSubmissionNotFound indicates the referenced submission does not exist.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrQuizNotFound indicates the catalog has no quiz with the given id.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidStatus is returned when a review status is not approved/rejected.
	ErrInvalidStatus = errors.New("invalid status, must be 'approved' or 'rejected'")
	// ErrQuizMismatch is returned when a submission does not belong to the quiz
	// named in the request path.
	ErrQuizMismatch = errors.New("submission does not belong to this quiz")
	// ErrDuplicateSubmission is returned under the single-attempt policy when a
	// pending submission already exists for the same quiz and student.
	ErrDuplicateSubmission = errors.New("a pending submission already exists for this quiz")
	// ErrCatalogUnavailable indicates the quiz-management service could not be reached.
	ErrCatalogUnavailable = errors.New("quiz catalog unavailable")
)
