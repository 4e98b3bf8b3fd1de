package domain

import "errors"

var (
	// ErrQuizNotFound indicates the referenced quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates the referenced question does not exist.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrResultNotFound indicates the referenced result does not exist.
	ErrResultNotFound = errors.New("result not found")
	// ErrInvalidSubmission is returned for malformed submission input.
	ErrInvalidSubmission = errors.New("invalid submission")
	// ErrInvalidQuiz is returned when quiz fields fail validation.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrInvalidQuestion is returned when question fields fail validation.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrTooFewOptions is returned when a question has fewer than two options.
	ErrTooFewOptions = errors.New("at least 2 options are required")
	// ErrCorrectAnswerNotOption is returned when a question's correct answer
	// is not a member of its options.
	ErrCorrectAnswerNotOption = errors.New("correct answer must be one of the options")
	// ErrForbidden indicates the caller's role does not permit the operation.
	ErrForbidden = errors.New("operation not permitted")
)
