package domain

import "time"

// QuizStatus gates quiz visibility: only published quizzes are listed to
// regular users.
type QuizStatus string

const (
	StatusDraft     QuizStatus = "draft"
	StatusPublished QuizStatus = "published"
	StatusArchived  QuizStatus = "archived"
)

// Valid reports whether the status is one of the known lifecycle values.
func (s QuizStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Quiz is a named, timed collection of questions.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	TimeLimit   int        `json:"timeLimit"` // minutes
	Status      QuizStatus `json:"status"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Question is one multiple-choice item belonging to a quiz. CorrectAnswer
// is always a member of Options; Marks defaults to 1 if left zero at
// creation time.
type Question struct {
	ID            string    `json:"id"`
	QuizID        string    `json:"quizId"`
	QuestionText  string    `json:"questionText"`
	Options       []string  `json:"options"`
	CorrectAnswer string    `json:"correctAnswer"`
	Marks         int       `json:"marks"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// SubmittedAnswer is one selected answer within a submission.
type SubmittedAnswer struct {
	QuestionID     string `json:"questionId"`
	SelectedAnswer string `json:"selectedAnswer"`
}

// EvaluatedAnswer is a scored SubmittedAnswer. MarksObtained is either 0
// or the question's full marks; an answer whose question reference does
// not resolve scores 0 and is marked incorrect.
type EvaluatedAnswer struct {
	QuestionID     string `json:"questionId"`
	SelectedAnswer string `json:"selectedAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
	MarksObtained  int    `json:"marksObtained"`
}

// Evaluation is the outcome of scoring one submission against a quiz's
// question bank. TotalMarks sums marks over the entire bank, not just the
// answered questions.
type Evaluation struct {
	Answers    []EvaluatedAnswer `json:"answers"`
	Score      int               `json:"score"`
	TotalMarks int               `json:"totalMarks"`
}

// Result is the persisted, immutable outcome of one submission. There is
// no update path: results are created once and only ever read or deleted.
type Result struct {
	ID          string            `json:"id"`
	UserID      string            `json:"userId"`
	QuizID      string            `json:"quizId"`
	Answers     []EvaluatedAnswer `json:"answers"`
	Score       int               `json:"score"`
	TotalMarks  int               `json:"totalMarks"`
	CompletedAt time.Time         `json:"completedAt"`
	TimeTaken   int               `json:"timeTaken"` // seconds
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// ResultSummary is a listing view of a Result with the quiz title resolved.
type ResultSummary struct {
	Result
	QuizTitle string `json:"quizTitle"`
}

// AnswerDetail pairs an evaluated answer with the question it was scored
// against, for result-review screens. Question is nil when the referenced
// question no longer exists.
type AnswerDetail struct {
	EvaluatedAnswer
	Question *Question `json:"question,omitempty"`
}

// ResultDetail is the full review view of a Result.
type ResultDetail struct {
	Result
	QuizTitle string         `json:"quizTitle"`
	Answers   []AnswerDetail `json:"answers"`
}
