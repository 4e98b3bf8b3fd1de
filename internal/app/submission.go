package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"quizdeck/internal/domain"
)

// QuizDirectory is the read-only quiz lookup the scoring pipeline consumes.
type QuizDirectory interface {
	GetQuiz(ctx context.Context, id string) (domain.Quiz, error)
}

// QuestionBank is the read-only question lookup the scoring pipeline
// consumes. A quiz with no questions yields an empty slice, not an error.
type QuestionBank interface {
	QuestionsByQuiz(ctx context.Context, quizID string) ([]domain.Question, error)
}

// ResultStore persists scored submissions. Results are write-once: there
// is no update operation.
type ResultStore interface {
	CreateResult(ctx context.Context, result domain.Result) error
	ResultsByUser(ctx context.Context, userID string) ([]domain.ResultSummary, error)
	ResultByID(ctx context.Context, id string) (domain.Result, error)
	DeleteResult(ctx context.Context, id string) error
}

// SubmissionService runs the evaluate-and-persist pipeline and serves the
// result lifecycle (list, review, admin delete).
type SubmissionService struct {
	quizzes   QuizDirectory
	questions QuestionBank
	results   ResultStore
	feed      *ResultFeed
	now       func() time.Time
	newID     func() string
}

func NewSubmissionService(quizzes QuizDirectory, questions QuestionBank, results ResultStore, feed *ResultFeed) *SubmissionService {
	return &SubmissionService{
		quizzes:   quizzes,
		questions: questions,
		results:   results,
		feed:      feed,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// NewSubmissionServiceWithClock is test-only for deterministic timestamps
// and identifiers.
func NewSubmissionServiceWithClock(quizzes QuizDirectory, questions QuestionBank, results ResultStore, feed *ResultFeed, now func() time.Time, newID func() string) *SubmissionService {
	s := NewSubmissionService(quizzes, questions, results, feed)
	s.now = now
	s.newID = newID
	return s
}

// Submit evaluates a submission and persists it as a new Result.
//
// The collaborator calls run sequentially: quiz lookup, question-bank
// fetch, then the write. A failure at any step fails the whole call and
// persists nothing. An empty (but present) answers slice is accepted and
// scores zero against the full total; a nil slice or an answer missing
// either field is rejected as invalid input. Two identical calls create
// two distinct results.
func (s *SubmissionService) Submit(ctx context.Context, userID, quizID string, timeTaken int, answers []domain.SubmittedAnswer) (domain.Result, error) {
	if userID == "" || quizID == "" || answers == nil {
		return domain.Result{}, domain.ErrInvalidSubmission
	}
	for _, ans := range answers {
		if ans.QuestionID == "" || ans.SelectedAnswer == "" {
			return domain.Result{}, domain.ErrInvalidSubmission
		}
	}

	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return domain.Result{}, err
	}
	questions, err := s.questions.QuestionsByQuiz(ctx, quizID)
	if err != nil {
		return domain.Result{}, err
	}

	evaluation := Evaluate(questions, answers)

	now := s.now()
	result := domain.Result{
		ID:          s.newID(),
		UserID:      userID,
		QuizID:      quizID,
		Answers:     evaluation.Answers,
		Score:       evaluation.Score,
		TotalMarks:  evaluation.TotalMarks,
		CompletedAt: now,
		TimeTaken:   timeTaken,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.results.CreateResult(ctx, result); err != nil {
		return domain.Result{}, err
	}

	if s.feed != nil {
		s.feed.Publish(result)
	}
	return result, nil
}

// ResultsByUser lists a user's results newest-first with quiz titles
// resolved. Each call re-queries the store.
func (s *SubmissionService) ResultsByUser(ctx context.Context, userID string) ([]domain.ResultSummary, error) {
	return s.results.ResultsByUser(ctx, userID)
}

// ResultByID returns the full review view of a result: quiz title plus
// per-answer question text, options, and correct answer. Questions deleted
// since submission leave a nil Question on their answer entry.
func (s *SubmissionService) ResultByID(ctx context.Context, id string) (domain.ResultDetail, error) {
	result, err := s.results.ResultByID(ctx, id)
	if err != nil {
		return domain.ResultDetail{}, err
	}

	detail := domain.ResultDetail{Result: result}

	quiz, err := s.quizzes.GetQuiz(ctx, result.QuizID)
	switch {
	case err == nil:
		detail.QuizTitle = quiz.Title
	case errors.Is(err, domain.ErrQuizNotFound):
		// Quiz deleted after submission; the result still renders.
	default:
		return domain.ResultDetail{}, err
	}

	questions, err := s.questions.QuestionsByQuiz(ctx, result.QuizID)
	if err != nil {
		return domain.ResultDetail{}, err
	}
	byID := make(map[string]*domain.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	detail.Answers = make([]domain.AnswerDetail, 0, len(result.Answers))
	for _, ans := range result.Answers {
		detail.Answers = append(detail.Answers, domain.AnswerDetail{
			EvaluatedAnswer: ans,
			Question:        byID[ans.QuestionID],
		})
	}
	return detail, nil
}

// DeleteResult removes a single result record. Role gating happens at the
// transport layer; deletion has no cascade side effects.
func (s *SubmissionService) DeleteResult(ctx context.Context, id string) error {
	return s.results.DeleteResult(ctx, id)
}
