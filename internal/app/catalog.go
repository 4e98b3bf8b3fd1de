package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"quizdeck/internal/domain"
)

// QuizStore extends the read-only directory with the administrator
// mutations.
type QuizStore interface {
	QuizDirectory
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) error
	DeleteQuiz(ctx context.Context, id string) error
	ListQuizzes(ctx context.Context, onlyPublished bool) ([]domain.Quiz, error)
}

// QuestionStore extends the read-only bank with the administrator
// mutations.
type QuestionStore interface {
	QuestionBank
	CreateQuestion(ctx context.Context, question domain.Question) error
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
	UpdateQuestion(ctx context.Context, question domain.Question) error
	DeleteQuestion(ctx context.Context, id string) error
}

// QuestionBankInvalidator drops a quiz's cached question set after a
// mutation so the next submission scores against the live bank instead of
// waiting out the TTL.
type QuestionBankInvalidator interface {
	Invalidate(ctx context.Context, quizID string)
}

// QuizInput carries the fields an administrator supplies when creating a
// quiz.
type QuizInput struct {
	Title       string
	Description string
	Category    string
	TimeLimit   int
	Status      domain.QuizStatus
}

// QuizPatch is an explicit partial update: a nil field is left untouched,
// a present field is applied even when its value is zero or empty-adjacent.
type QuizPatch struct {
	Title       *string
	Description *string
	Category    *string
	TimeLimit   *int
	Status      *domain.QuizStatus
}

// QuestionInput carries the fields supplied when creating a question.
// Marks of zero defaults to 1.
type QuestionInput struct {
	QuizID        string
	QuestionText  string
	Options       []string
	CorrectAnswer string
	Marks         int
}

// QuestionPatch is the explicit partial update for questions. The
// correct-answer membership invariant is re-checked against the
// post-update option set.
type QuestionPatch struct {
	QuestionText  *string
	Options       *[]string
	CorrectAnswer *string
	Marks         *int
}

// CatalogService manages the quiz directory and question bank. The scoring
// pipeline only ever consumes its read side.
type CatalogService struct {
	quizzes     QuizStore
	questions   QuestionStore
	invalidator QuestionBankInvalidator
	now         func() time.Time
	newID       func() string
}

// NewCatalogService builds the catalog. invalidator may be nil when
// submissions read the store directly and no cache sits in between.
func NewCatalogService(quizzes QuizStore, questions QuestionStore, invalidator QuestionBankInvalidator) *CatalogService {
	return &CatalogService{
		quizzes:     quizzes,
		questions:   questions,
		invalidator: invalidator,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

func (s *CatalogService) invalidate(ctx context.Context, quizID string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, quizID)
	}
}

// CreateQuiz validates and stores a new quiz. Status defaults to draft.
func (s *CatalogService) CreateQuiz(ctx context.Context, createdBy string, in QuizInput) (domain.Quiz, error) {
	if in.Title == "" || in.Description == "" || in.Category == "" || in.TimeLimit <= 0 {
		return domain.Quiz{}, domain.ErrInvalidQuiz
	}
	status := in.Status
	if status == "" {
		status = domain.StatusDraft
	}
	if !status.Valid() {
		return domain.Quiz{}, domain.ErrInvalidQuiz
	}

	now := s.now()
	quiz := domain.Quiz{
		ID:          s.newID(),
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		TimeLimit:   in.TimeLimit,
		Status:      status,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.quizzes.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// GetQuiz returns a quiz by ID.
func (s *CatalogService) GetQuiz(ctx context.Context, id string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, id)
}

// ListQuizzes returns quizzes visible to the given role: admins see all,
// everyone else sees only published quizzes. Newest-first.
func (s *CatalogService) ListQuizzes(ctx context.Context, role string) ([]domain.Quiz, error) {
	return s.quizzes.ListQuizzes(ctx, role != "admin")
}

// UpdateQuiz applies a partial update to an existing quiz.
func (s *CatalogService) UpdateQuiz(ctx context.Context, id string, patch QuizPatch) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, id)
	if err != nil {
		return domain.Quiz{}, err
	}

	if patch.Title != nil {
		quiz.Title = *patch.Title
	}
	if patch.Description != nil {
		quiz.Description = *patch.Description
	}
	if patch.Category != nil {
		quiz.Category = *patch.Category
	}
	if patch.TimeLimit != nil {
		quiz.TimeLimit = *patch.TimeLimit
	}
	if patch.Status != nil {
		quiz.Status = *patch.Status
	}

	if quiz.Title == "" || quiz.Description == "" || quiz.Category == "" || quiz.TimeLimit <= 0 || !quiz.Status.Valid() {
		return domain.Quiz{}, domain.ErrInvalidQuiz
	}

	quiz.UpdatedAt = s.now()
	if err := s.quizzes.UpdateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// DeleteQuiz removes the quiz record. Questions are owned by the quiz but
// not cascaded here; stale question references in later submissions score
// zero via the unresolved path.
func (s *CatalogService) DeleteQuiz(ctx context.Context, id string) error {
	return s.quizzes.DeleteQuiz(ctx, id)
}

// QuestionsByQuiz lists a quiz's questions. Possibly empty.
func (s *CatalogService) QuestionsByQuiz(ctx context.Context, quizID string) ([]domain.Question, error) {
	return s.questions.QuestionsByQuiz(ctx, quizID)
}

// CreateQuestion validates and stores a new question for an existing quiz.
func (s *CatalogService) CreateQuestion(ctx context.Context, in QuestionInput) (domain.Question, error) {
	if in.QuizID == "" || in.QuestionText == "" {
		return domain.Question{}, domain.ErrInvalidQuestion
	}
	if len(in.Options) < 2 {
		return domain.Question{}, domain.ErrTooFewOptions
	}
	if !contains(in.Options, in.CorrectAnswer) {
		return domain.Question{}, domain.ErrCorrectAnswerNotOption
	}
	marks := in.Marks
	if marks == 0 {
		marks = 1
	}
	if marks < 0 {
		return domain.Question{}, domain.ErrInvalidQuestion
	}

	if _, err := s.quizzes.GetQuiz(ctx, in.QuizID); err != nil {
		return domain.Question{}, err
	}

	now := s.now()
	question := domain.Question{
		ID:            s.newID(),
		QuizID:        in.QuizID,
		QuestionText:  in.QuestionText,
		Options:       in.Options,
		CorrectAnswer: in.CorrectAnswer,
		Marks:         marks,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.questions.CreateQuestion(ctx, question); err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx, question.QuizID)
	return question, nil
}

// GetQuestion returns a question by ID.
func (s *CatalogService) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	return s.questions.GetQuestion(ctx, id)
}

// UpdateQuestion applies a partial update, then re-validates the option
// count and correct-answer membership on the resulting question.
func (s *CatalogService) UpdateQuestion(ctx context.Context, id string, patch QuestionPatch) (domain.Question, error) {
	question, err := s.questions.GetQuestion(ctx, id)
	if err != nil {
		return domain.Question{}, err
	}

	if patch.QuestionText != nil {
		question.QuestionText = *patch.QuestionText
	}
	if patch.Options != nil {
		question.Options = *patch.Options
	}
	if patch.CorrectAnswer != nil {
		question.CorrectAnswer = *patch.CorrectAnswer
	}
	if patch.Marks != nil {
		question.Marks = *patch.Marks
	}

	if question.QuestionText == "" || question.Marks <= 0 {
		return domain.Question{}, domain.ErrInvalidQuestion
	}
	if len(question.Options) < 2 {
		return domain.Question{}, domain.ErrTooFewOptions
	}
	if !contains(question.Options, question.CorrectAnswer) {
		return domain.Question{}, domain.ErrCorrectAnswerNotOption
	}

	question.UpdatedAt = s.now()
	if err := s.questions.UpdateQuestion(ctx, question); err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx, question.QuizID)
	return question, nil
}

// DeleteQuestion removes a single question.
func (s *CatalogService) DeleteQuestion(ctx context.Context, id string) error {
	question, err := s.questions.GetQuestion(ctx, id)
	if err != nil {
		return err
	}
	if err := s.questions.DeleteQuestion(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, question.QuizID)
	return nil
}

func contains(options []string, value string) bool {
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}
