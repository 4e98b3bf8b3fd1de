package memory

import (
	"context"
	"sort"
	"sync"

	"quizdeck/internal/domain"
)

// CatalogStore is an in-memory implementation of app.QuizStore and
// app.QuestionStore, used for tests and for running without Postgres.
type CatalogStore struct {
	mu        sync.RWMutex
	quizzes   map[string]domain.Quiz
	questions map[string]domain.Question
}

func NewCatalogStore() *CatalogStore {
	return &CatalogStore{
		quizzes:   make(map[string]domain.Quiz),
		questions: make(map[string]domain.Question),
	}
}

// Seed loads quizzes and questions wholesale, for demo wiring and tests.
func (s *CatalogStore) Seed(quizzes []domain.Quiz, questions []domain.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, quiz := range quizzes {
		s.quizzes[quiz.ID] = quiz
	}
	for _, question := range questions {
		s.questions[question.ID] = question
	}
}

func (s *CatalogStore) GetQuiz(_ context.Context, id string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *CatalogStore) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *CatalogStore) UpdateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.ID]; !ok {
		return domain.ErrQuizNotFound
	}
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *CatalogStore) DeleteQuiz(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[id]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, id)
	return nil
}

func (s *CatalogStore) ListQuizzes(_ context.Context, onlyPublished bool) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quizzes := make([]domain.Quiz, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		if onlyPublished && quiz.Status != domain.StatusPublished {
			continue
		}
		quizzes = append(quizzes, quiz)
	}
	sort.Slice(quizzes, func(i, j int) bool {
		if !quizzes[i].CreatedAt.Equal(quizzes[j].CreatedAt) {
			return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt)
		}
		return quizzes[i].ID < quizzes[j].ID
	})
	return quizzes, nil
}

func (s *CatalogStore) QuestionsByQuiz(_ context.Context, quizID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	questions := make([]domain.Question, 0)
	for _, question := range s.questions {
		if question.QuizID == quizID {
			questions = append(questions, question)
		}
	}
	sort.Slice(questions, func(i, j int) bool {
		if !questions[i].CreatedAt.Equal(questions[j].CreatedAt) {
			return questions[i].CreatedAt.Before(questions[j].CreatedAt)
		}
		return questions[i].ID < questions[j].ID
	})
	return questions, nil
}

func (s *CatalogStore) CreateQuestion(_ context.Context, question domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[question.ID] = question
	return nil
}

func (s *CatalogStore) GetQuestion(_ context.Context, id string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	question, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return question, nil
}

func (s *CatalogStore) UpdateQuestion(_ context.Context, question domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[question.ID]; !ok {
		return domain.ErrQuestionNotFound
	}
	s.questions[question.ID] = question
	return nil
}

func (s *CatalogStore) DeleteQuestion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[id]; !ok {
		return domain.ErrQuestionNotFound
	}
	delete(s.questions, id)
	return nil
}
