package memory

import (
	"context"
	"sort"
	"sync"

	"quizdeck/internal/domain"
)

// ResultStore is an in-memory implementation of app.ResultStore.
type ResultStore struct {
	quizzes *CatalogStore

	mu      sync.RWMutex
	results map[string]domain.Result
}

// NewResultStore builds a result store that resolves quiz titles for
// listings through the given catalog.
func NewResultStore(quizzes *CatalogStore) *ResultStore {
	return &ResultStore{
		quizzes: quizzes,
		results: make(map[string]domain.Result),
	}
}

func (s *ResultStore) CreateResult(_ context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.ID] = result
	return nil
}

func (s *ResultStore) ResultsByUser(ctx context.Context, userID string) ([]domain.ResultSummary, error) {
	s.mu.RLock()
	summaries := make([]domain.ResultSummary, 0)
	for _, result := range s.results {
		if result.UserID != userID {
			continue
		}
		summaries = append(summaries, domain.ResultSummary{Result: result})
	}
	s.mu.RUnlock()

	for i := range summaries {
		if quiz, err := s.quizzes.GetQuiz(ctx, summaries[i].QuizID); err == nil {
			summaries[i].QuizTitle = quiz.Title
		}
	}
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
		}
		return summaries[i].ID < summaries[j].ID
	})
	return summaries, nil
}

func (s *ResultStore) ResultByID(_ context.Context, id string) (domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[id]
	if !ok {
		return domain.Result{}, domain.ErrResultNotFound
	}
	return result, nil
}

func (s *ResultStore) DeleteResult(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[id]; !ok {
		return domain.ErrResultNotFound
	}
	delete(s.results, id)
	return nil
}
