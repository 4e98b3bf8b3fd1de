package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizdeck/internal/app"
	"quizdeck/internal/domain"
	"quizdeck/internal/infra/memory"
)

func newTestCatalogService() *app.CatalogService {
	catalog := memory.NewCatalogStore()
	return app.NewCatalogService(catalog, catalog, nil)
}

func TestCreateQuizDefaultsAndValidation(t *testing.T) {
	ctx := context.Background()
	service := newTestCatalogService()

	quiz, err := service.CreateQuiz(ctx, "admin-1", app.QuizInput{
		Title:       "Capitals",
		Description: "European capitals",
		Category:    "geography",
		TimeLimit:   15,
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if quiz.Status != domain.StatusDraft {
		t.Fatalf("expected draft default, got %s", quiz.Status)
	}
	if quiz.ID == "" || quiz.CreatedBy != "admin-1" {
		t.Fatalf("unexpected quiz %+v", quiz)
	}

	bad := []app.QuizInput{
		{Description: "d", Category: "c", TimeLimit: 1},
		{Title: "t", Category: "c", TimeLimit: 1},
		{Title: "t", Description: "d", TimeLimit: 1},
		{Title: "t", Description: "d", Category: "c"},
		{Title: "t", Description: "d", Category: "c", TimeLimit: -3},
		{Title: "t", Description: "d", Category: "c", TimeLimit: 1, Status: "open"},
	}
	for _, in := range bad {
		if _, err := service.CreateQuiz(ctx, "admin-1", in); !errors.Is(err, domain.ErrInvalidQuiz) {
			t.Fatalf("expected invalid quiz for %+v, got %v", in, err)
		}
	}
}

func TestListQuizzesRoleGated(t *testing.T) {
	ctx := context.Background()
	service := newTestCatalogService()

	if _, err := service.CreateQuiz(ctx, "admin-1", app.QuizInput{Title: "Draft", Description: "d", Category: "c", TimeLimit: 5}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.CreateQuiz(ctx, "admin-1", app.QuizInput{Title: "Live", Description: "d", Category: "c", TimeLimit: 5, Status: domain.StatusPublished}); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := service.ListQuizzes(ctx, "admin")
	if err != nil {
		t.Fatalf("list as admin: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin should see 2 quizzes, got %d", len(all))
	}

	visible, err := service.ListQuizzes(ctx, "user")
	if err != nil {
		t.Fatalf("list as user: %v", err)
	}
	if len(visible) != 1 || visible[0].Title != "Live" {
		t.Fatalf("user should see only the published quiz, got %+v", visible)
	}
}

func TestUpdateQuizPartialPatch(t *testing.T) {
	ctx := context.Background()
	service := newTestCatalogService()

	quiz, err := service.CreateQuiz(ctx, "admin-1", app.QuizInput{Title: "Before", Description: "d", Category: "c", TimeLimit: 5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	published := domain.StatusPublished
	updated, err := service.UpdateQuiz(ctx, quiz.ID, app.QuizPatch{Status: &published})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.StatusPublished {
		t.Fatalf("status not applied: %+v", updated)
	}
	if updated.Title != "Before" || updated.TimeLimit != 5 {
		t.Fatalf("absent patch fields must stay untouched, got %+v", updated)
	}

	zero := 0
	if _, err := service.UpdateQuiz(ctx, quiz.ID, app.QuizPatch{TimeLimit: &zero}); !errors.Is(err, domain.ErrInvalidQuiz) {
		t.Fatalf("expected invalid quiz for zero time limit, got %v", err)
	}

	if _, err := service.UpdateQuiz(ctx, "missing", app.QuizPatch{}); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateQuestionInvariants(t *testing.T) {
	ctx := context.Background()
	service := newTestCatalogService()

	quiz, err := service.CreateQuiz(ctx, "admin-1", app.QuizInput{Title: "Q", Description: "d", Category: "c", TimeLimit: 5})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	question, err := service.CreateQuestion(ctx, app.QuestionInput{
		QuizID:        quiz.ID,
		QuestionText:  "Pick",
		Options:       []string{"A", "B"},
		CorrectAnswer: "B",
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	if question.Marks != 1 {
		t.Fatalf("marks should default to 1, got %d", question.Marks)
	}

	if _, err := service.CreateQuestion(ctx, app.QuestionInput{
		QuizID: quiz.ID, QuestionText: "Pick", Options: []string{"A"}, CorrectAnswer: "A",
	}); !errors.Is(err, domain.ErrTooFewOptions) {
		t.Fatalf("expected too few options, got %v", err)
	}

	if _, err := service.CreateQuestion(ctx, app.QuestionInput{
		QuizID: quiz.ID, QuestionText: "Pick", Options: []string{"A", "B"}, CorrectAnswer: "C",
	}); !errors.Is(err, domain.ErrCorrectAnswerNotOption) {
		t.Fatalf("expected membership violation, got %v", err)
	}

	if _, err := service.CreateQuestion(ctx, app.QuestionInput{
		QuizID: "missing", QuestionText: "Pick", Options: []string{"A", "B"}, CorrectAnswer: "A",
	}); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

func TestUpdateQuestionRechecksMembership(t *testing.T) {
	ctx := context.Background()
	service := newTestCatalogService()

	quiz, _ := service.CreateQuiz(ctx, "admin-1", app.QuizInput{Title: "Q", Description: "d", Category: "c", TimeLimit: 5})
	question, err := service.CreateQuestion(ctx, app.QuestionInput{
		QuizID: quiz.ID, QuestionText: "Pick", Options: []string{"A", "B"}, CorrectAnswer: "B", Marks: 2,
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}

	// Swapping options without updating the correct answer must fail the
	// membership check against the post-update option set.
	newOptions := []string{"C", "D"}
	if _, err := service.UpdateQuestion(ctx, question.ID, app.QuestionPatch{Options: &newOptions}); !errors.Is(err, domain.ErrCorrectAnswerNotOption) {
		t.Fatalf("expected membership violation, got %v", err)
	}

	correct := "C"
	updated, err := service.UpdateQuestion(ctx, question.ID, app.QuestionPatch{Options: &newOptions, CorrectAnswer: &correct})
	if err != nil {
		t.Fatalf("update question: %v", err)
	}
	if updated.CorrectAnswer != "C" || updated.Marks != 2 {
		t.Fatalf("unexpected question after update: %+v", updated)
	}

	zero := 0
	if _, err := service.UpdateQuestion(ctx, question.ID, app.QuestionPatch{Marks: &zero}); !errors.Is(err, domain.ErrInvalidQuestion) {
		t.Fatalf("expected invalid question for zero marks, got %v", err)
	}
}

func TestDeleteQuizLeavesQuestions(t *testing.T) {
	ctx := context.Background()
	catalog := memory.NewCatalogStore()
	service := app.NewCatalogService(catalog, catalog, nil)

	quiz, _ := service.CreateQuiz(ctx, "admin-1", app.QuizInput{Title: "Q", Description: "d", Category: "c", TimeLimit: 5})
	question, err := service.CreateQuestion(ctx, app.QuestionInput{
		QuizID: quiz.ID, QuestionText: "Pick", Options: []string{"A", "B"}, CorrectAnswer: "A",
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}

	if err := service.DeleteQuiz(ctx, quiz.ID); err != nil {
		t.Fatalf("delete quiz: %v", err)
	}
	// No cascade: the question record survives the quiz.
	if _, err := service.GetQuestion(ctx, question.ID); err != nil {
		t.Fatalf("question should survive quiz deletion, got %v", err)
	}
}

func TestQuestionMutationsReachScoringThroughCache(t *testing.T) {
	ctx := context.Background()
	catalog := memory.NewCatalogStore()
	cache := memory.NewQuestionCache(catalog, time.Minute)
	service := app.NewCatalogService(catalog, catalog, cache)
	submissions := app.NewSubmissionService(catalog, cache, memory.NewResultStore(catalog), nil)

	quiz, err := service.CreateQuiz(ctx, "admin-1", app.QuizInput{Title: "Q", Description: "d", Category: "c", TimeLimit: 5})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	question, err := service.CreateQuestion(ctx, app.QuestionInput{
		QuizID: quiz.ID, QuestionText: "Pick", Options: []string{"A", "B"}, CorrectAnswer: "A", Marks: 5,
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}

	// Warm the cache with a submission against the original answer key.
	first, err := submissions.Submit(ctx, "u1", quiz.ID, 0, []domain.SubmittedAnswer{
		{QuestionID: question.ID, SelectedAnswer: "A"},
	})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if first.Score != 5 {
		t.Fatalf("expected 5 before the key change, got %d", first.Score)
	}

	correct := "B"
	if _, err := service.UpdateQuestion(ctx, question.ID, app.QuestionPatch{CorrectAnswer: &correct}); err != nil {
		t.Fatalf("update question: %v", err)
	}

	// The new answer key must apply immediately, not after the TTL.
	second, err := submissions.Submit(ctx, "u1", quiz.ID, 0, []domain.SubmittedAnswer{
		{QuestionID: question.ID, SelectedAnswer: "B"},
	})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.Score != 5 {
		t.Fatalf("corrected answer key not visible to scoring, got %d/%d", second.Score, second.TotalMarks)
	}

	// A freshly added question must count toward totalMarks right away.
	added, err := service.CreateQuestion(ctx, app.QuestionInput{
		QuizID: quiz.ID, QuestionText: "More", Options: []string{"X", "Y"}, CorrectAnswer: "X", Marks: 3,
	})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	third, err := submissions.Submit(ctx, "u1", quiz.ID, 0, []domain.SubmittedAnswer{
		{QuestionID: question.ID, SelectedAnswer: "B"},
	})
	if err != nil {
		t.Fatalf("third submit: %v", err)
	}
	if third.TotalMarks != 8 {
		t.Fatalf("new question missing from total, got %d", third.TotalMarks)
	}

	// And a deleted question must stop counting.
	if err := service.DeleteQuestion(ctx, added.ID); err != nil {
		t.Fatalf("delete question: %v", err)
	}
	fourth, err := submissions.Submit(ctx, "u1", quiz.ID, 0, []domain.SubmittedAnswer{
		{QuestionID: question.ID, SelectedAnswer: "B"},
	})
	if err != nil {
		t.Fatalf("fourth submit: %v", err)
	}
	if fourth.TotalMarks != 5 {
		t.Fatalf("deleted question still in total, got %d", fourth.TotalMarks)
	}
}
