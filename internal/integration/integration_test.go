package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quizdeck/internal/app"
	"quizdeck/internal/domain"
	pgstore "quizdeck/internal/infra/postgres"
	pgmigrations "quizdeck/internal/infra/postgres/migrations"
	redisinfra "quizdeck/internal/infra/redis"
)

func TestSubmitQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedCatalog(t, ctx, pgURL)

	store, err := pgstore.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer store.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	bank := redisinfra.NewQuestionBank(redisClient, store, 5*time.Minute)

	feed := app.NewResultFeed()
	service := app.NewSubmissionService(store, bank, store, feed)

	result, err := service.Submit(ctx, "u1", "quiz-1", 120, []domain.SubmittedAnswer{
		{QuestionID: "q1", SelectedAnswer: "4"},
		{QuestionID: "q2", SelectedAnswer: "Venus"},
		{QuestionID: "q-gone", SelectedAnswer: "whatever"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 1 || result.TotalMarks != 3 {
		t.Fatalf("expected 1/3, got %d/%d", result.Score, result.TotalMarks)
	}
	if len(result.Answers) != 3 {
		t.Fatalf("expected 3 evaluated answers, got %d", len(result.Answers))
	}
	if result.Answers[2].IsCorrect || result.Answers[2].MarksObtained != 0 {
		t.Fatalf("stale question reference must score zero, got %+v", result.Answers[2])
	}

	// Second submission proves no deduplication and newest-first listing.
	second, err := service.Submit(ctx, "u1", "quiz-1", 60, []domain.SubmittedAnswer{
		{QuestionID: "q1", SelectedAnswer: "4"},
		{QuestionID: "q2", SelectedAnswer: "Mars"},
	})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.ID == result.ID {
		t.Fatalf("expected distinct result ids")
	}
	if second.Score != 3 {
		t.Fatalf("expected full score 3, got %d", second.Score)
	}

	summaries, err := service.ResultsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("results by user: %v", err)
	}
	if len(summaries) != 2 || summaries[0].ID != second.ID {
		t.Fatalf("expected newest-first listing, got %+v", summaries)
	}
	if summaries[0].QuizTitle != "General Knowledge" {
		t.Fatalf("expected quiz title resolved, got %q", summaries[0].QuizTitle)
	}

	detail, err := service.ResultByID(ctx, result.ID)
	if err != nil {
		t.Fatalf("result by id: %v", err)
	}
	if detail.Answers[0].Question == nil || detail.Answers[0].Question.QuestionText != "What is 2 + 2?" {
		t.Fatalf("expected question detail, got %+v", detail.Answers[0])
	}
	if detail.Answers[2].Question != nil {
		t.Fatalf("unresolved reference should carry no question detail")
	}

	if err := service.DeleteResult(ctx, result.ID); err != nil {
		t.Fatalf("delete result: %v", err)
	}
	if _, err := service.ResultByID(ctx, result.ID); err != domain.ErrResultNotFound {
		t.Fatalf("expected result gone, got %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedCatalog(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	now := time.Now().UTC()
	if _, err := db.ExecContext(ctx,
		`INSERT INTO quizzes (id, title, description, category, time_limit, status, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		"quiz-1", "General Knowledge", "warm-up", "general", 10, "published", "admin", now, now); err != nil {
		t.Fatalf("insert quiz: %v", err)
	}

	questions := []domain.Question{
		{ID: "q1", QuizID: "quiz-1", QuestionText: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectAnswer: "4", Marks: 1},
		{ID: "q2", QuizID: "quiz-1", QuestionText: "Which planet is the Red Planet?", Options: []string{"Venus", "Mars"}, CorrectAnswer: "Mars", Marks: 2},
	}
	for i, q := range questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			t.Fatalf("marshal options: %v", err)
		}
		createdAt := now.Add(time.Duration(i) * time.Second)
		if _, err := db.ExecContext(ctx,
			`INSERT INTO questions (id, quiz_id, question_text, options, correct_answer, marks, created_at, updated_at)
			 VALUES (?, ?, ?, ?::jsonb, ?, ?, ?, ?)`,
			q.ID, q.QuizID, q.QuestionText, string(options), q.CorrectAnswer, q.Marks, createdAt, createdAt); err != nil {
			t.Fatalf("insert question: %v", err)
		}
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
