package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizdeck/internal/app"
	"quizdeck/internal/config"
	"quizdeck/internal/domain"
	"quizdeck/internal/infra/memory"
	pgstore "quizdeck/internal/infra/postgres"
	redisinfra "quizdeck/internal/infra/redis"
	transport "quizdeck/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz platform server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	questionsTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		quizzes     app.QuizStore
		questions   app.QuestionStore
		results     app.ResultStore
		bank        app.QuestionBank
		invalidator app.QuestionBankInvalidator
	)
	if cfg.Postgres.URL != "" {
		store, err := pgstore.Connect(runCtx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer store.Close()
		pingInterval := config.TTLDuration(cfg.Postgres.PingInterval, 30*time.Second)
		go store.Supervise(runCtx, pingInterval)

		quizzes, questions, results = store, store, store
		if redisClient != nil {
			cache := redisinfra.NewQuestionBank(redisClient, store, questionsTTL)
			bank, invalidator = cache, cache
		} else {
			cache := memory.NewQuestionCache(store, questionsTTL)
			bank, invalidator = cache, cache
		}
	} else {
		// Demo mode: seeded in-memory catalog, no persistence across restarts.
		catalog := memory.NewCatalogStore()
		catalog.Seed(sampleCatalog())
		quizzes, questions = catalog, catalog
		results = memory.NewResultStore(catalog)
		bank = catalog
	}

	feed := app.NewResultFeed()
	submissions := app.NewSubmissionService(quizzes, bank, results, feed)
	catalogService := app.NewCatalogService(quizzes, questions, invalidator)

	handler := transport.NewHandler(submissions, catalogService)
	feedHandler := transport.NewFeedHandler(feed)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)
	mux.HandleFunc("GET /api/results/feed", feedHandler.ServeFeed)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quizdeck on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// sampleCatalog seeds a small published quiz so the demo wiring is usable
// out of the box.
func sampleCatalog() ([]domain.Quiz, []domain.Question) {
	now := time.Now()
	quizzes := []domain.Quiz{
		{
			ID:          "quiz-1",
			Title:       "General Knowledge",
			Description: "A short warm-up quiz",
			Category:    "general",
			TimeLimit:   10,
			Status:      domain.StatusPublished,
			CreatedBy:   "admin",
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
	questions := []domain.Question{
		{
			ID:            "q1",
			QuizID:        "quiz-1",
			QuestionText:  "What is 2 + 2?",
			Options:       []string{"3", "4", "5"},
			CorrectAnswer: "4",
			Marks:         1,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:            "q2",
			QuizID:        "quiz-1",
			QuestionText:  "Which planet is known as the Red Planet?",
			Options:       []string{"Venus", "Mars"},
			CorrectAnswer: "Mars",
			Marks:         2,
			CreatedAt:     now.Add(time.Second),
			UpdatedAt:     now.Add(time.Second),
		},
	}
	return quizzes, questions
}
