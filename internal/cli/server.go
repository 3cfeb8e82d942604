package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"learnloop-attempt-service/internal/app"
	"learnloop-attempt-service/internal/config"
	"learnloop-attempt-service/internal/domain"
	"learnloop-attempt-service/internal/infra/memory"
	pgstore "learnloop-attempt-service/internal/infra/postgres"
	redisstore "learnloop-attempt-service/internal/infra/redis"
	transport "learnloop-attempt-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the attempt server",
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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgstore.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var attempts app.AttemptRepository
	if redisClient != nil {
		attempts = redisstore.NewAttemptStore(redisClient, redisTTL)
	} else {
		attempts = memory.NewAttemptStore()
	}

	historyTTL := config.TTLDuration(cfg.History.TTL, 0)
	var history app.HistoryRepository
	if redisClient != nil {
		history = redisstore.NewHistoryStore(redisClient, historyTTL)
	} else {
		history = memory.NewHistoryStore()
	}

	evaluator := app.NewBadgeEvaluator(app.DefaultBadgeRules(app.PerfectScoreLevels{
		Silver: cfg.Badges.SilverCategories,
		Gold:   cfg.Badges.GoldCategories,
	}))

	service := app.NewAttemptService(attempts, quizRepo, history, evaluator)
	if pool != nil {
		service.WithRecorder(pgstore.NewAttemptRecorder(pool))
	}
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting attempt service on :%s", finalPort)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes provides a minimal catalog for running without postgres.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:                  "quiz-1",
			Title:               "Arithmetic Basics",
			Category:            "math",
			TimeLimitMinutes:    5,
			PassingScorePercent: 70,
			Questions: []domain.Question{
				{
					ID:             "q1",
					Text:           "What is 2 + 2?",
					Type:           domain.SingleChoice,
					Options:        []string{"3", "4", "5"},
					CorrectIndices: []int{1},
				},
				{
					ID:             "q2",
					Text:           "Which of these are even numbers?",
					Type:           domain.MultiChoice,
					Options:        []string{"1", "2", "3", "4"},
					CorrectIndices: []int{1, 3},
				},
			},
		},
	}
}
