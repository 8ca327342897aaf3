package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"quiz-gateway/internal/app"
	"quiz-gateway/internal/auth"
	"quiz-gateway/internal/bus"
	"quiz-gateway/internal/catalog"
	"quiz-gateway/internal/config"
	"quiz-gateway/internal/domain"
	"quiz-gateway/internal/infra/memory"
	"quiz-gateway/internal/infra/postgres"
	redisinfra "quiz-gateway/internal/infra/redis"
	transport "quiz-gateway/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the gateway.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz gateway",
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
		finalPort = "3000"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	// Catalog: remote quiz-management service, or a built-in sample catalog
	// when no base URL is configured (useful for local demos).
	var upstream catalog.Client
	if cfg.Catalog.BaseURL != "" {
		upstream = catalog.NewHTTPClient(cfg.Catalog.BaseURL, config.Duration(cfg.Catalog.Timeout, 10*time.Second))
	} else {
		logrus.Warn("no catalog base_url configured, serving sample quizzes")
		upstream = memory.NewStaticCatalog(sampleQuizzes())
	}

	catalogTTL := config.Duration(cfg.Catalog.TTL, 10*time.Minute)
	var quizCatalog catalog.Client
	if redisClient != nil {
		quizCatalog = redisinfra.NewQuizCache(redisClient, upstream, catalogTTL)
	} else {
		quizCatalog = memory.NewQuizCache(upstream, catalogTTL)
	}

	var store app.SubmissionRepository
	if pool != nil {
		store = postgres.NewSubmissionStore(pool)
	} else {
		store = memory.NewSubmissionStore()
	}

	hub := bus.NewHub()
	var publisher bus.Publisher = hub
	if redisClient != nil {
		relay := redisinfra.NewRelay(redisClient, hub)
		go func() {
			if err := relay.Run(ctx); err != nil && ctx.Err() == nil {
				logrus.WithError(err).Error("event relay stopped")
			}
		}()
		publisher = relay
	}

	verifier := auth.NewVerifier(cfg.Auth.Secret, cfg.Auth.TestToken)
	service := app.NewSubmissionService(store, quizCatalog, publisher, cfg.Submissions.SingleAttempt)
	api := transport.NewAPI(service, quizCatalog, verifier)
	wsHandler := transport.NewWSHandler(hub, verifier)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(api, wsHandler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logrus.Infof("starting quiz gateway on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logrus.Info("shutting down server...")
	case <-ctx.Done():
		logrus.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes seeds the built-in catalog; point catalog.base_url at the
// quiz-management service in production.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:          "quiz-1",
			Title:       "General Knowledge",
			Description: "A short warm-up quiz",
			Questions: []domain.Question{
				{
					ID:            "q0",
					QuizID:        "quiz-1",
					Text:          "What is 2 + 2?",
					Options:       []string{"3", "4", "5"},
					CorrectAnswer: 1,
				},
				{
					ID:            "q1",
					QuizID:        "quiz-1",
					Text:          "Capital of France?",
					Options:       []string{"Rome", "Madrid", "Paris"},
					CorrectAnswer: 2,
				},
			},
		},
	}
}
