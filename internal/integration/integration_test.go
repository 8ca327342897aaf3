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

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-gateway/internal/app"
	"quiz-gateway/internal/bus"
	"quiz-gateway/internal/domain"
	"quiz-gateway/internal/infra/memory"
	"quiz-gateway/internal/infra/postgres"
	pgmigrations "quiz-gateway/internal/infra/postgres/migrations"
	redisinfra "quiz-gateway/internal/infra/redis"
)

func TestSubmitAndReviewEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	store := postgres.NewSubmissionStore(pool)
	upstream := memory.NewStaticCatalog(map[string]domain.Quiz{
		"Q1": {ID: "Q1", Title: "Capitals", Description: "European capitals"},
	})
	quizCatalog := redisinfra.NewQuizCache(redisClient, upstream, 5*time.Minute)

	hub := bus.NewHub()
	relay := redisinfra.NewRelay(redisClient, hub)
	relayCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go relay.Run(relayCtx)

	service := app.NewSubmissionService(store, quizCatalog, relay, false)

	reviewer := hub.Subscribe()
	hub.Join(reviewer, bus.QuizChannel("Q1"))
	studentSub := hub.Subscribe()
	hub.Join(studentSub, bus.UserChannel("S1"))
	time.Sleep(100 * time.Millisecond) // let the relay subscription settle

	one, zero, two := 1, 0, 2
	submission, err := service.Submit(ctx, "Q1",
		domain.Identity{ID: "S1", Name: "Alice", Role: domain.RoleUser},
		[]*int{&one, &zero, &two},
	)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if submission.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %s", submission.Status)
	}

	stored, err := store.FindByID(ctx, submission.ID)
	if err != nil {
		t.Fatalf("find stored: %v", err)
	}
	if stored.StudentID != "S1" || len(stored.Answers) != 3 || stored.Answers[0].QuestionID != "q0" {
		t.Fatalf("unexpected stored submission %+v", stored)
	}

	expectEvent(t, reviewer, domain.EventQuizSubmitted, func(payload json.RawMessage) error {
		var ev domain.SubmittedEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return err
		}
		if ev.StudentID != "S1" || ev.QuizID != "Q1" || ev.UserName != "Alice" {
			return fmt.Errorf("unexpected payload %+v", ev)
		}
		return nil
	})

	reviewed, err := service.Review(ctx, "Q1", submission.ID,
		domain.Identity{ID: "A1", Name: "Reviewer", Role: domain.RoleAdmin},
		domain.StatusApproved, "Good job",
	)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != domain.StatusApproved || reviewed.ReviewedBy != "A1" {
		t.Fatalf("unexpected reviewed record %+v", reviewed)
	}

	stored, err = store.FindByID(ctx, submission.ID)
	if err != nil {
		t.Fatalf("find reviewed: %v", err)
	}
	if stored.Status != domain.StatusApproved || stored.ReviewedAt == nil || stored.Feedback != "Good job" {
		t.Fatalf("review not persisted: %+v", stored)
	}

	expectEvent(t, studentSub, domain.EventSubmissionReviewed, func(payload json.RawMessage) error {
		var ev domain.ReviewedEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return err
		}
		want := domain.ReviewedEvent{QuizID: "Q1", SubmissionID: submission.ID, Status: domain.StatusApproved, Feedback: "Good job"}
		if ev != want {
			return fmt.Errorf("unexpected payload %+v", ev)
		}
		return nil
	})
}

func expectEvent(t *testing.T, sub *bus.Subscriber, name string, check func(json.RawMessage) error) {
	t.Helper()
	select {
	case ev := <-sub.Events():
		if ev.Name != name {
			t.Fatalf("expected %s, got %s", name, ev.Name)
		}
		if err := check(ev.Payload.(json.RawMessage)); err != nil {
			t.Fatalf("payload check: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", name)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
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
