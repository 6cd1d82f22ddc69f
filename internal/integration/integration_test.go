package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"quizha-server/internal/app"
	"quizha-server/internal/domain"
	"quizha-server/internal/infra/memory"
	"quizha-server/internal/infra/postgres"
	pgmigrations "quizha-server/internal/infra/postgres/migrations"
	infraredis "quizha-server/internal/infra/redis"
	"quizha-server/internal/infra/sqldb"

	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type statusLog struct {
	mu   sync.Mutex
	msgs []string
}

func (l *statusLog) ID() string { return "integration" }

func (l *statusLog) Send(msg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
	return nil
}

func (l *statusLog) Close() error { return nil }

func (l *statusLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.msgs...)
}

func TestQuizRunOnPostgresAndRedis(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db, err := sqldb.Open(sqldb.DriverPostgres, pgURL)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer db.Close()
	if err := sqldb.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := sqldb.NewStore(db)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	hub := memory.NewHub()
	listener := &statusLog{}
	relay := infraredis.NewStatusRelay(redisClient, hub)
	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()
	go func() { _ = relay.Run(relayCtx) }()
	select {
	case <-relay.Ready():
	case <-time.After(10 * time.Second):
		t.Fatalf("relay never subscribed")
	}

	keys := infraredis.NewAnswerKeyCache(redisClient, store, 5*time.Minute)
	lifecycle := app.NewLifecycleManager(store, relay, time.Hour)
	defer lifecycle.Shutdown()
	catalog := app.NewCatalog(store, lifecycle, keys)
	scoring := app.NewScoringEngine(store, keys)

	activity, err := catalog.CreateActivity(ctx, "Integration quiz", 1)
	if err != nil {
		t.Fatalf("create activity: %v", err)
	}
	hub.Subscribe(activity.ID, listener)

	student, err := catalog.CreateStudent(ctx, domain.Student{FirstName: "Ana", LastName: "Cruz"})
	if err != nil {
		t.Fatalf("create student: %v", err)
	}
	if _, err := catalog.Enroll(ctx, activity.ID, student.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, err := catalog.Enroll(ctx, activity.ID, student.ID); err == nil {
		t.Fatalf("expected duplicate enrollment to be rejected")
	}

	var questions []domain.Question
	for _, correct := range []string{"A", "C"} {
		q, err := catalog.CreateQuestion(ctx, domain.Question{
			ActivityID: activity.ID, QuestionText: "q" + correct,
			OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectOption: correct,
		})
		if err != nil {
			t.Fatalf("create question: %v", err)
		}
		questions = append(questions, q)
	}

	if _, err := lifecycle.Start(ctx, activity.ID, 0); err != nil {
		t.Fatalf("start: %v", err)
	}

	p := domain.StudentPrincipal{StudentID: student.ID, ActivityID: activity.ID}
	result, err := scoring.StartSession(ctx, p, activity.ID, student.ID)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if _, err := scoring.RecordAnswer(ctx, p, result.ID, questions[0].ID, "a"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if _, err := scoring.RecordAnswer(ctx, p, result.ID, questions[1].ID, "B"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	finished, err := scoring.Finish(ctx, p, result.ID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if finished.Score == nil || *finished.Score != 1 {
		t.Fatalf("expected score 1, got %v", finished.Score)
	}

	if _, err := lifecycle.Complete(ctx, activity.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	want := []string{"STATUS_UPDATE:ongoing", "STATUS_UPDATE:completed"}
	deadline := time.Now().Add(5 * time.Second)
	for len(listener.snapshot()) < len(want) && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	got := listener.snapshot()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v over redis, got %v", want, got)
	}

	board, err := scoring.Leaderboard(ctx, activity.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 1 || board[0].Score != 1 {
		t.Fatalf("unexpected leaderboard %+v", board)
	}
}

func TestImportQuestionBank(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	seedBank(t, ctx, pgURL, domain.QuestionBank{
		ID: "algebra-1",
		Questions: []domain.BankQuestion{
			{Text: "2 + 2?", Options: []string{"3", "4", "5", "6"}, Correct: "B"},
			{Text: "3 * 3?", Options: []string{"6", "8", "9", "12"}, Correct: "c"},
		},
	})

	pool, err := postgres.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	loader := postgres.NewQuestionBankLoader(pool)

	ids, err := loader.BankIDs(ctx)
	if err != nil {
		t.Fatalf("bank ids: %v", err)
	}
	if len(ids) != 1 || ids[0] != "algebra-1" {
		t.Fatalf("unexpected bank ids %v", ids)
	}
	if _, err := loader.LoadBank(ctx, "missing"); err == nil {
		t.Fatalf("expected missing bank to fail")
	}
	bank, err := loader.LoadBank(ctx, "algebra-1")
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}

	db, err := sqldb.Open(sqldb.DriverSQLite, "file:integration_import?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	if err := sqldb.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := sqldb.NewStore(db)
	keys := memory.NewAnswerKeyCache(store, time.Minute)
	lifecycle := app.NewLifecycleManager(store, memory.NewHub(), time.Hour)
	defer lifecycle.Shutdown()
	catalog := app.NewCatalog(store, lifecycle, keys)

	activity, err := catalog.CreateActivity(ctx, "Imported", 10)
	if err != nil {
		t.Fatalf("create activity: %v", err)
	}
	n, err := catalog.ImportBank(ctx, activity.ID, bank)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 imported questions, got %d", n)
	}
	key, err := keys.AnswerKey(ctx, activity.ID)
	if err != nil {
		t.Fatalf("answer key: %v", err)
	}
	if len(key.Correct) != 2 {
		t.Fatalf("expected answer key for imported questions, got %+v", key.Correct)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quizha", "POSTGRES_PASSWORD": "quizhapass", "POSTGRES_DB": "quizha"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
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
	dsn := fmt.Sprintf("postgres://quizha:quizhapass@%s:%s/quizha?sslmode=disable", host, port.Port())
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

func seedBank(t *testing.T, ctx context.Context, dsn string, bank domain.QuestionBank) {
	t.Helper()
	conn := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(conn, pgdialect.New())
	defer db.Close()

	if err := pgmigrations.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate question banks: %v", err)
	}

	data, err := json.Marshal(bank)
	if err != nil {
		t.Fatalf("marshal bank: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO question_banks (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, bank.ID, string(data)); err != nil {
		t.Fatalf("insert bank: %v", err)
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
