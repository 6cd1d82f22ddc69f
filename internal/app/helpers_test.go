package app_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"quizha-server/internal/app"
	"quizha-server/internal/domain"
	"quizha-server/internal/infra/memory"
	"quizha-server/internal/infra/sqldb"

	"github.com/stretchr/testify/require"
)

type statusEvent struct {
	activityID int64
	status     domain.ActivityStatus
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []statusEvent
}

func (n *recordingNotifier) Broadcast(_ context.Context, activityID int64, status domain.ActivityStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, statusEvent{activityID: activityID, status: status})
}

func (n *recordingNotifier) statuses(activityID int64) []domain.ActivityStatus {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domain.ActivityStatus
	for _, e := range n.events {
		if e.activityID == activityID {
			out = append(out, e.status)
		}
	}
	return out
}

type testEnv struct {
	store     *sqldb.Store
	notifier  *recordingNotifier
	lifecycle *app.LifecycleManager
	scoring   *app.ScoringEngine
	catalog   *app.Catalog
	auth      *app.AuthService
}

func newTestEnv(t *testing.T, tick time.Duration) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := sqldb.Open(sqldb.DriverSQLite, fmt.Sprintf("file:app_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, sqldb.Migrate(context.Background(), db))

	store := sqldb.NewStore(db)
	keys := memory.NewAnswerKeyCache(store, time.Minute)
	notifier := &recordingNotifier{}
	lifecycle := app.NewLifecycleManager(store, notifier, tick)
	t.Cleanup(func() {
		lifecycle.Shutdown()
		_ = db.Close()
	})

	return &testEnv{
		store:     store,
		notifier:  notifier,
		lifecycle: lifecycle,
		scoring:   app.NewScoringEngine(store, keys),
		catalog:   app.NewCatalog(store, lifecycle, keys),
		auth: app.NewAuthService(store, app.TokenConfig{
			Secret:   "test-secret",
			Issuer:   "quizha",
			Audience: "quizha-clients",
		}),
	}
}

func (e *testEnv) activity(t *testing.T, minutes int) domain.Activity {
	t.Helper()
	a, err := e.catalog.CreateActivity(context.Background(), "Quiz", minutes)
	require.NoError(t, err)
	return a
}

func (e *testEnv) student(t *testing.T, first string) domain.Student {
	t.Helper()
	s, err := e.catalog.CreateStudent(context.Background(), domain.Student{
		FirstName:  first,
		LastName:   "Reyes",
		YearLevel:  "2",
		Department: "CCS",
		Course:     "BSIT",
		Birthdate:  "2004-05-06",
	})
	require.NoError(t, err)
	return s
}

func (e *testEnv) question(t *testing.T, activityID int64, correct string) domain.Question {
	t.Helper()
	q, err := e.catalog.CreateQuestion(context.Background(), domain.Question{
		ActivityID:    activityID,
		QuestionText:  "Which one is " + correct + "?",
		OptionA:       "first",
		OptionB:       "second",
		OptionC:       "third",
		OptionD:       "fourth",
		CorrectOption: correct,
	})
	require.NoError(t, err)
	return q
}

func (e *testEnv) enroll(t *testing.T, activityID, studentID int64) {
	t.Helper()
	_, err := e.catalog.Enroll(context.Background(), activityID, studentID)
	require.NoError(t, err)
}

func (e *testEnv) status(t *testing.T, activityID int64) domain.ActivityStatus {
	t.Helper()
	a, err := e.catalog.Activity(context.Background(), activityID)
	require.NoError(t, err)
	return a.Status
}

// waitForStatus polls until the activity reaches want or the deadline passes.
func (e *testEnv) waitForStatus(t *testing.T, activityID int64, want domain.ActivityStatus, within time.Duration) {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if e.status(t, activityID) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("activity %d did not reach %s within %s (now %s)", activityID, want, within, e.status(t, activityID))
}

var admin = domain.AdminPrincipal{AdminID: 1, Username: "admin"}
