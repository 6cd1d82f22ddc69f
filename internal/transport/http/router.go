package http

import (
	"context"
	"net/http"

	"quizha-server/internal/app"
	"quizha-server/internal/domain"
	"quizha-server/internal/infra/memory"
	"quizha-server/internal/infra/sqldb"

	"github.com/gorilla/mux"
)

// ActivityReader looks up a single activity.
type ActivityReader interface {
	Activity(ctx context.Context, id int64) (domain.Activity, error)
}

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Auth      *app.AuthService
	Catalog   *app.Catalog
	Lifecycle *app.LifecycleManager
	Scoring   *app.ScoringEngine
	Hub       *memory.Hub
	// Health reports whether backing stores are reachable.
	Health func(ctx context.Context) error
}

type handlers struct {
	Deps
}

// NewRouter wires every route. Numeric ids are constrained in the path so
// literal segments such as /activities/count never collide with /{id}.
func NewRouter(d Deps) http.Handler {
	h := &handlers{Deps: d}
	ws := NewWSHandler(d.Hub, d.Catalog)

	r := mux.NewRouter()
	r.HandleFunc("/", handle(h.root)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", handle(h.health)).Methods(http.MethodGet)
	r.HandleFunc("/admins/login", handle(h.login)).Methods(http.MethodPost)
	r.HandleFunc("/ws/activity/{id:[0-9]+}", ws.ServeActivity)

	// Admin or student token.
	shared := r.NewRoute().Subrouter()
	shared.Use(authenticated(d.Auth, domain.RoleAdmin, domain.RoleStudent))
	shared.HandleFunc("/activities/{id:[0-9]+}", handle(h.getActivity)).Methods(http.MethodGet)
	shared.HandleFunc("/activities/{id:[0-9]+}/remaining", handle(h.remaining)).Methods(http.MethodGet)
	shared.HandleFunc("/questions/activity/{id:[0-9]+}", handle(h.questionsByActivity)).Methods(http.MethodGet)
	shared.HandleFunc("/questions/activity/{id:[0-9]+}/count", handle(h.countQuestionsByActivity)).Methods(http.MethodGet)
	shared.HandleFunc("/student-answers", handle(h.recordAnswer)).Methods(http.MethodPost)
	shared.HandleFunc("/student-activity-results/start-by-ids", handle(h.startSession)).Methods(http.MethodPost)
	shared.HandleFunc("/student-activity-results/{id:[0-9]+}/finish", handle(h.finish)).Methods(http.MethodPost)
	shared.HandleFunc("/student-activity-results/{id:[0-9]+}", handle(h.getResult)).Methods(http.MethodGet)

	// Admin token only.
	a := r.NewRoute().Subrouter()
	a.Use(authenticated(d.Auth, domain.RoleAdmin))

	a.HandleFunc("/admins", handle(h.createAdmin)).Methods(http.MethodPost)
	a.HandleFunc("/admins", handle(h.listAdmins)).Methods(http.MethodGet)
	a.HandleFunc("/admins/{id:[0-9]+}", handle(h.deleteAdmin)).Methods(http.MethodDelete)
	a.HandleFunc("/admins/{username}", handle(h.adminByUsername)).Methods(http.MethodGet)
	a.HandleFunc("/auth/student-token", handle(h.studentToken)).Methods(http.MethodPost)

	a.HandleFunc("/students", handle(h.createStudent)).Methods(http.MethodPost)
	a.HandleFunc("/students", handle(h.listStudents)).Methods(http.MethodGet)
	a.HandleFunc("/students/search", handle(h.searchStudents)).Methods(http.MethodGet)
	a.HandleFunc("/students/yearlevel/{value}", handle(h.studentsByYearLevel)).Methods(http.MethodGet)
	a.HandleFunc("/students/department/{value}", handle(h.studentsByDepartment)).Methods(http.MethodGet)
	a.HandleFunc("/students/{id:[0-9]+}", handle(h.getStudent)).Methods(http.MethodGet)
	a.HandleFunc("/students/{id:[0-9]+}", handle(h.updateStudent)).Methods(http.MethodPut)
	a.HandleFunc("/students/{id:[0-9]+}", handle(h.deleteStudent)).Methods(http.MethodDelete)

	a.HandleFunc("/activities", handle(h.createActivity)).Methods(http.MethodPost)
	a.HandleFunc("/activities", handle(h.listActivities(sqldb.OrderByID))).Methods(http.MethodGet)
	a.HandleFunc("/activities/created-desc", handle(h.listActivities(sqldb.OrderCreatedDesc))).Methods(http.MethodGet)
	a.HandleFunc("/activities/created-asc", handle(h.listActivities(sqldb.OrderCreatedAsc))).Methods(http.MethodGet)
	a.HandleFunc("/activities/status/{status}", handle(h.activitiesByStatus)).Methods(http.MethodGet)
	a.HandleFunc("/activities/count", handle(h.countActivities)).Methods(http.MethodGet)
	a.HandleFunc("/activities/count/status/{status}", handle(h.countActivitiesByStatus)).Methods(http.MethodGet)
	a.HandleFunc("/activities/{id:[0-9]+}", handle(h.updateActivity)).Methods(http.MethodPut)
	a.HandleFunc("/activities/{id:[0-9]+}", handle(h.deleteActivity)).Methods(http.MethodDelete)
	a.HandleFunc("/activities/{id:[0-9]+}/start", handle(h.startActivity)).Methods(http.MethodPut)
	a.HandleFunc("/activities/{id:[0-9]+}/pause", handle(h.transition(h.Lifecycle.Pause))).Methods(http.MethodPut)
	a.HandleFunc("/activities/{id:[0-9]+}/resume", handle(h.transition(h.Lifecycle.Resume))).Methods(http.MethodPut)
	a.HandleFunc("/activities/{id:[0-9]+}/complete", handle(h.transition(h.Lifecycle.Complete))).Methods(http.MethodPut)

	a.HandleFunc("/activity-students", handle(h.enroll)).Methods(http.MethodPost)
	a.HandleFunc("/activity-students", handle(h.unenroll)).Methods(http.MethodDelete)
	a.HandleFunc("/activity-students/activity/{id:[0-9]+}", handle(h.studentsByActivity)).Methods(http.MethodGet)
	a.HandleFunc("/activity-students/student/{id:[0-9]+}", handle(h.activitiesByStudent)).Methods(http.MethodGet)

	a.HandleFunc("/questions", handle(h.createQuestion)).Methods(http.MethodPost)
	a.HandleFunc("/questions", handle(h.listQuestions)).Methods(http.MethodGet)
	a.HandleFunc("/questions/activity/{id:[0-9]+}", handle(h.deleteQuestionsByActivity)).Methods(http.MethodDelete)
	a.HandleFunc("/questions/{id:[0-9]+}", handle(h.getQuestion)).Methods(http.MethodGet)
	a.HandleFunc("/questions/{id:[0-9]+}", handle(h.updateQuestion)).Methods(http.MethodPut)
	a.HandleFunc("/questions/{id:[0-9]+}", handle(h.deleteQuestion)).Methods(http.MethodDelete)

	a.HandleFunc("/student-answers", handle(h.listAnswers)).Methods(http.MethodGet)
	a.HandleFunc("/student-answers", handle(h.updateAnswer)).Methods(http.MethodPut)
	a.HandleFunc("/student-answers", handle(h.deleteAnswer)).Methods(http.MethodDelete)
	a.HandleFunc("/student-answers/result/{id:[0-9]+}", handle(h.answersByResult)).Methods(http.MethodGet)
	a.HandleFunc("/student-answers/result/{id:[0-9]+}/review", handle(h.reviewResult)).Methods(http.MethodGet)
	a.HandleFunc("/student-answers/question/{id:[0-9]+}", handle(h.answersByQuestion)).Methods(http.MethodGet)
	a.HandleFunc("/student-answers/count-correct/{id:[0-9]+}", handle(h.countCorrect)).Methods(http.MethodGet)

	a.HandleFunc("/student-activity-results", handle(h.listResults)).Methods(http.MethodGet)
	a.HandleFunc("/student-activity-results", handle(h.createResult)).Methods(http.MethodPost)
	a.HandleFunc("/student-activity-results/count", handle(h.countResults)).Methods(http.MethodGet)
	a.HandleFunc("/student-activity-results/leaderboard/{id:[0-9]+}", handle(h.leaderboard)).Methods(http.MethodGet)
	a.HandleFunc("/student-activity-results/enrollment/{id:[0-9]+}", handle(h.resultsByEnrollment)).Methods(http.MethodGet)
	a.HandleFunc("/student-activity-results/{id:[0-9]+}", handle(h.updateResult)).Methods(http.MethodPut)
	a.HandleFunc("/student-activity-results/{id:[0-9]+}", handle(h.deleteResult)).Methods(http.MethodDelete)

	r.NotFoundHandler = handle(func(w http.ResponseWriter, r *http.Request) error {
		return domain.ErrNotFound
	})

	return corsMiddleware(loggingMiddleware(recoverMiddleware(r)))
}

func (h *handlers) root(w http.ResponseWriter, _ *http.Request) error {
	writeJSON(w, http.StatusOK, messageBody{Message: "quizha server is running"})
	return nil
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) error {
	if h.Health != nil {
		if err := h.Health(r.Context()); err != nil {
			return err
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	return nil
}
