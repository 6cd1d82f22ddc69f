package app

import (
	"context"
	"fmt"
	"strings"

	"quizha-server/internal/domain"
	"quizha-server/internal/infra/sqldb"
)

// Catalog is the admin-facing CRUD surface over students, activities,
// enrollments, questions, answers and results.
type Catalog struct {
	store     *sqldb.Store
	lifecycle *LifecycleManager
	keys      AnswerKeys
}

func NewCatalog(store *sqldb.Store, lifecycle *LifecycleManager, keys AnswerKeys) *Catalog {
	return &Catalog{store: store, lifecycle: lifecycle, keys: keys}
}

// Students

func (c *Catalog) CreateStudent(ctx context.Context, s domain.Student) (domain.Student, error) {
	if err := validateStudent(s); err != nil {
		return domain.Student{}, err
	}
	id, err := c.store.CreateStudent(ctx, s)
	if err != nil {
		return domain.Student{}, err
	}
	s.ID = id
	return s, nil
}

func (c *Catalog) Student(ctx context.Context, id int64) (domain.Student, error) {
	return c.store.GetStudent(ctx, id)
}

func (c *Catalog) UpdateStudent(ctx context.Context, s domain.Student) (domain.Student, error) {
	if err := validateStudent(s); err != nil {
		return domain.Student{}, err
	}
	if err := c.store.UpdateStudent(ctx, s); err != nil {
		return domain.Student{}, err
	}
	return c.store.GetStudent(ctx, s.ID)
}

func (c *Catalog) DeleteStudent(ctx context.Context, id int64) error {
	return c.store.DeleteStudent(ctx, id)
}

func (c *Catalog) Students(ctx context.Context) ([]domain.Student, error) {
	return c.store.ListStudents(ctx)
}

func (c *Catalog) StudentsByYearLevel(ctx context.Context, yearLevel string) ([]domain.Student, error) {
	return c.store.ListStudentsByYearLevel(ctx, yearLevel)
}

func (c *Catalog) StudentsByDepartment(ctx context.Context, department string) ([]domain.Student, error) {
	return c.store.ListStudentsByDepartment(ctx, department)
}

// SearchStudents matches name against "first last", case-insensitively.
func (c *Catalog) SearchStudents(ctx context.Context, name string) ([]domain.Student, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.InvalidInput("name is required")
	}
	return c.store.SearchStudents(ctx, name)
}

func validateStudent(s domain.Student) error {
	if strings.TrimSpace(s.FirstName) == "" || strings.TrimSpace(s.LastName) == "" {
		return domain.InvalidInput("firstName and lastName are required")
	}
	return nil
}

// Activities

// CreateActivity stores a new pending activity.
func (c *Catalog) CreateActivity(ctx context.Context, title string, durationMinutes int) (domain.Activity, error) {
	if err := validateActivity(title, durationMinutes); err != nil {
		return domain.Activity{}, err
	}
	id, err := c.store.CreateActivity(ctx, domain.Activity{Title: strings.TrimSpace(title), DurationMinutes: durationMinutes})
	if err != nil {
		return domain.Activity{}, err
	}
	return c.store.GetActivity(ctx, id)
}

func (c *Catalog) Activity(ctx context.Context, id int64) (domain.Activity, error) {
	return c.store.GetActivity(ctx, id)
}

func (c *Catalog) Activities(ctx context.Context, order sqldb.ActivityOrder) ([]domain.Activity, error) {
	return c.store.ListActivities(ctx, order)
}

func (c *Catalog) ActivitiesByStatus(ctx context.Context, status domain.ActivityStatus) ([]domain.Activity, error) {
	if !status.Valid() {
		return nil, domain.InvalidInput("unknown status %q", status)
	}
	return c.store.ListActivitiesByStatus(ctx, status)
}

func (c *Catalog) CountActivities(ctx context.Context) (int, error) {
	return c.store.CountActivities(ctx)
}

func (c *Catalog) CountActivitiesByStatus(ctx context.Context, status domain.ActivityStatus) (int, error) {
	if !status.Valid() {
		return 0, domain.InvalidInput("unknown status %q", status)
	}
	return c.store.CountActivitiesByStatus(ctx, status)
}

// UpdateActivity edits title and duration of a pending activity.
func (c *Catalog) UpdateActivity(ctx context.Context, id int64, title string, durationMinutes int) (domain.Activity, error) {
	if err := validateActivity(title, durationMinutes); err != nil {
		return domain.Activity{}, err
	}
	return c.lifecycle.Edit(ctx, id, strings.TrimSpace(title), durationMinutes)
}

func (c *Catalog) DeleteActivity(ctx context.Context, id int64) error {
	if err := c.lifecycle.Delete(ctx, id); err != nil {
		return err
	}
	c.keys.Invalidate(ctx, id)
	return nil
}

func validateActivity(title string, durationMinutes int) error {
	if strings.TrimSpace(title) == "" {
		return domain.InvalidInput("title is required")
	}
	if durationMinutes <= 0 {
		return domain.InvalidInput("durationMinutes must be positive")
	}
	return nil
}

// Enrollments

func (c *Catalog) Enroll(ctx context.Context, activityID, studentID int64) (domain.Enrollment, error) {
	id, err := c.store.Enroll(ctx, activityID, studentID)
	if err != nil {
		return domain.Enrollment{}, err
	}
	return domain.Enrollment{ID: id, ActivityID: activityID, StudentID: studentID}, nil
}

func (c *Catalog) Unenroll(ctx context.Context, activityID, studentID int64) error {
	return c.store.Unenroll(ctx, activityID, studentID)
}

func (c *Catalog) StudentsByActivity(ctx context.Context, activityID int64) ([]domain.Student, error) {
	if _, err := c.store.GetActivity(ctx, activityID); err != nil {
		return nil, err
	}
	return c.store.StudentsByActivity(ctx, activityID)
}

func (c *Catalog) ActivitiesByStudent(ctx context.Context, studentID int64) ([]domain.Activity, error) {
	if _, err := c.store.GetStudent(ctx, studentID); err != nil {
		return nil, err
	}
	return c.store.ActivitiesByStudent(ctx, studentID)
}

// Questions

func (c *Catalog) CreateQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	q, err := normalizeQuestion(q)
	if err != nil {
		return domain.Question{}, err
	}
	if _, err := c.store.GetActivity(ctx, q.ActivityID); err != nil {
		return domain.Question{}, err
	}
	id, err := c.store.CreateQuestion(ctx, q)
	if err != nil {
		return domain.Question{}, err
	}
	c.keys.Invalidate(ctx, q.ActivityID)
	q.ID = id
	return q, nil
}

func (c *Catalog) Question(ctx context.Context, id int64) (domain.Question, error) {
	return c.store.GetQuestion(ctx, id)
}

func (c *Catalog) UpdateQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	q, err := normalizeQuestion(q)
	if err != nil {
		return domain.Question{}, err
	}
	prev, err := c.store.GetQuestion(ctx, q.ID)
	if err != nil {
		return domain.Question{}, err
	}
	if prev.ActivityID != q.ActivityID {
		if _, err := c.store.GetActivity(ctx, q.ActivityID); err != nil {
			return domain.Question{}, err
		}
	}
	if err := c.store.UpdateQuestion(ctx, q); err != nil {
		return domain.Question{}, err
	}
	c.keys.Invalidate(ctx, prev.ActivityID)
	c.keys.Invalidate(ctx, q.ActivityID)
	return q, nil
}

func (c *Catalog) DeleteQuestion(ctx context.Context, id int64) error {
	q, err := c.store.GetQuestion(ctx, id)
	if err != nil {
		return err
	}
	if err := c.store.DeleteQuestion(ctx, id); err != nil {
		return err
	}
	c.keys.Invalidate(ctx, q.ActivityID)
	return nil
}

func (c *Catalog) DeleteQuestionsByActivity(ctx context.Context, activityID int64) (int64, error) {
	n, err := c.store.DeleteQuestionsByActivity(ctx, activityID)
	if err != nil {
		return 0, err
	}
	c.keys.Invalidate(ctx, activityID)
	return n, nil
}

func (c *Catalog) Questions(ctx context.Context) ([]domain.Question, error) {
	return c.store.ListQuestions(ctx)
}

func (c *Catalog) QuestionsByActivity(ctx context.Context, activityID int64) ([]domain.Question, error) {
	return c.store.QuestionsByActivity(ctx, activityID)
}

func (c *Catalog) CountQuestionsByActivity(ctx context.Context, activityID int64) (int, error) {
	return c.store.CountQuestionsByActivity(ctx, activityID)
}

// ImportBank copies the questions of an external bank into an activity.
// Every bank question must have exactly four options and a correct letter A-D.
func (c *Catalog) ImportBank(ctx context.Context, activityID int64, bank domain.QuestionBank) (int, error) {
	if _, err := c.store.GetActivity(ctx, activityID); err != nil {
		return 0, err
	}
	questions := make([]domain.Question, 0, len(bank.Questions))
	for i, bq := range bank.Questions {
		if len(bq.Options) != 4 {
			return 0, domain.InvalidInput("bank %s question %d: want 4 options, got %d", bank.ID, i+1, len(bq.Options))
		}
		q, err := normalizeQuestion(domain.Question{
			ActivityID:    activityID,
			QuestionText:  bq.Text,
			OptionA:       bq.Options[0],
			OptionB:       bq.Options[1],
			OptionC:       bq.Options[2],
			OptionD:       bq.Options[3],
			CorrectOption: bq.Correct,
		})
		if err != nil {
			return 0, fmt.Errorf("bank %s question %d: %w", bank.ID, i+1, err)
		}
		questions = append(questions, q)
	}
	n, err := c.store.CreateQuestions(ctx, questions)
	if err != nil {
		return 0, err
	}
	c.keys.Invalidate(ctx, activityID)
	return n, nil
}

func normalizeQuestion(q domain.Question) (domain.Question, error) {
	q.QuestionText = strings.TrimSpace(q.QuestionText)
	q.CorrectOption = strings.ToUpper(strings.TrimSpace(q.CorrectOption))
	if q.ActivityID <= 0 {
		return q, domain.InvalidInput("activityId is required")
	}
	if q.QuestionText == "" {
		return q, domain.InvalidInput("questionText is required")
	}
	if q.OptionA == "" || q.OptionB == "" || q.OptionC == "" || q.OptionD == "" {
		return q, domain.InvalidInput("all four options are required")
	}
	if !domain.ValidOption(q.CorrectOption) {
		return q, domain.InvalidInput("correctOption must be one of A, B, C, D")
	}
	return q, nil
}

// Answers

func (c *Catalog) UpdateAnswer(ctx context.Context, a domain.Answer) error {
	a.SelectedOption = strings.ToUpper(strings.TrimSpace(a.SelectedOption))
	if !domain.ValidOption(a.SelectedOption) {
		return domain.InvalidInput("selectedOption must be one of A, B, C, D")
	}
	return c.store.UpdateAnswer(ctx, a)
}

func (c *Catalog) DeleteAnswer(ctx context.Context, resultID, questionID int64) error {
	return c.store.DeleteAnswer(ctx, resultID, questionID)
}

func (c *Catalog) Answers(ctx context.Context) ([]domain.Answer, error) {
	return c.store.ListAnswers(ctx)
}

func (c *Catalog) AnswersByQuestion(ctx context.Context, questionID int64) ([]domain.Answer, error) {
	return c.store.AnswersByQuestion(ctx, questionID)
}

func (c *Catalog) CountCorrectAnswers(ctx context.Context, resultID int64) (int, error) {
	if _, err := c.store.GetResult(ctx, resultID); err != nil {
		return 0, err
	}
	return c.store.CountCorrectAnswers(ctx, resultID)
}

// Results

func (c *Catalog) Results(ctx context.Context) ([]domain.Result, error) {
	return c.store.ListResults(ctx)
}

func (c *Catalog) ResultsByEnrollment(ctx context.Context, enrollmentID int64) ([]domain.Result, error) {
	if _, err := c.store.GetEnrollment(ctx, enrollmentID); err != nil {
		return nil, err
	}
	return c.store.ResultsByEnrollment(ctx, enrollmentID)
}

func (c *Catalog) CreateResult(ctx context.Context, r domain.Result) (domain.Result, error) {
	if _, err := c.store.GetEnrollment(ctx, r.ActivityStudentID); err != nil {
		return domain.Result{}, err
	}
	id, err := c.store.InsertResult(ctx, r)
	if err != nil {
		return domain.Result{}, err
	}
	return c.store.GetResult(ctx, id)
}

func (c *Catalog) UpdateResult(ctx context.Context, r domain.Result) (domain.Result, error) {
	if err := c.store.UpdateResult(ctx, r); err != nil {
		return domain.Result{}, err
	}
	return c.store.GetResult(ctx, r.ID)
}

func (c *Catalog) DeleteResult(ctx context.Context, id int64) error {
	return c.store.DeleteResult(ctx, id)
}

func (c *Catalog) CountResults(ctx context.Context) (int, error) {
	return c.store.CountResults(ctx)
}
