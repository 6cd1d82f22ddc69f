package sqldb

import (
	"time"

	"quizha-server/internal/domain"

	"github.com/uptrace/bun"
)

type activityRow struct {
	bun.BaseModel `bun:"table:activities,alias:a"`

	ID               int64      `bun:"id,pk,autoincrement"`
	Title            string     `bun:"title,notnull"`
	DurationMinutes  int        `bun:"duration_minutes,notnull"`
	Status           string     `bun:"status,notnull"`
	RemainingSeconds *int       `bun:"remaining_seconds"`
	EndsAt           *time.Time `bun:"ends_at"`
	CreatedAt        time.Time  `bun:"created_at,notnull"`
	UpdatedAt        time.Time  `bun:"updated_at,notnull"`
}

func (r activityRow) toDomain() domain.Activity {
	return domain.Activity{
		ID:               r.ID,
		Title:            r.Title,
		DurationMinutes:  r.DurationMinutes,
		Status:           domain.ActivityStatus(r.Status),
		RemainingSeconds: r.RemainingSeconds,
		EndsAt:           r.EndsAt,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type studentRow struct {
	bun.BaseModel `bun:"table:students,alias:s"`

	ID         int64  `bun:"id,pk,autoincrement"`
	FirstName  string `bun:"first_name,notnull"`
	LastName   string `bun:"last_name,notnull"`
	YearLevel  string `bun:"year_level,notnull"`
	Department string `bun:"department,notnull"`
	Course     string `bun:"course,notnull"`
	Birthdate  string `bun:"birthdate,notnull"`
}

func studentFromDomain(s domain.Student) studentRow {
	return studentRow{
		ID:         s.ID,
		FirstName:  s.FirstName,
		LastName:   s.LastName,
		YearLevel:  s.YearLevel,
		Department: s.Department,
		Course:     s.Course,
		Birthdate:  s.Birthdate,
	}
}

func (r studentRow) toDomain() domain.Student {
	return domain.Student{
		ID:         r.ID,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		YearLevel:  r.YearLevel,
		Department: r.Department,
		Course:     r.Course,
		Birthdate:  r.Birthdate,
	}
}

type enrollmentRow struct {
	bun.BaseModel `bun:"table:activity_students,alias:e"`

	ID         int64 `bun:"id,pk,autoincrement"`
	ActivityID int64 `bun:"activity_id,notnull"`
	StudentID  int64 `bun:"student_id,notnull"`
}

func (r enrollmentRow) toDomain() domain.Enrollment {
	return domain.Enrollment{ID: r.ID, ActivityID: r.ActivityID, StudentID: r.StudentID}
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID            int64  `bun:"id,pk,autoincrement"`
	ActivityID    int64  `bun:"activity_id,notnull"`
	QuestionText  string `bun:"question_text,notnull"`
	OptionA       string `bun:"option_a,notnull"`
	OptionB       string `bun:"option_b,notnull"`
	OptionC       string `bun:"option_c,notnull"`
	OptionD       string `bun:"option_d,notnull"`
	CorrectOption string `bun:"correct_option,notnull"`
}

func questionFromDomain(q domain.Question) questionRow {
	return questionRow{
		ID:            q.ID,
		ActivityID:    q.ActivityID,
		QuestionText:  q.QuestionText,
		OptionA:       q.OptionA,
		OptionB:       q.OptionB,
		OptionC:       q.OptionC,
		OptionD:       q.OptionD,
		CorrectOption: q.CorrectOption,
	}
}

func (r questionRow) toDomain() domain.Question {
	return domain.Question{
		ID:            r.ID,
		ActivityID:    r.ActivityID,
		QuestionText:  r.QuestionText,
		OptionA:       r.OptionA,
		OptionB:       r.OptionB,
		OptionC:       r.OptionC,
		OptionD:       r.OptionD,
		CorrectOption: r.CorrectOption,
	}
}

type resultRow struct {
	bun.BaseModel `bun:"table:student_activity_results,alias:r"`

	ID                int64      `bun:"id,pk,autoincrement"`
	ActivityStudentID int64      `bun:"activity_student_id,notnull"`
	Score             *int       `bun:"score"`
	StartedAt         time.Time  `bun:"started_at,notnull"`
	CompletedAt       *time.Time `bun:"completed_at"`
}

func (r resultRow) toDomain() domain.Result {
	return domain.Result{
		ID:                r.ID,
		ActivityStudentID: r.ActivityStudentID,
		Score:             r.Score,
		StartedAt:         r.StartedAt,
		CompletedAt:       r.CompletedAt,
	}
}

type answerRow struct {
	bun.BaseModel `bun:"table:student_answers,alias:sa"`

	ID             int64  `bun:"id,pk,autoincrement"`
	ResultID       int64  `bun:"student_activity_result_id,notnull"`
	QuestionID     int64  `bun:"question_id,notnull"`
	SelectedOption string `bun:"selected_option,notnull"`
}

func (r answerRow) toDomain() domain.Answer {
	return domain.Answer{
		ID:             r.ID,
		ResultID:       r.ResultID,
		QuestionID:     r.QuestionID,
		SelectedOption: r.SelectedOption,
	}
}

type adminRow struct {
	bun.BaseModel `bun:"table:admins,alias:ad"`

	ID           int64  `bun:"id,pk,autoincrement"`
	Username     string `bun:"username,notnull,unique"`
	PasswordHash string `bun:"password_hash,notnull"`
	FullName     string `bun:"full_name,notnull"`
}

func (r adminRow) toDomain() domain.Admin {
	return domain.Admin{ID: r.ID, Username: r.Username, PasswordHash: r.PasswordHash, FullName: r.FullName}
}

type leaderboardRow struct {
	StudentID int64  `bun:"student_id"`
	FirstName string `bun:"first_name"`
	LastName  string `bun:"last_name"`
	Score     int    `bun:"score"`
	ResultID  int64  `bun:"result_id"`
}
