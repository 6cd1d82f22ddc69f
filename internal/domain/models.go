package domain

import "time"

// ActivityStatus is the lifecycle state of an activity.
type ActivityStatus string

const (
	StatusPending   ActivityStatus = "pending"
	StatusOngoing   ActivityStatus = "ongoing"
	StatusPaused    ActivityStatus = "paused"
	StatusCompleted ActivityStatus = "completed"
)

// Valid reports whether s is one of the known states.
func (s ActivityStatus) Valid() bool {
	switch s {
	case StatusPending, StatusOngoing, StatusPaused, StatusCompleted:
		return true
	}
	return false
}

// Activity is a timed quiz instance.
type Activity struct {
	ID               int64          `json:"id"`
	Title            string         `json:"title"`
	DurationMinutes  int            `json:"durationMinutes"`
	Status           ActivityStatus `json:"status"`
	RemainingSeconds *int           `json:"remainingSeconds,omitempty"`
	EndsAt           *time.Time     `json:"endsAt,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// Student is an admin-managed participant.
type Student struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	YearLevel  string `json:"yearlevel"`
	Department string `json:"department"`
	Course     string `json:"course"`
	Birthdate  string `json:"birthdate"`
}

// Enrollment links a student to an activity. One per (ActivityID, StudentID).
type Enrollment struct {
	ID         int64 `json:"id"`
	ActivityID int64 `json:"activityId"`
	StudentID  int64 `json:"studentId"`
}

// Option letters accepted for questions and answers.
const (
	OptionA = "A"
	OptionB = "B"
	OptionC = "C"
	OptionD = "D"
)

// ValidOption reports whether o is one of A-D.
func ValidOption(o string) bool {
	switch o {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// Question models a four-option MCQ owned by an activity.
type Question struct {
	ID            int64  `json:"id"`
	ActivityID    int64  `json:"activityId"`
	QuestionText  string `json:"questionText"`
	OptionA       string `json:"optionA"`
	OptionB       string `json:"optionB"`
	OptionC       string `json:"optionC"`
	OptionD       string `json:"optionD"`
	CorrectOption string `json:"correctOption,omitempty"`
}

// Result is one student's attempt at one activity.
type Result struct {
	ID                int64      `json:"id"`
	ActivityStudentID int64      `json:"activityStudentId"`
	Score             *int       `json:"score"`
	StartedAt         time.Time  `json:"startedAt"`
	CompletedAt       *time.Time `json:"completedAt"`
}

// Finished reports whether the attempt has been scored.
func (r Result) Finished() bool {
	return r.CompletedAt != nil
}

// Answer is the option a student picked for one question in one attempt.
type Answer struct {
	ID             int64  `json:"id"`
	ResultID       int64  `json:"studentActivityResultId"`
	QuestionID     int64  `json:"questionId"`
	SelectedOption string `json:"selectedOption"`
}

// ReviewedAnswer annotates an answer with its correctness.
type ReviewedAnswer struct {
	Answer
	CorrectOption string `json:"correctOption"`
	Correct       bool   `json:"correct"`
}

// LeaderboardEntry is one ranked row of an activity leaderboard.
type LeaderboardEntry struct {
	StudentID int64  `json:"studentId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Score     int    `json:"score"`
	ResultID  int64  `json:"resultId"`
}

// Admin is an operator account.
type Admin struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	FullName     string `json:"fullName"`
}

// AnswerKey maps question ids of one activity to their correct option.
type AnswerKey struct {
	ActivityID int64
	Correct    map[int64]string
}

// BankQuestion is a question as stored in an external question bank.
type BankQuestion struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Correct string   `json:"correct"`
}

// QuestionBank is a named set of questions that can be imported into an activity.
type QuestionBank struct {
	ID        string         `json:"id"`
	Questions []BankQuestion `json:"questions"`
}
