package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizha-server/internal/domain"
	"quizha-server/internal/infra/sqldb"
)

// AnswerKeys resolves and invalidates cached per-activity answer keys.
type AnswerKeys interface {
	AnswerKey(ctx context.Context, activityID int64) (domain.AnswerKey, error)
	Invalidate(ctx context.Context, activityID int64)
}

// ScoringEngine runs quiz sessions: start, answer, finish, and the reads built on them.
type ScoringEngine struct {
	store *sqldb.Store
	keys  AnswerKeys
	clock func() time.Time
}

func NewScoringEngine(store *sqldb.Store, keys AnswerKeys) *ScoringEngine {
	return &ScoringEngine{
		store: store,
		keys:  keys,
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// StartSession opens an attempt for an enrolled student. A student that
// already has an open attempt gets it back; one that already finished gets ErrSessionFinished.
func (e *ScoringEngine) StartSession(ctx context.Context, p domain.Principal, activityID, studentID int64) (domain.Result, error) {
	if !domain.CanActAs(p, activityID, studentID) {
		return domain.Result{}, fmt.Errorf("token does not belong to this student: %w", domain.ErrForbidden)
	}

	var result domain.Result
	err := e.store.RunInTx(ctx, func(ctx context.Context, tx *sqldb.Store) error {
		enrollmentID, err := tx.EnrollmentID(ctx, activityID, studentID)
		if errors.Is(err, domain.ErrEnrollmentNotFound) {
			return domain.ErrNotEnrolled
		}
		if err != nil {
			return err
		}

		existing, err := tx.ResultsByEnrollment(ctx, enrollmentID)
		if err != nil {
			return err
		}
		finished := false
		for _, r := range existing {
			if !r.Finished() {
				result = r
				return nil
			}
			finished = true
		}
		if finished {
			return domain.ErrSessionFinished
		}

		id, err := tx.CreateResult(ctx, enrollmentID, e.clock())
		if err != nil {
			return err
		}
		result, err = tx.GetResult(ctx, id)
		return err
	})
	if err != nil {
		return domain.Result{}, err
	}
	return result, nil
}

// RecordAnswer stores the option picked for a question, replacing any earlier pick.
// Correctness is not evaluated here.
func (e *ScoringEngine) RecordAnswer(ctx context.Context, p domain.Principal, resultID, questionID int64, option string) (domain.Answer, error) {
	option = strings.ToUpper(strings.TrimSpace(option))
	if !domain.ValidOption(option) {
		return domain.Answer{}, domain.InvalidInput("selectedOption must be one of A, B, C, D")
	}

	enrollment, err := e.authorizeResult(ctx, p, resultID)
	if err != nil {
		return domain.Answer{}, err
	}
	key, err := e.keys.AnswerKey(ctx, enrollment.ActivityID)
	if err != nil {
		return domain.Answer{}, err
	}
	if _, ok := key.Correct[questionID]; !ok {
		return domain.Answer{}, domain.InvalidInput("question %d does not belong to activity %d", questionID, enrollment.ActivityID)
	}

	answer := domain.Answer{ResultID: resultID, QuestionID: questionID, SelectedOption: option}
	err = e.store.RunInTx(ctx, func(ctx context.Context, tx *sqldb.Store) error {
		result, err := tx.GetResult(ctx, resultID)
		if err != nil {
			return err
		}
		if result.Finished() {
			return domain.ErrSessionFinished
		}
		answer.ID, err = tx.UpsertAnswer(ctx, resultID, questionID, option)
		return err
	})
	if err != nil {
		return domain.Answer{}, err
	}
	return answer, nil
}

// Finish scores the attempt as the number of answers matching the correct option.
// Finishing again recomputes the score from the current answers.
func (e *ScoringEngine) Finish(ctx context.Context, p domain.Principal, resultID int64) (domain.Result, error) {
	if _, err := e.authorizeResult(ctx, p, resultID); err != nil {
		return domain.Result{}, err
	}

	var result domain.Result
	err := e.store.RunInTx(ctx, func(ctx context.Context, tx *sqldb.Store) error {
		if _, err := tx.GetResult(ctx, resultID); err != nil {
			return err
		}
		score, err := tx.CountCorrectAnswers(ctx, resultID)
		if err != nil {
			return err
		}
		if err := tx.CompleteResult(ctx, resultID, score, e.clock()); err != nil {
			return err
		}
		result, err = tx.GetResult(ctx, resultID)
		return err
	})
	if err != nil {
		return domain.Result{}, err
	}
	return result, nil
}

// Result returns one attempt, limited to its owner for student callers.
func (e *ScoringEngine) Result(ctx context.Context, p domain.Principal, resultID int64) (domain.Result, error) {
	if _, err := e.authorizeResult(ctx, p, resultID); err != nil {
		return domain.Result{}, err
	}
	return e.store.GetResult(ctx, resultID)
}

// Leaderboard ranks every attempt of an activity by score, then by attempt order.
func (e *ScoringEngine) Leaderboard(ctx context.Context, activityID int64) ([]domain.LeaderboardEntry, error) {
	if _, err := e.store.GetActivity(ctx, activityID); err != nil {
		return nil, err
	}
	return e.store.Leaderboard(ctx, activityID)
}

func (e *ScoringEngine) AnswersForResult(ctx context.Context, resultID int64) ([]domain.Answer, error) {
	if _, err := e.store.GetResult(ctx, resultID); err != nil {
		return nil, err
	}
	return e.store.AnswersByResult(ctx, resultID)
}

// ReviewResult returns the answers of an attempt marked against the answer key.
func (e *ScoringEngine) ReviewResult(ctx context.Context, resultID int64) ([]domain.ReviewedAnswer, error) {
	enrollment, err := e.store.EnrollmentForResult(ctx, resultID)
	if err != nil {
		return nil, err
	}
	answers, err := e.store.AnswersByResult(ctx, resultID)
	if err != nil {
		return nil, err
	}
	key, err := e.keys.AnswerKey(ctx, enrollment.ActivityID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ReviewedAnswer, 0, len(answers))
	for _, a := range answers {
		correct := key.Correct[a.QuestionID]
		out = append(out, domain.ReviewedAnswer{
			Answer:        a,
			CorrectOption: correct,
			Correct:       correct != "" && correct == a.SelectedOption,
		})
	}
	return out, nil
}

func (e *ScoringEngine) authorizeResult(ctx context.Context, p domain.Principal, resultID int64) (domain.Enrollment, error) {
	enrollment, err := e.store.EnrollmentForResult(ctx, resultID)
	if err != nil {
		return domain.Enrollment{}, err
	}
	if !domain.CanActAs(p, enrollment.ActivityID, enrollment.StudentID) {
		return domain.Enrollment{}, fmt.Errorf("result belongs to another student: %w", domain.ErrForbidden)
	}
	return enrollment, nil
}
