package sqldb

import (
	"context"
	"database/sql"
	"errors"

	"quizha-server/internal/domain"
)

// Enroll assigns a student to an activity. Both must exist and the pair must be new.
func (s *Store) Enroll(ctx context.Context, activityID, studentID int64) (int64, error) {
	var id int64
	err := s.RunInTx(ctx, func(ctx context.Context, tx *Store) error {
		if _, err := tx.GetActivity(ctx, activityID); err != nil {
			return err
		}
		if _, err := tx.GetStudent(ctx, studentID); err != nil {
			return err
		}
		if _, err := tx.EnrollmentID(ctx, activityID, studentID); err == nil {
			return domain.ErrAlreadyEnrolled
		} else if !errors.Is(err, domain.ErrEnrollmentNotFound) {
			return err
		}
		row := enrollmentRow{ActivityID: activityID, StudentID: studentID}
		if _, err := tx.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
			return err
		}
		id = row.ID
		return nil
	})
	return id, err
}

func (s *Store) Unenroll(ctx context.Context, activityID, studentID int64) error {
	res, err := s.db.NewDelete().
		Model((*enrollmentRow)(nil)).
		Where("activity_id = ?", activityID).
		Where("student_id = ?", studentID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, domain.ErrEnrollmentNotFound)
}

// EnrollmentID returns the enrollment id for the (activity, student) pair.
func (s *Store) EnrollmentID(ctx context.Context, activityID, studentID int64) (int64, error) {
	var id int64
	err := s.db.NewSelect().
		Model((*enrollmentRow)(nil)).
		Column("id").
		Where("activity_id = ?", activityID).
		Where("student_id = ?", studentID).
		Limit(1).
		Scan(ctx, &id)
	if err != nil {
		return 0, notFound(err, domain.ErrEnrollmentNotFound)
	}
	return id, nil
}

func (s *Store) GetEnrollment(ctx context.Context, id int64) (domain.Enrollment, error) {
	var row enrollmentRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.Enrollment{}, notFound(err, domain.ErrEnrollmentNotFound)
	}
	return row.toDomain(), nil
}

// EnrollmentForResult resolves which (activity, student) pair a result belongs to.
func (s *Store) EnrollmentForResult(ctx context.Context, resultID int64) (domain.Enrollment, error) {
	var row enrollmentRow
	err := s.db.NewSelect().
		Model(&row).
		Join("JOIN student_activity_results AS r ON r.activity_student_id = e.id").
		Where("r.id = ?", resultID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Enrollment{}, domain.ErrResultNotFound
		}
		return domain.Enrollment{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) StudentsByActivity(ctx context.Context, activityID int64) ([]domain.Student, error) {
	var rows []studentRow
	err := s.db.NewSelect().
		Model(&rows).
		Join("JOIN activity_students AS e ON e.student_id = s.id").
		Where("e.activity_id = ?", activityID).
		OrderExpr("s.last_name ASC, s.first_name ASC, s.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return studentsToDomain(rows), nil
}

func (s *Store) ActivitiesByStudent(ctx context.Context, studentID int64) ([]domain.Activity, error) {
	var rows []activityRow
	err := s.db.NewSelect().
		Model(&rows).
		Join("JOIN activity_students AS e ON e.activity_id = a.id").
		Where("e.student_id = ?", studentID).
		OrderExpr("a.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return activitiesToDomain(rows), nil
}
