package sqldb

import (
	"context"
	"time"

	"quizha-server/internal/domain"
)

// CreateResult opens an attempt for an enrollment with score 0 and no completion time.
func (s *Store) CreateResult(ctx context.Context, enrollmentID int64, startedAt time.Time) (int64, error) {
	zero := 0
	row := resultRow{
		ActivityStudentID: enrollmentID,
		Score:             &zero,
		StartedAt:         startedAt,
	}
	if _, err := s.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return 0, err
	}
	return row.ID, nil
}

// InsertResult stores a result exactly as given, used by the admin surface.
func (s *Store) InsertResult(ctx context.Context, r domain.Result) (int64, error) {
	row := resultRow{
		ActivityStudentID: r.ActivityStudentID,
		Score:             r.Score,
		StartedAt:         r.StartedAt,
		CompletedAt:       r.CompletedAt,
	}
	if row.StartedAt.IsZero() {
		row.StartedAt = s.now()
	}
	if _, err := s.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return 0, err
	}
	return row.ID, nil
}

func (s *Store) GetResult(ctx context.Context, id int64) (domain.Result, error) {
	var row resultRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.Result{}, notFound(err, domain.ErrResultNotFound)
	}
	return row.toDomain(), nil
}

// CompleteResult writes the final score and completion time.
func (s *Store) CompleteResult(ctx context.Context, id int64, score int, completedAt time.Time) error {
	res, err := s.db.NewUpdate().
		Model((*resultRow)(nil)).
		Set("score = ?", score).
		Set("completed_at = ?", completedAt).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, domain.ErrResultNotFound)
}

// UpdateResult overwrites score and completion time.
func (s *Store) UpdateResult(ctx context.Context, r domain.Result) error {
	res, err := s.db.NewUpdate().
		Model((*resultRow)(nil)).
		Set("score = ?", r.Score).
		Set("completed_at = ?", r.CompletedAt).
		Where("id = ?", r.ID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, domain.ErrResultNotFound)
}

func (s *Store) DeleteResult(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*resultRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, domain.ErrResultNotFound)
}

func (s *Store) ListResults(ctx context.Context) ([]domain.Result, error) {
	var rows []resultRow
	if err := s.db.NewSelect().Model(&rows).OrderExpr("id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return resultsToDomain(rows), nil
}

func (s *Store) ResultsByEnrollment(ctx context.Context, enrollmentID int64) ([]domain.Result, error) {
	var rows []resultRow
	err := s.db.NewSelect().Model(&rows).Where("activity_student_id = ?", enrollmentID).OrderExpr("id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return resultsToDomain(rows), nil
}

func (s *Store) CountResults(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*resultRow)(nil)).Count(ctx)
}

// Leaderboard joins results, enrollments and students for one activity,
// highest score first and insertion order within a score.
func (s *Store) Leaderboard(ctx context.Context, activityID int64) ([]domain.LeaderboardEntry, error) {
	var rows []leaderboardRow
	err := s.db.NewSelect().
		ColumnExpr("st.id AS student_id").
		ColumnExpr("st.first_name AS first_name").
		ColumnExpr("st.last_name AS last_name").
		ColumnExpr("COALESCE(r.score, 0) AS score").
		ColumnExpr("r.id AS result_id").
		TableExpr("student_activity_results AS r").
		Join("JOIN activity_students AS e ON e.id = r.activity_student_id").
		Join("JOIN students AS st ON st.id = e.student_id").
		Where("e.activity_id = ?", activityID).
		OrderExpr("COALESCE(r.score, 0) DESC, r.id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	out := make([]domain.LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.LeaderboardEntry{
			StudentID: r.StudentID,
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Score:     r.Score,
			ResultID:  r.ResultID,
		})
	}
	return out, nil
}

func resultsToDomain(rows []resultRow) []domain.Result {
	out := make([]domain.Result, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}
