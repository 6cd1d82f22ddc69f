package sqldb

import (
	"context"
	"time"

	"quizha-server/internal/domain"
)

// ActivityOrder selects the listing order for activities.
type ActivityOrder int

const (
	OrderByID ActivityOrder = iota
	OrderCreatedAsc
	OrderCreatedDesc
)

// CreateActivity inserts a pending activity and returns its id. The insert and
// the status initialisation happen in one transaction.
func (s *Store) CreateActivity(ctx context.Context, a domain.Activity) (int64, error) {
	var id int64
	err := s.RunInTx(ctx, func(ctx context.Context, tx *Store) error {
		now := tx.now()
		row := activityRow{
			Title:           a.Title,
			DurationMinutes: a.DurationMinutes,
			Status:          string(domain.StatusPending),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if _, err := tx.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
			return err
		}
		id = row.ID
		return nil
	})
	return id, err
}

func (s *Store) GetActivity(ctx context.Context, id int64) (domain.Activity, error) {
	var row activityRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return domain.Activity{}, notFound(err, domain.ErrActivityNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) ListActivities(ctx context.Context, order ActivityOrder) ([]domain.Activity, error) {
	var rows []activityRow
	q := s.db.NewSelect().Model(&rows)
	switch order {
	case OrderCreatedAsc:
		q = q.OrderExpr("created_at ASC, id ASC")
	case OrderCreatedDesc:
		q = q.OrderExpr("created_at DESC, id DESC")
	default:
		q = q.OrderExpr("id ASC")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return activitiesToDomain(rows), nil
}

func (s *Store) ListActivitiesByStatus(ctx context.Context, status domain.ActivityStatus) ([]domain.Activity, error) {
	var rows []activityRow
	err := s.db.NewSelect().Model(&rows).Where("status = ?", string(status)).OrderExpr("id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return activitiesToDomain(rows), nil
}

func (s *Store) CountActivities(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*activityRow)(nil)).Count(ctx)
}

func (s *Store) CountActivitiesByStatus(ctx context.Context, status domain.ActivityStatus) (int, error) {
	return s.db.NewSelect().Model((*activityRow)(nil)).Where("status = ?", string(status)).Count(ctx)
}

// UpdateActivityDetails changes title and duration.
func (s *Store) UpdateActivityDetails(ctx context.Context, id int64, title string, durationMinutes int) error {
	res, err := s.db.NewUpdate().
		Model((*activityRow)(nil)).
		Set("title = ?", title).
		Set("duration_minutes = ?", durationMinutes).
		Set("updated_at = ?", s.now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, domain.ErrActivityNotFound)
}

// ActivityState is the mutable lifecycle portion of an activity row.
type ActivityState struct {
	Status           domain.ActivityStatus
	RemainingSeconds *int
	EndsAt           *time.Time
}

// UpdateActivityState persists a lifecycle transition together with the countdown checkpoint.
func (s *Store) UpdateActivityState(ctx context.Context, id int64, state ActivityState) error {
	res, err := s.db.NewUpdate().
		Model((*activityRow)(nil)).
		Set("status = ?", string(state.Status)).
		Set("remaining_seconds = ?", state.RemainingSeconds).
		Set("ends_at = ?", state.EndsAt).
		Set("updated_at = ?", s.now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, domain.ErrActivityNotFound)
}

func (s *Store) DeleteActivity(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*activityRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, domain.ErrActivityNotFound)
}

func activitiesToDomain(rows []activityRow) []domain.Activity {
	out := make([]domain.Activity, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}
