package sqldb

import (
	"context"

	"quizha-server/internal/domain"
)

func (s *Store) CreateQuestion(ctx context.Context, q domain.Question) (int64, error) {
	row := questionFromDomain(q)
	row.ID = 0
	if _, err := s.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return 0, err
	}
	return row.ID, nil
}

// CreateQuestions inserts a batch for one activity in a single transaction.
func (s *Store) CreateQuestions(ctx context.Context, qs []domain.Question) (int, error) {
	if len(qs) == 0 {
		return 0, nil
	}
	err := s.RunInTx(ctx, func(ctx context.Context, tx *Store) error {
		for _, q := range qs {
			if _, err := tx.CreateQuestion(ctx, q); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(qs), nil
}

func (s *Store) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	var row questionRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.Question{}, notFound(err, domain.ErrQuestionNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) UpdateQuestion(ctx context.Context, q domain.Question) error {
	row := questionFromDomain(q)
	res, err := s.db.NewUpdate().
		Model(&row).
		Column("activity_id", "question_text", "option_a", "option_b", "option_c", "option_d", "correct_option").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, domain.ErrQuestionNotFound)
}

func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*questionRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, domain.ErrQuestionNotFound)
}

// DeleteQuestionsByActivity removes every question of an activity and returns how many went.
func (s *Store) DeleteQuestionsByActivity(ctx context.Context, activityID int64) (int64, error) {
	res, err := s.db.NewDelete().Model((*questionRow)(nil)).Where("activity_id = ?", activityID).Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	var rows []questionRow
	if err := s.db.NewSelect().Model(&rows).OrderExpr("id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return questionsToDomain(rows), nil
}

func (s *Store) QuestionsByActivity(ctx context.Context, activityID int64) ([]domain.Question, error) {
	var rows []questionRow
	err := s.db.NewSelect().Model(&rows).Where("activity_id = ?", activityID).OrderExpr("id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return questionsToDomain(rows), nil
}

func (s *Store) CountQuestionsByActivity(ctx context.Context, activityID int64) (int, error) {
	return s.db.NewSelect().Model((*questionRow)(nil)).Where("activity_id = ?", activityID).Count(ctx)
}

// LoadAnswerKey builds the question -> correct option map for an activity.
func (s *Store) LoadAnswerKey(ctx context.Context, activityID int64) (domain.AnswerKey, error) {
	var rows []questionRow
	err := s.db.NewSelect().
		Model(&rows).
		Column("id", "correct_option").
		Where("activity_id = ?", activityID).
		Scan(ctx)
	if err != nil {
		return domain.AnswerKey{}, err
	}
	key := domain.AnswerKey{ActivityID: activityID, Correct: make(map[int64]string, len(rows))}
	for _, r := range rows {
		key.Correct[r.ID] = r.CorrectOption
	}
	return key, nil
}

func questionsToDomain(rows []questionRow) []domain.Question {
	out := make([]domain.Question, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}
