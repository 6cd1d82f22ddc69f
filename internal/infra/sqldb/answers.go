package sqldb

import (
	"context"

	"quizha-server/internal/domain"
)

// UpsertAnswer stores the selected option for (result, question), replacing any earlier pick.
func (s *Store) UpsertAnswer(ctx context.Context, resultID, questionID int64, option string) (int64, error) {
	row := answerRow{ResultID: resultID, QuestionID: questionID, SelectedOption: option}
	_, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (student_activity_result_id, question_id) DO UPDATE").
		Set("selected_option = EXCLUDED.selected_option").
		Returning("id").
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return row.ID, nil
}

// UpdateAnswer changes the option of an existing (result, question) answer.
func (s *Store) UpdateAnswer(ctx context.Context, a domain.Answer) error {
	res, err := s.db.NewUpdate().
		Model((*answerRow)(nil)).
		Set("selected_option = ?", a.SelectedOption).
		Where("student_activity_result_id = ?", a.ResultID).
		Where("question_id = ?", a.QuestionID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, domain.ErrNotFound)
}

func (s *Store) DeleteAnswer(ctx context.Context, resultID, questionID int64) error {
	res, err := s.db.NewDelete().
		Model((*answerRow)(nil)).
		Where("student_activity_result_id = ?", resultID).
		Where("question_id = ?", questionID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, domain.ErrNotFound)
}

func (s *Store) ListAnswers(ctx context.Context) ([]domain.Answer, error) {
	return s.listAnswers(ctx, "", 0)
}

func (s *Store) AnswersByResult(ctx context.Context, resultID int64) ([]domain.Answer, error) {
	return s.listAnswers(ctx, "student_activity_result_id = ?", resultID)
}

func (s *Store) AnswersByQuestion(ctx context.Context, questionID int64) ([]domain.Answer, error) {
	return s.listAnswers(ctx, "question_id = ?", questionID)
}

// CountCorrectAnswers counts answers of a result whose option matches the question's correct option.
// Only questions that currently belong to the result's activity are counted.
func (s *Store) CountCorrectAnswers(ctx context.Context, resultID int64) (int, error) {
	return s.db.NewSelect().
		TableExpr("student_answers AS sa").
		Join("JOIN student_activity_results AS r ON r.id = sa.student_activity_result_id").
		Join("JOIN activity_students AS e ON e.id = r.activity_student_id").
		Join("JOIN questions AS q ON q.id = sa.question_id AND q.activity_id = e.activity_id").
		Where("sa.student_activity_result_id = ?", resultID).
		Where("sa.selected_option = q.correct_option").
		Count(ctx)
}

func (s *Store) listAnswers(ctx context.Context, where string, arg int64) ([]domain.Answer, error) {
	var rows []answerRow
	q := s.db.NewSelect().Model(&rows)
	if where != "" {
		q = q.Where(where, arg)
	}
	if err := q.OrderExpr("id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.Answer, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
