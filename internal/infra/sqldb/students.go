package sqldb

import (
	"context"
	"strings"

	"quizha-server/internal/domain"
)

func (s *Store) CreateStudent(ctx context.Context, st domain.Student) (int64, error) {
	row := studentFromDomain(st)
	row.ID = 0
	if _, err := s.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return 0, err
	}
	return row.ID, nil
}

func (s *Store) GetStudent(ctx context.Context, id int64) (domain.Student, error) {
	var row studentRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.Student{}, notFound(err, domain.ErrStudentNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) UpdateStudent(ctx context.Context, st domain.Student) error {
	row := studentFromDomain(st)
	res, err := s.db.NewUpdate().
		Model(&row).
		Column("first_name", "last_name", "year_level", "department", "course", "birthdate").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, domain.ErrStudentNotFound)
}

func (s *Store) DeleteStudent(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*studentRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, domain.ErrStudentNotFound)
}

func (s *Store) ListStudents(ctx context.Context) ([]domain.Student, error) {
	return s.listStudents(ctx, "", nil)
}

func (s *Store) ListStudentsByYearLevel(ctx context.Context, yearLevel string) ([]domain.Student, error) {
	return s.listStudents(ctx, "year_level = ?", yearLevel)
}

func (s *Store) ListStudentsByDepartment(ctx context.Context, department string) ([]domain.Student, error) {
	return s.listStudents(ctx, "department = ?", department)
}

// SearchStudents matches a case-insensitive substring of "first last".
func (s *Store) SearchStudents(ctx context.Context, name string) ([]domain.Student, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(name)) + "%"
	return s.listStudents(ctx, "LOWER(first_name || ' ' || last_name) LIKE ?", pattern)
}

func (s *Store) listStudents(ctx context.Context, where string, arg any) ([]domain.Student, error) {
	var rows []studentRow
	q := s.db.NewSelect().Model(&rows)
	if where != "" {
		q = q.Where(where, arg)
	}
	if err := q.OrderExpr("last_name ASC, first_name ASC, id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return studentsToDomain(rows), nil
}

func studentsToDomain(rows []studentRow) []domain.Student {
	out := make([]domain.Student, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}
