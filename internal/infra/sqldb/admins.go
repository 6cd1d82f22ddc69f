package sqldb

import (
	"context"
	"errors"

	"quizha-server/internal/domain"
)

func (s *Store) CreateAdmin(ctx context.Context, a domain.Admin) (int64, error) {
	var id int64
	err := s.RunInTx(ctx, func(ctx context.Context, tx *Store) error {
		if _, err := tx.AdminByUsername(ctx, a.Username); err == nil {
			return domain.ErrDuplicateAdmin
		} else if !errors.Is(err, domain.ErrAdminNotFound) {
			return err
		}
		row := adminRow{Username: a.Username, PasswordHash: a.PasswordHash, FullName: a.FullName}
		if _, err := tx.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
			return err
		}
		id = row.ID
		return nil
	})
	return id, err
}

func (s *Store) AdminByUsername(ctx context.Context, username string) (domain.Admin, error) {
	var row adminRow
	if err := s.db.NewSelect().Model(&row).Where("username = ?", username).Scan(ctx); err != nil {
		return domain.Admin{}, notFound(err, domain.ErrAdminNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) ListAdmins(ctx context.Context) ([]domain.Admin, error) {
	var rows []adminRow
	if err := s.db.NewSelect().Model(&rows).OrderExpr("id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.Admin, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) DeleteAdmin(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*adminRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, domain.ErrAdminNotFound)
}
