package sqldb

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Migrations holds the schema history. Tables are created with IF NOT EXISTS so
// running against a database created by an older build is a no-op.
var Migrations = migrate.NewMigrations()

type tableSpec struct {
	model       any
	foreignKeys []string
}

var schema = []tableSpec{
	{model: (*activityRow)(nil)},
	{model: (*studentRow)(nil)},
	{model: (*adminRow)(nil)},
	{
		model: (*enrollmentRow)(nil),
		foreignKeys: []string{
			`("activity_id") REFERENCES "activities" ("id") ON DELETE CASCADE`,
			`("student_id") REFERENCES "students" ("id") ON DELETE CASCADE`,
		},
	},
	{
		model: (*questionRow)(nil),
		foreignKeys: []string{
			`("activity_id") REFERENCES "activities" ("id") ON DELETE CASCADE`,
		},
	},
	{
		model: (*resultRow)(nil),
		foreignKeys: []string{
			`("activity_student_id") REFERENCES "activity_students" ("id") ON DELETE CASCADE`,
		},
	},
	{
		model: (*answerRow)(nil),
		foreignKeys: []string{
			`("student_activity_result_id") REFERENCES "student_activity_results" ("id") ON DELETE CASCADE`,
			`("question_id") REFERENCES "questions" ("id") ON DELETE CASCADE`,
		},
	},
}

type indexSpec struct {
	model   any
	name    string
	columns []string
}

var uniqueIndexes = []indexSpec{
	{model: (*enrollmentRow)(nil), name: "activity_students_pair_uidx", columns: []string{"activity_id", "student_id"}},
	{model: (*answerRow)(nil), name: "student_answers_result_question_uidx", columns: []string{"student_activity_result_id", "question_id"}},
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			for _, t := range schema {
				q := db.NewCreateTable().Model(t.model).IfNotExists()
				for _, fk := range t.foreignKeys {
					q = q.ForeignKey(fk)
				}
				if _, err := q.Exec(ctx); err != nil {
					return fmt.Errorf("create table: %w", err)
				}
			}
			for _, idx := range uniqueIndexes {
				_, err := db.NewCreateIndex().
					Model(idx.model).
					Index(idx.name).
					Unique().
					IfNotExists().
					Column(idx.columns...).
					Exec(ctx)
				if err != nil {
					return fmt.Errorf("create index %s: %w", idx.name, err)
				}
			}
			return nil
		},
		func(ctx context.Context, db *bun.DB) error {
			for i := len(schema) - 1; i >= 0; i-- {
				if _, err := db.NewDropTable().Model(schema[i].model).IfExists().Exec(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	)
}

// Migrate applies pending migrations. Safe to call on every boot.
func Migrate(ctx context.Context, db *bun.DB) error {
	migrator := migrate.NewMigrator(db, Migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		return err
	}
	return nil
}
