package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"quizha-server/internal/config"
	pgmigrations "quizha-server/internal/infra/postgres/migrations"
	"quizha-server/internal/infra/sqldb"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	db.Close()
	log.Printf("migrations applied (%s)", cfg.Database.Driver)

	if cfg.QuestionBank.PostgresURL == "" {
		return nil
	}
	if err := migrateQuestionBanks(ctx, cfg.QuestionBank.PostgresURL); err != nil {
		return err
	}
	log.Printf("question bank migrations applied")
	return nil
}

// openDatabase connects to the configured database and brings its schema up to date.
func openDatabase(ctx context.Context, cfg config.Config) (*bun.DB, error) {
	db, err := sqldb.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s database: %w", cfg.Database.Driver, err)
	}
	if err := sqldb.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func migrateQuestionBanks(ctx context.Context, url string) error {
	conn := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(url)))
	db := bun.NewDB(conn, pgdialect.New())
	defer db.Close()

	if err := pgmigrations.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate question banks: %w", err)
	}
	return nil
}
