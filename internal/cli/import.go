package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"quizha-server/internal/app"
	"quizha-server/internal/config"
	"quizha-server/internal/infra/memory"
	"quizha-server/internal/infra/postgres"
	"quizha-server/internal/infra/sqldb"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

// NewImportQuestionsCmd copies a question bank from the shared Postgres bank store into an activity.
func NewImportQuestionsCmd(configPath *string) *cobra.Command {
	var (
		bankID     string
		activityID int64
		list       bool
	)
	cmd := &cobra.Command{
		Use:   "import-questions",
		Short: "Import a question bank into an activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return listBanks(cmd.Context(), *configPath)
			}
			if bankID == "" || activityID <= 0 {
				return errors.New("--bank and --activity are required")
			}
			return importQuestions(cmd.Context(), *configPath, bankID, activityID)
		},
	}
	cmd.Flags().StringVar(&bankID, "bank", "", "question bank id")
	cmd.Flags().Int64Var(&activityID, "activity", 0, "target activity id")
	cmd.Flags().BoolVar(&list, "list", false, "list available banks and exit")
	return cmd
}

func connectBanks(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	if cfg.QuestionBank.PostgresURL == "" {
		return nil, errors.New("question bank postgres url not configured")
	}
	return postgres.Connect(ctx, cfg.QuestionBank.PostgresURL)
}

func listBanks(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	pool, err := connectBanks(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	ids, err := postgres.NewQuestionBankLoader(pool).BankIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func importQuestions(ctx context.Context, configPath, bankID string, activityID int64) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	pool, err := connectBanks(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	bank, err := postgres.NewQuestionBankLoader(pool).LoadBank(ctx, bankID)
	if err != nil {
		return err
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	store := sqldb.NewStore(db)
	keys := memory.NewAnswerKeyCache(store, time.Minute)
	lifecycle := app.NewLifecycleManager(store, memory.NewHub(), time.Second)
	defer lifecycle.Shutdown()

	n, err := app.NewCatalog(store, lifecycle, keys).ImportBank(ctx, activityID, bank)
	if err != nil {
		return err
	}
	log.Printf("imported %d questions from bank %q into activity %d", n, bankID, activityID)
	return nil
}
