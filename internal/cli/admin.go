package cli

import (
	"context"
	"log"
	"time"

	"quizha-server/internal/app"
	"quizha-server/internal/config"
	"quizha-server/internal/infra/sqldb"

	"github.com/spf13/cobra"
)

// NewCreateAdminCmd adds an admin account without going through the API.
func NewCreateAdminCmd(configPath *string) *cobra.Command {
	var username, password, fullName string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return createAdmin(cmd.Context(), *configPath, username, password, fullName)
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	cmd.Flags().StringVar(&fullName, "full-name", "", "display name")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func createAdmin(ctx context.Context, configPath, username, password, fullName string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	auth := app.NewAuthService(sqldb.NewStore(db), tokenConfig(cfg))
	admin, err := auth.CreateAdmin(ctx, username, password, fullName)
	if err != nil {
		return err
	}
	log.Printf("created admin %q (id %d)", admin.Username, admin.ID)
	return nil
}

func tokenConfig(cfg config.Config) app.TokenConfig {
	return app.TokenConfig{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		Audience:   cfg.JWT.Audience,
		AdminTTL:   config.TTLDuration(cfg.JWT.AdminTTL, time.Hour),
		StudentTTL: config.TTLDuration(cfg.JWT.StudentTTL, 24*time.Hour),
	}
}
