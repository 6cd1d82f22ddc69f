package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"quizha-server/internal/app"
	"quizha-server/internal/config"
	"quizha-server/internal/infra/memory"
	redisinfra "quizha-server/internal/infra/redis"
	"quizha-server/internal/infra/sqldb"
	transport "quizha-server/internal/transport/http"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quizha server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	store := sqldb.NewStore(db)

	hub := memory.NewHub()
	keyTTL := config.TTLDuration(cfg.AnswerKeys.TTL, 10*time.Minute)

	var (
		keys     app.AnswerKeys
		notifier app.Notifier = hub
		relay    *redisinfra.StatusRelay
	)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return err
		}
		keys = redisinfra.NewAnswerKeyCache(client, store, keyTTL)
		relay = redisinfra.NewStatusRelay(client, hub)
		notifier = relay
		log.Printf("using redis at %s for answer keys and status fan-out", cfg.Redis.Addr)
	} else {
		keys = memory.NewAnswerKeyCache(store, keyTTL)
	}

	lifecycle := app.NewLifecycleManager(store, notifier, config.TTLDuration(cfg.Countdown.Tick, time.Second))
	defer lifecycle.Shutdown()

	auth := app.NewAuthService(store, tokenConfig(cfg))
	if err := auth.EnsureDefaultAdmin(ctx, cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminPassword, cfg.Bootstrap.AdminFullName); err != nil {
		return err
	}

	handler := transport.NewRouter(transport.Deps{
		Auth:      auth,
		Catalog:   app.NewCatalog(store, lifecycle, keys),
		Lifecycle: lifecycle,
		Scoring:   app.NewScoringEngine(store, keys),
		Hub:       hub,
		Health:    store.Ping,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if relay != nil {
		g.Go(func() error { return relay.Run(gctx) })
		select {
		case <-relay.Ready():
		case <-gctx.Done():
			return g.Wait()
		}
	}

	// Resume countdowns once the relay is subscribed.
	if err := lifecycle.Recover(ctx); err != nil {
		return err
	}

	g.Go(func() error {
		log.Printf("starting quizha server on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down server...")
		lifecycle.Shutdown()
		hub.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.TTLDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
