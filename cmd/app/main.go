package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"labtrack/cmd"
	httpadapter "labtrack/internal/adapters/in/http"
	"labtrack/internal/adapters/out/postgres"
	"labtrack/internal/adapters/out/postgres/clientrepo"
	"labtrack/internal/pkg/logger"
	"labtrack/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const serviceName = "labtrack"

func main() {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Laboratory order tracking and result reporting service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file")

	rootCmd.AddCommand(serveCmd(&envFile))
	rootCmd.AddCommand(migrateCmd(&envFile))
	rootCmd.AddCommand(whitelistCmd(&envFile))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and scheduled jobs",
		RunE: func(c *cobra.Command, _ []string) error {
			return runServer(c.Context(), *envFile)
		},
	}
}

func migrateCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap(*envFile)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := cmd.OpenDatabase(cfg)
			if err != nil {
				return err
			}
			if err := postgres.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("Database migrated")
			return nil
		},
	}
}

func whitelistCmd(envFile *string) *cobra.Command {
	whitelist := &cobra.Command{
		Use:   "whitelist",
		Short: "Manage the test sites report clients may query",
	}
	whitelist.AddCommand(&cobra.Command{
		Use:   "set <client-id> [test-site-id...]",
		Short: "Replace a client's whitelist; no sites revokes access",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(*envFile)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := cmd.OpenDatabase(cfg)
			if err != nil {
				return err
			}
			if err := clientrepo.NewGormClientRepository(db).SaveWhitelist(c.Context(), args[0], args[1:]); err != nil {
				return err
			}
			log.Info("Whitelist saved", zap.String("client_id", args[0]), zap.Strings("test_sites", args[1:]))
			return nil
		},
	})
	return whitelist
}

func bootstrap(envFile string) (cmd.Config, *zap.Logger, error) {
	cfg, err := cmd.LoadConfig(envFile)
	if err != nil {
		return cmd.Config{}, nil, err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		return cmd.Config{}, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, log, nil
}

func runServer(parent context.Context, envFile string) error {
	cfg, log, err := bootstrap(envFile)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := cmd.OpenDatabase(cfg)
	if err != nil {
		return err
	}

	pushNotifier, closePush, err := cmd.NewPushNotifier(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closePush()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app := cmd.NewCompositionRoot(cfg, db, pushNotifier, metrics.New(registry), log)

	keys, err := cfg.APIKeys()
	if err != nil {
		return err
	}

	jobManager := app.CreateJobManager()
	if err := jobManager.StartAll(); err != nil {
		return err
	}
	defer jobManager.StopAll()

	e := httpadapter.NewRouter(app.CreateServer(), keys, registry, log)
	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("port", cfg.HTTPPort))
		serverErr <- e.Start(fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort))
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
