package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarcoPoloResearchLab/questgraph/internal/config"
	"github.com/MarcoPoloResearchLab/questgraph/internal/graph"
	"github.com/MarcoPoloResearchLab/questgraph/internal/logging"
	"github.com/MarcoPoloResearchLab/questgraph/internal/seed"
	"github.com/MarcoPoloResearchLab/questgraph/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	bootstrapTimeout = 30 * time.Second
	shutdownTimeout  = 10 * time.Second
)

var (
	cfgFile string
	version = graph.DefaultVersion
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "questgraph-api",
		Short: "GraphQL API over QuestDB",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
	rootCmd.AddCommand(&cobra.Command{
		Use:   "setup",
		Short: "Create tables, seed an empty database and print its stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd.Context(), cmd.OutOrStdout())
		},
	})

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().StringSlice("cors-origins", defaults.GetStringSlice("cors.allowed_origins"), "Allowed CORS origins")
	cmd.PersistentFlags().String("storage-driver", defaults.GetString("storage.driver"), "Storage driver (questdb, sqlite)")
	cmd.PersistentFlags().String("questdb-http-url", defaults.GetString("questdb.http_url"), "QuestDB REST base URL")
	cmd.PersistentFlags().String("questdb-query-transport", defaults.GetString("questdb.query_transport"), "QuestDB read transport (http, pgwire)")
	cmd.PersistentFlags().String("questdb-pg-dsn", defaults.GetString("questdb.pg_dsn"), "QuestDB PostgreSQL wire DSN")
	cmd.PersistentFlags().String("questdb-ilp-conf", defaults.GetString("questdb.ilp_conf"), "QuestDB ILP client configuration string")
	cmd.PersistentFlags().Duration("questdb-query-timeout", defaults.GetDuration("questdb.query_timeout"), "Per-query timeout")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().Bool("batch-relations", defaults.GetBool("graph.batch_relations"), "Resolve nested fields from one scan per table per request")
	cmd.PersistentFlags().Bool("seed-on-startup", defaults.GetBool("seed.on_startup"), "Seed sample data when the database is empty")
	cmd.PersistentFlags().Duration("events-heartbeat", defaults.GetDuration("events.heartbeat"), "Keep-alive interval of the /events stream")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", defaults.GetString("log.format"), "Log format (json, console)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "cors.allowed_origins", "cors-origins")
	bindFlag(cmd, "storage.driver", "storage-driver")
	bindFlag(cmd, "questdb.http_url", "questdb-http-url")
	bindFlag(cmd, "questdb.query_transport", "questdb-query-transport")
	bindFlag(cmd, "questdb.pg_dsn", "questdb-pg-dsn")
	bindFlag(cmd, "questdb.ilp_conf", "questdb-ilp-conf")
	bindFlag(cmd, "questdb.query_timeout", "questdb-query-timeout")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "graph.batch_relations", "batch-relations")
	bindFlag(cmd, "seed.on_startup", "seed-on-startup")
	bindFlag(cmd, "events.heartbeat", "events-heartbeat")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "log.format", "log-format")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func loadRuntime(ctx context.Context) (config.AppConfig, *zap.Logger, *application, error) {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return config.AppConfig{}, nil, nil, err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel, appConfig.LogFormat)
	if err != nil {
		return config.AppConfig{}, nil, nil, err
	}

	app, err := buildApplication(ctx, appConfig, logger)
	if err != nil {
		_ = logger.Sync()
		return config.AppConfig{}, nil, nil, err
	}
	return appConfig, logger, app, nil
}

func runServer(ctx context.Context) error {
	appConfig, logger, app, err := loadRuntime(ctx)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	defer app.Close(context.Background())

	bootstrapCtx, cancelBootstrap := context.WithTimeout(ctx, bootstrapTimeout)
	report, err := app.Bootstrap(bootstrapCtx, appConfig.SeedOnStartup)
	cancelBootstrap()
	if err != nil {
		logger.Warn("database bootstrap failed, continuing without it", zap.Error(err))
	} else if report.Healthy {
		logger.Info("database bootstrap complete", zap.Bool("seeded", report.Seeded))
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Graph:             app.graph,
		Health:            app.executor,
		Feed:              app.feed,
		AllowedOrigins:    appConfig.AllowedOrigins,
		HeartbeatInterval: appConfig.EventsHeartbeat,
		Logger:            logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              appConfig.HTTPAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", appConfig.HTTPAddress),
			zap.String("storage_driver", appConfig.StorageDriver),
			zap.Bool("batch_relations", appConfig.BatchRelations))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func runSetup(ctx context.Context, out io.Writer) error {
	_, logger, app, err := loadRuntime(ctx)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	defer app.Close(context.Background())

	bootstrapCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
	defer cancel()
	report, err := app.Bootstrap(bootstrapCtx, true)
	if err != nil {
		return err
	}
	if !report.Healthy {
		return errors.New("storage is not reachable; check questdb.http_url or questdb.pg_dsn")
	}
	return printSetupSummary(bootstrapCtx, out, app, report)
}

func printSetupSummary(ctx context.Context, out io.Writer, app *application, report seed.Report) error {
	stats := report.Stats
	postCount := len(app.posts.List(ctx))
	lines := []string{
		"Database stats:",
		fmt.Sprintf("  users:    %d", stats.Users),
		fmt.Sprintf("  posts:    %d", stats.Posts),
		fmt.Sprintf("  comments: %d", stats.Comments),
		"Sample queries:",
		fmt.Sprintf("  fetched %d users", len(app.users.List(ctx))),
		fmt.Sprintf("  fetched %d posts", postCount),
	}
	if postCount > 0 {
		lines = append(lines, fmt.Sprintf("  fetched %d comments for post 1", len(app.comments.ListByPost(ctx, 1))))
	}
	if report.Seeded {
		lines = append(lines, "Sample data was loaded.")
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}
