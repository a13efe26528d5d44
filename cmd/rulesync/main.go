package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rpattn/rulesync/internal/changegate"
	"github.com/rpattn/rulesync/internal/config"
	"github.com/rpattn/rulesync/internal/db"
	"github.com/rpattn/rulesync/internal/extract"
	"github.com/rpattn/rulesync/internal/fetch"
	"github.com/rpattn/rulesync/internal/repository"
	"github.com/rpattn/rulesync/internal/syncer"
)

var (
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rulesync",
	Short: "Synchronizes the business rule catalog into the rule store",
	Long: `rulesync downloads the analyst-maintained rules spreadsheet from a
version-control repository, extracts validated rule records from it, and
republishes them to the downstream store whenever the content changes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one synchronization and exit",
	Long: `Fetches the source spreadsheet, compares its fingerprint against the
last published one, and publishes the extracted rules when the content
changed. The run outcome is printed as JSON; the exit code reflects it.`,
	RunE: runSync,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve an HTTP endpoint that triggers synchronization runs",
	Long:  `Starts an HTTP server where POST /sync executes one synchronization run.`,
	RunE:  runServe,
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "directory containing config.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(syncCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildService assembles the synchronizer from configuration. The
// returned cleanup releases the store backend.
func buildService(ctx context.Context, cfg config.Config) (*syncer.Service, func(), error) {
	fetcher, err := fetch.NewClient(
		cfg.Source.RepoURL, cfg.Source.FilePath, cfg.Source.Branch, cfg.Source.Token, logger)
	if err != nil {
		return nil, nil, err
	}

	var (
		fingerprints repository.FingerprintStore
		rules        repository.RuleStore
		cleanup      = func() {}
	)
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		if err := db.RunMigrations(cfg.Database, cfg.MigrationsPath); err != nil {
			return nil, nil, err
		}
		conn, err := db.NewConnection(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		fingerprints = repository.NewPostgresFingerprintStore(conn)
		rules = repository.NewPostgresRuleStore(conn)
		cleanup = conn.Close
	case config.BackendLocal:
		fingerprints = repository.NewLocalFingerprintStore(cfg.Store.LocalDir)
		rules = repository.NewLocalRuleStore(filepath.Join(cfg.Store.LocalDir, filepath.FromSlash(cfg.Store.RulesKey)))
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	gate := changegate.New(fingerprints, cfg.Store.FingerprintKey, logger)
	extractor := extract.NewExtractor(cfg.TypeFilter, logger)
	service := syncer.NewService(fetcher, gate, extractor, rules, logger)
	return service, cleanup, nil
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	service, cleanup, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	outcome := service.Run(ctx, "")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcome); err != nil {
		return err
	}
	if !outcome.Success {
		return fmt.Errorf("synchronization did not succeed: %s", outcome.Message)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	service, cleanup, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	corsHandler := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	mux := http.NewServeMux()
	mux.Handle("/sync", syncer.NewHTTPHandler(service))

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      syncer.LoggingMiddleware(logger, corsHandler.Handler(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // one run is fetch + extract + publish
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("sync trigger listening", zap.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
