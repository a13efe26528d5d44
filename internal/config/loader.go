package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/rpattn/rulesync/internal/db"
)

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendLocal    = "local"
)

// Source locates the spreadsheet in the version-control host.
type Source struct {
	RepoURL  string
	FilePath string
	Branch   string
	Token    string
}

// Store selects where fingerprints and published rules live.
type Store struct {
	Backend        string
	FingerprintKey string
	RulesKey       string
	LocalDir       string
}

// Config is the explicit configuration value object handed to the
// synchronizer. It is validated once by the caller; core packages never
// read process environment state themselves.
type Config struct {
	Source         Source
	Store          Store
	TypeFilter     string
	Database       db.Config
	MigrationsPath string
	ServerAddr     string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Source: Source{
			Branch: "main",
		},
		Store: Store{
			Backend:        BackendLocal,
			FingerprintKey: "rules/rules.hash",
			RulesKey:       "rules/rules_metadata.json",
			LocalDir:       "./data",
		},
		TypeFilter:     "semantica",
		Database:       db.DefaultConfig(),
		MigrationsPath: "./migrations",
		ServerAddr:     ":8080",
	}
}

// Load reads config.yaml from configPath (and the working directory),
// with environment overrides under the RULESYNC prefix, e.g.
// RULESYNC_SOURCE_TOKEN or RULESYNC_DATABASE_HOST.
func Load(configPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AutomaticEnv()
	v.SetEnvPrefix("RULESYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	keys := []string{
		"source.repo_url", "source.file_path", "source.branch", "source.token",
		"store.backend", "store.fingerprint_key", "store.rules_key", "store.local_dir",
		"type_filter", "migrations_path", "server_addr",
		"database.host", "database.port", "database.user",
		"database.password", "database.dbname", "database.sslmode",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config.yaml: defaults plus environment overrides.
	}

	if v.IsSet("source.repo_url") {
		cfg.Source.RepoURL = v.GetString("source.repo_url")
	}
	if v.IsSet("source.file_path") {
		cfg.Source.FilePath = v.GetString("source.file_path")
	}
	if v.IsSet("source.branch") {
		cfg.Source.Branch = v.GetString("source.branch")
	}
	if v.IsSet("source.token") {
		cfg.Source.Token = v.GetString("source.token")
	}
	if v.IsSet("store.backend") {
		cfg.Store.Backend = v.GetString("store.backend")
	}
	if v.IsSet("store.fingerprint_key") {
		cfg.Store.FingerprintKey = v.GetString("store.fingerprint_key")
	}
	if v.IsSet("store.rules_key") {
		cfg.Store.RulesKey = v.GetString("store.rules_key")
	}
	if v.IsSet("store.local_dir") {
		cfg.Store.LocalDir = v.GetString("store.local_dir")
	}
	if v.IsSet("type_filter") {
		cfg.TypeFilter = v.GetString("type_filter")
	}
	if v.IsSet("migrations_path") {
		cfg.MigrationsPath = v.GetString("migrations_path")
	}
	if v.IsSet("server_addr") {
		cfg.ServerAddr = v.GetString("server_addr")
	}
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}

	return cfg, nil
}

// Validate reports missing or inconsistent settings in one pass.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Source.RepoURL) == "" {
		missing = append(missing, "source.repo_url")
	}
	if strings.TrimSpace(c.Source.FilePath) == "" {
		missing = append(missing, "source.file_path")
	}
	if strings.TrimSpace(c.Source.Branch) == "" {
		missing = append(missing, "source.branch")
	}
	if strings.TrimSpace(c.Store.FingerprintKey) == "" {
		missing = append(missing, "store.fingerprint_key")
	}
	if strings.TrimSpace(c.Store.RulesKey) == "" {
		missing = append(missing, "store.rules_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	switch c.Store.Backend {
	case BackendPostgres, BackendLocal:
	default:
		return fmt.Errorf("unknown store backend %q (want %s or %s)", c.Store.Backend, BackendPostgres, BackendLocal)
	}
	if c.Store.Backend == BackendLocal && strings.TrimSpace(c.Store.LocalDir) == "" {
		return errors.New("store.local_dir is required for the local backend")
	}
	return nil
}
