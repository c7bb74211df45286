package config

import (
	"strings"
	"time"

	"github.com/pgocasting/ipatrollersys-sub002/internal/errors"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Store     StoreConfig
	Server    ServerConfig
	Admin     AdminConfig
	Reconcile ReconcileConfig
	Log       LogConfig
}

// StoreConfig selects and configures the document store backend
type StoreConfig struct {
	Backend       string // memory, postgres or mongo
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// AdminConfig holds the metrics/pprof side server settings
type AdminConfig struct {
	Port    string
	Enabled bool
}

// CandidateConfig is one storage location scanned for action reports.
// Department is applied to records that do not carry their own.
type CandidateConfig struct {
	Name       string
	Department string
}

// ReconcileConfig holds reconciliation engine settings
type ReconcileConfig struct {
	CanonicalCollection string
	ActivityCollection  string
	Candidates          []CandidateConfig
	WriteRatePerSec     float64
	IngestConcurrency   int
	ActivityDedupTTL    time.Duration
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// Store backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// DefaultCandidates is the fixed list of locations action reports have
// been written to over time.
var DefaultCandidates = []string{
	"actionReports",
	"action_reports",
	"reports",
	"actions",
	"incidents",
	"pnpReports:PNP",
	"agricultureReports:Agriculture",
	"pgEnroReports:PG-ENRO",
	"patrolActions",
}

// Load reads configuration from an optional file, environment variables
// and defaults, and validates it. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	config := &Config{
		Store:     loadStoreConfig(v),
		Server:    loadServerConfig(v),
		Admin:     loadAdminConfig(v),
		Reconcile: loadReconcileConfig(v),
		Log:       LogConfig{Level: v.GetString("log.level")},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.mongo_database", "ipatroller")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("admin.port", "6060")
	v.SetDefault("admin.enabled", true)
	v.SetDefault("reconcile.canonical_collection", "actionReports")
	v.SetDefault("reconcile.activity_collection", "activityLogs")
	v.SetDefault("reconcile.candidates", DefaultCandidates)
	v.SetDefault("reconcile.write_rate_per_sec", 0.0)
	v.SetDefault("reconcile.ingest_concurrency", 4)
	v.SetDefault("reconcile.activity_dedup_ttl", 30*time.Second)
	v.SetDefault("log.level", "INFO")
}

// bindLegacyEnv keeps the flat variable names used by deployments.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("store.database_url", "DATABASE_URL")
	_ = v.BindEnv("store.mongo_uri", "MONGO_URI")
	_ = v.BindEnv("store.mongo_database", "MONGO_DATABASE")
	_ = v.BindEnv("store.backend", "STORE_BACKEND")
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("server.gin_mode", "GIN_MODE")
	_ = v.BindEnv("admin.port", "ADMIN_PORT")
	_ = v.BindEnv("admin.enabled", "ADMIN_ENABLED")
	_ = v.BindEnv("reconcile.candidates", "CANDIDATE_COLLECTIONS")
	_ = v.BindEnv("reconcile.write_rate_per_sec", "WRITE_RATE_PER_SEC")
	_ = v.BindEnv("reconcile.ingest_concurrency", "INGEST_CONCURRENCY")
	_ = v.BindEnv("reconcile.activity_dedup_ttl", "ACTIVITY_DEDUP_TTL")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}

func loadStoreConfig(v *viper.Viper) StoreConfig {
	return StoreConfig{
		Backend:       strings.ToLower(v.GetString("store.backend")),
		DatabaseURL:   v.GetString("store.database_url"),
		MongoURI:      v.GetString("store.mongo_uri"),
		MongoDatabase: v.GetString("store.mongo_database"),
	}
}

func loadServerConfig(v *viper.Viper) ServerConfig {
	return ServerConfig{
		Port:    v.GetString("server.port"),
		GinMode: v.GetString("server.gin_mode"),
	}
}

func loadAdminConfig(v *viper.Viper) AdminConfig {
	return AdminConfig{
		Port:    v.GetString("admin.port"),
		Enabled: v.GetBool("admin.enabled"),
	}
}

func loadReconcileConfig(v *viper.Viper) ReconcileConfig {
	return ReconcileConfig{
		CanonicalCollection: v.GetString("reconcile.canonical_collection"),
		ActivityCollection:  v.GetString("reconcile.activity_collection"),
		Candidates:          ParseCandidates(v.GetStringSlice("reconcile.candidates")),
		WriteRatePerSec:     v.GetFloat64("reconcile.write_rate_per_sec"),
		IngestConcurrency:   v.GetInt("reconcile.ingest_concurrency"),
		ActivityDedupTTL:    v.GetDuration("reconcile.activity_dedup_ttl"),
	}
}

// ParseCandidates turns "name" or "name:Department" entries, optionally
// comma separated, into candidate configs. Duplicates are dropped.
func ParseCandidates(entries []string) []CandidateConfig {
	var out []CandidateConfig
	seen := make(map[string]bool)
	for _, entry := range entries {
		for _, item := range strings.Split(entry, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			name, dept, _ := strings.Cut(item, ":")
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, CandidateConfig{Name: name, Department: strings.TrimSpace(dept)})
		}
	}
	return out
}

func validateConfig(config *Config) error {
	switch config.Store.Backend {
	case BackendMemory:
	case BackendPostgres:
		if config.Store.DatabaseURL == "" {
			return errors.ConfigInvalid("DATABASE_URL is required for the postgres backend")
		}
	case BackendMongo:
		if config.Store.MongoURI == "" {
			return errors.ConfigInvalid("MONGO_URI is required for the mongo backend")
		}
	default:
		return errors.ConfigInvalid("unknown store backend: " + config.Store.Backend)
	}
	if config.Reconcile.CanonicalCollection == "" {
		return errors.ConfigInvalid("canonical collection is required")
	}
	if len(config.Reconcile.Candidates) == 0 {
		return errors.ConfigInvalid("at least one candidate collection is required")
	}
	if config.Reconcile.WriteRatePerSec < 0 {
		return errors.ConfigInvalid("write rate cannot be negative")
	}
	if config.Reconcile.IngestConcurrency < 1 {
		config.Reconcile.IngestConcurrency = 1
	}
	return nil
}
