package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Catalog sources.
const (
	CatalogEmbedded = "embedded"
	CatalogFile     = "file"
	CatalogNotion   = "notion"
)

// Config holds the full application configuration.
type Config struct {
	Store         StoreConfig         `yaml:"store" mapstructure:"store"`
	Catalog       CatalogConfig       `yaml:"catalog" mapstructure:"catalog"`
	Notion        NotionConfig        `yaml:"notion" mapstructure:"notion"`
	Flow          FlowConfig          `yaml:"flow" mapstructure:"flow"`
	Contradiction ContradictionConfig `yaml:"contradiction" mapstructure:"contradiction"`
	Scoring       ScoringConfig       `yaml:"scoring" mapstructure:"scoring"`
	Monitoring    MonitoringConfig    `yaml:"monitoring" mapstructure:"monitoring"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Log           LogConfig           `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend. For sqlite, DatabaseURL is a
// file path.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// CatalogConfig selects where the question catalog is loaded from.
type CatalogConfig struct {
	Source string `yaml:"source" mapstructure:"source"`
	// Path is a JSON or YAML question file, used when Source is "file".
	Path string `yaml:"path" mapstructure:"path"`
	// MaxPriority drops questions below this priority (P0..P3). Empty keeps all.
	MaxPriority string `yaml:"max_priority" mapstructure:"max_priority"`
	// RefreshIntervalSecs reloads file and notion catalogs while serving.
	// Zero disables reloading.
	RefreshIntervalSecs int `yaml:"refresh_interval_secs" mapstructure:"refresh_interval_secs"`
}

// NotionConfig holds Notion API credentials for the question database.
type NotionConfig struct {
	Token      string  `yaml:"token" mapstructure:"token"`
	QuestionDB string  `yaml:"question_db" mapstructure:"question_db"`
	RateLimit  float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// FlowConfig configures question sequencing.
type FlowConfig struct {
	// RulesPath overrides the built-in branch and deep-dive tables.
	RulesPath string `yaml:"rules_path" mapstructure:"rules_path"`
}

// ContradictionConfig configures contradiction detection.
type ContradictionConfig struct {
	// RulesPath overrides the built-in contradiction table.
	RulesPath string `yaml:"rules_path" mapstructure:"rules_path"`
}

// ScoringConfig configures the composite score.
type ScoringConfig struct {
	// Weights per dimension. Dimensions without a weight count as 1.
	Weights map[string]float64 `yaml:"weights" mapstructure:"weights"`
	// Inverted dimensions contribute 100 - value (higher is worse).
	Inverted []string    `yaml:"inverted" mapstructure:"inverted"`
	Bands    BandsConfig `yaml:"bands" mapstructure:"bands"`
}

// BandsConfig holds the exclusive upper bound of each maturity level.
// Anything at or above Managed is "optimized".
type BandsConfig struct {
	Initial    float64 `yaml:"initial" mapstructure:"initial"`
	Developing float64 `yaml:"developing" mapstructure:"developing"`
	Defined    float64 `yaml:"defined" mapstructure:"defined"`
	Managed    float64 `yaml:"managed" mapstructure:"managed"`
}

// MonitoringConfig configures session health checks and alert delivery.
type MonitoringConfig struct {
	Enabled                  bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL               string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs        int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours      int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	AbandonRateThreshold     float64 `yaml:"abandon_rate_threshold" mapstructure:"abandon_rate_threshold"`
	AnalyzerFailureThreshold float64 `yaml:"analyzer_failure_threshold" mapstructure:"analyzer_failure_threshold"`
	StaleSessionHours        int     `yaml:"stale_session_hours" mapstructure:"stale_session_hours"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging. When File is set, logs are also written to
// a rotated file.
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"`
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ASSESSMENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "assessment.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("catalog.source", CatalogEmbedded)
	v.SetDefault("notion.rate_limit", 3.0)
	v.SetDefault("scoring.weights", map[string]float64{
		"strategy_maturity":     1.0,
		"digital_maturity":      1.0,
		"marketing_maturity":    1.0,
		"sales_effectiveness":   1.0,
		"financial_health":      1.5,
		"operations_efficiency": 1.0,
		"people_maturity":       1.0,
		"customer_experience":   1.0,
		"risk_score":            1.0,
		"innovation_index":      0.5,
	})
	v.SetDefault("scoring.inverted", []string{"risk_score"})
	v.SetDefault("scoring.bands.initial", 20.0)
	v.SetDefault("scoring.bands.developing", 40.0)
	v.SetDefault("scoring.bands.defined", 60.0)
	v.SetDefault("scoring.bands.managed", 80.0)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.abandon_rate_threshold", 0.5)
	v.SetDefault("monitoring.analyzer_failure_threshold", 0.1)
	v.SetDefault("monitoring.stale_session_hours", 72)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks cross-field constraints that defaults cannot express.
func (c *Config) Validate() error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}

	switch c.Catalog.Source {
	case CatalogEmbedded:
	case CatalogFile:
		if c.Catalog.Path == "" {
			errs = append(errs, "catalog.path is required for the file source")
		}
	case CatalogNotion:
		if c.Notion.Token == "" || c.Notion.QuestionDB == "" {
			errs = append(errs, "notion.token and notion.question_db are required for the notion source")
		}
	default:
		errs = append(errs, "catalog.source must be embedded, file or notion")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be in 1..65535")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: invalid: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}

	if cfg.File != "" {
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(newRotatingFile(cfg)),
			zapCfg.Level,
		)
		logger = logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, fileCore)
		}))
	}

	zap.ReplaceGlobals(logger)

	return nil
}

func newRotatingFile(cfg LogConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   os.ExpandEnv(cfg.File),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
}
