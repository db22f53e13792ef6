package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	infraconfig "github.com/huzhengnan/website-monitor-sub000/infrastructure/config"
	"github.com/huzhengnan/website-monitor-sub000/internal/scoring"
)

const (
	defaultServerPort        = 8060
	defaultSyncSchedule      = "0 3 * * *"
	defaultSyncDays          = 3
	defaultSyncTimeout       = 30
	defaultSyncRate          = 5.0
	defaultSyncBurst         = 1
	defaultRecomputeBatch    = 200
	defaultMetadataTimeout   = 10
	defaultMaxImportFileSize = 10 << 20
)

type Config struct {
	Debug     bool                       `env:"APP_DEBUG" yaml:"debug"`
	Server    infraconfig.ServerConfig   `yaml:"server"`
	Database  infraconfig.DatabaseConfig `yaml:"database"`
	Redis     infraconfig.RedisConfig    `yaml:"redis"`
	Logging   infraconfig.LoggingConfig  `yaml:"logging"`
	Auth      AuthConfig                 `yaml:"auth"`
	Scoring   scoring.Calibration        `yaml:"scoring"`
	Sync      SyncConfig                 `yaml:"sync"`
	Recompute RecomputeConfig            `yaml:"recompute"`
	Import    ImportConfig               `yaml:"import"`
	Metadata  MetadataConfig             `yaml:"metadata"`
}

type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"`
}

// SyncConfig controls the scheduled Google Analytics / Search Console sync.
type SyncConfig struct {
	Enabled           bool          `env:"SYNC_ENABLED"  yaml:"enabled"`
	Schedule          string        `env:"SYNC_SCHEDULE" yaml:"schedule"`
	Days              int           `env:"SYNC_DAYS"     yaml:"days"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

// RecomputeConfig controls bulk importance recomputation.
type RecomputeConfig struct {
	BatchSize int `env:"RECOMPUTE_BATCH_SIZE" yaml:"batch_size"`
}

type ImportConfig struct {
	MaxFileSize int64 `yaml:"max_file_size"`
}

type MetadataConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if c.Sync.Enabled {
		if _, err := cron.ParseStandard(c.Sync.Schedule); err != nil {
			return fmt.Errorf("sync.schedule: %w", err)
		}
	}
	if c.Sync.Days < 1 {
		return errors.New("sync.days must be positive")
	}
	if c.Recompute.BatchSize < 1 {
		return errors.New("recompute.batch_size must be positive")
	}
	return nil
}

func Load(path string) (*Config, error) {
	cfg, err := infraconfig.LoadWithDefaults(path, setDefaults)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultServerPort
	}
	cfg.Server.SetDefaults()
	cfg.Database.SetDefaults()
	cfg.Redis.SetDefaults()
	cfg.Logging.SetDefaults()
	if cfg.Debug && cfg.Logging.Level == "info" {
		cfg.Logging.Level = "debug"
	}

	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"http://localhost:3000"}
	}

	cfg.Scoring = cfg.Scoring.WithDefaults()

	if cfg.Sync.Schedule == "" {
		cfg.Sync.Schedule = defaultSyncSchedule
	}
	if cfg.Sync.Days == 0 {
		cfg.Sync.Days = defaultSyncDays
	}
	if cfg.Sync.RequestTimeout == 0 {
		cfg.Sync.RequestTimeout = defaultSyncTimeout * time.Second
	}
	if cfg.Sync.RequestsPerSecond == 0 {
		cfg.Sync.RequestsPerSecond = defaultSyncRate
	}
	if cfg.Sync.Burst == 0 {
		cfg.Sync.Burst = defaultSyncBurst
	}

	if cfg.Recompute.BatchSize == 0 {
		cfg.Recompute.BatchSize = defaultRecomputeBatch
	}
	if cfg.Import.MaxFileSize == 0 {
		cfg.Import.MaxFileSize = defaultMaxImportFileSize
	}
	if cfg.Metadata.Timeout == 0 {
		cfg.Metadata.Timeout = defaultMetadataTimeout * time.Second
	}
}
