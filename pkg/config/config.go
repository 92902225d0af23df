package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App    AppConfig
	DB     DBConfig
	Redis  RedisConfig
	Brevo  BrevoConfig
	Sync   SyncConfig
	Outbox OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TESTIZER_APP_ENV" default:"development"`
	Port         string `envconfig:"TESTIZER_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"TESTIZER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TESTIZER_LOG_WARN_STACK" default:"false"`
	DryRun       bool   `envconfig:"TESTIZER_DRY_RUN" default:"true"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"TESTIZER_DB_DSN" required:"true"`

	MaxOpenConns    int           `envconfig:"TESTIZER_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"TESTIZER_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"TESTIZER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TESTIZER_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"TESTIZER_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL         string        `envconfig:"TESTIZER_REDIS_URL"`
	Address     string        `envconfig:"TESTIZER_REDIS_ADDR"`
	Password    string        `envconfig:"TESTIZER_REDIS_PASSWORD"`
	DB          int           `envconfig:"TESTIZER_REDIS_DB" default:"0"`
	DialTimeout time.Duration `envconfig:"TESTIZER_REDIS_DIAL_TIMEOUT" default:"5s"`
}

type BrevoConfig struct {
	APIKey            string        `envconfig:"TESTIZER_BREVO_API_KEY"`
	BaseURL           string        `envconfig:"TESTIZER_BREVO_BASE_URL" default:"https://api.brevo.com/v3"`
	LanguageListID    int64         `envconfig:"TESTIZER_BREVO_LANGUAGE_LIST_ID" default:"0"`
	NonLanguageListID int64         `envconfig:"TESTIZER_BREVO_NON_LANGUAGE_LIST_ID" default:"0"`
	MaxRetries        int           `envconfig:"TESTIZER_BREVO_MAX_RETRIES" default:"3"`
	BaseBackoff       time.Duration `envconfig:"TESTIZER_BREVO_BASE_BACKOFF" default:"500ms"`
	Timeout           time.Duration `envconfig:"TESTIZER_BREVO_TIMEOUT" default:"10s"`
}

type SyncConfig struct {
	MaxRowsPerType  int           `envconfig:"TESTIZER_SYNC_MAX_ROWS_PER_TYPE" default:"100"`
	PurchaseMaxRows int           `envconfig:"TESTIZER_SYNC_PURCHASE_MAX_ROWS" default:"100"`
	LookbackDays    int           `envconfig:"TESTIZER_SYNC_CANDIDATE_LOOKBACK_DAYS" default:"30"`
	CronInterval    time.Duration `envconfig:"TESTIZER_SYNC_CRON_INTERVAL" default:"1h"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TESTIZER_OUTBOX_BATCH_SIZE" default:"100"`
	PollIntervalMS int `envconfig:"TESTIZER_OUTBOX_POLL_MS" default:"500"`
	RetentionDays  int `envconfig:"TESTIZER_OUTBOX_RETENTION_DAYS" default:"30"`
}
