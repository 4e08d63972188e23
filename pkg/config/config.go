package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the engine reads.
	EnvPrefix = "ZETTA"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "ZETTA_APP_ENV"
	EnvDBDSN  = "ZETTA_DB_DSN"
	EnvDBHost = "ZETTA_DB_HOST"
	EnvDBUser = "ZETTA_DB_USER"
	EnvDBName = "ZETTA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Admin        AdminConfig
	FeatureFlags FeatureFlagsConfig
	Settlement   SettlementConfig
	Outbox       OutboxConfig
	Webhook      WebhookConfig
	PubSub       PubSubConfig
	Jobs         JobsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ZETTA_APP_ENV" required:"true"`
	Port         string `envconfig:"ZETTA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ZETTA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ZETTA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ZETTA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ZETTA_DB_DSN"`
	Driver string `envconfig:"ZETTA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ZETTA_DB_HOST"`
	LegacyPort     int    `envconfig:"ZETTA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ZETTA_DB_USER"`
	LegacyPassword string `envconfig:"ZETTA_DB_PASSWORD"`
	LegacyName     string `envconfig:"ZETTA_DB_NAME"`
	LegacySSLMode  string `envconfig:"ZETTA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ZETTA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ZETTA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ZETTA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ZETTA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ZETTA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ZETTA_REDIS_ADDR"`
	Password     string        `envconfig:"ZETTA_REDIS_PASSWORD"`
	DB           int           `envconfig:"ZETTA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ZETTA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ZETTA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ZETTA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ZETTA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ZETTA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// AdminConfig guards the administrative HTTP surface. An empty key is a
// configuration error surfaced at request time, not a boot failure.
type AdminConfig struct {
	APIKey string `envconfig:"ZETTA_ADMIN_API_KEY"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ZETTA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ZETTA_AUTO_MIGRATE" default:"false"`
}

// SettlementConfig carries the documented fallbacks used when no fee
// schedule row exists, plus the retry cap for failed payouts.
type SettlementConfig struct {
	FallbackStandardFeeBps int64  `envconfig:"ZETTA_SETTLEMENT_FALLBACK_STANDARD_FEE_BPS" default:"1000"`
	FallbackVIPFeeBps      int64  `envconfig:"ZETTA_SETTLEMENT_FALLBACK_VIP_FEE_BPS" default:"700"`
	FallbackHoldDays       int    `envconfig:"ZETTA_SETTLEMENT_FALLBACK_HOLD_DAYS" default:"7"`
	FallbackMinPayout      int64  `envconfig:"ZETTA_SETTLEMENT_FALLBACK_MIN_PAYOUT" default:"10000"`
	FallbackFrequency      string `envconfig:"ZETTA_SETTLEMENT_FALLBACK_FREQUENCY" default:"weekly"`
	PayoutRetryCap         int    `envconfig:"ZETTA_SETTLEMENT_PAYOUT_RETRY_CAP" default:"3"`
}

type OutboxConfig struct {
	BatchSize       int           `envconfig:"ZETTA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS  int           `envconfig:"ZETTA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	FailThreshold   int           `envconfig:"ZETTA_OUTBOX_FAIL_THRESHOLD" default:"5"`
	RetentionDays   int           `envconfig:"ZETTA_OUTBOX_RETENTION_DAYS" default:"30"`
	DeliveryTimeout time.Duration `envconfig:"ZETTA_OUTBOX_DELIVERY_TIMEOUT" default:"15s"`
	Sink            string        `envconfig:"ZETTA_OUTBOX_SINK" default:"log"`
}

type WebhookConfig struct {
	URL    string `envconfig:"ZETTA_WEBHOOK_URL"`
	Secret string `envconfig:"ZETTA_WEBHOOK_SECRET"`
}

type PubSubConfig struct {
	ProjectID   string `envconfig:"ZETTA_PUBSUB_PROJECT_ID"`
	EventsTopic string `envconfig:"ZETTA_PUBSUB_EVENTS_TOPIC" default:"zetta-settlement-events"`
}

type JobsConfig struct {
	PayoutInterval   time.Duration `envconfig:"ZETTA_JOBS_PAYOUT_INTERVAL" default:"24h"`
	OutboxInterval   time.Duration `envconfig:"ZETTA_JOBS_OUTBOX_INTERVAL" default:"1m"`
	CleanupInterval  time.Duration `envconfig:"ZETTA_JOBS_CLEANUP_INTERVAL" default:"24h"`
	LockTTL          time.Duration `envconfig:"ZETTA_JOBS_LOCK_TTL" default:"25h"`
	ProcessBatchSize int           `envconfig:"ZETTA_JOBS_OUTBOX_BATCH_SIZE" default:"100"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
