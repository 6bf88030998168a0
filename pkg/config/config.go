package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Push         PushConfig
	Scheduler    SchedulerConfig
	Trigger      TriggerConfig
	Mail         MailConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Push.validate(); err != nil {
		return nil, err
	}
	if _, err := cfg.Scheduler.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DURENT_APP_ENV" required:"true"`
	Port         string `envconfig:"DURENT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DURENT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DURENT_LOG_WARN_STACK" default:"false"`
	// comma separated
	CORSOrigins []string `envconfig:"DURENT_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"DURENT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"DURENT_DB_DSN"`
	Driver string `envconfig:"DURENT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DURENT_DB_HOST"`
	LegacyPort     int    `envconfig:"DURENT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DURENT_DB_USER"`
	LegacyPassword string `envconfig:"DURENT_DB_PASSWORD"`
	LegacyName     string `envconfig:"DURENT_DB_NAME"`
	LegacySSLMode  string `envconfig:"DURENT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DURENT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DURENT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DURENT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DURENT_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"DURENT_DB_SLOW_QUERY_THRESHOLD" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DURENT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DURENT_REDIS_ADDR"`
	Password     string        `envconfig:"DURENT_REDIS_PASSWORD"`
	DB           int           `envconfig:"DURENT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DURENT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DURENT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DURENT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DURENT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DURENT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds the verification side of the access tokens issued by the
// auth service.
type JWTConfig struct {
	Secret            string `envconfig:"DURENT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DURENT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"DURENT_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool   `envconfig:"DURENT_USE_SQLITE" default:"false"`
	SQLitePath  string `envconfig:"DURENT_SQLITE_PATH" default:"durent.db"`
	AutoMigrate bool   `envconfig:"DURENT_AUTO_MIGRATE" default:"false"`
}

type PushConfig struct {
	Provider            string        `envconfig:"DURENT_PUSH_PROVIDER" default:"expo"`
	ExpoBaseURL         string        `envconfig:"DURENT_EXPO_BASE_URL" default:"https://exp.host"`
	ExpoAccessToken     string        `envconfig:"DURENT_EXPO_ACCESS_TOKEN"`
	FirebaseCredentials string        `envconfig:"DURENT_FIREBASE_CREDENTIALS_FILE"`
	FirebaseCredsJSON   string        `envconfig:"DURENT_FIREBASE_CREDENTIALS_JSON"`
	FirebaseProjectID   string        `envconfig:"DURENT_FIREBASE_PROJECT_ID"`
	Timeout             time.Duration `envconfig:"DURENT_PUSH_TIMEOUT" default:"10s"`
}

func (p PushConfig) NormalizedProvider() string {
	provider := strings.ToLower(strings.TrimSpace(p.Provider))
	if provider == "" {
		return PushProviderExpo
	}
	return provider
}

func (p PushConfig) validate() error {
	switch p.NormalizedProvider() {
	case PushProviderExpo:
		return nil
	case PushProviderFCM:
		if p.FirebaseCredentials == "" && p.FirebaseCredsJSON == "" {
			return fmt.Errorf("%s or %s required for fcm push", EnvFirebaseCredentialsFile, EnvFirebaseCredentialsJSON)
		}
		return nil
	default:
		return fmt.Errorf("unsupported push provider %q", p.Provider)
	}
}

// SchedulerConfig carries the cron expressions for the worker. The defaults
// fire at 10:00 and 20:00 in UTC+4 when evaluated in UTC.
type SchedulerConfig struct {
	Timezone             string        `envconfig:"DURENT_SCHEDULER_TIMEZONE" default:"UTC"`
	PaymentRemindersCron string        `envconfig:"DURENT_PAYMENT_REMINDERS_CRON" default:"0 6 * * *"`
	ZoneDigestCron       string        `envconfig:"DURENT_ZONE_DIGEST_CRON" default:"0 16 * * *"`
	EndRequestSweepCron  string        `envconfig:"DURENT_END_REQUEST_SWEEP_CRON" default:"0 * * * *"`
	ReminderLeadDays     int           `envconfig:"DURENT_REMINDER_LEAD_DAYS" default:"3"`
	DedupTTL             time.Duration `envconfig:"DURENT_SCHEDULER_DEDUP_TTL" default:"25h"`
}

func (s SchedulerConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(s.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvSchedulerTimezone, name, err)
	}
	return loc, nil
}

type TriggerConfig struct {
	Secret          string        `envconfig:"DURENT_TRIGGER_SECRET"`
	RateLimitWindow time.Duration `envconfig:"DURENT_TRIGGER_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimit       int           `envconfig:"DURENT_TRIGGER_RATE_LIMIT" default:"5"`

	// TrustedProxyHops counts reverse proxies that append to X-Forwarded-For.
	TrustedProxyHops int `envconfig:"DURENT_TRUSTED_PROXY_HOPS" default:"0"`
}

type MailConfig struct {
	ResendAPIKey string `envconfig:"DURENT_RESEND_API_KEY"`
	FromEmail    string `envconfig:"DURENT_MAIL_FROM" default:"duRent <no-reply@durent.app>"`
}

func (m MailConfig) Enabled() bool {
	return strings.TrimSpace(m.ResendAPIKey) != ""
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
