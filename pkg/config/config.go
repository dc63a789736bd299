package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "teamshots"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "TEAMSHOTS_DB_DSN"
	EnvDBHost = "TEAMSHOTS_DB_HOST"
	EnvDBUser = "TEAMSHOTS_DB_USER"
	EnvDBName = "TEAMSHOTS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Selfie        SelfieConfig
	PubSub        PubSubConfig
	Stripe        StripeConfig
	Outbox        OutboxConfig
	Cron          CronConfig
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
	Env          string `envconfig:"TEAMSHOTS_APP_ENV" required:"true"`
	Port         string `envconfig:"TEAMSHOTS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TEAMSHOTS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TEAMSHOTS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TEAMSHOTS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TEAMSHOTS_DB_DSN"`
	Driver string `envconfig:"TEAMSHOTS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TEAMSHOTS_DB_HOST"`
	LegacyPort     int    `envconfig:"TEAMSHOTS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TEAMSHOTS_DB_USER"`
	LegacyPassword string `envconfig:"TEAMSHOTS_DB_PASSWORD"`
	LegacyName     string `envconfig:"TEAMSHOTS_DB_NAME"`
	LegacySSLMode  string `envconfig:"TEAMSHOTS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TEAMSHOTS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TEAMSHOTS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TEAMSHOTS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TEAMSHOTS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TEAMSHOTS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TEAMSHOTS_REDIS_ADDR"`
	Password     string        `envconfig:"TEAMSHOTS_REDIS_PASSWORD"`
	DB           int           `envconfig:"TEAMSHOTS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TEAMSHOTS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TEAMSHOTS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TEAMSHOTS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TEAMSHOTS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TEAMSHOTS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"TEAMSHOTS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"TEAMSHOTS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"TEAMSHOTS_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"TEAMSHOTS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TEAMSHOTS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TEAMSHOTS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TEAMSHOTS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TEAMSHOTS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TEAMSHOTS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"TEAMSHOTS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"TEAMSHOTS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"TEAMSHOTS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"TEAMSHOTS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"TEAMSHOTS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"TEAMSHOTS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TEAMSHOTS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TEAMSHOTS_AUTO_MIGRATE" default:"false"`
	// ReturnInviteToken exposes the raw invite token in API responses so dev
	// environments without a mail sender can complete the flow.
	ReturnInviteToken bool `envconfig:"TEAMSHOTS_RETURN_INVITE_TOKEN" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TEAMSHOTS_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"TEAMSHOTS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TEAMSHOTS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"TEAMSHOTS_GCS_BUCKET_NAME" required:"true"`
	UploadURLExpiry   time.Duration `envconfig:"TEAMSHOTS_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	DownloadURLExpiry time.Duration `envconfig:"TEAMSHOTS_GCS_DOWNLOAD_URL_EXPIRY" default:"1h"`
}

type SelfieConfig struct {
	MaxUploadMB   int `envconfig:"TEAMSHOTS_SELFIE_MAX_UPLOAD_MB" default:"20"`
	MinPerRequest int `envconfig:"TEAMSHOTS_SELFIE_MIN_PER_GENERATION" default:"1"`
	MaxPerRequest int `envconfig:"TEAMSHOTS_SELFIE_MAX_PER_GENERATION" default:"8"`
	MaxPerPerson  int `envconfig:"TEAMSHOTS_SELFIE_MAX_PER_PERSON" default:"40"`
}

type PubSubConfig struct {
	GenerationJobsTopic   string `envconfig:"TEAMSHOTS_PUBSUB_GENERATION_JOBS_TOPIC" required:"true"`
	GenerationStatusTopic string `envconfig:"TEAMSHOTS_PUBSUB_GENERATION_STATUS_TOPIC" required:"true"`
	GenerationStatusSub   string `envconfig:"TEAMSHOTS_PUBSUB_GENERATION_STATUS_SUBSCRIPTION" required:"true"`
	DomainEventsTopic     string `envconfig:"TEAMSHOTS_PUBSUB_DOMAIN_EVENTS_TOPIC" default:"teamshots-domain-events"`
}

type StripeConfig struct {
	APIKey string `envconfig:"TEAMSHOTS_STRIPE_API_KEY"`
	Secret string `envconfig:"TEAMSHOTS_STRIPE_SECRET"`
	Env    string `envconfig:"TEAMSHOTS_STRIPE_ENV" default:"test"`
	// SuccessURL/CancelURL are where Stripe Checkout redirects the browser.
	SuccessURL string `envconfig:"TEAMSHOTS_STRIPE_SUCCESS_URL"`
	CancelURL  string `envconfig:"TEAMSHOTS_STRIPE_CANCEL_URL"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TEAMSHOTS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TEAMSHOTS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TEAMSHOTS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	InviteSweepInterval     time.Duration `envconfig:"TEAMSHOTS_CRON_INVITE_SWEEP_INTERVAL" default:"1h"`
	StuckGenerationAge      time.Duration `envconfig:"TEAMSHOTS_CRON_STUCK_GENERATION_AGE" default:"2h"`
	GenerationSweepInterval time.Duration `envconfig:"TEAMSHOTS_CRON_GENERATION_SWEEP_INTERVAL" default:"15m"`
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
