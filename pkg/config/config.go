package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every variable the service reads.
const EnvPrefix = "CARTRACE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced in validation messages.
const (
	EnvDBDSN  = "CARTRACE_DB_DSN"
	EnvDBHost = "CARTRACE_DB_HOST"
	EnvDBUser = "CARTRACE_DB_USER"
	EnvDBName = "CARTRACE_DB_NAME"
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
	Eventing      EventingConfig
	Chain         ChainConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"CARTRACE_APP_ENV" required:"true"`
	Port         string `envconfig:"CARTRACE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CARTRACE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CARTRACE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CARTRACE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CARTRACE_DB_DSN"`
	Driver string `envconfig:"CARTRACE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CARTRACE_DB_HOST"`
	LegacyPort     int    `envconfig:"CARTRACE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CARTRACE_DB_USER"`
	LegacyPassword string `envconfig:"CARTRACE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CARTRACE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CARTRACE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CARTRACE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CARTRACE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CARTRACE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CARTRACE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CARTRACE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CARTRACE_REDIS_ADDR"`
	Password     string        `envconfig:"CARTRACE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CARTRACE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CARTRACE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CARTRACE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CARTRACE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CARTRACE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CARTRACE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CARTRACE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CARTRACE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CARTRACE_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CARTRACE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CARTRACE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CARTRACE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CARTRACE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CARTRACE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"CARTRACE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"CARTRACE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"CARTRACE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"CARTRACE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"CARTRACE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"CARTRACE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CARTRACE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CARTRACE_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"CARTRACE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

// ChainConfig configures the Ethereum anchoring client. Every stage event,
// order, and order item is mirrored onto the traceability contract.
type ChainConfig struct {
	RPCURL          string        `envconfig:"CARTRACE_CHAIN_RPC_URL" required:"true"`
	ChainID         int64         `envconfig:"CARTRACE_CHAIN_ID" required:"true"`
	ContractAddress string        `envconfig:"CARTRACE_CHAIN_CONTRACT_ADDRESS" required:"true"`
	PrivateKeyHex   string        `envconfig:"CARTRACE_CHAIN_PRIVATE_KEY" required:"true"`
	ConfirmTimeout  time.Duration `envconfig:"CARTRACE_CHAIN_CONFIRM_TIMEOUT" default:"90s"`
	GasLimit        uint64        `envconfig:"CARTRACE_CHAIN_GAS_LIMIT" default:"0"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CARTRACE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"CARTRACE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CARTRACE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	TrackingTopic        string `envconfig:"CARTRACE_PUBSUB_TRACKING_TOPIC" required:"true"`
	TrackingSubscription string `envconfig:"CARTRACE_PUBSUB_TRACKING_SUBSCRIPTION" required:"true"`
}

type BigQueryConfig struct {
	Dataset          string `envconfig:"CARTRACE_BIGQUERY_DATASET" default:"cartrace"`
	StageEventsTable string `envconfig:"CARTRACE_BIGQUERY_STAGE_EVENTS_TABLE" default:"stage_events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CARTRACE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CARTRACE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CARTRACE_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
