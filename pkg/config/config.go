package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "propdesk"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PROPDESK_DB_DSN"
	EnvDBHost = "PROPDESK_DB_HOST"
	EnvDBUser = "PROPDESK_DB_USER"
	EnvDBName = "PROPDESK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Cryptopay    CryptopayConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"PROPDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"PROPDESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PROPDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PROPDESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PROPDESK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PROPDESK_DB_DSN"`
	Driver string `envconfig:"PROPDESK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PROPDESK_DB_HOST"`
	LegacyPort     int    `envconfig:"PROPDESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PROPDESK_DB_USER"`
	LegacyPassword string `envconfig:"PROPDESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"PROPDESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"PROPDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PROPDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PROPDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PROPDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PROPDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
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

type RedisConfig struct {
	URL          string        `envconfig:"PROPDESK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PROPDESK_REDIS_ADDR"`
	Password     string        `envconfig:"PROPDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"PROPDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PROPDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PROPDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PROPDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PROPDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PROPDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PROPDESK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PROPDESK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PROPDESK_JWT_EXPIRATION_MINUTES" default:"60"`
}

// CryptopayConfig carries the crypto payment processor credentials. The IPN
// secret signs inbound webhook notifications and is provisioned out-of-band.
type CryptopayConfig struct {
	BaseURL        string        `envconfig:"PROPDESK_CRYPTOPAY_BASE_URL" default:"https://api.cryptopay.dev"`
	APIKey         string        `envconfig:"PROPDESK_CRYPTOPAY_API_KEY"`
	IPNSecret      string        `envconfig:"PROPDESK_CRYPTOPAY_IPN_SECRET"`
	RequestTimeout time.Duration `envconfig:"PROPDESK_CRYPTOPAY_REQUEST_TIMEOUT" default:"15s"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"PROPDESK_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"PROPDESK_CRON_LOCK_TTL" default:"25h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PROPDESK_AUTO_MIGRATE" default:"false"`
}
