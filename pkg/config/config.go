package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every Nexus environment variable.
	EnvPrefix = "nexus"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Payments      PaymentsConfig
	Fulfillment   FulfillmentConfig
	Disclosure    DisclosureConfig
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
	Env          string `envconfig:"NEXUS_APP_ENV" required:"true"`
	Port         string `envconfig:"NEXUS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"NEXUS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NEXUS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"NEXUS_DB_DSN"`
	Driver string `envconfig:"NEXUS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"NEXUS_DB_HOST"`
	Port     int    `envconfig:"NEXUS_DB_PORT" default:"5432"`
	User     string `envconfig:"NEXUS_DB_USER"`
	Password string `envconfig:"NEXUS_DB_PASSWORD"`
	Name     string `envconfig:"NEXUS_DB_NAME"`
	SSLMode  string `envconfig:"NEXUS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NEXUS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NEXUS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NEXUS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NEXUS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NEXUS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"NEXUS_REDIS_ADDR"`
	Password     string        `envconfig:"NEXUS_REDIS_PASSWORD"`
	DB           int           `envconfig:"NEXUS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NEXUS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NEXUS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NEXUS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NEXUS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NEXUS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"NEXUS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"NEXUS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"NEXUS_JWT_EXPIRATION_MINUTES" default:"30"`
	RefreshTokenTTLMinutes int    `envconfig:"NEXUS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"NEXUS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"NEXUS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"NEXUS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"NEXUS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"NEXUS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"NEXUS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"NEXUS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"NEXUS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"NEXUS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"NEXUS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"NEXUS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"NEXUS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"NEXUS_AUTO_MIGRATE" default:"false"`
}

type PaymentsConfig struct {
	SimulatedDelay time.Duration `envconfig:"NEXUS_PAYMENTS_SIMULATED_DELAY" default:"2500ms"`
	FailureRate    float64       `envconfig:"NEXUS_PAYMENTS_FAILURE_RATE" default:"0"`
}

type FulfillmentConfig struct {
	StageInterval   time.Duration `envconfig:"NEXUS_FULFILLMENT_STAGE_INTERVAL" default:"30s"`
	PendingOrderTTL time.Duration `envconfig:"NEXUS_PENDING_ORDER_TTL" default:"24h"`
}

type DisclosureConfig struct {
	// Placeholder shown in place of a key whose ciphertext cannot be decoded.
	DecodePlaceholder string `envconfig:"NEXUS_DISCLOSURE_DECODE_PLACEHOLDER" default:"Erreur de décodage"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for _, pair := range []struct {
		envVar string
		value  string
	}{
		{"NEXUS_DB_HOST", db.Host},
		{"NEXUS_DB_USER", db.User},
		{"NEXUS_DB_NAME", db.Name},
	} {
		if pair.value == "" {
			missing = append(missing, pair.envVar)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either NEXUS_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
