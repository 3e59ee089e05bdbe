package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Checkout      CheckoutConfig
	Stripe        StripeConfig
	Square        SquareConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Worker        WorkerConfig
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
	Env          string `envconfig:"MOTOCAFE_APP_ENV" required:"true"`
	Port         string `envconfig:"MOTOCAFE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MOTOCAFE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MOTOCAFE_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"MOTOCAFE_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MOTOCAFE_DB_DSN"`
	Driver string `envconfig:"MOTOCAFE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"MOTOCAFE_DB_HOST"`
	Port     int    `envconfig:"MOTOCAFE_DB_PORT" default:"5432"`
	User     string `envconfig:"MOTOCAFE_DB_USER"`
	Password string `envconfig:"MOTOCAFE_DB_PASSWORD"`
	Name     string `envconfig:"MOTOCAFE_DB_NAME"`
	SSLMode  string `envconfig:"MOTOCAFE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MOTOCAFE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MOTOCAFE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MOTOCAFE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MOTOCAFE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MOTOCAFE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MOTOCAFE_REDIS_ADDR"`
	Password     string        `envconfig:"MOTOCAFE_REDIS_PASSWORD"`
	DB           int           `envconfig:"MOTOCAFE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MOTOCAFE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MOTOCAFE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MOTOCAFE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MOTOCAFE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MOTOCAFE_REDIS_WRITE_TIMEOUT" default:"5s"`

	WebhookGuardTTL time.Duration `envconfig:"MOTOCAFE_WEBHOOK_GUARD_TTL" default:"72h"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MOTOCAFE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MOTOCAFE_JWT_ISSUER" default:"motocafe"`
	ExpirationMinutes int    `envconfig:"MOTOCAFE_JWT_EXPIRATION_MINUTES" default:"720"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MOTOCAFE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MOTOCAFE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MOTOCAFE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MOTOCAFE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MOTOCAFE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"MOTOCAFE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"MOTOCAFE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"MOTOCAFE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type CheckoutConfig struct {
	Currency   string `envconfig:"MOTOCAFE_CURRENCY" default:"usd"`
	SuccessURL string `envconfig:"MOTOCAFE_CHECKOUT_SUCCESS_URL" default:"http://localhost:3000/checkout/success"`
	CancelURL  string `envconfig:"MOTOCAFE_CHECKOUT_CANCEL_URL" default:"http://localhost:3000/checkout/cancel"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"MOTOCAFE_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"MOTOCAFE_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"MOTOCAFE_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SquareConfig struct {
	AccessToken   string `envconfig:"MOTOCAFE_SQUARE_ACCESS_TOKEN"`
	WebhookSecret string `envconfig:"MOTOCAFE_SQUARE_WEBHOOK_SECRET"`
	// WebhookURL must match the notification URL registered with Square;
	// it is part of the webhook signature input.
	WebhookURL string `envconfig:"MOTOCAFE_SQUARE_WEBHOOK_URL"`
	LocationID string `envconfig:"MOTOCAFE_SQUARE_LOCATION_ID"`
	Env        string `envconfig:"MOTOCAFE_SQUARE_ENV" default:"sandbox"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type GCPConfig struct {
	ProjectID string `envconfig:"MOTOCAFE_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"MOTOCAFE_PUBSUB_ORDERS_TOPIC" default:"motocafe-order-events"`
	OrdersSubscription string `envconfig:"MOTOCAFE_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MOTOCAFE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MOTOCAFE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MOTOCAFE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type WorkerConfig struct {
	BatchSize      int `envconfig:"MOTOCAFE_WORKER_BATCH_SIZE" default:"20"`
	PollIntervalMS int `envconfig:"MOTOCAFE_WORKER_POLL_MS" default:"1000"`
	MaxAttempts    int `envconfig:"MOTOCAFE_WORKER_MAX_ATTEMPTS" default:"8"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
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
