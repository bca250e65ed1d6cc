package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is applied by envconfig to unprefixed struct fields.
const EnvPrefix = "vintagecloset"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Stripe   StripeConfig
	Supabase SupabaseConfig
	OpenAI   OpenAIConfig
	Checkout CheckoutConfig
	Cron     CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env            string   `envconfig:"VINTAGECLOSET_APP_ENV" required:"true"`
	Port           string   `envconfig:"VINTAGECLOSET_APP_PORT" required:"true"`
	LogLevel       string   `envconfig:"VINTAGECLOSET_LOG_LEVEL" default:"info"`
	LogWarnStack   bool     `envconfig:"VINTAGECLOSET_LOG_WARN_STACK" default:"false"`
	AllowedOrigins []string `envconfig:"VINTAGECLOSET_ALLOWED_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VINTAGECLOSET_DB_DSN" required:"true"`
	Driver string `envconfig:"VINTAGECLOSET_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"VINTAGECLOSET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VINTAGECLOSET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VINTAGECLOSET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VINTAGECLOSET_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"VINTAGECLOSET_DB_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VINTAGECLOSET_REDIS_URL"`
	Address      string        `envconfig:"VINTAGECLOSET_REDIS_ADDR"`
	Password     string        `envconfig:"VINTAGECLOSET_REDIS_PASSWORD"`
	DB           int           `envconfig:"VINTAGECLOSET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VINTAGECLOSET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VINTAGECLOSET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VINTAGECLOSET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VINTAGECLOSET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VINTAGECLOSET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type StripeConfig struct {
	APIKey string `envconfig:"VINTAGECLOSET_STRIPE_API_KEY"`
	Secret string `envconfig:"VINTAGECLOSET_STRIPE_WEBHOOK_SECRET"`
	Env    string `envconfig:"VINTAGECLOSET_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// SupabaseConfig carries the hosted-platform credentials. Auth and storage stay
// delegated to Supabase; the backend only verifies the JWTs it issues.
type SupabaseConfig struct {
	URL            string `envconfig:"VINTAGECLOSET_SUPABASE_URL"`
	AnonKey        string `envconfig:"VINTAGECLOSET_SUPABASE_ANON_KEY"`
	ServiceRoleKey string `envconfig:"VINTAGECLOSET_SUPABASE_SERVICE_ROLE_KEY"`
	JWTSecret      string `envconfig:"VINTAGECLOSET_SUPABASE_JWT_SECRET"`
}

type OpenAIConfig struct {
	APIKey string `envconfig:"VINTAGECLOSET_OPENAI_API_KEY"`
}

type CheckoutConfig struct {
	SuccessURL     string        `envconfig:"VINTAGECLOSET_CHECKOUT_SUCCESS_URL" default:"https://vintagecloset.app/checkout/success?session_id={CHECKOUT_SESSION_ID}"`
	CancelURL      string        `envconfig:"VINTAGECLOSET_CHECKOUT_CANCEL_URL" default:"https://vintagecloset.app/checkout/cancelled"`
	Currency       string        `envconfig:"VINTAGECLOSET_CHECKOUT_CURRENCY" default:"eur"`
	ReservationTTL time.Duration `envconfig:"VINTAGECLOSET_CHECKOUT_RESERVATION_TTL" default:"30m"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"VINTAGECLOSET_CRON_INTERVAL" default:"10m"`
	LockTTL  time.Duration `envconfig:"VINTAGECLOSET_CRON_LOCK_TTL" default:"5m"`
}
