package config

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server    ServerConfig    `env:",prefix=SERVER_"`
	Postgres  PostgresConfig  `env:",prefix=POSTGRES_"`
	Redis     RedisConfig     `env:",prefix=REDIS_"`
	HH        HHConfig        `env:",prefix=HH_"`
	Session   SessionConfig   `env:",prefix=SESSION_"`
	Apply     ApplyConfig     `env:",prefix=APPLY_"`
	App       AppConfig       `env:",prefix=APP_"`
	RateLimit RateLimitConfig `env:",prefix=RATE_LIMIT_"`
	CORS      CORSConfig      `env:",prefix=CORS_"`
	Env       string          `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=60s"`
}

type PostgresConfig struct {
	Host        string `env:"HOST,default=localhost"`
	Port        string `env:"PORT,default=5432"`
	User        string `env:"USER,default=hh_autoapply"`
	Password    string `env:"PASSWORD,default=hh_autoapply_password"`
	DBName      string `env:"DB,default=hh_autoapply_db"`
	SSLMode     string `env:"SSLMODE,default=disable"`
	AutoMigrate bool   `env:"AUTO_MIGRATE,default=true"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

// HHConfig holds the job board OAuth client registration and endpoints.
type HHConfig struct {
	ClientID       string   `env:"CLIENT_ID,required"`
	ClientSecret   string   `env:"CLIENT_SECRET,required"`
	RedirectURI    string   `env:"REDIRECT_URI,required"`
	AuthURL        string   `env:"AUTH_URL,default=https://hh.ru/oauth/authorize"`
	TokenURL       string   `env:"TOKEN_URL,default=https://hh.ru/oauth/token"`
	APIBaseURL     string   `env:"API_BASE_URL,default=https://api.hh.ru"`
	UserAgent      string   `env:"USER_AGENT,default=hh-autoapply/1.0 (support@hh-autoapply.local)"`
	RequestTimeout Duration `env:"REQUEST_TIMEOUT,default=10s"`
}

type SessionConfig struct {
	Secret     string   `env:"SECRET,required"`
	TTL        Duration `env:"TTL,default=7d"`
	StorageTTL Duration `env:"STORAGE_TTL,default=1d"`
	Secure     bool     `env:"COOKIE_SECURE,default=true"`
}

// ApplyConfig paces bulk runs. A run stops starting new submissions once RunBudget has elapsed,
// so its tally is written before the server write timeout.
type ApplyConfig struct {
	Delay      Duration `env:"DELAY,default=1s"`
	DailyLimit int      `env:"DAILY_LIMIT,default=20"`
	RunBudget  Duration `env:"RUN_BUDGET,default=35s"`
}

// AppConfig points at the UI pages the browser flow lands on.
type AppConfig struct {
	SuccessRedirect string `env:"SUCCESS_REDIRECT,default=http://localhost:3000/dashboard"`
	FailureRedirect string `env:"FAILURE_REDIRECT,default=http://localhost:3000/auth/error"`
}

type RateLimitConfig struct {
	Requests int      `env:"REQUESTS,default=10"`
	Window   Duration `env:"WINDOW,default=1m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters long")
	}

	redirect, err := url.Parse(c.HH.RedirectURI)
	if err != nil || redirect.Scheme == "" || redirect.Host == "" {
		return fmt.Errorf("HH_REDIRECT_URI must be an absolute URL")
	}

	if c.HH.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("HH_REQUEST_TIMEOUT must be positive")
	}

	if c.Apply.Delay.Duration < 0 {
		return fmt.Errorf("APPLY_DELAY must not be negative")
	}

	if c.Apply.DailyLimit < 0 {
		return fmt.Errorf("APPLY_DAILY_LIMIT must not be negative")
	}

	// one submission started at the budget edge may still spend two provider calls
	if c.Apply.RunBudget.Duration <= 0 ||
		c.Apply.RunBudget.Duration+2*c.HH.RequestTimeout.Duration > c.Server.WriteTimeout.Duration {
		return fmt.Errorf("APPLY_RUN_BUDGET must be positive and leave room for two HH_REQUEST_TIMEOUT calls within SERVER_WRITE_TIMEOUT")
	}

	return nil
}
