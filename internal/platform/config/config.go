// Package config loads runtime configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the root configuration for the server process.
type Config struct {
	AppName     string `env:"APP_NAME" envDefault:"pokevault"`
	Environment string `env:"APP_ENV" envDefault:"local"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`

	Server   Server
	Auth     Auth
	PokeAPI  PokeAPI
	Postgres Postgres
	Redis    RedisConfig
	Mail     Mail
	Kafka    Kafka
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"25s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Auth configures token signing and the password flows.
type Auth struct {
	JWTSecret string        `env:"JWT_SECRET" envDefault:"dev-secret-key-change-in-production"`
	Issuer    string        `env:"JWT_ISSUER" envDefault:"pokevault"`
	TokenTTL  time.Duration `env:"JWT_TTL" envDefault:"60m"`
	// EnforceRevocation makes RequireAuth consult the revocation list.
	EnforceRevocation bool          `env:"TOKEN_BLACKLIST_ENFORCED" envDefault:"true"`
	PasswordResetTTL  time.Duration `env:"PASSWORD_RESET_TTL" envDefault:"60m"`
	BcryptCost        int           `env:"BCRYPT_COST" envDefault:"10"`
}

// PokeAPI configures the upstream client and its cache policy.
type PokeAPI struct {
	BaseURL          string        `env:"POKEAPI_BASE_URL" envDefault:"https://pokeapi.co/api/v2"`
	Timeout          time.Duration `env:"POKEAPI_TIMEOUT" envDefault:"10s"`
	UserAgent        string        `env:"POKEAPI_USER_AGENT" envDefault:"Pokevault-PokeAPI-Client/1.0"`
	MaxLimit         int           `env:"POKEAPI_MAX_LIMIT" envDefault:"100"`
	DefaultLimit     int           `env:"POKEAPI_DEFAULT_LIMIT" envDefault:"20"`
	SearchMaxResults int           `env:"POKEAPI_SEARCH_MAX_RESULTS" envDefault:"1000"`

	ListTTL      time.Duration `env:"POKEAPI_CACHE_LIST_TTL" envDefault:"60m"`
	DetailTTL    time.Duration `env:"POKEAPI_CACHE_DETAIL_TTL" envDefault:"120m"`
	SpeciesTTL   time.Duration `env:"POKEAPI_CACHE_SPECIES_TTL" envDefault:"120m"`
	TypeTTL      time.Duration `env:"POKEAPI_CACHE_TYPE_TTL" envDefault:"240m"`
	EvolutionTTL time.Duration `env:"POKEAPI_CACHE_EVOLUTION_TTL" envDefault:"240m"`

	BreakerMaxRequests  uint32        `env:"POKEAPI_BREAKER_MAX_REQUESTS" envDefault:"3"`
	BreakerInterval     time.Duration `env:"POKEAPI_BREAKER_INTERVAL" envDefault:"60s"`
	BreakerTimeout      time.Duration `env:"POKEAPI_BREAKER_TIMEOUT" envDefault:"30s"`
	BreakerFailureRatio float64       `env:"POKEAPI_BREAKER_FAILURE_RATIO" envDefault:"0.6"`
	BreakerMinRequests  uint32        `env:"POKEAPI_BREAKER_MIN_REQUESTS" envDefault:"5"`
}

// Postgres configures the durable stores. An empty URL selects in-memory stores.
type Postgres struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"1h"`
}

// RedisConfig configures the shared cache and revocation list. An empty URL
// selects in-memory implementations.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Mail configures outbound e-mail. An empty host logs messages instead.
type Mail struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"MAIL_FROM" envDefault:"no-reply@pokevault.local"`
}

// Kafka configures the audit stream. No brokers means audit events go to the log.
type Kafka struct {
	Brokers    []string `env:"KAFKA_BROKERS" envSeparator:","`
	AuditTopic string   `env:"KAFKA_AUDIT_TOPIC" envDefault:"pokevault.audit"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must not be empty")
	}
	if cfg.PokeAPI.MaxLimit <= 0 {
		return Config{}, fmt.Errorf("POKEAPI_MAX_LIMIT must be positive")
	}
	return cfg, nil
}
