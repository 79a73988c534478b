// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	ProviderSupabase = "supabase"
	ProviderLocal    = "local"
)

type Config struct {
	App          AppConfig          `koanf:"app"`
	Server       ServerConfig       `koanf:"server"`
	Database     DatabaseConfig     `koanf:"database"`
	Redis        RedisConfig        `koanf:"redis"`
	Identity     IdentityConfig     `koanf:"identity"`
	JWT          JWTConfig          `koanf:"jwt"`
	Registration RegistrationConfig `koanf:"registration"`
	Events       EventsConfig       `koanf:"events"`
	Broker       BrokerConfig       `koanf:"broker"`
	RateLimit    RateLimitConfig    `koanf:"rate_limit"`
	CORS         CORSConfig         `koanf:"cors"`
	Log          LogConfig          `koanf:"log"`
	Otel         OtelConfig         `koanf:"otel"`
	Metrics      MetricsConfig      `koanf:"metrics"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

// IdentityConfig selects the identity provider that owns credentials.
// "local" keeps accounts in this database and is meant for development.
type IdentityConfig struct {
	Provider       string        `koanf:"provider"`
	URL            string        `koanf:"url"`
	AnonKey        string        `koanf:"anon_key"`
	ServiceRoleKey string        `koanf:"service_role_key"`
	Timeout        time.Duration `koanf:"timeout"`
}

type JWTConfig struct {
	Secret            string        `koanf:"secret"`
	Audience          string        `koanf:"audience"`
	Issuer            string        `koanf:"issuer"`
	Leeway            time.Duration `koanf:"leeway"`
	AccessTokenExpire time.Duration `koanf:"access_token_expire"`
}

type RegistrationConfig struct {
	DailyQuota  int    `koanf:"daily_quota"`
	DefaultPlan string `koanf:"default_plan"`
}

type EventsConfig struct {
	OwnerLimit int `koanf:"owner_limit"`
}

type BrokerConfig struct {
	Enabled  bool   `koanf:"enabled"`
	URL      string `koanf:"url"`
	Exchange string `koanf:"exchange"`
}

type RateLimitConfig struct {
	Requests     int           `koanf:"requests"`
	Window       time.Duration `koanf:"window"`
	Burst        int           `koanf:"burst"`
	AuthRequests int           `koanf:"auth_requests"`
	AuthBurst    int           `koanf:"auth_burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

var (
	cfg  *Config
	once sync.Once
)

// Load builds the process configuration once: defaults, then the optional
// YAML file, then environment variables.
func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Meetstack",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.auto_migrate":       true,

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"identity.provider": ProviderSupabase,
		"identity.timeout":  "10s",

		"jwt.audience":            "authenticated",
		"jwt.issuer":              "meetstack",
		"jwt.leeway":              "30s",
		"jwt.access_token_expire": "1h",

		"registration.daily_quota":  40,
		"registration.default_plan": "free",

		"events.owner_limit": 2,

		"broker.enabled":  false,
		"broker.exchange": "meetstack.events",

		"rate_limit.requests":      100,
		"rate_limit.window":        "1m",
		"rate_limit.burst":         20,
		"rate_limit.auth_requests": 10,
		"rate_limit.auth_burst":    5,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "meetstack-backend",

		"metrics.enabled": true,
		"metrics.path":    "/metrics",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"DATABASE_AUTO_MIGRATE":       "database.auto_migrate",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"IDENTITY_PROVIDER":           "identity.provider",
	"SUPABASE_URL":                "identity.url",
	"SUPABASE_KEY":                "identity.anon_key",
	"SUPABASE_SERVICE_ROLE_KEY":   "identity.service_role_key",
	"SUPABASE_JWT_SECRET":         "jwt.secret",
	"JWT_AUDIENCE":                "jwt.audience",
	"JWT_ISSUER":                  "jwt.issuer",
	"JWT_ACCESS_TOKEN_EXPIRE":     "jwt.access_token_expire",
	"DAILY_FREE_QUOTA":            "registration.daily_quota",
	"DEFAULT_PLAN":                "registration.default_plan",
	"EVENT_OWNER_LIMIT":           "events.owner_limit",
	"BROKER_ENABLED":              "broker.enabled",
	"BROKER_URL":                  "broker.url",
	"BROKER_EXCHANGE":             "broker.exchange",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"RATE_LIMIT_AUTH_REQUESTS":    "rate_limit.auth_requests",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"METRICS_ENABLED":             "metrics.enabled",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}

	if c.JWT.Leeway < 0 {
		return fmt.Errorf("jwt.leeway must not be negative")
	}

	switch c.Identity.Provider {
	case ProviderSupabase:
		if c.Identity.URL == "" {
			return fmt.Errorf("SUPABASE_URL is required")
		}
		if c.Identity.AnonKey == "" {
			return fmt.Errorf("SUPABASE_KEY is required")
		}
	case ProviderLocal:
		if c.App.Environment == "production" {
			return fmt.Errorf("local identity provider cannot run in production")
		}
	default:
		return fmt.Errorf("unknown identity provider %q", c.Identity.Provider)
	}

	if c.Registration.DailyQuota < 0 {
		return fmt.Errorf("registration.daily_quota must not be negative")
	}

	if c.Registration.DefaultPlan == "" {
		return fmt.Errorf("registration.default_plan is required")
	}

	if c.Events.OwnerLimit < 1 {
		return fmt.Errorf("events.owner_limit must be positive")
	}

	if c.Broker.Enabled && c.Broker.URL == "" {
		return fmt.Errorf("BROKER_URL is required when the broker is enabled")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
