package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	DataService DataServiceConfig
	Feed        FeedConfig
	App         AppConfig
	Identity    IdentityConfig
	Drafting    DraftingConfig
	Projects    ProjectsConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

// DataServiceConfig points at the PostgreSQL database holding projects.
// The access key is applied as the connection password.
type DataServiceConfig struct {
	URL      string
	Key      string
	MaxConns int
	Migrate  bool
}

type FeedConfig struct {
	Driver   string // redis, postgres or none
	RedisURL string
}

type AppConfig struct {
	ID          string
	Environment string
	LogLevel    string
	LogFormat   string
	Version     string
}

type IdentityConfig struct {
	OwnerID      string
	CookieName   string
	CookieMaxAge int
	CookieSecure bool
}

type DraftingConfig struct {
	APIKey        string
	Model         string
	BaseURL       string
	MaxAttempts   int
	BaseDelay     time.Duration
	RatePerMinute int
}

type ProjectsConfig struct {
	CreateDebounce time.Duration
	ViewIdleTTL    time.Duration
	ResyncSchedule string
	SeedEnabled    bool
	SeedDelay      time.Duration
}

const (
	FeedRedis    = "redis"
	FeedPostgres = "postgres"
	FeedNone     = "none"
)

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnvAsList("CORS_ORIGINS", nil),
		},
		DataService: DataServiceConfig{
			URL:      getEnv("DATA_SERVICE_URL", ""),
			Key:      getEnv("DATA_SERVICE_KEY", ""),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
			Migrate:  getEnvAsBool("DB_MIGRATE", true),
		},
		Feed: FeedConfig{
			Driver:   strings.ToLower(getEnv("CHANGE_FEED", FeedRedis)),
			RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		App: AppConfig{
			ID:          getEnv("APP_ID", "portfolio"),
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "json"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Identity: IdentityConfig{
			OwnerID:      getEnv("OWNER_ID", ""),
			CookieName:   getEnv("IDENTITY_COOKIE", "portfolio_uid"),
			CookieMaxAge: getEnvAsInt("IDENTITY_COOKIE_MAX_AGE", 10*365*24*60*60),
			CookieSecure: getEnvAsBool("COOKIE_SECURE", false),
		},
		Drafting: DraftingConfig{
			APIKey:        getEnv("GENAI_API_KEY", ""),
			Model:         getEnv("GENAI_MODEL", "gemini-2.5-flash"),
			BaseURL:       getEnv("GENAI_BASE_URL", ""),
			MaxAttempts:   getEnvAsInt("DRAFT_MAX_ATTEMPTS", 3),
			BaseDelay:     getEnvAsDuration("DRAFT_BASE_DELAY", time.Second),
			RatePerMinute: getEnvAsInt("DRAFT_RATE_PER_MINUTE", 20),
		},
		Projects: ProjectsConfig{
			CreateDebounce: getEnvAsDuration("CREATE_DEBOUNCE", 300*time.Millisecond),
			ViewIdleTTL:    getEnvAsDuration("VIEW_IDLE_TTL", 2*time.Minute),
			ResyncSchedule: getEnv("RESYNC_SCHEDULE", "@every 5m"),
			SeedEnabled:    getEnvAsBool("SEED_ENABLED", true),
			SeedDelay:      getEnvAsDuration("SEED_DELAY", 2*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Feed.Driver {
	case FeedRedis, FeedPostgres, FeedNone:
	default:
		return fmt.Errorf("CHANGE_FEED must be one of redis, postgres, none (got %q)", c.Feed.Driver)
	}

	if c.Drafting.MaxAttempts < 1 {
		return fmt.Errorf("DRAFT_MAX_ATTEMPTS must be at least 1")
	}

	return nil
}

// Ready reports whether both the endpoint and the access key are present.
// Without them the data handle stays unset and data operations are disabled.
func (d DataServiceConfig) Ready() bool {
	return strings.TrimSpace(d.URL) != "" && strings.TrimSpace(d.Key) != ""
}

// DSN returns the connection string with the access key applied as password.
func (d DataServiceConfig) DSN() (string, error) {
	if !d.Ready() {
		return "", fmt.Errorf("DATA_SERVICE_URL and DATA_SERVICE_KEY are required")
	}

	if strings.HasPrefix(d.URL, "postgres://") || strings.HasPrefix(d.URL, "postgresql://") {
		u, err := url.Parse(d.URL)
		if err != nil {
			return "", fmt.Errorf("parse DATA_SERVICE_URL: %w", err)
		}
		user := "postgres"
		if u.User != nil && u.User.Username() != "" {
			user = u.User.Username()
		}
		u.User = url.UserPassword(user, d.Key)
		return u.String(), nil
	}

	// key=value form
	return strings.TrimSpace(d.URL) + " password=" + quoteDSNValue(d.Key), nil
}

func quoteDSNValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
