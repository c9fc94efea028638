package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// PlaceholderBackendURL is the sample value shipped in .env templates.
const PlaceholderBackendURL = "https://your-project.supabase.co"

type Config struct {
	Env     string
	Port    int
	SiteURL string

	Backend   BackendConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Session   SessionConfig
	Access    AccessConfig
	OAuth     OAuthConfig
	ViewCache ViewCacheConfig
	Activity  ActivityConfig
	CORS      CORSConfig
	Log       LogConfig
}

// BackendConfig holds the location and public key of the data/auth backend.
type BackendConfig struct {
	URL     string
	AnonKey string
}

// Configured reports whether the backend credentials look usable.
func (b BackendConfig) Configured() bool {
	url := strings.TrimSpace(b.URL)
	key := strings.TrimSpace(b.AnonKey)
	return url != "" && key != "" && url != PlaceholderBackendURL
}

type DatabaseConfig struct {
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SessionConfig configures session cookies and token lifetimes.
type SessionConfig struct {
	AccessCookieName  string
	RefreshCookieName string
	CookieSecure      bool
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	RecoveryTokenTTL  time.Duration
}

// AccessConfig configures role resolution for the access gate.
type AccessConfig struct {
	AdminOverrideEmails []string
}

// OAuthConfig holds third-party sign-in credentials.
type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string
	StateTTL           time.Duration
}

// ViewCacheConfig governs cached page payloads and their invalidation.
type ViewCacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// ActivityConfig sizes the activity log writer pool.
type ActivityConfig struct {
	Workers    int
	MaxRetries int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.SiteURL = strings.TrimRight(v.GetString("SITE_URL"), "/")

	cfg.Backend = BackendConfig{
		URL:     v.GetString("DATABASE_URL"),
		AnonKey: v.GetString("BACKEND_ANON_KEY"),
	}

	cfg.Database = DatabaseConfig{
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Session = SessionConfig{
		AccessCookieName:  v.GetString("SESSION_COOKIE_NAME"),
		RefreshCookieName: v.GetString("REFRESH_COOKIE_NAME"),
		CookieSecure:      v.GetBool("COOKIE_SECURE"),
		AccessTokenTTL:    parseDuration(v.GetString("ACCESS_TOKEN_TTL"), time.Hour),
		RefreshTokenTTL:   parseDuration(v.GetString("REFRESH_TOKEN_TTL"), 7*24*time.Hour),
		RecoveryTokenTTL:  parseDuration(v.GetString("RECOVERY_TOKEN_TTL"), time.Hour),
	}

	cfg.Access = AccessConfig{
		AdminOverrideEmails: splitAndTrim(v.GetString("ADMIN_OVERRIDE_EMAILS")),
	}

	cfg.OAuth = OAuthConfig{
		GoogleClientID:     v.GetString("OAUTH_GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("OAUTH_GOOGLE_CLIENT_SECRET"),
		GitHubClientID:     v.GetString("OAUTH_GITHUB_CLIENT_ID"),
		GitHubClientSecret: v.GetString("OAUTH_GITHUB_CLIENT_SECRET"),
		StateTTL:           parseDuration(v.GetString("OAUTH_STATE_TTL"), 10*time.Minute),
	}

	cfg.ViewCache = ViewCacheConfig{
		Enabled: v.GetBool("ENABLE_VIEW_CACHE"),
		TTL:     parseDuration(v.GetString("VIEW_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Activity = ActivityConfig{
		Workers:    v.GetInt("ACTIVITY_WORKERS"),
		MaxRetries: v.GetInt("ACTIVITY_MAX_RETRIES"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("SITE_URL", "http://localhost:8080")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("BACKEND_ANON_KEY", "")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SESSION_COOKIE_NAME", "osms-access-token")
	v.SetDefault("REFRESH_COOKIE_NAME", "osms-refresh-token")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("ACCESS_TOKEN_TTL", "1h")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")
	v.SetDefault("RECOVERY_TOKEN_TTL", "1h")

	v.SetDefault("ADMIN_OVERRIDE_EMAILS", "admin@gmail.com,admin@uu.edu")

	v.SetDefault("OAUTH_GOOGLE_CLIENT_ID", "")
	v.SetDefault("OAUTH_GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("OAUTH_GITHUB_CLIENT_ID", "")
	v.SetDefault("OAUTH_GITHUB_CLIENT_SECRET", "")
	v.SetDefault("OAUTH_STATE_TTL", "10m")

	v.SetDefault("ENABLE_VIEW_CACHE", false)
	v.SetDefault("VIEW_CACHE_TTL", "5m")

	v.SetDefault("ACTIVITY_WORKERS", 2)
	v.SetDefault("ACTIVITY_MAX_RETRIES", 3)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
