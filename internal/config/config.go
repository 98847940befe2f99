package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	LogLevel    string
	CORSOrigins []string

	JWTSecret       string
	JWTAccessExpiry time.Duration

	Hire  HireConfig
	AMQP  AMQPConfig
	OAuth OAuthProviders

	// FrontendCallbackURL receives the one-time sign-in code after a
	// provider callback.
	FrontendCallbackURL string
}

// HireConfig bounds how long a hire may wait on contended gig rows.
type HireConfig struct {
	MaxRetries  uint64
	Timeout     time.Duration
	LockTimeout time.Duration
}

type AMQPConfig struct {
	URL      string
	Exchange string
}

type OAuthProviders struct {
	GitHub OAuthConfig
	GitLab OAuthConfig
	Google OAuthConfig
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),

		JWTSecret:       getEnvOrPanic("JWT_SECRET"),
		JWTAccessExpiry: getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),

		Hire: HireConfig{
			MaxRetries:  getUint("HIRE_MAX_RETRIES", 3),
			Timeout:     getDuration("HIRE_TIMEOUT", 5*time.Second),
			LockTimeout: getDuration("LOCK_TIMEOUT", 2*time.Second),
		},

		AMQP: AMQPConfig{
			URL:      getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "gigflow.notifications"),
		},

		OAuth: OAuthProviders{
			GitHub: oauthConfig("GITHUB"),
			GitLab: oauthConfig("GITLAB"),
			Google: oauthConfig("GOOGLE"),
		},
		FrontendCallbackURL: getEnv("FRONTEND_CALLBACK_URL", "http://localhost:5173/auth/callback"),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) RelayEnabled() bool {
	return c.AMQP.URL != ""
}

func oauthConfig(prefix string) OAuthConfig {
	return OAuthConfig{
		ClientID:     getEnv(prefix+"_CLIENT_ID", ""),
		ClientSecret: getEnv(prefix+"_CLIENT_SECRET", ""),
		RedirectURL:  getEnv(prefix+"_REDIRECT_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return d
}

func getUint(key string, fallback uint64) uint64 {
	n, err := strconv.ParseUint(getEnv(key, ""), 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
