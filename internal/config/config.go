package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port       string
	Production bool

	MongoURI string
	MongoDB  string
	// "mongo" or "memory"; memory is for local runs without a database
	Store string

	JWTSecret    string
	SessionTTL   time.Duration
	CookieName   string
	CookieSecure bool

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	OAuthStateSecret   string

	RabbitURL         string
	RabbitExchange    string
	RabbitQueue       string
	RabbitBindKey     string
	RabbitConcurrency int

	RedisAddr       string
	RateLimitPerMin int
	RateLimitIdle   time.Duration

	AllowedOrigins []string
	StageStrict    bool
	DDEnabled      bool
	DDService      string
}

const (
	defaultJWTSecret   = "default_secret_key"
	defaultStateSecret = "default_state_secret"
)

var defaults = map[string]any{
	"APP_PORT":             "8080",
	"PRODUCTION":           false,
	"MONGO_URI":            "mongodb://localhost:27017",
	"MONGO_DB":             "devfinder",
	"STORE":                "mongo",
	"JWT_SECRET":           defaultJWTSecret,
	"SESSION_TTL_HOURS":    24 * 30,
	"SESSION_COOKIE":       "devfinder_session",
	"COOKIE_SECURE":        false,
	"GOOGLE_CLIENT_ID":     "",
	"GOOGLE_CLIENT_SECRET": "",
	"GOOGLE_REDIRECT_URL":  "http://localhost:8080/auth/google/callback",
	"OAUTH_STATE_SECRET":   defaultStateSecret,
	"RABBIT_URL":           "",
	"RABBIT_EXCHANGE":      "devfinder.events",
	"RABBIT_QUEUE":         "devfinder.notify",
	"RABBIT_BIND_KEY":      "connection.*",
	"RABBIT_CONCURRENCY":   4,
	"REDIS_ADDR":           "",
	"RATE_LIMIT_PER_MIN":   30,
	"RATE_LIMIT_IDLE_MIN":  10,
	"ALLOWED_ORIGINS":      "*",
	"STAGE_STRICT":         false,
	"DD_ENABLED":           false,
	"DD_SERVICE":           "devfinder-api",
}

// Load reads an optional .env file, then the environment.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	return Config{
		Port:       v.GetString("APP_PORT"),
		Production: v.GetBool("PRODUCTION"),

		MongoURI: v.GetString("MONGO_URI"),
		MongoDB:  v.GetString("MONGO_DB"),
		Store:    strings.ToLower(v.GetString("STORE")),

		JWTSecret:    v.GetString("JWT_SECRET"),
		SessionTTL:   time.Duration(v.GetInt("SESSION_TTL_HOURS")) * time.Hour,
		CookieName:   v.GetString("SESSION_COOKIE"),
		CookieSecure: v.GetBool("COOKIE_SECURE"),

		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
		OAuthStateSecret:   v.GetString("OAUTH_STATE_SECRET"),

		RabbitURL:         v.GetString("RABBIT_URL"),
		RabbitExchange:    v.GetString("RABBIT_EXCHANGE"),
		RabbitQueue:       v.GetString("RABBIT_QUEUE"),
		RabbitBindKey:     v.GetString("RABBIT_BIND_KEY"),
		RabbitConcurrency: v.GetInt("RABBIT_CONCURRENCY"),

		RedisAddr:       v.GetString("REDIS_ADDR"),
		RateLimitPerMin: v.GetInt("RATE_LIMIT_PER_MIN"),
		RateLimitIdle:   time.Duration(v.GetInt("RATE_LIMIT_IDLE_MIN")) * time.Minute,

		AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		StageStrict:    v.GetBool("STAGE_STRICT"),
		DDEnabled:      v.GetBool("DD_ENABLED"),
		DDService:      v.GetString("DD_SERVICE"),
	}
}

// CheckProduction rejects settings that are only acceptable on a developer machine.
// It is a no-op unless Production is set.
func (c Config) CheckProduction() error {
	if !c.Production {
		return nil
	}
	var problems []string
	if c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret {
		problems = append(problems, "JWT_SECRET must be set")
	}
	if c.OAuthStateSecret == "" || c.OAuthStateSecret == defaultStateSecret {
		problems = append(problems, "OAUTH_STATE_SECRET must be set")
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			problems = append(problems, "ALLOWED_ORIGINS must list origins, not *")
		}
	}
	if len(c.AllowedOrigins) == 0 {
		problems = append(problems, "ALLOWED_ORIGINS must list origins")
	}
	if len(problems) > 0 {
		return fmt.Errorf("production config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
