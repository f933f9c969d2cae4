package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the dashboard backend configuration loaded from environment
// variables. Defaults target local development.
type Config struct {
	AppName string
	Env     string // development, staging, production
	Port    string
	GinMode string

	// MongoDB (document store + credentials)
	MongoURI            string
	MongoDatabase       string
	MongoConnectTimeout time.Duration
	ChangeStreamEnabled bool // requires a replica set

	// Redis (sessions, reset codes, failed sign-in counters)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Sessions
	JWTSecret             string
	SessionTTL            time.Duration
	SessionResolveTimeout time.Duration
	CookieName            string
	CookieDomain          string
	CookieSecure          bool

	// Credential store
	BcryptCost       int
	ResetCodeTTL     time.Duration
	ResetURL         string
	MaxFailedSignIns int
	FailedSignInTTL  time.Duration

	// Mail (reset links)
	MailSendEnabled bool
	MailgunDomain   string
	MailgunAPIKey   string
	MailgunSender   string

	// CORS
	CORSAllowedOrigins string // comma-separated

	HTTPLogEnabled bool
	MetricsEnabled bool
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getbool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid boolean for %s: %v, using default %v", key, err, def)
			return def
		}
		return b
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid int for %s: %v, using default %d", key, err, def)
			return def
		}
		return i
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using default %v", key, err, def)
			return def
		}
		return d
	}
	return def
}

// Load reads configuration from the environment.
func Load() *Config {
	return &Config{
		AppName: getenv("APP_NAME", "medadmin-api"),
		Env:     getenv("APP_ENV", "development"),
		Port:    getenv("API_PORT", "8080"),
		GinMode: getenv("GIN_MODE", "release"),

		MongoURI:            getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:       getenv("MONGO_DATABASE", "medadmin"),
		MongoConnectTimeout: getdur("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		ChangeStreamEnabled: getbool("MONGO_CHANGE_STREAM_ENABLED", false),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getint("REDIS_DB", 0),

		JWTSecret:             getenv("JWT_SECRET", "dev-session-secret"),
		SessionTTL:            getdur("SESSION_TTL", 24*time.Hour),
		SessionResolveTimeout: getdur("SESSION_RESOLVE_TIMEOUT", 5*time.Second),
		CookieName:            getenv("SESSION_COOKIE_NAME", "admin_session"),
		CookieDomain:          getenv("COOKIE_DOMAIN", "localhost"),
		CookieSecure:          getbool("COOKIE_SECURE", false),

		BcryptCost:       getint("BCRYPT_COST", 12),
		ResetCodeTTL:     getdur("RESET_CODE_TTL", time.Hour),
		ResetURL:         getenv("RESET_PASSWORD_URL", "http://localhost:8080/reset-password"),
		MaxFailedSignIns: getint("MAX_FAILED_SIGN_INS", 5),
		FailedSignInTTL:  getdur("FAILED_SIGN_IN_WINDOW", 15*time.Minute),

		MailSendEnabled: getbool("MAIL_SEND_ENABLED", false),
		MailgunDomain:   getenv("MAILGUN_DOMAIN", ""),
		MailgunAPIKey:   getenv("MAILGUN_API_KEY", ""),
		MailgunSender:   getenv("MAILGUN_SENDER", "no-reply@localhost"),

		CORSAllowedOrigins: getenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		HTTPLogEnabled: getbool("HTTP_LOG_ENABLED", false),
		MetricsEnabled: getbool("METRICS_ENABLED", true),
	}
}

// CORSOrigins returns the allowed origins as a slice.
func (c *Config) CORSOrigins() []string {
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			res = append(res, p)
		}
	}
	return res
}
