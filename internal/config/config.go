package config // package config loads application configuration from environment variables

import (
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"

	"github.com/joho/godotenv" // godotenv loads a local .env file into the environment

	"github.com/iliyamo/sakila-admin/internal/logging"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Database credentials live only here, on the
// server side; nothing below is ever sent to a browser.
type Config struct {
	Env             string        // application environment (e.g. "dev", "prod")
	Port            string        // HTTP port to listen on
	DBUser          string        // database username
	DBPass          string        // database password (optional)
	DBHost          string        // database host address
	DBPort          string        // database port number
	DBName          string        // database name (the Sakila schema)
	JWTSecret       string        // secret used to sign JWTs
	AccessTTLMin    int           // access token time‑to‑live in minutes
	RefreshTTLDays  int           // refresh token time‑to‑live in days
	BcryptCost      int           // bcrypt cost for password hashing
	QueryTimeout    time.Duration // upper bound for a single data-access query
	DefaultPageSize int           // page size used when a request omits page_size
	MaxPageSize     int           // larger page sizes are capped to this value
	SchemaCacheTTL  time.Duration // lifetime of a memoized table-existence answer
	ReportsPath     string        // optional YAML file overriding the reporting schema
	LogLevel        string
	LogFormat       string
	// Optional first ADMIN account, created at startup when missing.
	BootstrapEmail    string
	BootstrapPassword string
}

// LoadDotEnv loads .env from the working directory when it exists.  A
// missing file is not an error; real environment variables always win.
func LoadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(); err != nil {
		logging.Warn().Err(err).Msg("could not read .env")
	}
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:             must("APP_ENV"),
		Port:            must("APP_PORT"),
		DBUser:          must("DB_USER"),
		DBPass:          os.Getenv("DB_PASS"), // empty allowed
		DBHost:          must("DB_HOST"),
		DBPort:          must("DB_PORT"),
		DBName:          must("DB_NAME"),
		JWTSecret:       must("JWT_SECRET"),
		AccessTTLMin:    mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays:  mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:      mustInt("BCRYPT_COST"),
		QueryTimeout:    envDur("QUERY_TIMEOUT", 5*time.Second),
		DefaultPageSize: envInt("DEFAULT_PAGE_SIZE", 25),
		MaxPageSize:     envInt("MAX_PAGE_SIZE", 100),
		SchemaCacheTTL:  envDur("SCHEMA_CACHE_TTL", 5*time.Minute),
		ReportsPath:     os.Getenv("REPORTS_PATH"),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		LogFormat:       envStr("LOG_FORMAT", "json"),

		BootstrapEmail:    os.Getenv("ADMIN_BOOTSTRAP_EMAIL"),
		BootstrapPassword: os.Getenv("ADMIN_BOOTSTRAP_PASSWORD"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logging.Fatal().Str("key", key).Msg("missing required env var")
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		logging.Fatal().Str("key", key).Str("value", s).Msg("invalid int env var")
	}
	return n
}
