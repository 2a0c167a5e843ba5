package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32
	DBSchema    string

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// CORS policy for browser clients. Origins support a trailing
	// wildcard port, e.g. "http://127.0.0.1:*".
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("TASKLIST_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("TASKLIST_LOG_LEVEL", "info"),
		LogFormat: EnvString("TASKLIST_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("TASKLIST_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("TASKLIST_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("TASKLIST_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("TASKLIST_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("TASKLIST_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("TASKLIST_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("TASKLIST_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("TASKLIST_DB_MIN_CONNS", 0),
		DBSchema:    EnvString("TASKLIST_DB_SCHEMA", "tasklist"),

		ReadinessRequireDB: EnvBool("TASKLIST_READINESS_REQUIRE_DB", false),

		CORSAllowedOrigins:   EnvStringList("TASKLIST_CORS_ALLOWED_ORIGINS", nil),
		CORSAllowCredentials: EnvBool("TASKLIST_CORS_ALLOW_CREDENTIALS", false),
		CORSMaxAgeSeconds:    EnvInt("TASKLIST_CORS_MAX_AGE_SECONDS", 600),
	}
}
