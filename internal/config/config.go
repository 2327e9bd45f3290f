package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Records  RecordsConfig
	Server   ServerConfig
	Auth     AuthConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// RecordsConfig describes where account records are read from
type RecordsConfig struct {
	Source     string // "postgres" or "demo"
	Database   DatabaseConfig
	Table      string
	KeyColumn  string
	DateMarker string // columns whose name contains it are coerced to dates
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TrustedProxies string   // comma-separated CIDR ranges
	AllowedOrigins []string // CORS
}

type AuthConfig struct {
	AccessSecretHash    string
	AccessSecret        string // deprecated plain-text secret
	SessionSecret       string
	SessionIdleTimeout  time.Duration
	SessionMaxAge       time.Duration
	SessionSweepPeriod  time.Duration
	SessionMaxLive      int
	CookieSecure        bool
	MaxFailedAttempts   int
	LockoutDuration     time.Duration
	LoginRequestsPerMin int
	TimingDelayBaseMs   int
	TimingDelayRandomMs int
}

// MissingError names a required configuration value that is absent
type MissingError struct {
	Key string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s is required", e.Key)
}

const (
	RecordsSourcePostgres = "postgres"
	RecordsSourceDemo     = "demo"
)

// Load reads the full server configuration and validates it
func Load() (*Config, error) {
	cfg := load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStores reads the configuration but only requires the store connection
// settings. Used by the admin CLI, which never verifies secrets or issues sessions.
func LoadStores() (*Config, error) {
	cfg := load()
	if err := cfg.validateStores(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load() *Config {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: loadDatabase("DB_", DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			Name:    "accountdesk",
			SSLMode: "disable",
		}),
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			TrustedProxies: getEnv("TRUSTED_PROXIES", ""),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		},
		Auth: AuthConfig{
			AccessSecretHash:    getEnv("ACCESS_SECRET_HASH", ""),
			AccessSecret:        getEnv("ACCESS_SECRET", ""),
			SessionSecret:       getEnv("SESSION_SECRET", ""),
			SessionIdleTimeout:  getEnvAsDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
			SessionMaxAge:       getEnvAsDuration("SESSION_MAX_AGE", 12*time.Hour),
			SessionSweepPeriod:  getEnvAsDuration("SESSION_SWEEP_PERIOD", 1*time.Minute),
			SessionMaxLive:      getEnvAsInt("SESSION_MAX_LIVE", 10000),
			CookieSecure:        getEnvAsBool("COOKIE_SECURE", env == "production"),
			MaxFailedAttempts:   getEnvAsInt("LOCKOUT_MAX_ATTEMPTS", 5),
			LockoutDuration:     getEnvAsDuration("LOCKOUT_DURATION", 30*time.Second),
			LoginRequestsPerMin: getEnvAsInt("LOGIN_REQUESTS_PER_MINUTE", 20),
			TimingDelayBaseMs:   getEnvAsInt("TIMING_DELAY_BASE_MS", 250),
			TimingDelayRandomMs: getEnvAsInt("TIMING_DELAY_RANDOM_MS", 150),
		},
	}

	cfg.Records = RecordsConfig{
		Source:     strings.ToLower(getEnv("RECORDS_SOURCE", RecordsSourcePostgres)),
		Database:   loadDatabase("RECORDS_DB_", cfg.Database),
		Table:      getEnv("RECORDS_TABLE", "base_segmentacion"),
		KeyColumn:  getEnv("RECORDS_KEY_COLUMN", "idcuenta"),
		DateMarker: strings.ToLower(getEnv("RECORDS_DATE_MARKER", "fecha")),
	}

	return cfg
}

// Validate checks required values and ranges
func (c *Config) Validate() error {
	if err := c.validateStores(); err != nil {
		return err
	}
	if c.Auth.AccessSecretHash == "" && c.Auth.AccessSecret == "" {
		return &MissingError{Key: "ACCESS_SECRET_HASH (or deprecated ACCESS_SECRET)"}
	}
	if c.Auth.SessionSecret == "" {
		return &MissingError{Key: "SESSION_SECRET"}
	}
	if err := validateSessionSecret(c.Auth.SessionSecret, c.Server.Env); err != nil {
		return err
	}
	if c.Auth.MaxFailedAttempts < 1 {
		return fmt.Errorf("LOCKOUT_MAX_ATTEMPTS must be at least 1 (got %d)", c.Auth.MaxFailedAttempts)
	}
	if c.Auth.LockoutDuration <= 0 {
		return fmt.Errorf("LOCKOUT_DURATION must be positive (got %s)", c.Auth.LockoutDuration)
	}
	return nil
}

func (c *Config) validateStores() error {
	if c.Database.Password == "" {
		return &MissingError{Key: "DB_PASSWORD"}
	}
	if c.Records.Source == RecordsSourcePostgres && c.Records.Database.Password == "" {
		return &MissingError{Key: "RECORDS_DB_PASSWORD"}
	}
	if c.Records.Source != RecordsSourcePostgres && c.Records.Source != RecordsSourceDemo {
		return fmt.Errorf("RECORDS_SOURCE must be %q or %q (got %q)",
			RecordsSourcePostgres, RecordsSourceDemo, c.Records.Source)
	}
	if c.Records.Table == "" {
		return &MissingError{Key: "RECORDS_TABLE"}
	}
	if c.Records.KeyColumn == "" {
		return &MissingError{Key: "RECORDS_KEY_COLUMN"}
	}
	return nil
}

// validateSessionSecret enforces minimum security standards for the token signing secret
func validateSessionSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("SESSION_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// loadDatabase reads a database section under prefix, falling back to def
func loadDatabase(prefix string, def DatabaseConfig) DatabaseConfig {
	return DatabaseConfig{
		Host:              getEnv(prefix+"HOST", def.Host),
		Port:              getEnvAsInt(prefix+"PORT", def.Port),
		User:              getEnv(prefix+"USER", def.User),
		Password:          getEnv(prefix+"PASSWORD", def.Password),
		Name:              getEnv(prefix+"NAME", def.Name),
		SSLMode:           getEnv(prefix+"SSLMODE", def.SSLMode),
		MaxConns:          int32(getEnvAsInt(prefix+"MAX_CONNS", intOr(int(def.MaxConns), 10))),
		MinConns:          int32(getEnvAsInt(prefix+"MIN_CONNS", intOr(int(def.MinConns), 1))),
		MaxConnLifetime:   getEnvAsDuration(prefix+"MAX_CONN_LIFETIME", durationOr(def.MaxConnLifetime, 5*time.Minute)),
		MaxConnIdleTime:   getEnvAsDuration(prefix+"MAX_CONN_IDLE_TIME", durationOr(def.MaxConnIdleTime, 1*time.Minute)),
		HealthCheckPeriod: getEnvAsDuration(prefix+"HEALTH_CHECK_PERIOD", durationOr(def.HealthCheckPeriod, 1*time.Minute)),
	}
}

func intOr(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v == 0 {
		return fallback
	}
	return v
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvAsList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
