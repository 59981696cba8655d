package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	TokenFormatJWT    = "jwt"
	TokenFormatPaseto = "paseto"

	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"

	// MinTokenKeyLength is the minimum signing secret size in bytes
	MinTokenKeyLength = 32
	// MinBcryptCost keeps password hashing deliberately slow
	MinBcryptCost = 10
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins
}

type DatabaseConfig struct {
	Driver         string // postgres or sqlite
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	ChannelBinding string // "require" for Neon DB, empty for local
	Path           string // sqlite database file
	MaxOpenConns   int
	MaxIdleConns   int
	AutoMigrate    bool
}

type AuthConfig struct {
	// TokenKey is the symmetric secret used to sign or encrypt session tokens.
	// It must never be logged.
	TokenKey       []byte
	TokenFormat    string
	TokenDuration  time.Duration
	PasswordHasher string
	BcryptCost     int
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var parseErrs []error
	duration := func(key string, defaultValue time.Duration) time.Duration {
		d, err := getDurationEnv(key, defaultValue)
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		return d
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "dev"),
			ReadTimeout:     duration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    duration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: duration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:8080"}),
		},
		Database: loadDatabase(),
		Auth: AuthConfig{
			TokenKey:       []byte(getEnv("TOKEN_KEY", "")),
			TokenFormat:    strings.ToLower(getEnv("TOKEN_FORMAT", TokenFormatJWT)),
			TokenDuration:  duration("TOKEN_TTL", 2*time.Hour),
			PasswordHasher: strings.ToLower(getEnv("PASSWORD_HASHER", HasherBcrypt)),
			BcryptCost:     getIntEnv("BCRYPT_COST", MinBcryptCost),
		},
	}

	if err := errors.Join(parseErrs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that would make the server insecure or unusable
func (c *Config) Validate() error {
	if len(c.Auth.TokenKey) < MinTokenKeyLength {
		return fmt.Errorf("TOKEN_KEY must be at least %d bytes, got %d", MinTokenKeyLength, len(c.Auth.TokenKey))
	}

	switch c.Auth.TokenFormat {
	case TokenFormatJWT, TokenFormatPaseto:
	default:
		return fmt.Errorf("TOKEN_FORMAT must be %q or %q, got %q", TokenFormatJWT, TokenFormatPaseto, c.Auth.TokenFormat)
	}

	if c.Auth.TokenDuration <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}

	switch c.Auth.PasswordHasher {
	case HasherBcrypt, HasherArgon2id:
	default:
		return fmt.Errorf("PASSWORD_HASHER must be %q or %q, got %q", HasherBcrypt, HasherArgon2id, c.Auth.PasswordHasher)
	}

	if c.Auth.BcryptCost < MinBcryptCost {
		return fmt.Errorf("BCRYPT_COST must be at least %d, got %d", MinBcryptCost, c.Auth.BcryptCost)
	}

	return c.Database.Validate()
}

// LoadDatabase reads only the database section, for tools that never issue tokens
func LoadDatabase() (DatabaseConfig, error) {
	_ = godotenv.Load()

	cfg := loadDatabase()
	if err := cfg.Validate(); err != nil {
		return DatabaseConfig{}, err
	}
	return cfg, nil
}

func loadDatabase() DatabaseConfig {
	return DatabaseConfig{
		Driver:         strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		Host:           getEnv("DB_HOST", "localhost"),
		Port:           getEnv("DB_PORT", "5432"),
		User:           getEnv("DB_USER", "postgres"),
		Password:       getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "finance"),
		SSLMode:        getEnv("DB_SSLMODE", "disable"),
		ChannelBinding: getEnv("DB_CHANNEL_BINDING", ""),
		Path:           getEnv("DB_PATH", "finance.db"),
		MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 5),
		AutoMigrate:    getBoolEnv("DB_AUTO_MIGRATE", true),
	}
}

// Validate checks the driver and the settings it needs
func (c *DatabaseConfig) Validate() error {
	switch c.Driver {
	case DriverPostgres:
	case DriverSQLite:
		if c.Path == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Driver)
	}
	return nil
}

// ConnectionString returns the lib/pq keyword/value DSN. Contains the password: never log it.
func (c *DatabaseConfig) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)

	// Add channel_binding if configured (required for Neon DB)
	if c.ChannelBinding != "" {
		connStr += fmt.Sprintf(" channel_binding=%s", c.ChannelBinding)
	}

	return connStr
}

// SQLiteDSN returns the modernc.org/sqlite DSN with foreign keys and a busy timeout enabled
func (c *DatabaseConfig) SQLiteDSN() string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	return "file:" + c.Path + "?" + q.Encode()
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}

// getDurationEnv reads a whole number of seconds. A set but malformed value is an error.
func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number of seconds, got %q", key, value)
	}

	return time.Duration(seconds) * time.Second, nil
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
