package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	PostgreSQL PostgreSQLConfig
	Mongo      MongoConfig
	Firebase   FirebaseConfig
	Auth       AuthConfig
	Prediction PredictionConfig
	Planner    PlannerConfig
	Storage    StorageConfig
	Session    SessionConfig
	Logging    LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// StoreConfig selects the document store backend: memory, postgres, mongo or firestore
type StoreConfig struct {
	Backend string
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// MongoConfig holds MongoDB configuration
type MongoConfig struct {
	URI      string
	Database string
}

// FirebaseConfig is shared by the firestore store and the firebase auth provider
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
	APIKey          string
}

// AuthConfig selects the identity provider: local or firebase
type AuthConfig struct {
	Provider        string
	JWTSecret       string
	TokenTTLHours   int
	MaxFailedLogins int
	LockoutMinutes  int
}

// PredictionConfig holds the price model client configuration
type PredictionConfig struct {
	BaseURL        string
	TimeoutSeconds int
	ProfilesFile   string
}

// PlannerConfig holds the query planner pushdown policy: conditional, never or always
type PlannerConfig struct {
	Pushdown string
}

// StorageConfig holds S3-compatible object storage configuration.
// Uploads are disabled when Bucket is empty.
type StorageConfig struct {
	Bucket            string
	Region            string
	Endpoint          string
	AccessKeyID       string
	SecretAccessKey   string
	UsePathStyle      bool
	PresignTTLMinutes int
	MaxUploadMB       int
}

// SessionConfig selects where listing form sessions live: memory or redis
type SessionConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTLMinutes    int
	GuardSeconds  int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", "memory")),
		},
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("POSTGRESQL_URI", getEnv("PG_DSN", ""))),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "spacemarket"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "spacemarket"),
		},
		Firebase: FirebaseConfig{
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			APIKey:          getEnv("FIREBASE_API_KEY", ""),
		},
		Auth: AuthConfig{
			Provider:        strings.ToLower(getEnv("AUTH_PROVIDER", "local")),
			JWTSecret:       getEnv("JWT_SECRET", ""),
			TokenTTLHours:   getEnvAsInt("JWT_TTL_HOURS", 72),
			MaxFailedLogins: getEnvAsInt("AUTH_MAX_FAILED_LOGINS", 5),
			LockoutMinutes:  getEnvAsInt("AUTH_LOCKOUT_MINUTES", 15),
		},
		Prediction: PredictionConfig{
			BaseURL:        strings.TrimRight(getEnv("PREDICTION_BASE_URL", "http://localhost:5000"), "/"),
			TimeoutSeconds: getEnvAsInt("PREDICTION_TIMEOUT_SECONDS", 0),
			ProfilesFile:   getEnv("PREDICTION_PROFILES_FILE", ""),
		},
		Planner: PlannerConfig{
			Pushdown: strings.ToLower(getEnv("PLANNER_PUSHDOWN", "conditional")),
		},
		Storage: StorageConfig{
			Bucket:            getEnv("S3_BUCKET", ""),
			Region:            getEnv("S3_REGION", "us-east-1"),
			Endpoint:          getEnv("S3_ENDPOINT", ""),
			AccessKeyID:       getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey:   getEnv("S3_SECRET_ACCESS_KEY", ""),
			UsePathStyle:      getEnvAsBool("S3_USE_PATH_STYLE", false),
			PresignTTLMinutes: getEnvAsInt("S3_PRESIGN_TTL_MINUTES", 60),
			MaxUploadMB:       getEnvAsInt("S3_MAX_UPLOAD_MB", 10),
		},
		Session: SessionConfig{
			Backend:       strings.ToLower(getEnv("SESSION_BACKEND", "memory")),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			TTLMinutes:    getEnvAsInt("FORM_SESSION_TTL_MINUTES", 24*60),
			GuardSeconds:  getEnvAsInt("FORM_GUARD_SECONDS", 120),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the enumerated settings and the secrets they require
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory", "postgres", "mongo", "firestore":
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q", c.Store.Backend)
	}
	switch c.Auth.Provider {
	case "local":
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required for the local auth provider")
		}
	case "firebase":
		if c.Firebase.APIKey == "" {
			return fmt.Errorf("FIREBASE_API_KEY is required for the firebase auth provider")
		}
	default:
		return fmt.Errorf("invalid AUTH_PROVIDER %q", c.Auth.Provider)
	}
	switch c.Planner.Pushdown {
	case "conditional", "never", "always":
	default:
		return fmt.Errorf("invalid PLANNER_PUSHDOWN %q", c.Planner.Pushdown)
	}
	switch c.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid SESSION_BACKEND %q", c.Session.Backend)
	}
	return nil
}

// UsesFirebase reports whether any component needs a Firebase app
func (c *Config) UsesFirebase() bool {
	return c.Store.Backend == "firestore" || c.Auth.Provider == "firebase"
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
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
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
		return defaultValue
	}
	return value
}
