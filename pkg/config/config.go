package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Storage    StorageConfig
	Log        LogConfig
	Groq       GroqConfig
	Gemini     GeminiConfig
	AssemblyAI AssemblyAIConfig
	Engine     EngineConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type            string // "minio" or "s3"
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
	PublicURL       string
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level      string
	JSON       bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// GroqConfig holds Groq chat completion configuration
type GroqConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// GeminiConfig holds Gemini configuration
type GeminiConfig struct {
	APIKey string
	Model  string
}

// AssemblyAIConfig holds AssemblyAI configuration
type AssemblyAIConfig struct {
	APIKey string
}

// EngineConfig holds interview engine tuning, read with the ENGINE_ prefix
type EngineConfig struct {
	Provider          string        `envconfig:"PROVIDER" default:"groq"`
	StoreBackend      string        `envconfig:"STORE_BACKEND" default:"postgres"`
	ThreadBackend     string        `envconfig:"THREAD_BACKEND" default:"redis"`
	ThreadTTL         time.Duration `envconfig:"THREAD_TTL" default:"24h"`
	RatingMin         int           `envconfig:"RATING_MIN" default:"1"`
	RatingMax         int           `envconfig:"RATING_MAX" default:"10"`
	SkillMin          int           `envconfig:"SKILL_MIN" default:"0"`
	SkillMax          int           `envconfig:"SKILL_MAX" default:"100"`
	RequestTags       bool          `envconfig:"REQUEST_TAGS" default:"true"`
	FullHistory       bool          `envconfig:"FULL_HISTORY" default:"false"`
	GenerationTimeout time.Duration `envconfig:"GENERATION_TIMEOUT" default:"45s"`
	RetryMaxAttempts  int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	RetryInitial      time.Duration `envconfig:"RETRY_INITIAL" default:"500ms"`
	RetryMax          time.Duration `envconfig:"RETRY_MAX" default:"5s"`
	GeneratorRetries  int           `envconfig:"GENERATOR_PARSE_RETRIES" default:"1"`
	EvaluatorRetries  int           `envconfig:"EVALUATOR_PARSE_RETRIES" default:"0"`
	SeedQuestions     int           `envconfig:"SEED_QUESTIONS" default:"1"`
	PromptsFile       string        `envconfig:"PROMPTS_FILE"`
}

// Load loads configuration from environment variables and validates it
func Load() (*Config, error) {
	config, err := LoadUnvalidated()
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadUnvalidated loads configuration without checking provider keys, for tools that never call the generation service
func LoadUnvalidated() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			AllowedOrigins:  strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			Name:        getEnv("DB_NAME", "mock_interview"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:    getEnvAsInt("DB_MIN_CONNS", 5),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			AccessSecret:  getEnv("JWT_ACCESS_SECRET", "your-access-secret-change-in-production"),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", "your-refresh-secret-change-in-production"),
			AccessExpiry:  getEnvAsDuration("JWT_ACCESS_EXPIRY", "15m"),
			RefreshExpiry: getEnvAsDuration("JWT_REFRESH_EXPIRY", "168h"),
		},
		Storage: StorageConfig{
			Type:            getEnv("STORAGE_TYPE", "minio"),
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "mock-interview"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
			PublicURL:       getEnv("STORAGE_PUBLIC_URL", ""),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			JSON:       getEnvAsBool("LOG_JSON", false),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 14),
		},
		Groq: GroqConfig{
			APIKey:  getEnv("GROQ_API_KEY", ""),
			BaseURL: getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:   getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		},
		AssemblyAI: AssemblyAIConfig{
			APIKey: getEnv("ASSEMBLYAI_API_KEY", ""),
		},
	}

	if err := envconfig.Process("ENGINE", &config.Engine); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	config.Engine.fillEmpty()

	return config, nil
}

// fillEmpty applies defaults to selectors set to an empty value.
// envconfig only applies defaults to unset variables.
func (e *EngineConfig) fillEmpty() {
	e.Provider = orDefault(e.Provider, "groq")
	e.StoreBackend = orDefault(e.StoreBackend, "postgres")
	e.ThreadBackend = orDefault(e.ThreadBackend, "redis")
}

func orDefault(value, def string) string {
	if v := strings.ToLower(strings.TrimSpace(value)); v != "" {
		return v
	}
	return def
}

// Validate validates the configuration
func (c *Config) Validate() error {
	e := c.Engine
	if e.RatingMin >= e.RatingMax {
		return fmt.Errorf("ENGINE_RATING_MIN must be below ENGINE_RATING_MAX")
	}
	if e.SkillMin >= e.SkillMax {
		return fmt.Errorf("ENGINE_SKILL_MIN must be below ENGINE_SKILL_MAX")
	}
	if e.RetryMaxAttempts < 1 {
		return fmt.Errorf("ENGINE_RETRY_MAX_ATTEMPTS must be at least 1")
	}
	if e.GeneratorRetries < 0 || e.EvaluatorRetries < 0 {
		return fmt.Errorf("parse retry counts must not be negative")
	}
	switch e.Provider {
	case "groq":
		if c.Groq.APIKey == "" {
			return fmt.Errorf("GROQ_API_KEY is required")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required")
		}
	default:
		return fmt.Errorf("unknown ENGINE_PROVIDER %q", e.Provider)
	}
	switch e.StoreBackend {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown ENGINE_STORE_BACKEND %q", e.StoreBackend)
	}
	switch e.ThreadBackend {
	case "redis", "memory":
	default:
		return fmt.Errorf("unknown ENGINE_THREAD_BACKEND %q", e.ThreadBackend)
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
