package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every setting of the gateway server and the cimectl client
type Config struct {
	BackendURL     string        `yaml:"backend_url"`
	BackendTimeout time.Duration `yaml:"backend_timeout"`
	HTTPPort       string        `yaml:"http_port"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	JWTSecret  string `yaml:"jwt_secret"`
	AdminEmail string `yaml:"admin_email"`

	SessionStore string      `yaml:"session_store"` // memory, bolt or redis
	SessionPath  string      `yaml:"session_path"`
	Redis        RedisConfig `yaml:"redis"`

	DocFetchRetries int           `yaml:"doc_fetch_retries"`
	DocFetchDelay   time.Duration `yaml:"doc_fetch_delay"`
}

// RedisConfig is the subset of Redis settings exposed through configuration
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		BackendURL:      "http://localhost:8000",
		BackendTimeout:  60 * time.Second,
		HTTPPort:        "3000",
		LogLevel:        "INFO",
		AdminEmail:      "admin@cime.ac.in",
		SessionStore:    "bolt",
		SessionPath:     "cime-session.db",
		DocFetchRetries: 3,
		DocFetchDelay:   time.Second,
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     6379,
			PoolSize: 10,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CIME_CONFIG, and environment variables (a .env file is honoured if present).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CIME_CONFIG"); path != "" {
		if err := LoadFromFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)

	if cfg.BackendURL == "" {
		return cfg, fmt.Errorf("CIME_BACKEND_URL must not be empty")
	}
	if cfg.DocFetchRetries < 1 {
		cfg.DocFetchRetries = 1
	}
	return cfg, nil
}

// LoadFromFile overlays the YAML file at path onto cfg
func LoadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.BackendURL = getEnv("CIME_BACKEND_URL", cfg.BackendURL)
	cfg.BackendTimeout = getEnvAsDuration("BACKEND_TIMEOUT", cfg.BackendTimeout)
	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.AdminEmail = getEnv("ADMIN_EMAIL", cfg.AdminEmail)
	cfg.SessionStore = getEnv("SESSION_STORE", cfg.SessionStore)
	cfg.SessionPath = getEnv("SESSION_PATH", cfg.SessionPath)
	cfg.DocFetchRetries = getEnvAsInt("DOC_FETCH_RETRIES", cfg.DocFetchRetries)
	cfg.DocFetchDelay = getEnvAsDuration("DOC_FETCH_DELAY", cfg.DocFetchDelay)

	cfg.Redis.Host = getEnv("REDIS_HOST", cfg.Redis.Host)
	cfg.Redis.Port = getEnvAsInt("REDIS_PORT", cfg.Redis.Port)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.PoolSize = getEnvAsInt("REDIS_POOL_SIZE", cfg.Redis.PoolSize)
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
