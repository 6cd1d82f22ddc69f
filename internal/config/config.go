package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            string `yaml:"port"`
		ShutdownTimeout string `yaml:"shutdownTimeout"`
	} `yaml:"server"`
	Database struct {
		// Driver is "sqlite" (default) or "postgres".
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	JWT struct {
		Secret     string `yaml:"secret"`
		Issuer     string `yaml:"issuer"`
		Audience   string `yaml:"audience"`
		AdminTTL   string `yaml:"adminTTL"`
		StudentTTL string `yaml:"studentTTL"`
	} `yaml:"jwt"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	AnswerKeys struct {
		TTL string `yaml:"ttl"`
	} `yaml:"answerKeys"`
	Countdown struct {
		Tick string `yaml:"tick"`
	} `yaml:"countdown"`
	Bootstrap struct {
		AdminUsername string `yaml:"adminUsername"`
		AdminPassword string `yaml:"adminPassword"`
		AdminFullName string `yaml:"adminFullName"`
	} `yaml:"bootstrap"`
	QuestionBank struct {
		PostgresURL string `yaml:"postgresUrl"`
	} `yaml:"questionBank"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Server.ShutdownTimeout = "5s"
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = "quizha.db"
	cfg.JWT.Secret = "change-me"
	cfg.JWT.Issuer = "quizha"
	cfg.JWT.Audience = "quizha-clients"
	cfg.JWT.AdminTTL = "1h"
	cfg.JWT.StudentTTL = "24h"
	cfg.AnswerKeys.TTL = "10m"
	cfg.Countdown.Tick = "1s"
	cfg.Bootstrap.AdminUsername = "admin"
	cfg.Bootstrap.AdminPassword = "admin123"
	cfg.Bootstrap.AdminFullName = "Default Admin"
	return cfg
}

// Load reads a .env file if present, then the YAML config at path on top of
// Default, then applies environment overrides. A missing YAML file is not an error.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Database.Driver = getEnv("QUIZHA_DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = getEnv("QUIZHA_DB_DSN", cfg.Database.DSN)
	cfg.JWT.Secret = getEnv("QUIZHA_JWT_SECRET", cfg.JWT.Secret)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if db, err := strconv.Atoi(raw); err == nil {
			cfg.Redis.DB = db
		}
	}
	cfg.QuestionBank.PostgresURL = getEnv("QUESTION_BANK_URL", cfg.QuestionBank.PostgresURL)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
