package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is read once at process start. Load order: defaults, then an
// optional jot.yaml next to the binary, then .env, then the process
// environment. Later sources win.
type Config struct {
	DatabaseURL   string        `yaml:"database_url"`
	JWTSecret     string        `yaml:"jwt_secret"`
	Port          string        `yaml:"port"`
	AllowedOrigin string        `yaml:"allowed_origin"`
	SeedUsername  string        `yaml:"seed_username"`
	SeedEmail     string        `yaml:"seed_email"`
	SeedPassword  string        `yaml:"seed_password"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:          "8080",
		AllowedOrigin: "http://localhost:5173",
		SeedUsername:  "admin",
		SeedEmail:     "admintest@gmail.com",
		SeedPassword:  "123456",
		TokenTTL:      time.Hour,
	}

	if data, err := os.ReadFile("jot.yaml"); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	setIfPresent(&cfg.DatabaseURL, "DATABASE_URL")
	setIfPresent(&cfg.JWTSecret, "JWT_SECRET")
	setIfPresent(&cfg.Port, "PORT")
	setIfPresent(&cfg.AllowedOrigin, "ALLOWED_ORIGIN")
	setIfPresent(&cfg.SeedUsername, "SEED_USERNAME")
	setIfPresent(&cfg.SeedEmail, "SEED_EMAIL")
	setIfPresent(&cfg.SeedPassword, "SEED_PASSWORD")
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.New("TOKEN_TTL is not a valid duration")
		}
		cfg.TokenTTL = ttl
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	return cfg, nil
}

func setIfPresent(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
