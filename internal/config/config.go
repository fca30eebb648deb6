package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	APIPort  int `yaml:"apiPort"`
	Database struct {
		Type       string `yaml:"type"` // "sqlite" or "postgres"
		Path       string `yaml:"path"` // sqlite file path
		DSN        string `yaml:"dsn"`  // postgres connection string
		WALMode    bool   `yaml:"walMode"`
		MaxRetries int    `yaml:"maxRetries"`
		RetryDelay int    `yaml:"retryDelay"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret     string        `yaml:"jwtSecret"`
		TokenDuration time.Duration `yaml:"tokenDuration"`
		ResetTokenTTL time.Duration `yaml:"resetTokenTTL"`
		ResetLinkBase string        `yaml:"resetLinkBase"`
	} `yaml:"auth"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`
}

// ErrMissingJWTSecret is returned when no signing key is configured. The
// server cannot issue or verify tokens without one, so startup must fail.
var ErrMissingJWTSecret = errors.New("auth.jwtSecret is required")

// LoadConfig loads the configuration from file and environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("EXPENSEFLOW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
		log.Printf("Warning: Could not read config file: %s. Using defaults or environment variables.", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.APIPort == 0 {
		cfg.APIPort = 8081
		log.Println("APIPort not specified, using default 8081")
	}

	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/expenseflow.db"
		log.Println("Database path not specified, using default data/expenseflow.db")
	}
	if !v.IsSet("database.walMode") {
		cfg.Database.WALMode = true
	}
	if cfg.Database.MaxRetries == 0 {
		cfg.Database.MaxRetries = 5
	}
	if cfg.Database.RetryDelay == 0 {
		cfg.Database.RetryDelay = 5
	}

	// The signing key has no default: rotating it invalidates every
	// outstanding token, so it must be an explicit deployment decision.
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = v.GetString("auth.jwtSecret")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}

	if cfg.Auth.TokenDuration == 0 {
		cfg.Auth.TokenDuration = 24 * time.Hour
	}
	if cfg.Auth.ResetTokenTTL == 0 {
		cfg.Auth.ResetTokenTTL = 15 * time.Minute
	}
	if cfg.Auth.ResetLinkBase == "" {
		cfg.Auth.ResetLinkBase = "http://localhost:3000"
	}

	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}

	return &cfg, nil
}
