package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	StorageBackend string   `mapstructure:"STORAGE_BACKEND"`
	DataDir        string   `mapstructure:"DATA_DIR"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32    `mapstructure:"DB_MIN_CONNS"`
	AuthSecret     string   `mapstructure:"AUTH_SECRET"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	SeedOnStart    bool     `mapstructure:"SEED_ON_START"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORAGE_BACKEND", "file")
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("SEED_ON_START", true)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("STORAGE_BACKEND")
	v.BindEnv("DATA_DIR")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("AUTH_SECRET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("SEED_ON_START")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.IsDev() {
		log.Println("WARNING: server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: requests without a token get admin access. Do not use in production.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. The postgres backend
// needs a connection string, and production refuses to start without a real
// token secret.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case "file", "memory", "postgres":
	default:
		return fmt.Errorf("STORAGE_BACKEND must be \"file\", \"memory\", or \"postgres\", got %q", c.StorageBackend)
	}
	if c.StorageBackend == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND is \"postgres\"")
	}
	if c.StorageBackend == "file" && c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required when STORAGE_BACKEND is \"file\"")
	}
	if c.IsProduction() && c.AuthSecret == "" {
		return fmt.Errorf("AUTH_SECRET is required in production")
	}
	return nil
}
