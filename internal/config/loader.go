package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/rpattn/bookstore/internal/auth"
	"github.com/rpattn/bookstore/internal/cache"
	"github.com/rpattn/bookstore/internal/db"
	"github.com/rpattn/bookstore/internal/events"
)

const envPrefix = "BOOKSTORE"

// Config is the complete server configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  db.Config       `mapstructure:"database"`
	Auth      auth.Config     `mapstructure:"auth"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Cache     cache.Config    `mapstructure:"cache"`
	Events    events.Config   `mapstructure:"events"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DashboardConfig controls the welcome dashboard. MinRange and MaxRange bound
// the delivery window of priority orders, in days from today.
type DashboardConfig struct {
	MinRange     int           `mapstructure:"min_range" validate:"gte=0"`
	MaxRange     int           `mapstructure:"max_range" validate:"gtefield=MinRange"`
	RecentBooks  int           `mapstructure:"recent_books" validate:"gt=0"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout" validate:"gte=0"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"http://localhost:3000"},
		},
		Database: db.DefaultConfig(),
		Auth: auth.Config{
			Provider:     "mock",
			Scopes:       []string{"openid", "email", "profile"},
			SessionTTL:   8 * time.Hour,
			CookieName:   "bookstore-admin",
			MockUsername: "admin",
		},
		Dashboard: DashboardConfig{
			MinRange:    0,
			MaxRange:    5,
			RecentBooks: 10,
		},
		Cache: cache.Config{TTL: 10 * time.Minute},
		Events: events.Config{
			Exchange: "bookstore",
		},
		Log: LogConfig{Level: "info"},
	}
}

func setDefaults(v *viper.Viper, cfg Config) {
	defaults := map[string]any{
		"server.addr":             cfg.Server.Addr,
		"server.read_timeout":     cfg.Server.ReadTimeout,
		"server.write_timeout":    cfg.Server.WriteTimeout,
		"server.shutdown_timeout": cfg.Server.ShutdownTimeout,
		"server.allowed_origins":  cfg.Server.AllowedOrigins,

		"database.host":      cfg.Database.Host,
		"database.port":      cfg.Database.Port,
		"database.user":      cfg.Database.User,
		"database.password":  cfg.Database.Password,
		"database.dbname":    cfg.Database.DBName,
		"database.sslmode":   cfg.Database.SSLMode,
		"database.max_conns": cfg.Database.MaxConns,

		"auth.provider":       cfg.Auth.Provider,
		"auth.client_id":      cfg.Auth.ClientID,
		"auth.client_secret":  cfg.Auth.ClientSecret,
		"auth.redirect_url":   cfg.Auth.RedirectURL,
		"auth.auth_url":       cfg.Auth.AuthURL,
		"auth.token_url":      cfg.Auth.TokenURL,
		"auth.userinfo_url":   cfg.Auth.UserInfoURL,
		"auth.logout_url":     cfg.Auth.LogoutURL,
		"auth.scopes":         cfg.Auth.Scopes,
		"auth.session_secret": cfg.Auth.SessionSecret,
		"auth.session_ttl":    cfg.Auth.SessionTTL,
		"auth.cookie_name":    cfg.Auth.CookieName,
		"auth.mock_username":  cfg.Auth.MockUsername,

		"dashboard.min_range":     cfg.Dashboard.MinRange,
		"dashboard.max_range":     cfg.Dashboard.MaxRange,
		"dashboard.recent_books":  cfg.Dashboard.RecentBooks,
		"dashboard.fetch_timeout": cfg.Dashboard.FetchTimeout,

		"cache.addr":     cfg.Cache.Addr,
		"cache.password": cfg.Cache.Password,
		"cache.db":       cfg.Cache.DB,
		"cache.ttl":      cfg.Cache.TTL,

		"events.url":      cfg.Events.URL,
		"events.exchange": cfg.Events.Exchange,

		"log.level": cfg.Log.Level,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Load reads config.yaml from configPath when present and applies
// BOOKSTORE_* environment overrides (database.host -> BOOKSTORE_DATABASE_HOST).
func Load(configPath string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the structural rules of cfg.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
