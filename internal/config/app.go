package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// HTTPConfig holds the API server settings.
type HTTPConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	RateBurst     int           `yaml:"rate_burst"`
}

// RedisConfig holds the optional knowledge cache settings.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DatabaseConfig holds the optional scenario database settings.
type DatabaseConfig struct {
	Enabled         bool          `yaml:"enabled"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
}

// DataPaths point at the operator-editable YAML inputs. Empty scenario path
// means the embedded dataset.
type DataPaths struct {
	Scenarios  string `yaml:"scenarios"`
	Categories string `yaml:"categories"`
	Prices     string `yaml:"prices"`
	Portfolios string `yaml:"portfolios"`
}

// App is the full service configuration.
type App struct {
	Engine   Engine         `yaml:"engine"`
	HTTP     HTTPConfig     `yaml:"http"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	Data     DataPaths      `yaml:"data"`
}

// DefaultApp returns the configuration a bare checkout runs with: embedded
// scenarios, bundled category mappings, no cache, no database.
func DefaultApp() App {
	return App{
		Engine: Default(),
		HTTP: HTTPConfig{
			Host:          "127.0.0.1",
			Port:          8090,
			ReadTimeout:   10 * time.Second,
			WriteTimeout:  70 * time.Second,
			IdleTimeout:   60 * time.Second,
			RatePerSecond: 5,
			RateBurst:     10,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			QueryTimeout:    30 * time.Second,
		},
		Data: DataPaths{
			Categories: "data/category-mappings.yaml",
			Portfolios: "data/portfolios.yaml",
		},
	}
}

// LoadApp reads the service configuration, keeping defaults for absent keys.
func LoadApp(path string) (App, error) {
	cfg := DefaultApp()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read app config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse app config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the app-level settings and the embedded engine settings.
func (a App) Validate() error {
	if err := a.Engine.Validate(); err != nil {
		return err
	}
	if a.HTTP.Port <= 0 || a.HTTP.Port > 65535 {
		return fmt.Errorf("http port %d outside (0, 65535]", a.HTTP.Port)
	}
	if a.HTTP.WriteTimeout <= a.Engine.OverallDeadline {
		return fmt.Errorf("http write_timeout %s must exceed overall_deadline %s",
			a.HTTP.WriteTimeout, a.Engine.OverallDeadline)
	}
	if a.Redis.Enabled && a.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required when the cache is enabled")
	}
	if a.Database.Enabled && a.Database.DSN == "" {
		return fmt.Errorf("database dsn is required when the database is enabled")
	}
	return nil
}
