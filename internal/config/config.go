package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Market    Market    `mapstructure:"market"`
	Portfolio Portfolio `mapstructure:"portfolio"`
	Logger    Logger    `mapstructure:"logger"`
	Server    Server    `mapstructure:"server"`
	Database  Database  `mapstructure:"database"`
}

// Market holds the configuration for the market data provider.
type Market struct {
	Provider       string  `mapstructure:"provider"` // "yahoo", "finnhub" or "noop"
	FinnhubToken   string  `mapstructure:"finnhub_token"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

// Portfolio holds the configuration for the ledger itself.
type Portfolio struct {
	StartingCash  float64 `mapstructure:"starting_cash"`
	Name          string  `mapstructure:"name"`
	AnalyticsDays int     `mapstructure:"analytics_days"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("market.provider", "yahoo")
	viper.SetDefault("market.rate_limit", 5) // requests per second
	viper.SetDefault("market.rate_limit_burst", 5)
	viper.SetDefault("market.timeout_seconds", 10)
	viper.SetDefault("portfolio.starting_cash", 1000000)
	viper.SetDefault("portfolio.name", "Default Portfolio")
	viper.SetDefault("portfolio.analytics_days", 31)
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.dsn", "paper-trading.db")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
