package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"optionpricer/internal/form"
)

// Config stores all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Form     FormConfig
	Display  DisplayConfig
	Log      LogConfig
}

// ServerConfig defines the HTTP listener settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig defines the database connection settings.
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

// FormConfig defines the pre-filled form, the accepted ranges and the day count
// used to convert days to years.
type FormConfig struct {
	Defaults form.Form
	Bounds   form.Bounds
	DayCount float64 `mapstructure:"day_count"`
}

// DisplayConfig defines how prices are rendered.
type DisplayConfig struct {
	Currency string
	Decimals int
}

// LogConfig defines the slog handler settings.
type LogConfig struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "pricer")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "pricer")
	v.SetDefault("database.sslmode", "disable")

	defaults := form.DefaultForm()
	v.SetDefault("form.defaults.spot", defaults.Spot)
	v.SetDefault("form.defaults.strike", defaults.Strike)
	v.SetDefault("form.defaults.days", defaults.Days)
	v.SetDefault("form.defaults.rate_percent", defaults.RatePercent)
	v.SetDefault("form.defaults.volatility_percent", defaults.VolatilityPercent)

	bounds := form.DefaultBounds()
	for key, r := range map[string]form.Range{
		"spot":               bounds.Spot,
		"strike":             bounds.Strike,
		"days":               bounds.Days,
		"rate_percent":       bounds.Rate,
		"volatility_percent": bounds.Volatility,
	} {
		v.SetDefault("form.bounds."+key+".min", r.Min)
		if r.Max != nil {
			v.SetDefault("form.bounds."+key+".max", *r.Max)
		}
	}
	v.SetDefault("form.day_count", 365.0)

	v.SetDefault("display.currency", "€")
	v.SetDefault("display.decimals", 4)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// LoadConfig reads configuration from file or environment variables.
// A .env file and a config.yaml file in path are both optional.
func LoadConfig(path string) (config Config, err error) {
	if err = godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("reading config: %w", err)
		}
	}

	err = v.Unmarshal(&config)
	return
}
