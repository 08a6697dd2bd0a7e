package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

// Config struct is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Screening ScreeningConfig `mapstructure:"screening"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port          string `mapstructure:"port"`
	Mode          string `mapstructure:"mode"`
	SessionSecret string `mapstructure:"session_secret"`
	SecureCookies bool   `mapstructure:"secure_cookies"`
	// screening creations allowed per client per minute
	CreateRateLimit uint `mapstructure:"create_rate_limit"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	Level      string `mapstructure:"level"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// ScreeningConfig controls the screening protocol and session lifetime.
type ScreeningConfig struct {
	ProtocolFile  string        `mapstructure:"protocol_file"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	FollowUpAfter time.Duration `mapstructure:"follow_up_after"`
}

// SchedulerConfig controls the background jobs.
type SchedulerConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	FollowUpTime string `mapstructure:"follow_up_time"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5050")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.session_secret", "change-me-in-production")
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("server.create_rate_limit", 10)

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "visionai-db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "data/visionai.db")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "debug")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs

	// Screening defaults
	v.SetDefault("screening.protocol_file", "")
	v.SetDefault("screening.session_ttl", "30m")
	v.SetDefault("screening.follow_up_after", "720h") // 30 days

	// Scheduler defaults
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.follow_up_time", "09:00")
}

// Load reads the configuration without installing it globally.
func Load(projectRoot string) (*Config, *viper.Viper, error) {
	// A missing .env is fine; anything already in the environment wins.
	if err := godotenv.Load(filepath.Join(projectRoot, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// e.g., VISIONAI_SERVER_PORT
	v.SetEnvPrefix("VISIONAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return &conf, v, nil
}

// Init loads the configuration into Conf and reloads it when the file changes.
func Init(projectRoot string, log *zap.Logger) error {
	conf, v, err := Load(projectRoot)
	if err != nil {
		return err
	}
	Conf = conf

	if v.ConfigFileUsed() != "" {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
			var next Config
			if err := v.Unmarshal(&next); err != nil {
				log.Error("Error reloading configuration", zap.Error(err))
				return
			}
			Conf = &next
		})
	}

	log.Info("Configuration loaded successfully")
	return nil
}
