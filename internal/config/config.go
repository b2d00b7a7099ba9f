package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var envFiles = []string{".env", ".env.local"}

type ImportConfig struct {
	StorageDir        string        `mapstructure:"import_storage_dir"`
	DefaultRegion     string        `mapstructure:"import_default_region"`
	SchedulerInterval time.Duration `mapstructure:"import_scheduler_interval"`
	DeleteWindow      time.Duration `mapstructure:"import_delete_window"`
	MaxFileMB         int           `mapstructure:"import_max_file_mb"`
	MaxStoredErrors   int           `mapstructure:"import_max_stored_errors"`
	RunMigrations     bool          `mapstructure:"import_run_migrations"`
}

type Config struct {
	DatabaseURL string       `mapstructure:"database_url"`
	Port        string       `mapstructure:"port"`
	LogLevel    string       `mapstructure:"log_level"`
	LogFormat   string       `mapstructure:"log_format"`
	Import      ImportConfig `mapstructure:",squash"`
}

// MaxFileBytes is the upload limit in bytes.
func (c *Config) MaxFileBytes() int64 {
	return int64(c.Import.MaxFileMB) << 20
}

// Load reads .env files, an optional config.yaml and the environment, in
// increasing order of precedence.
func Load() (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("database_url", "")
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("import_storage_dir", "./uploads")
	v.SetDefault("import_default_region", "IN")
	v.SetDefault("import_scheduler_interval", 30*time.Second)
	v.SetDefault("import_delete_window", 5*time.Minute)
	v.SetDefault("import_max_file_mb", 20)
	v.SetDefault("import_max_stored_errors", 1000)
	v.SetDefault("import_run_migrations", true)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be console or json, got %q", cfg.LogFormat)
	}
	if cfg.Import.MaxFileMB <= 0 {
		return nil, errors.New("IMPORT_MAX_FILE_MB must be positive")
	}

	return &cfg, nil
}

func loadEnvFiles(files []string) error {
	existing := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}
