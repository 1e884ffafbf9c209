// This file defines the configuration structure for the application.
package config

import (
	// use Viper for loading the config.yml file.
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port           int    `mapstructure:"port"`
	WorkspacePath  string `mapstructure:"workspace_path"`
	InboxPath      string `mapstructure:"inbox_path"`
	MaxConcurrency int    `mapstructure:"max_concurrency"`
	Database       struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Thumbnail struct {
		Width   int `mapstructure:"width"`
		Height  int `mapstructure:"height"`
		Quality int `mapstructure:"quality"`
	} `mapstructure:"thumbnail"`
	Cache struct {
		MaxEntries           int `mapstructure:"max_entries"`
		OCRTTLMinutes        int `mapstructure:"ocr_ttl_minutes"`
		AITTLMinutes         int `mapstructure:"ai_ttl_minutes"`
		SweepIntervalMinutes int `mapstructure:"sweep_interval_minutes"`
	} `mapstructure:"cache"`
	Retry struct {
		MaxAttempts int `mapstructure:"max_attempts"`
		BaseDelayMs int `mapstructure:"base_delay_ms"`
	} `mapstructure:"retry"`
	OCR struct {
		Endpoint string `mapstructure:"endpoint"`
	} `mapstructure:"ocr"`
	AI struct {
		Endpoint string `mapstructure:"endpoint"`
		APIKey   string `mapstructure:"api_key"`
	} `mapstructure:"ai"`
	Storage struct {
		Backend string `mapstructure:"backend"` // "local" or "s3"
		S3      struct {
			Endpoint        string `mapstructure:"endpoint"`
			Region          string `mapstructure:"region"`
			Bucket          string `mapstructure:"bucket"`
			AccessKeyID     string `mapstructure:"access_key_id"`
			SecretAccessKey string `mapstructure:"secret_access_key"`
		} `mapstructure:"s3"`
	} `mapstructure:"storage"`
	Maintenance struct {
		IntervalMinutes   int `mapstructure:"interval_minutes"`
		JobRetentionHours int `mapstructure:"job_retention_hours"`
	} `mapstructure:"maintenance"`
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or "yaml"
	viper.AddConfigPath(".")      // looking for config in the current directory

	// --- Environment Variable Overrides ---
	// e.g., DOCFORGE_DATABASE_PATH overrides the `database.path` key.
	viper.SetEnvPrefix("DOCFORGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("port", 8080)
	viper.SetDefault("workspace_path", "./workspace")
	viper.SetDefault("inbox_path", "")
	viper.SetDefault("max_concurrency", runtime.NumCPU())
	viper.SetDefault("database.path", "./docforge.db")
	viper.SetDefault("thumbnail.width", 200)
	viper.SetDefault("thumbnail.height", 300)
	viper.SetDefault("thumbnail.quality", 75)
	viper.SetDefault("cache.max_entries", 4096)
	viper.SetDefault("cache.ocr_ttl_minutes", 60)
	viper.SetDefault("cache.ai_ttl_minutes", 24*60)
	viper.SetDefault("cache.sweep_interval_minutes", 30)
	viper.SetDefault("retry.max_attempts", 5)
	viper.SetDefault("retry.base_delay_ms", 100)
	viper.SetDefault("ocr.endpoint", "")
	viper.SetDefault("ai.endpoint", "")
	viper.SetDefault("ai.api_key", "")
	viper.SetDefault("storage.backend", "local")
	viper.SetDefault("maintenance.interval_minutes", 30)
	viper.SetDefault("maintenance.job_retention_hours", 24)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error and use defaults
		} else {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
