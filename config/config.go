package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// AppConfig holds the application-level configuration
type AppConfig struct {
	NodeID         string        `mapstructure:"node_id"`
	Port           int           `mapstructure:"port"`
	ServerURL      string        `mapstructure:"server_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Backend        string        `mapstructure:"backend"`
	StoragePath    string        `mapstructure:"storage_path"`
	MetadataPath   string        `mapstructure:"metadata_path"`
	RedisAddr      string        `mapstructure:"redis_addr"`
	Compress       bool          `mapstructure:"compress"`
	EncryptionKey  string        `mapstructure:"encryption_key"`
	Debug          bool          `mapstructure:"debug"`
}

// Storage backends understood by storage.Open.
const (
	BackendMemory = "memory"
	BackendLocal  = "local"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

// LoadConfig reads config.yaml from path when present and applies
// CHUNKSTORE_* environment overrides on top of the defaults. A missing file
// is not an error.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.SetEnvPrefix("chunkstore")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("node_id", "chunkstore-"+uuid.NewString())
	v.SetDefault("port", 8080)
	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("request_timeout", 10*time.Second)
	v.SetDefault("backend", BackendLocal)
	v.SetDefault("storage_path", "./data/chunks")
	v.SetDefault("metadata_path", "./data/meta")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("compress", false)
	v.SetDefault("encryption_key", "")
	v.SetDefault("debug", false)

	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var appConfig AppConfig
	if err := v.Unmarshal(&appConfig); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := appConfig.Validate(); err != nil {
		return nil, err
	}

	return &appConfig, nil
}

func (c *AppConfig) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendLocal, BackendBadger, BackendRedis:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Backend)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	// both would take the badger directory lock
	if c.Backend == BackendBadger && c.StoragePath != "" && c.MetadataPath != "" &&
		filepath.Clean(c.StoragePath) == filepath.Clean(c.MetadataPath) {
		return fmt.Errorf("storage_path and metadata_path must differ for the badger backend (both %q)", c.StoragePath)
	}
	return nil
}
