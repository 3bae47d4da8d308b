package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Data   DataConfig   `yaml:"data"`
	Cache  CacheConfig  `yaml:"cache"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DataConfig struct {
	// Dir is the root holding one directory per project.
	Dir string `yaml:"dir"`
	// ActivityDBPath is the SQLite file holding the mutation audit log.
	ActivityDBPath string `yaml:"activity_db_path"`
	// GroupKeyColumn is the hierarchical consolidation key column.
	GroupKeyColumn string `yaml:"group_key_column"`
}

type CacheConfig struct {
	// Capacity bounds the query result cache (entries, not bytes).
	Capacity int `yaml:"capacity"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Data: DataConfig{
			Dir:            "data",
			ActivityDBPath: "dataview.db",
			GroupKeyColumn: "Mark",
		},
		Cache: CacheConfig{
			Capacity: 20,
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("DATAVIEW_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("DATAVIEW_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("DATAVIEW_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DATAVIEW_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dir := os.Getenv("DATAVIEW_DATA_DIR"); dir != "" {
		cfg.Data.Dir = dir
	}
	if path := os.Getenv("DATAVIEW_ACTIVITY_DB_PATH"); path != "" {
		cfg.Data.ActivityDBPath = path
	}
	if col := os.Getenv("DATAVIEW_GROUP_KEY_COLUMN"); col != "" {
		cfg.Data.GroupKeyColumn = col
	}
	if capStr := os.Getenv("DATAVIEW_CACHE_CAPACITY"); capStr != "" {
		capacity, err := strconv.Atoi(capStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DATAVIEW_CACHE_CAPACITY: %w", err)
		}
		cfg.Cache.Capacity = capacity
	}
	if level := os.Getenv("DATAVIEW_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
