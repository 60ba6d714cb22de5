package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int              `json:"port"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Database      DatabaseConfig   `json:"database"`
	AI            AIConfig         `json:"ai"`
	Chunking      ChunkingConfig   `json:"chunking"`
	Queue         QueueConfig      `json:"queue"`
	CORSAllowlist []string         `json:"cors_allowlist"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
}

type AIConfig struct {
	// Provider/Model seed the active selection on first boot; later changes
	// go through the migration endpoints, not the config file.
	Provider   string                     `json:"provider"`
	Model      string                     `json:"model"`
	Dimensions int                        `json:"dimensions"`
	Providers  map[string]json.RawMessage `json:"providers"`
}

type ChunkingConfig struct {
	MaxWords int `json:"max_words"`
}

type QueueConfig struct {
	BatchSize    int    `json:"batch_size"`
	DrainLimit   int    `json:"drain_limit"`
	DurableCron  string `json:"durable_cron"`
	FallbackCron string `json:"fallback_cron"`
	OptimizeCron string `json:"optimize_cron"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 3306
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.Dimensions == 0 {
		cfg.AI.Dimensions = 1536
	}
	if cfg.Chunking.MaxWords == 0 {
		cfg.Chunking.MaxWords = 200
	}
	if cfg.Queue.BatchSize == 0 {
		cfg.Queue.BatchSize = 10
	}
	if cfg.Queue.DrainLimit == 0 {
		cfg.Queue.DrainLimit = 5
	}
	if cfg.Queue.DurableCron == "" {
		cfg.Queue.DurableCron = "* * * * *"
	}
	if cfg.Queue.FallbackCron == "" {
		cfg.Queue.FallbackCron = "0 * * * *"
	}
	if cfg.Queue.OptimizeCron == "" {
		cfg.Queue.OptimizeCron = "0 3 * * 0"
	}
	return &cfg, nil
}
