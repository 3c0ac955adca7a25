package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"

	"github.com/notelift/notelift/internal/filestore"
)

type Config struct {
	Port          int              `json:"port"`
	JWTSecret     string           `json:"jwt_secret"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Database      DatabaseConfig   `json:"database"`
	FileStore     filestore.Config `json:"file_store"`
	Import        ImportConfig     `json:"import"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type ImportConfig struct {
	MaxFiles          int    `json:"max_files"`
	MaxFileSizeMB     int64  `json:"max_file_size_mb"`
	MaxBatchSizeMB    int64  `json:"max_batch_size_mb"`
	BatchSize         int    `json:"batch_size"`
	JobRetentionHours int    `json:"job_retention_hours"`
	CleanupSpec       string `json:"cleanup_spec"`
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
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	applyImportDefaults(&cfg.Import)
	return &cfg, nil
}

func applyImportDefaults(imp *ImportConfig) {
	if imp.MaxFiles <= 0 {
		imp.MaxFiles = 5
	}
	if imp.MaxFileSizeMB <= 0 {
		imp.MaxFileSizeMB = 100
	}
	if imp.MaxBatchSizeMB <= 0 {
		imp.MaxBatchSizeMB = 200
	}
	if imp.BatchSize <= 0 {
		imp.BatchSize = 10
	}
	if imp.JobRetentionHours <= 0 {
		imp.JobRetentionHours = 168
	}
	if imp.CleanupSpec == "" {
		imp.CleanupSpec = "0 * * * *"
	}
}
