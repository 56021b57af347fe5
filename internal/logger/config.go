package logger

import (
	"os"
	"strconv"
)

// LogConfig chứa cấu hình cho hệ thống logging
type LogConfig struct {
	// Log Level: trace, debug, info, warn, error, fatal
	Level string

	// Log Format: json, text
	Format string

	// Log Output: file, stdout, both
	Output string

	// Log Rotation
	MaxSize    int  // MB
	MaxBackups int  // Số file cũ giữ lại
	MaxAge     int  // Số ngày giữ lại
	Compress   bool // Nén file cũ

	// Log Paths
	LogPath   string
	AppFile   string
	AuditFile string
	ErrorFile string
}

// DefaultConfig trả về cấu hình mặc định, điều chỉnh theo GO_ENV
// và cho phép override qua environment variables (LOG_LEVEL, LOG_FORMAT, ...)
func DefaultConfig() *LogConfig {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	config := &LogConfig{
		Level:      "info",
		Format:     "text",
		Output:     "both",
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     7,
		Compress:   true,
		LogPath:    "./logs",
		AppFile:    "app.log",
		AuditFile:  "audit.log",
		ErrorFile:  "error.log",
	}

	// Điều chỉnh theo môi trường
	if env == "development" {
		config.Level = "debug"
		config.Format = "text"
	} else {
		config.Level = "info"
		config.Format = "json"
	}

	// Override từ environment variables
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		config.Format = v
	}
	if v := os.Getenv("LOG_OUTPUT"); v != "" {
		config.Output = v
	}
	if v := os.Getenv("LOG_PATH"); v != "" {
		config.LogPath = v
	}
	if v := os.Getenv("LOG_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.MaxSize = n
		}
	}
	if v := os.Getenv("LOG_MAX_BACKUPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			config.MaxBackups = n
		}
	}
	if v := os.Getenv("LOG_MAX_AGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			config.MaxAge = n
		}
	}

	return config
}
