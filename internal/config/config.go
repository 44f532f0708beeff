package config

import (
	"time"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // No authentication required (default)
	AuthModeToken AuthMode = "token" // Bearer token against the local user database
)

type (
	Config struct {
		HTTP
		Global
		Database
		Import
		Inbox
		Tasks
		Auth
		Log
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Import struct {
		OnDuplicate string // skip | update | allow
		CaseFold    bool
		ReplaceTags bool
		MaxUpload   int64 // bytes accepted on the import endpoints
	}
	Inbox struct {
		Enabled  bool
		Dir      string
		Schedule string // Cron format: "*/5 * * * *" = every 5 minutes
		NoteType string // Note type targeted by inbox imports
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		MaxRetries      int
		RetryDelay      time.Duration
		TaskTimeout     time.Duration
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Auth struct {
		Mode       AuthMode
		BcryptCost int
	}
	Log struct {
		File       string // empty = stderr only
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8177)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Import defaults
	v.SetDefault("import_on_duplicate", "skip")
	v.SetDefault("import_case_fold", false)
	v.SetDefault("import_replace_tags", false)
	v.SetDefault("import_max_upload", 32<<20)

	// Inbox watcher defaults
	v.SetDefault("inbox_enabled", false)
	v.SetDefault("inbox_dir", DefaultInboxDir)
	v.SetDefault("inbox_schedule", "*/5 * * * *") // Every 5 minutes
	v.SetDefault("inbox_note_type", "Basic")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "10m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_bcrypt_cost", 12)

	// Logging defaults
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 50)
	v.SetDefault("log_max_backups", 3)
	v.SetDefault("log_max_age_days", 28)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Import: Import{
			OnDuplicate: v.GetString("IMPORT_ON_DUPLICATE"),
			CaseFold:    v.GetBool("IMPORT_CASE_FOLD"),
			ReplaceTags: v.GetBool("IMPORT_REPLACE_TAGS"),
			MaxUpload:   v.GetInt64("IMPORT_MAX_UPLOAD"),
		},
		Inbox: Inbox{
			Enabled:  v.GetBool("INBOX_ENABLED"),
			Dir:      v.GetString("INBOX_DIR"),
			Schedule: v.GetString("INBOX_SCHEDULE"),
			NoteType: v.GetString("INBOX_NOTE_TYPE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			MaxRetries:      v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:      v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:     v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Auth: Auth{
			Mode:       AuthMode(v.GetString("AUTH_MODE")),
			BcryptCost: v.GetInt("AUTH_BCRYPT_COST"),
		},
		Log: Log{
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
	}
}
