package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Canvas
		CanvasSync
		API
		Global
		Database
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Canvas struct {
		BaseURL   string  // API root, e.g. https://canvas.example.edu/api
		Token     string  // Canvas API bearer token
		CourseIDs []int64 // courses to export when none are given explicitly
		SourceUID string  // content source identifier stamped on exports
		Name      string  // human-readable content source name
	}
	CanvasSync struct {
		Enabled  bool
		Schedule string // Cron format: "0 */6 * * *" = every 6 hours
	}
	API struct {
		Token string // bearer token protecting the export endpoints
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
)

// ParseCourseIDs parses a comma-separated id list ("5013,5014"), skipping
// empty segments. Non-numeric segments are dropped rather than failing the
// whole config load; the parse call validates the final list anyway.
func ParseCourseIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8189)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Canvas defaults
	v.SetDefault("canvas_base_url", "")
	v.SetDefault("canvas_api_token", "")
	v.SetDefault("canvas_course_ids", "")
	v.SetDefault("canvas_source_uid", "canvas")
	v.SetDefault("canvas_source_name", "Canvas")
	v.SetDefault("canvas_sync_enabled", false)
	v.SetDefault("canvas_sync_schedule", "0 */6 * * *") // Every 6 hours

	// API defaults
	v.SetDefault("api_token", "")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "15m")
	v.SetDefault("task_release_after", "30m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Canvas: Canvas{
			BaseURL:   v.GetString("CANVAS_BASE_URL"),
			Token:     v.GetString("CANVAS_API_TOKEN"),
			CourseIDs: ParseCourseIDs(v.GetString("CANVAS_COURSE_IDS")),
			SourceUID: v.GetString("CANVAS_SOURCE_UID"),
			Name:      v.GetString("CANVAS_SOURCE_NAME"),
		},
		CanvasSync: CanvasSync{
			Enabled:  v.GetBool("CANVAS_SYNC_ENABLED"),
			Schedule: v.GetString("CANVAS_SYNC_SCHEDULE"),
		},
		API: API{
			Token: v.GetString("API_TOKEN"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
	}
}
