package tasks

import "time"

// Config holds configuration for the background task queue.
type Config struct {
	// Workers is the number of concurrent task workers. One worker is
	// enough here: export runs are long and there is no point crawling the
	// same Canvas account from two goroutines at once.
	Workers int

	// MaxRetries is the maximum retry attempts for failed tasks.
	MaxRetries int

	// RetryDelay is the backoff duration between retries.
	RetryDelay time.Duration

	// TaskTimeout bounds one export run; a run crawls every page and quiz
	// of every requested course, so this is generous by default.
	TaskTimeout time.Duration

	// ReleaseAfter is when stuck tasks are released back to the queue.
	ReleaseAfter time.Duration

	// CleanupInterval is how often completed tasks are cleaned up.
	CleanupInterval time.Duration

	// RetentionDuration is how long completed tasks are kept.
	RetentionDuration time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:           1,
		MaxRetries:        3,
		RetryDelay:        1 * time.Minute,
		TaskTimeout:       15 * time.Minute,
		ReleaseAfter:      30 * time.Minute,
		CleanupInterval:   1 * time.Hour,
		RetentionDuration: 24 * time.Hour,
	}
}
