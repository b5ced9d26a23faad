package config

import (
	"os"
	"strconv"
)

// FromEnv overlays WPQ_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("WPQ_PROCESS_ID"); v != "" {
		cfg.Process.ID = v
	}
	if v := os.Getenv("WPQ_TIME_LIMIT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Process.TimeLimitSeconds = n
		}
	}
	if v := os.Getenv("WPQ_MEMORY_FRACTION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Process.MemoryFraction = f
		}
	}
	if v := os.Getenv("WPQ_LOCK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Process.LockSeconds = n
		}
	}
	if v := os.Getenv("WPQ_HEALTH_CHECK_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Process.HealthCheckMinutes = n
		}
	}
	if v := os.Getenv("WPQ_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("WPQ_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("WPQ_FSYNC"); v != "" {
		cfg.Storage.Fsync = v
	}
	if v := os.Getenv("WPQ_REDIS_ADDR"); v != "" {
		cfg.Storage.RedisAddr = v
	}
	if v := os.Getenv("WPQ_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.RedisDB = n
		}
	}
	if v := os.Getenv("WPQ_HTTP_ADDR"); v != "" {
		cfg.Server.HTTPAddr = v
	}
	if v := os.Getenv("WPQ_TRIGGER_URL"); v != "" {
		cfg.Server.TriggerURL = v
	}
	if v := os.Getenv("WPQ_WORKER_URL"); v != "" {
		cfg.Worker.URL = v
	}
	if v := os.Getenv("WPQ_WORKER_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Worker.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("WPQ_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("WPQ_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}
