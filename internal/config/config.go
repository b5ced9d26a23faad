package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	logpkg "github.com/duckdev/wp-queue-process/pkg/log"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Process ProcessConfig `json:"process" yaml:"process"`
	Storage StorageConfig `json:"storage" yaml:"storage"`
	Server  ServerConfig  `json:"server" yaml:"server"`
	Worker  WorkerConfig  `json:"worker" yaml:"worker"`
	Log     logpkg.Config `json:"log" yaml:"log"`
}

// ProcessConfig identifies one queue type and carries its resource budgets.
// The identifier prefixes every store key, so two queue types sharing a
// store never see each other's batches.
type ProcessConfig struct {
	ID string `json:"id" yaml:"id"`
	// TimeLimitSeconds is the cooperative wall-clock budget for one
	// processing pass. Zero is honored as "stop after every item"; a file
	// that omits the field keeps the default of 20.
	TimeLimitSeconds int `json:"timeLimitSeconds" yaml:"timeLimitSeconds"`
	// MemoryFraction stops a pass once resident memory reaches this share
	// of the host ceiling.
	MemoryFraction float64 `json:"memoryFraction" yaml:"memoryFraction"`
	// LockSeconds is the process lock TTL. It must exceed the time budget
	// so a crashed pass self-heals.
	LockSeconds int `json:"lockSeconds" yaml:"lockSeconds"`
	// HealthCheckMinutes is the interval of the stalled-queue check.
	HealthCheckMinutes int `json:"healthCheckMinutes" yaml:"healthCheckMinutes"`
}

// StorageConfig selects and tunes the durable store backend.
type StorageConfig struct {
	// Backend is pebble or redis.
	Backend string `json:"backend" yaml:"backend"`
	// DataDir is the Pebble data directory (pebble backend).
	DataDir string `json:"dataDir" yaml:"dataDir"`
	// Fsync is always, interval, or never (pebble backend).
	Fsync string `json:"fsync" yaml:"fsync"`
	// RedisAddr is the host:port of the Redis server (redis backend).
	RedisAddr string `json:"redisAddr" yaml:"redisAddr"`
	// RedisDB selects the logical Redis database (redis backend).
	RedisDB int `json:"redisDB" yaml:"redisDB"`
}

// ServerConfig configures the HTTP surface and the loopback trigger.
type ServerConfig struct {
	HTTPAddr string `json:"httpAddr" yaml:"httpAddr"`
	// TriggerURL is the base URL dispatch fires its run-now request at.
	// Empty means http://127.0.0.1{HTTPAddr}.
	TriggerURL string `json:"triggerURL" yaml:"triggerURL"`
}

// WorkerConfig configures the built-in webhook task handler used in server
// mode. Items are POSTed to URL; a non-2xx response requeues the item.
type WorkerConfig struct {
	URL            string `json:"url" yaml:"url"`
	TimeoutSeconds int    `json:"timeoutSeconds" yaml:"timeoutSeconds"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Process: ProcessConfig{
			ID:                 "wp_queue",
			TimeLimitSeconds:   20,
			MemoryFraction:     0.9,
			LockSeconds:        60,
			HealthCheckMinutes: 5,
		},
		Storage: StorageConfig{
			Backend: "pebble",
			Fsync:   "always",
		},
		Server: ServerConfig{
			HTTPAddr: ":8080",
		},
		Worker: WorkerConfig{
			TimeoutSeconds: 10,
		},
		Log: logpkg.Config{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a JSON or YAML file (by extension), applied
// over Default(). If path is empty, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate reports configuration that cannot be run with.
func (c Config) Validate() error {
	if c.Process.ID == "" {
		return fmt.Errorf("process.id is required")
	}
	if c.Process.MemoryFraction <= 0 || c.Process.MemoryFraction > 1 {
		return fmt.Errorf("process.memoryFraction must be in (0, 1]")
	}
	if c.Process.LockSeconds <= c.Process.TimeLimitSeconds {
		return fmt.Errorf("process.lockSeconds must exceed process.timeLimitSeconds")
	}
	switch c.Storage.Backend {
	case "pebble", "redis":
	default:
		return fmt.Errorf("storage.backend must be pebble or redis")
	}
	if c.Storage.Backend == "redis" && c.Storage.RedisAddr == "" {
		return fmt.Errorf("storage.redisAddr is required for the redis backend")
	}
	return nil
}

// TimeLimit returns the time budget as a duration.
func (c ProcessConfig) TimeLimit() time.Duration {
	return time.Duration(c.TimeLimitSeconds) * time.Second
}

// LockTTL returns the lock TTL as a duration.
func (c ProcessConfig) LockTTL() time.Duration {
	return time.Duration(c.LockSeconds) * time.Second
}

// HealthCheckInterval returns the health-check period as a duration.
func (c ProcessConfig) HealthCheckInterval() time.Duration {
	return time.Duration(c.HealthCheckMinutes) * time.Minute
}
