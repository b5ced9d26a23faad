package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	clientcmd "github.com/duckdev/wp-queue-process/internal/cmd/client"
	serverrun "github.com/duckdev/wp-queue-process/internal/cmd/server"
	cfgpkg "github.com/duckdev/wp-queue-process/internal/config"
	logpkg "github.com/duckdev/wp-queue-process/pkg/log"
)

func main() {
	// Respect WPQ_LOG_LEVEL for CLI output
	level := os.Getenv("WPQ_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "wpq",
		Short: "wpq background queue CLI",
		Long:  "wpq is a self-pacing background job queue. This CLI manages the server and basic queue operations.",
	}

	// server start
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the wpq server",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			dataDir, _ := cmd.Flags().GetString("data-dir")
			httpAddr, _ := cmd.Flags().GetString("http")
			backend, _ := cmd.Flags().GetString("backend")
			redisAddr, _ := cmd.Flags().GetString("redis-addr")
			fsyncMode, _ := cmd.Flags().GetString("fsync")
			process, _ := cmd.Flags().GetString("process")
			workerURL, _ := cmd.Flags().GetString("worker-url")
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")

			cfg, err := cfgpkg.Load(configPath)
			if err != nil {
				return err
			}
			cfgpkg.FromEnv(&cfg)
			if dataDir != "" {
				cfg.Storage.DataDir = dataDir
			}
			if httpAddr != "" {
				cfg.Server.HTTPAddr = httpAddr
			}
			if backend != "" {
				cfg.Storage.Backend = backend
			}
			if redisAddr != "" {
				cfg.Storage.RedisAddr = redisAddr
			}
			if fsyncMode != "" {
				cfg.Storage.Fsync = fsyncMode
			}
			if process != "" {
				cfg.Process.ID = process
			}
			if workerURL != "" {
				cfg.Worker.URL = workerURL
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if logFormat != "" {
				cfg.Log.Format = logFormat
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := serverrun.Run(ctx, serverrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	serverStartCmd.Flags().String("config", "", "Config file (JSON or YAML)")
	serverStartCmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	serverStartCmd.Flags().String("http", "", "HTTP listen address (default :8080)")
	serverStartCmd.Flags().String("backend", "", "Storage backend: pebble|redis")
	serverStartCmd.Flags().String("redis-addr", "", "Redis address for the redis backend")
	serverStartCmd.Flags().String("fsync", "", "Fsync mode: always|interval|never")
	serverStartCmd.Flags().String("process", "", "Process identifier (store key prefix)")
	serverStartCmd.Flags().String("worker-url", "", "Webhook worker URL items are POSTed to")
	serverStartCmd.Flags().String("log-level", os.Getenv("WPQ_LOG_LEVEL"), "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", os.Getenv("WPQ_LOG_FORMAT"), "Log format: text|json (default text)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	// queue commands
	rootCmd.AddCommand(clientcmd.NewQueueCommand(apiURL), clientcmd.NewHealthCommand(apiURL))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func apiURL() string {
	if v := os.Getenv("WPQ_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}
