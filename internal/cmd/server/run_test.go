package serverrun

import (
	"context"
	"testing"
	"time"

	"github.com/duckdev/wp-queue-process/internal/batchqueue"
	cfgpkg "github.com/duckdev/wp-queue-process/internal/config"
)

func TestTriggerEndpoint(t *testing.T) {
	tests := []struct {
		name string
		cfg  cfgpkg.ServerConfig
		want string
	}{
		{
			name: "explicit trigger url",
			cfg:  cfgpkg.ServerConfig{TriggerURL: "http://gateway:9000/", HTTPAddr: ":8080"},
			want: "http://gateway:9000/v1/queue/run",
		},
		{
			name: "bare port falls back to loopback",
			cfg:  cfgpkg.ServerConfig{HTTPAddr: ":8080"},
			want: "http://127.0.0.1:8080/v1/queue/run",
		},
		{
			name: "bound address kept",
			cfg:  cfgpkg.ServerConfig{HTTPAddr: "10.0.0.5:8080"},
			want: "http://10.0.0.5:8080/v1/queue/run",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := triggerEndpoint(tt.cfg); got != tt.want {
				t.Fatalf("triggerEndpoint() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.Storage.Backend = "etcd"
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := Run(ctx, Options{Config: cfg}); err == nil {
		t.Fatalf("expected validation error")
	}
}

// TestRunIntegration starts the real server briefly and lets the shutdown
// path run. Skipped in short mode.
func TestRunIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	cfg := cfgpkg.Default()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Storage.Fsync = "never"
	cfg.Server.HTTPAddr = "127.0.0.1:0"
	cfg.Log.Level = "error"

	handler := batchqueue.HandlerFunc(func(context.Context, []byte, string) ([]byte, bool, error) {
		return nil, true, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := Run(ctx, Options{Config: cfg, Handler: handler}); err != nil {
		t.Fatalf("run: %v", err)
	}
}
