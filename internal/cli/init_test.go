package cli

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"expenses/internal/config"
	"expenses/internal/log"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("EXPENSES_CLI_TEST_KEY=from-file\nEXPENSES_CLI_TEST_SET=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EXPENSES_CLI_TEST_SET", "from-env")
	t.Cleanup(func() { os.Unsetenv("EXPENSES_CLI_TEST_KEY") })

	LoadEnvFile(path)
	if got := os.Getenv("EXPENSES_CLI_TEST_KEY"); got != "from-file" {
		t.Errorf("EXPENSES_CLI_TEST_KEY = %q, want from-file", got)
	}
	if got := os.Getenv("EXPENSES_CLI_TEST_SET"); got != "from-env" {
		t.Errorf("existing variable overridden: %q", got)
	}

	// Missing files are not an error.
	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "sqlite")
	cfg, err := LoadAndValidateConfig(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}

	t.Setenv("PORT", "not-a-port")
	if _, err := LoadAndValidateConfig(nil); err == nil {
		t.Fatal("expected validation error")
	}

	t.Setenv("PORT", "9090")
	t.Setenv("AMQP_URL", "")
	if _, err := LoadAndValidateConfig((*config.Config).ValidateWorker); err == nil {
		t.Fatal("worker validation should require AMQP_URL")
	}
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger("debug", "json")
	if !logger.Enabled(context.Background(), log.ParseLevel("debug")) {
		t.Error("debug level not enabled")
	}
	if logger.Component() != log.ComponentApp {
		t.Errorf("component = %q", logger.Component())
	}
}

func TestGracefulShutdownOnSignal(t *testing.T) {
	ctx, stop := GracefulShutdown(context.Background(), log.Discard())
	defer stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("send signal: %v", err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled after SIGTERM")
	}
}

func TestGracefulShutdownStop(t *testing.T) {
	ctx, stop := GracefulShutdown(context.Background(), log.Discard())
	stop()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("stop did not cancel the context")
	}
}
