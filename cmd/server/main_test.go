package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmynk/splitledger/internal/config"
)

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("%v failed: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestMigrateCommands(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	url := "sqlite:" + filepath.Join(t.TempDir(), "cli.db")
	envFile := filepath.Join(t.TempDir(), "none.env")

	if out := runCommand(t, "migrate", "version", "--database-url", url, "--env-file", envFile); !strings.Contains(out, "version 0") {
		t.Errorf("fresh database: %q", out)
	}
	if out := runCommand(t, "migrate", "up", "--database-url", url, "--env-file", envFile); !strings.Contains(out, "version 1") {
		t.Errorf("after up: %q", out)
	}
	if out := runCommand(t, "migrate", "down", "--steps", "1", "--database-url", url, "--env-file", envFile); !strings.Contains(out, "version 0") {
		t.Errorf("after down: %q", out)
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite:/tmp/from-env.db")
	t.Setenv("LOG_FORMAT", "json")

	root := newRootCommand()
	serve, _, err := root.Find([]string{"serve"})
	if err != nil {
		t.Fatal(err)
	}
	if err := serve.ParseFlags([]string{"--addr", ":9090", "--legacy-api=false", "--log-format", "text"}); err != nil {
		t.Fatal(err)
	}

	cfg := loadForTest(t)
	if err := applyFlags(serve, cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q, want :9090", cfg.Addr)
	}
	if cfg.LegacyAPI {
		t.Error("LegacyAPI should be false")
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want text", cfg.LogFormat)
	}
	if cfg.DatabaseURL != "sqlite:/tmp/from-env.db" {
		t.Errorf("DatabaseURL = %q, env value should be kept", cfg.DatabaseURL)
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/login", nil))

	if rec.Code != http.StatusOK || called {
		t.Errorf("preflight: code %d, next called %v", rec.Code, called)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "Authorization") {
		t.Error("Authorization should be an allowed header")
	}
}

func loadForTest(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}
