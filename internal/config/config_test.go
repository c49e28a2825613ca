package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.App.Name != "lunban" {
		t.Errorf("Expected app name lunban, got %s", cfg.App.Name)
	}
	if cfg.App.Port != 7012 {
		t.Errorf("Expected port 7012, got %d", cfg.App.Port)
	}
	if cfg.Optimize.Attempts != 4 {
		t.Errorf("Expected 4 attempts, got %d", cfg.Optimize.Attempts)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("Unexpected metrics defaults: %+v", cfg.Metrics)
	}
	// Normalize 后求解参数已落到合法区间
	if cfg.Solver.Weeks < 1 {
		t.Errorf("Solver weeks should be normalized, got %d", cfg.Solver.Weeks)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("API_KEY", "secret-key")
	t.Setenv("OPTIMIZE_IN_PROCESS", "true")
	t.Setenv("SOLVER_TIME_BUDGET", "45s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.App.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.App.Port)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("Expected db host override, got %s", cfg.Database.Host)
	}
	if cfg.API.APIKey != "secret-key" {
		t.Errorf("Expected api key override, got %s", cfg.API.APIKey)
	}
	if !cfg.Optimize.InProcess {
		t.Error("Expected in-process override")
	}
	if cfg.Solver.TimeBudget != 45*time.Second {
		t.Errorf("Expected 45s time budget, got %s", cfg.Solver.TimeBudget)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  name: paiban-test
  port: 8100
optimize:
  attempts: 8
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("Write config file failed: %v", err)
	}
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.App.Name != "paiban-test" {
		t.Errorf("Expected yaml name override, got %s", cfg.App.Name)
	}
	if cfg.App.Port != 8100 {
		t.Errorf("Expected yaml port override, got %d", cfg.App.Port)
	}
	if cfg.Optimize.Attempts != 8 {
		t.Errorf("Expected 8 attempts from yaml, got %d", cfg.Optimize.Attempts)
	}
	// 文件没写的字段保持默认
	if cfg.Database.Port != 5432 {
		t.Errorf("Untouched fields should keep defaults, got db port %d", cfg.Database.Port)
	}
}

func TestLoadEnvBeatsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("app:\n  port: 8100\n"), 0o644); err != nil {
		t.Fatalf("Write config file failed: %v", err)
	}
	t.Setenv(EnvConfigPath, path)
	t.Setenv("APP_PORT", "9200")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.App.Port != 9200 {
		t.Errorf("Env should beat yaml, got %d", cfg.App.Port)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv(EnvConfigPath, "/nonexistent/config.yaml")
	if _, err := Load(); err == nil {
		t.Error("Missing config file should fail")
	}
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{
		Host: "localhost", Port: 5432, Name: "lunban",
		User: "lunban", Password: "pw", SSLMode: "disable",
	}
	want := "host=localhost port=5432 user=lunban password=pw dbname=lunban sslmode=disable"
	if got := c.DSN(); got != want {
		t.Errorf("DSN mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TEST_BAD_INT", "abc")
	if got := getEnvInt("TEST_BAD_INT", 7); got != 7 {
		t.Errorf("Bad int should fall back to default, got %d", got)
	}
	t.Setenv("TEST_BAD_BOOL", "maybe")
	if got := getEnvBool("TEST_BAD_BOOL", true); got != true {
		t.Errorf("Bad bool should fall back to default, got %v", got)
	}
	t.Setenv("TEST_BAD_DUR", "fast")
	if got := getEnvDuration("TEST_BAD_DUR", time.Minute); got != time.Minute {
		t.Errorf("Bad duration should fall back to default, got %s", got)
	}
}
