package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zalando/go-keyring"
)

func TestMain(m *testing.M) {
	keyring.MockInit()
	os.Exit(m.Run())
}

// isolate points every lookup location at a fresh directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	for _, env := range []string{"MODSCOPE_CONFIG", "CF_API_KEY", "DEBUG", "REQUEST_TIMEOUT", "MODSCOPE_CACHE_DIR", "MODSCOPE_DB", "MODSCOPE_PORT"} {
		t.Setenv(env, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaultDBPath(t *testing.T) {
	t.Run("with XDG_CACHE_HOME", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "/custom/cache")
		path := DefaultDBPath()

		expected := "/custom/cache/modscope/history.db"
		if path != expected {
			t.Errorf("DefaultDBPath() = %q, want %q", path, expected)
		}
	})

	t.Run("without XDG_CACHE_HOME", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "")
		path := DefaultDBPath()

		if !strings.HasSuffix(path, filepath.Join(".cache", "modscope", "history.db")) {
			t.Errorf("DefaultDBPath() = %q, want suffix .cache/modscope/history.db", path)
		}
	})
}

func TestDefaultCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")
	if got := DefaultCacheDir(); got != "/custom/cache/modscope/pages" {
		t.Errorf("DefaultCacheDir() = %q", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if cfg.HTTP.MaxAttempts != 5 || cfg.HTTP.Timeout != 10*time.Second {
		t.Errorf("HTTP = %+v", cfg.HTTP)
	}
	if !cfg.CurseForge.Tolerant() || cfg.CurseForge.MaxPageFailures != 3 {
		t.Errorf("CurseForge policy = %q/%d, want tolerant/3", cfg.CurseForge.FailurePolicy, cfg.CurseForge.MaxPageFailures)
	}
	if cfg.Modrinth.Tolerant() {
		t.Error("Modrinth policy is tolerant, want strict")
	}
	if cfg.Debug {
		t.Error("Debug = true, want false")
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "modscope.toml")
	writeFile(t, path, `
workers = 4
cache_ttl = "2h"

[http]
timeout = "3s"
max_attempts = 2

[modrinth]
failure_policy = "tolerant"
max_page_failures = 5
page_delay = "50ms"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.CacheTTL != 2*time.Hour {
		t.Errorf("CacheTTL = %v, want 2h", cfg.CacheTTL)
	}
	if cfg.HTTP.Timeout != 3*time.Second || cfg.HTTP.MaxAttempts != 2 {
		t.Errorf("HTTP = %+v", cfg.HTTP)
	}
	if cfg.HTTP.BackoffBase != time.Second {
		t.Errorf("BackoffBase = %v, want default 1s", cfg.HTTP.BackoffBase)
	}
	if !cfg.Modrinth.Tolerant() || cfg.Modrinth.MaxPageFailures != 5 || cfg.Modrinth.PageDelay != 50*time.Millisecond {
		t.Errorf("Modrinth = %+v", cfg.Modrinth)
	}
}

func TestLoad_ConfigFromEnvPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "elsewhere.toml")
	writeFile(t, path, "port = 9999\n")
	t.Setenv("MODSCOPE_CONFIG", path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Port)
	}
}

func TestLoad_DefaultConfigPath(t *testing.T) {
	isolate(t)
	writeFile(t, DefaultConfigPath(), "workers = 2\n")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Workers)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	dir := isolate(t)

	if _, err := Load(filepath.Join(dir, "nope.toml")); err == nil {
		t.Error("Load() error = nil, want error for missing explicit file")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "modscope.toml")
	writeFile(t, path, "port = 1111\n[curseforge]\napi_key = \"from-file\"\n")

	t.Setenv("CF_API_KEY", "from-env")
	t.Setenv("DEBUG", "true")
	t.Setenv("REQUEST_TIMEOUT", "2.5")
	t.Setenv("MODSCOPE_CACHE_DIR", "/tmp/pages")
	t.Setenv("MODSCOPE_DB", "/tmp/h.db")
	t.Setenv("MODSCOPE_PORT", "9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.CurseForge.APIKey != "from-env" {
		t.Errorf("APIKey = %q, want from-env", cfg.CurseForge.APIKey)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	if cfg.HTTP.Timeout != 2500*time.Millisecond {
		t.Errorf("Timeout = %v, want 2.5s", cfg.HTTP.Timeout)
	}
	if cfg.CacheDir != "/tmp/pages" || cfg.DBPath != "/tmp/h.db" || cfg.Port != 9090 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	tests := []struct {
		env   string
		value string
	}{
		{"REQUEST_TIMEOUT", "soon"},
		{"REQUEST_TIMEOUT", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.env+"="+tt.value, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.env, tt.value)

			if _, err := Load(""); err == nil {
				t.Errorf("Load() error = nil, want error")
			}
		})
	}
}

func TestLoad_UnparsableDebugIsOff(t *testing.T) {
	for _, v := range []string{"yes", "1x", "maybe"} {
		t.Run(v, func(t *testing.T) {
			isolate(t)
			t.Setenv("DEBUG", v)

			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Debug {
				t.Error("Debug = true, want false")
			}
		})
	}
}

func TestLoad_InvalidPolicy(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "modscope.toml")
	writeFile(t, path, "[curseforge]\nfailure_policy = \"sometimes\"\n")

	if _, err := Load(path); err == nil {
		t.Error("Load() error = nil, want error for unknown policy")
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	os.Unsetenv("CF_API_KEY")
	writeFile(t, filepath.Join(dir, ".env"), "CF_API_KEY=from-dotenv\n")
	t.Cleanup(func() { os.Unsetenv("CF_API_KEY") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CurseForge.APIKey != "from-dotenv" {
		t.Errorf("APIKey = %q, want from-dotenv", cfg.CurseForge.APIKey)
	}
}

func TestLoad_KeyringFallback(t *testing.T) {
	isolate(t)
	if err := keyring.Set(KeyringService, KeyringUser, "from-keyring"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { keyring.Delete(KeyringService, KeyringUser) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CurseForge.APIKey != "from-keyring" {
		t.Errorf("APIKey = %q, want from-keyring", cfg.CurseForge.APIKey)
	}

	t.Setenv("CF_API_KEY", "from-env")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CurseForge.APIKey != "from-env" {
		t.Errorf("APIKey = %q, want env to win over keyring", cfg.CurseForge.APIKey)
	}
}
