// Package config loads modscope settings from defaults, an optional TOML
// file, a .env file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
)

// Keyring coordinates of the CurseForge API key.
const (
	KeyringService = "modscope"
	KeyringUser    = "curseforge"
)

// Failure policies accepted in provider sections.
const (
	PolicyStrict   = "strict"
	PolicyTolerant = "tolerant"
)

// Config holds application configuration.
type Config struct {
	CacheDir   string         `toml:"cache_dir"`
	CacheTTL   time.Duration  `toml:"cache_ttl"`
	Workers    int            `toml:"workers"`
	Port       int            `toml:"port"`
	DBPath     string         `toml:"db"`
	Debug      bool           `toml:"debug"`
	HTTP       HTTPConfig     `toml:"http"`
	CurseForge ProviderConfig `toml:"curseforge"`
	Modrinth   ProviderConfig `toml:"modrinth"`
}

// HTTPConfig tunes the retrying fetcher.
type HTTPConfig struct {
	Timeout     time.Duration `toml:"timeout"`
	MaxAttempts int           `toml:"max_attempts"`
	BackoffBase time.Duration `toml:"backoff_base"`
	BackoffMax  time.Duration `toml:"backoff_max"`
}

// ProviderConfig holds per-provider settings.
type ProviderConfig struct {
	BaseURL         string        `toml:"base_url"`
	APIKey          string        `toml:"api_key"`
	PageSize        int           `toml:"page_size"`
	PageDelay       time.Duration `toml:"page_delay"`
	FailurePolicy   string        `toml:"failure_policy"`
	MaxPageFailures int           `toml:"max_page_failures"`
}

// Tolerant reports whether failed pages are skipped rather than fatal.
func (p ProviderConfig) Tolerant() bool {
	return p.FailurePolicy == PolicyTolerant
}

func xdgDir(env, fallback string) string {
	dir := os.Getenv(env)
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, fallback)
	}
	return filepath.Join(dir, "modscope")
}

// DefaultDBPath returns the default history database path using XDG_CACHE_HOME.
func DefaultDBPath() string {
	return filepath.Join(xdgDir("XDG_CACHE_HOME", ".cache"), "history.db")
}

// DefaultCacheDir returns the default page cache directory using XDG_CACHE_HOME.
func DefaultCacheDir() string {
	return filepath.Join(xdgDir("XDG_CACHE_HOME", ".cache"), "pages")
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "config.toml")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		CacheDir: DefaultCacheDir(),
		CacheTTL: 24 * time.Hour,
		Workers:  8,
		Port:     8080,
		DBPath:   DefaultDBPath(),
		HTTP: HTTPConfig{
			Timeout:     10 * time.Second,
			MaxAttempts: 5,
			BackoffBase: time.Second,
			BackoffMax:  30 * time.Second,
		},
		CurseForge: ProviderConfig{
			PageSize:        50,
			PageDelay:       200 * time.Millisecond,
			FailurePolicy:   PolicyTolerant,
			MaxPageFailures: 3,
		},
		Modrinth: ProviderConfig{
			PageSize:      50,
			PageDelay:     200 * time.Millisecond,
			FailurePolicy: PolicyStrict,
		},
	}
}

// Load builds Config. path names a TOML file; when empty, MODSCOPE_CONFIG and
// then DefaultConfigPath are tried, and a missing default file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("MODSCOPE_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultConfigPath()
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.CurseForge.APIKey == "" {
		if key, err := keyring.Get(KeyringService, KeyringUser); err == nil {
			cfg.CurseForge.APIKey = key
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if key := strings.TrimSpace(os.Getenv("CF_API_KEY")); key != "" {
		cfg.CurseForge.APIKey = key
	}
	if v := os.Getenv("DEBUG"); v != "" {
		// Anything that does not parse as a boolean means off.
		debug, _ := strconv.ParseBool(v)
		cfg.Debug = debug
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil || secs <= 0 {
			return fmt.Errorf("REQUEST_TIMEOUT: %q is not a positive number of seconds", v)
		}
		cfg.HTTP.Timeout = time.Duration(secs * float64(time.Second))
	}
	if dir := os.Getenv("MODSCOPE_CACHE_DIR"); dir != "" {
		cfg.CacheDir = dir
	}
	if db := os.Getenv("MODSCOPE_DB"); db != "" {
		cfg.DBPath = db
	}
	if port := os.Getenv("MODSCOPE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	return nil
}

func (c *Config) validate() error {
	for name, p := range map[string]ProviderConfig{"curseforge": c.CurseForge, "modrinth": c.Modrinth} {
		if p.FailurePolicy != PolicyStrict && p.FailurePolicy != PolicyTolerant {
			return fmt.Errorf("%s.failure_policy: want %q or %q, got %q", name, PolicyStrict, PolicyTolerant, p.FailurePolicy)
		}
		if p.PageSize < 0 {
			return fmt.Errorf("%s.page_size: must not be negative", name)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers: must not be negative")
	}
	return nil
}
