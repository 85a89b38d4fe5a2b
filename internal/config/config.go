// Package config loads dungeonforge settings.
//
// Settings come from three layers, later ones winning: built-in defaults,
// a TOML file (dungeonforge.toml) and DUNGEONFORGE_* environment
// variables. Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"

	dferrors "github.com/matzehuels/dungeonforge/pkg/errors"
)

// FileName is the configuration file looked up in the user config
// directory.
const FileName = "dungeonforge.toml"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreMongo  = "mongo"
)

type Config struct {
	Server     ServerConfig     `toml:"server"`
	Cache      CacheConfig      `toml:"cache"`
	Store      StoreConfig      `toml:"store"`
	Simulation SimulationConfig `toml:"simulation"`
	Log        LogConfig        `toml:"log"`
}

type ServerConfig struct {
	Addr string `toml:"addr" env:"DUNGEONFORGE_ADDR"`
	// JobTTL is how long simulation jobs are kept.
	JobTTL time.Duration `toml:"job_ttl" env:"DUNGEONFORGE_JOB_TTL"`
}

type CacheConfig struct {
	Backend string `toml:"backend" env:"DUNGEONFORGE_CACHE"`
	// Dir is the file cache directory; empty uses the user cache dir.
	Dir       string        `toml:"dir" env:"DUNGEONFORGE_CACHE_DIR"`
	RedisURL  string        `toml:"redis_url" env:"DUNGEONFORGE_REDIS_URL"`
	ResultTTL time.Duration `toml:"result_ttl" env:"DUNGEONFORGE_RESULT_TTL"`
	// KeyPrefix namespaces cache keys, e.g. per deployment sharing a Redis.
	KeyPrefix string `toml:"key_prefix" env:"DUNGEONFORGE_CACHE_PREFIX"`
}

type StoreConfig struct {
	Backend  string `toml:"backend" env:"DUNGEONFORGE_STORE"`
	Dir      string `toml:"dir" env:"DUNGEONFORGE_STORE_DIR"`
	MongoURI string `toml:"mongo_uri" env:"DUNGEONFORGE_MONGO_URI"`
	Database string `toml:"database" env:"DUNGEONFORGE_MONGO_DATABASE"`
}

type SimulationConfig struct {
	// Workers bounds simulation parallelism; 0 uses GOMAXPROCS.
	Workers int `toml:"workers" env:"DUNGEONFORGE_WORKERS"`
	Runs    int `toml:"runs" env:"DUNGEONFORGE_RUNS"`
}

type LogConfig struct {
	Level string `toml:"level" env:"DUNGEONFORGE_LOG_LEVEL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:     ServerConfig{Addr: ":8080", JobTTL: 24 * time.Hour},
		Cache:      CacheConfig{Backend: CacheFile, ResultTTL: 7 * 24 * time.Hour},
		Store:      StoreConfig{Backend: StoreMemory, Database: "dungeonforge"},
		Simulation: SimulationConfig{Runs: 100},
		Log:        LogConfig{Level: "info"},
	}
}

// DefaultPath returns the config file location in the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "dungeonforge", FileName), nil
}

// Load reads the configuration. An empty path reads the default location
// if a file exists there; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return Config{}, err
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, dferrors.Wrap(dferrors.ErrCodeInvalidInput, err, "parse env")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return dferrors.Wrap(dferrors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return dferrors.Wrap(dferrors.ErrCodeInvalidFormat, err, "config file %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return dferrors.New(dferrors.ErrCodeInvalidFormat, "config file %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// Validate checks backend names and numeric ranges.
func (c *Config) Validate() error {
	if !slices.Contains([]string{CacheFile, CacheRedis, CacheNone}, c.Cache.Backend) {
		return dferrors.New(dferrors.ErrCodeInvalidInput, "invalid cache backend %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisURL == "" {
		return dferrors.New(dferrors.ErrCodeInvalidInput, "redis cache requires redis_url")
	}
	if !slices.Contains([]string{StoreMemory, StoreFile, StoreMongo}, c.Store.Backend) {
		return dferrors.New(dferrors.ErrCodeInvalidInput, "invalid store backend %q (must be one of: memory, file, mongo)", c.Store.Backend)
	}
	if c.Store.Backend == StoreMongo && c.Store.MongoURI == "" {
		return dferrors.New(dferrors.ErrCodeInvalidInput, "mongo store requires mongo_uri")
	}
	if c.Simulation.Workers < 0 {
		return dferrors.New(dferrors.ErrCodeInvalidInput, "workers must not be negative, got %d", c.Simulation.Workers)
	}
	if c.Simulation.Runs < 0 {
		return dferrors.New(dferrors.ErrCodeInvalidInput, "runs must not be negative, got %d", c.Simulation.Runs)
	}
	if _, err := c.Log.ParseLevel(); err != nil {
		return err
	}
	return nil
}

// ParseLevel returns the configured log level.
func (l LogConfig) ParseLevel() (log.Level, error) {
	lvl, err := log.ParseLevel(l.Level)
	if err != nil {
		return 0, dferrors.Wrap(dferrors.ErrCodeInvalidInput, err, "log level")
	}
	return lvl, nil
}

// String renders the configuration as TOML.
func (c Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return b.String()
}
