// Package config loads stackquery settings from a TOML file and the
// environment.
//
// Precedence, lowest first: built-in defaults, the config file, environment
// variables, command-line flags (applied by the caller).
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/xhit/go-str2duration/v2"

	sqerrors "github.com/matzehuels/stackquery/pkg/errors"
)

const appName = "stackquery"

// Environment variables read by Load.
const (
	EnvConfig      = "STACKQUERY_CONFIG"
	EnvGitHubToken = "GITHUB_TOKEN"
	EnvRedisURL    = "STACKQUERY_REDIS_URL"
	EnvMongoURI    = "STACKQUERY_MONGO_URI"
)

// Persistence backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Duration is a time.Duration that also accepts day and week units
// ("1d", "2w3d") in the config file.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := str2duration.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(str2duration.String(time.Duration(d))), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds all settings.
type Config struct {
	Query     QueryConfig     `toml:"query"`
	Cache     CacheConfig     `toml:"cache"`
	GitHub    GitHubConfig    `toml:"github"`
	Fakestore FakestoreConfig `toml:"fakestore"`
	Watch     WatchConfig     `toml:"watch"`
}

// QueryConfig tunes the query cache.
type QueryConfig struct {
	StaleTime    Duration `toml:"stale_time"`
	FetchTimeout Duration `toml:"fetch_timeout"`
}

// CacheConfig selects where successful results are persisted.
type CacheConfig struct {
	Backend string   `toml:"backend"`
	Dir     string   `toml:"dir"`
	TTL     Duration `toml:"ttl"`

	// Namespace separates the persisted results of several profiles that
	// share one store.
	Namespace string `toml:"namespace"`

	RedisURL    string `toml:"redis_url"`
	RedisPrefix string `toml:"redis_prefix"`

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// GitHubConfig configures the GitHub client.
type GitHubConfig struct {
	Token   string `toml:"token"`
	BaseURL string `toml:"base_url"`
	Repo    string `toml:"repo"`
}

// FakestoreConfig configures the catalog client.
type FakestoreConfig struct {
	BaseURL  string `toml:"base_url"`
	Category string `toml:"category"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Interval Duration `toml:"interval"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			Backend:         BackendFile,
			TTL:             Duration(24 * time.Hour),
			RedisPrefix:     appName,
			MongoDatabase:   appName,
			MongoCollection: "queries",
		},
		GitHub:    GitHubConfig{Repo: "tannerlinsley/react-query"},
		Fakestore: FakestoreConfig{Category: "jewelery"},
		Watch:     WatchConfig{Interval: Duration(time.Second)},
	}
}

// Path returns the config file location: $STACKQUERY_CONFIG, or
// config.toml under the user's config directory.
func Path() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, "config.toml"), nil
}

// Load reads the file at path over the defaults and applies environment
// overrides. A missing file is not an error; an empty path uses [Path].
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := Path()
		if err != nil {
			return cfg, sqerrors.Wrap(sqerrors.ErrCodeInvalidConfig, err, "locate config file")
		}
		path = p
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, sqerrors.Wrap(sqerrors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvGitHubToken); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Cache.RedisURL = v
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		c.Cache.MongoURI = v
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			return sqerrors.New(sqerrors.ErrCodeInvalidConfig, "cache backend redis requires redis_url or %s", EnvRedisURL)
		}
	case BackendMongo:
		if c.Cache.MongoURI == "" {
			return sqerrors.New(sqerrors.ErrCodeInvalidConfig, "cache backend mongo requires mongo_uri or %s", EnvMongoURI)
		}
	default:
		return sqerrors.New(sqerrors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Query.StaleTime < 0 || c.Query.FetchTimeout < 0 || c.Cache.TTL < 0 {
		return sqerrors.New(sqerrors.ErrCodeInvalidConfig, "durations cannot be negative")
	}
	if c.Watch.Interval <= 0 {
		return sqerrors.New(sqerrors.ErrCodeInvalidConfig, "watch interval must be positive")
	}
	if c.GitHub.BaseURL != "" {
		if err := sqerrors.ValidateURL(c.GitHub.BaseURL); err != nil {
			return err
		}
	}
	if c.Fakestore.BaseURL != "" {
		if err := sqerrors.ValidateURL(c.Fakestore.BaseURL); err != nil {
			return err
		}
	}
	return nil
}
