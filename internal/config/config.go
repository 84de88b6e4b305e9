// Package config builds the single CineFind configuration object.
//
// Values come from, in increasing precedence: defaults, the TOML file,
// the environment, and command-line flags (applied by cmd/cinefind). The
// resulting *Config is passed explicitly to every component that needs it.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
)

// Trending backends.
const (
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
)

// ErrMissingToken is returned by Validate when no TMDB token could be found.
var ErrMissingToken = errors.New("tmdb token is required (set TMDB_API_KEY, tmdb.token or tmdb.token_secret_arn)")

// Duration is a time.Duration that reads and writes as "1s", "250ms", ...
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", string(b))
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config is the complete application configuration.
type Config struct {
	DataDir  string         `toml:"data_dir"`
	LogLevel string         `toml:"log_level"`
	TMDB     TMDBConfig     `toml:"tmdb"`
	Search   SearchConfig   `toml:"search"`
	Trending TrendingConfig `toml:"trending"`
}

// TMDBConfig configures the movie metadata API client.
type TMDBConfig struct {
	BaseURL      string `toml:"base_url"`
	ImageBaseURL string `toml:"image_base_url"`
	// Token is the v4 read access token sent as a bearer token.
	Token          string `toml:"token,omitempty"`
	TokenSecretARN string `toml:"token_secret_arn,omitempty"`
	// Timeout of 0 leaves requests unbounded.
	Timeout           Duration `toml:"timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
}

// SearchConfig configures the search controller.
type SearchConfig struct {
	Debounce Duration `toml:"debounce"`
}

// TrendingConfig selects and configures the trending counter store.
type TrendingConfig struct {
	Backend string `toml:"backend"`
	Limit   int    `toml:"limit"`
	// DynamoDB only.
	Table  string `toml:"table,omitempty"`
	Index  string `toml:"index,omitempty"`
	Region string `toml:"region,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir:  defaultDataDir(),
		LogLevel: "info",
		TMDB: TMDBConfig{
			BaseURL:           "https://api.themoviedb.org/3",
			ImageBaseURL:      "https://image.tmdb.org/t/p/w500",
			RequestsPerSecond: 20,
		},
		Search: SearchConfig{
			Debounce: Duration(time.Second),
		},
		Trending: TrendingConfig{
			Backend: BackendSQLite,
			Limit:   5,
			Table:   "cinefind-search-counts",
			Index:   "by-count",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cinefind"
	}
	return filepath.Join(home, ".cinefind")
}

// DefaultPath returns ~/.cinefind/config.toml.
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "config.toml")
}

// Load reads the TOML file at path over the defaults.
// A missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, creating the directory if needed.
// The token is never written; keep it in the environment or a secret.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	out := *c
	out.TMDB.Token = ""
	data, err := toml.Marshal(&out)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return os.WriteFile(path, data, 0600)
}

// ApplyEnv overlays environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv("TMDB_API_KEY")); v != "" {
		c.TMDB.Token = v
	}
	if v := strings.TrimSpace(getenv("TMDB_TOKEN_SECRET_ARN")); v != "" {
		c.TMDB.TokenSecretARN = v
	}
	if v := strings.TrimSpace(getenv("CINEFIND_DATA_DIR")); v != "" {
		c.DataDir = v
	}
	if v := strings.TrimSpace(getenv("CINEFIND_LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(getenv("CINEFIND_TRENDING_BACKEND")); v != "" {
		c.Trending.Backend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(getenv("CINEFIND_TRENDING_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Trending.Limit = n
		}
	}
	if v := strings.TrimSpace(getenv("AWS_REGION")); v != "" {
		c.Trending.Region = v
	}
}

// Validate checks the configuration is usable. Call after ResolveToken.
func (c *Config) Validate() error {
	if c.TMDB.Token == "" {
		return ErrMissingToken
	}
	if err := c.ValidateTrending(); err != nil {
		return err
	}
	if c.Search.Debounce < 0 {
		return errors.New("search.debounce must not be negative")
	}
	return nil
}

// ValidateTrending checks only the trending store settings, for commands
// that never call TMDB.
func (c *Config) ValidateTrending() error {
	switch c.Trending.Backend {
	case BackendSQLite:
	case BackendDynamoDB:
		if c.Trending.Table == "" {
			return errors.New("trending.table is required for the dynamodb backend")
		}
		if c.Trending.Index == "" {
			return errors.New("trending.index is required for the dynamodb backend")
		}
	default:
		return errors.Newf("unknown trending backend %q", c.Trending.Backend)
	}
	if c.Trending.Limit <= 0 {
		return errors.Newf("trending.limit must be positive, got %d", c.Trending.Limit)
	}
	return nil
}

// DBPath is the SQLite trending store location.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "cinefind.db")
}

// EventLogPath is the JSONL event log location.
func (c *Config) EventLogPath() string {
	return filepath.Join(c.DataDir, "events.jsonl")
}
