// Package config loads the trakt command's settings from a YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/me/trakt/internal/store"
	"github.com/me/trakt/pkg/trakt"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvClientID     = "TRAKT_CLIENT_ID"
	EnvClientSecret = "TRAKT_CLIENT_SECRET"
	EnvAPIURL       = "TRAKT_API_URL"
)

// Config holds configuration for the trakt command.
type Config struct {
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	APIURL       string        `yaml:"api_url"`      // default https://api.trakt.tv
	RedirectURI  string        `yaml:"redirect_uri"` // default urn:ietf:wg:oauth:2.0:oob
	Credentials  string        `yaml:"credentials"`  // default ~/.trakt/credentials.json
	Store        string        `yaml:"store"`        // file or sqlite
	StorePath    string        `yaml:"store_path"`   // default ~/.trakt/tokens.db
	Profile      string        `yaml:"profile"`      // token profile, default "default"
	Endpoints    string        `yaml:"endpoints"`    // endpoint table file; empty means built in
	Pagination   bool          `yaml:"pagination"`   // wrap every response
	Sanitize     *bool         `yaml:"sanitize"`     // default true
	Timeout      time.Duration `yaml:"timeout"`      // e.g. "30s"
	LogLevel     string        `yaml:"log_level"`    // debug, info, warn, error
	LogFormat    string        `yaml:"log_format"`   // text, json
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		APIURL:      trakt.DefaultAPIURL,
		RedirectURI: trakt.DefaultRedirectURI,
		Store:       store.KindFile,
		Profile:     store.DefaultProfile,
		Timeout:     trakt.DefaultTimeout,
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// Dir returns the settings directory (~/.trakt).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".trakt"), nil
}

// DefaultPath returns ~/.trakt/config.yaml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the file at path over the defaults and then applies the
// environment. A missing file is an error only when required is set.
func Load(path string, required bool) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !required:
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// ApplyEnv overrides fields from the TRAKT_* variables that are set.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvClientID); v != "" {
		c.ClientID = v
	}
	if v := getenv(EnvClientSecret); v != "" {
		c.ClientSecret = v
	}
	if v := getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
}

// CredentialsPath returns the credentials file, defaulting to
// ~/.trakt/credentials.json.
func (c Config) CredentialsPath() (string, error) {
	if c.Credentials != "" {
		return c.Credentials, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials.json"), nil
}

// StoreLocation returns the token store kind and the path it lives at.
func (c Config) StoreLocation() (kind, path string, err error) {
	switch c.Store {
	case "", store.KindFile:
		path, err = c.CredentialsPath()
		return store.KindFile, path, err
	case store.KindSQLite:
		if c.StorePath != "" {
			return store.KindSQLite, c.StorePath, nil
		}
		dir, err := Dir()
		if err != nil {
			return "", "", err
		}
		return store.KindSQLite, filepath.Join(dir, "tokens.db"), nil
	default:
		return "", "", fmt.Errorf("unknown store %q (want %s or %s)", c.Store, store.KindFile, store.KindSQLite)
	}
}

// Table returns the endpoint table the config names, or the built-in one.
func (c Config) Table() (trakt.Table, error) {
	if c.Endpoints == "" {
		return trakt.DefaultTable(), nil
	}
	return trakt.LoadTableFile(c.Endpoints)
}

// ClientConfig converts the settings into a library Config.
func (c Config) ClientConfig() (trakt.Config, error) {
	table, err := c.Table()
	if err != nil {
		return trakt.Config{}, err
	}
	out := trakt.DefaultConfig().
		WithClientID(c.ClientID).
		WithClientSecret(c.ClientSecret).
		WithAPIURL(c.APIURL).
		WithRedirectURI(c.RedirectURI).
		WithPagination(c.Pagination).
		WithTimeout(c.Timeout).
		WithTable(table)
	if c.Sanitize != nil && !*c.Sanitize {
		out = out.WithSanitizer(nil)
	}
	return out, nil
}
