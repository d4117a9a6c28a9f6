package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/me/trakt/pkg/trakt"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv(EnvClientID, "")
	t.Setenv(EnvClientSecret, "")
	t.Setenv(EnvAPIURL, "")

	path := writeFile(t, "config.yaml", `
client_id: file-id
client_secret: file-secret
api_url: https://api-staging.trakt.tv
pagination: true
sanitize: false
timeout: 5s
log_level: debug
store: sqlite
profile: work
`)
	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ClientID != "file-id" || cfg.ClientSecret != "file-secret" {
		t.Errorf("credentials = %q/%q", cfg.ClientID, cfg.ClientSecret)
	}
	if cfg.APIURL != "https://api-staging.trakt.tv" || !cfg.Pagination {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.Sanitize == nil || *cfg.Sanitize {
		t.Errorf("Sanitize = %v", cfg.Sanitize)
	}
	if cfg.Store != "sqlite" || cfg.Profile != "work" {
		t.Errorf("store = %q, profile = %q", cfg.Store, cfg.Profile)
	}
	// Unset keys keep their defaults.
	if cfg.RedirectURI != trakt.DefaultRedirectURI || cfg.LogFormat != "text" || cfg.LogLevel != "debug" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoad_Missing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := Load(missing, false)
	if err != nil {
		t.Fatalf("Load(optional) error = %v", err)
	}
	if cfg.APIURL != trakt.DefaultAPIURL {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}

	if _, err := Load(missing, true); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load(required) error = %v, want not exist", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := writeFile(t, "config.yaml", "timeout: [1, 2]\n")
	if _, err := Load(path, true); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Errorf("Load() error = %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvClientID, "env-id")
	t.Setenv(EnvClientSecret, "env-secret")
	t.Setenv(EnvAPIURL, "http://127.0.0.1:9999")

	path := writeFile(t, "config.yaml", "client_id: file-id\napi_url: https://api.trakt.tv\n")
	cfg, err := Load(path, true)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ClientID != "env-id" || cfg.ClientSecret != "env-secret" || cfg.APIURL != "http://127.0.0.1:9999" {
		t.Errorf("env not applied: %+v", cfg)
	}
}

func TestApplyEnv_Unset(t *testing.T) {
	cfg := Config{ClientID: "keep"}
	cfg.ApplyEnv(func(string) string { return "" })
	if cfg.ClientID != "keep" {
		t.Errorf("ClientID = %q", cfg.ClientID)
	}
}

func TestCredentialsPath(t *testing.T) {
	cfg := Config{Credentials: "/tmp/creds.json"}
	if p, _ := cfg.CredentialsPath(); p != "/tmp/creds.json" {
		t.Errorf("CredentialsPath() = %q", p)
	}

	t.Setenv("HOME", t.TempDir())
	p, err := Config{}.CredentialsPath()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(p, filepath.Join(".trakt", "credentials.json")) {
		t.Errorf("CredentialsPath() = %q", p)
	}
}

func TestClientConfig(t *testing.T) {
	off := false
	cfg := DefaultConfig()
	cfg.ClientID = "id"
	cfg.ClientSecret = "secret"
	cfg.Sanitize = &off

	cc, err := cfg.ClientConfig()
	if err != nil {
		t.Fatalf("ClientConfig() error = %v", err)
	}
	if cc.ClientID != "id" || cc.ClientSecret != "secret" || cc.APIURL != trakt.DefaultAPIURL {
		t.Errorf("ClientConfig() = %+v", cc)
	}
	if !cc.DisableSanitize {
		t.Error("sanitize: false not honored")
	}
	if len(cc.Table) == 0 {
		t.Error("built-in table not loaded")
	}
	if err := cc.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	cfg.Sanitize = nil
	cc, _ = cfg.ClientConfig()
	if cc.DisableSanitize {
		t.Error("sanitize should default on")
	}
}

func TestClientConfig_EndpointsFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClientID = "id"
	cfg.Endpoints = writeFile(t, "endpoints.yaml", "genres/list:\n  url: /genres/:type\n")

	cc, err := cfg.ClientConfig()
	if err != nil {
		t.Fatalf("ClientConfig() error = %v", err)
	}
	if len(cc.Table) != 1 || cc.Table["genres/list"].Method != "GET" {
		t.Errorf("Table = %+v", cc.Table)
	}

	cfg.Endpoints = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := cfg.ClientConfig(); err == nil {
		t.Error("ClientConfig() with missing table returned no error")
	}
}

func TestStoreLocation(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	kind, path, err := Config{Credentials: "/tmp/c.json"}.StoreLocation()
	if err != nil || kind != "file" || path != "/tmp/c.json" {
		t.Errorf("file store = %q, %q, %v", kind, path, err)
	}

	kind, path, err = Config{Store: "sqlite"}.StoreLocation()
	if err != nil || kind != "sqlite" || !strings.HasSuffix(path, filepath.Join(".trakt", "tokens.db")) {
		t.Errorf("sqlite store = %q, %q, %v", kind, path, err)
	}

	_, path, _ = Config{Store: "sqlite", StorePath: "/var/lib/trakt.db"}.StoreLocation()
	if path != "/var/lib/trakt.db" {
		t.Errorf("sqlite store_path = %q", path)
	}

	if _, _, err := (Config{Store: "etcd"}).StoreLocation(); err == nil {
		t.Error("unknown store accepted")
	}
}
