// Package trakt provides a table-driven client for the Trakt HTTP API with
// an OAuth2 token lifecycle (authorization code, device code, refresh,
// import/export and revoke).
package trakt

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// Default client settings.
const (
	DefaultAPIURL      = "https://api.trakt.tv"
	DefaultRedirectURI = "urn:ietf:wg:oauth:2.0:oob"
	DefaultUserAgent   = "trakt-go/1.0 (+https://github.com/me/trakt)"
	DefaultTimeout     = 30 * time.Second

	// APIVersion is sent as the trakt-api-version header on every call.
	APIVersion = "2"
)

var validate = validator.New()

// Config holds all configuration for the API client.
type Config struct {
	// ClientID is the OAuth application client id. Required.
	ClientID string `validate:"required"`

	// ClientSecret is the OAuth application secret. Calls to endpoints that
	// require authorization fail without it.
	ClientSecret string

	// RedirectURI is the OAuth redirect URI registered for the application.
	RedirectURI string

	// APIURL is the API base URL, without a trailing slash.
	APIURL string `validate:"omitempty,url"`

	// Pagination wraps every response in a pagination envelope unless a
	// call overrides it.
	Pagination bool

	// UserAgent is sent with every request.
	UserAgent string

	// DisableSanitize returns response strings as sent. By default every
	// string in a response goes through Sanitizer.
	DisableSanitize bool

	// Sanitizer rewrites response strings. Nil means DefaultSanitizer.
	Sanitizer func(string) string

	// Timeout is the HTTP client timeout for each request.
	Timeout time.Duration `validate:"gte=0"`

	// Table is the endpoint table. Nil means the embedded default table.
	Table Table
}

// DefaultConfig returns a Config with production defaults. ClientID must
// still be set.
func DefaultConfig() Config {
	return Config{
		APIURL:      DefaultAPIURL,
		RedirectURI: DefaultRedirectURI,
		UserAgent:   DefaultUserAgent,
		Timeout:     DefaultTimeout,
	}
}

// WithClientID returns a copy of the config with the given client id.
func (c Config) WithClientID(id string) Config {
	c.ClientID = id
	return c
}

// WithClientSecret returns a copy of the config with the given client secret.
func (c Config) WithClientSecret(secret string) Config {
	c.ClientSecret = secret
	return c
}

// WithAPIURL returns a copy of the config pointing at a different API.
func (c Config) WithAPIURL(u string) Config {
	c.APIURL = u
	return c
}

// WithRedirectURI returns a copy of the config with the given redirect URI.
func (c Config) WithRedirectURI(u string) Config {
	c.RedirectURI = u
	return c
}

// WithPagination returns a copy of the config with client-wide pagination on or off.
func (c Config) WithPagination(on bool) Config {
	c.Pagination = on
	return c
}

// WithSanitizer returns a copy of the config that sanitizes responses with fn.
// A nil fn disables sanitizing.
func (c Config) WithSanitizer(fn func(string) string) Config {
	c.DisableSanitize = fn == nil
	c.Sanitizer = fn
	return c
}

// WithTimeout returns a copy of the config with the specified timeout.
func (c Config) WithTimeout(timeout time.Duration) Config {
	c.Timeout = timeout
	return c
}

// WithTable returns a copy of the config using the given endpoint table.
func (c Config) WithTable(t Table) Config {
	c.Table = t
	return c
}

// withDefaults fills unset string fields. Booleans are taken as given.
func (c Config) withDefaults() Config {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.RedirectURI == "" {
		c.RedirectURI = DefaultRedirectURI
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if !c.DisableSanitize && c.Sanitizer == nil {
		c.Sanitizer = DefaultSanitizer
	}
	return c
}

// Validate checks the configuration and returns a *ConfigError on failure.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return &ConfigError{Err: err}
	}
	ce := &ConfigError{}
	for _, fe := range valErrs {
		ce.Fields = append(ce.Fields, FieldProblem{Field: fe.Field(), Rule: fe.Tag()})
	}
	return ce
}
