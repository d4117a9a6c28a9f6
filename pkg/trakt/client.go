package trakt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"
)

// Client calls the methods of an endpoint table and owns one
// authentication state.
type Client struct {
	config    Config
	transport Transport
	logger    *slog.Logger
	now       func() time.Time

	root    *Namespace
	methods map[string]*Method

	mu   sync.RWMutex
	auth authState
}

// Option customizes a Client.
type Option func(*Client)

// WithTransport replaces the HTTP transport.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithHTTPClient sends requests through hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.transport = NewHTTPTransport(hc) }
}

// NewClient validates config and builds a client with one method per
// endpoint of config.Table (or the embedded table).
func NewClient(config Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config = config.withDefaults()
	config.APIURL = strings.TrimRight(config.APIURL, "/")

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Client{
		config: config,
		logger: logger.With("component", "trakt-client"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = NewHTTPTransport(&http.Client{Timeout: config.Timeout})
	}

	table := config.Table
	if table == nil {
		table = DefaultTable()
	}
	c.root, c.methods = buildNamespace(c, table)
	c.config.Table = nil

	return c, nil
}

// Config returns the client's configuration with defaults applied.
func (c *Client) Config() Config {
	return c.config
}

// Namespace returns the root of the method tree.
func (c *Client) Namespace() *Namespace {
	return c.root
}

// Methods returns the canonical names of all methods, sorted.
func (c *Client) Methods() []string {
	return slices.Sorted(maps.Keys(c.methods))
}

// Method looks a method up by "/" or "." separated path.
func (c *Client) Method(path string) (*Method, error) {
	m := c.root.Lookup(path).Callable()
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, path)
	}
	return m, nil
}

// Call looks a method up and invokes it.
func (c *Client) Call(ctx context.Context, path string, params Params) (*Result, error) {
	m, err := c.Method(path)
	if err != nil {
		return nil, err
	}
	return m.Call(ctx, params)
}

func (c *Client) bind(m *Method, params Params) (string, error) {
	path, err := Bind(m.endpoint, params)
	if err != nil {
		var be *BindingError
		if errors.As(err, &be) {
			be.Endpoint = m.name
		}
		return "", err
	}
	return c.config.APIURL + path, nil
}

// call runs one method: auth precondition, binding, body assembly,
// dispatch and normalization.
func (c *Client) call(ctx context.Context, m *Method, params Params) (*Result, error) {
	ep := m.endpoint
	auth := c.authSnapshot()

	if ep.Opts.Auth == AuthRequired && (auth.accessToken == "" || c.config.ClientSecret == "") {
		return nil, WrapError(m.name, ErrAuthorizationRequired)
	}

	url, err := c.bind(m, params)
	if err != nil {
		return nil, err
	}

	header := c.apiHeader()
	if ep.Opts.Auth != AuthNone && auth.accessToken != "" {
		header.Set("Authorization", "Bearer "+auth.accessToken)
	}

	var body []byte
	if ep.Method != http.MethodGet {
		body, err = json.Marshal(buildBody(ep.Body, params))
		if err != nil {
			return nil, WrapError(m.name, fmt.Errorf("marshaling body: %w", err))
		}
	}

	logger := c.logger.With("method", m.name)
	logger.Debug("sending request", "verb", ep.Method, "url", url)

	resp, err := c.transport.Send(ctx, &Request{
		Method: ep.Method,
		URL:    url,
		Header: header,
		Body:   body,
	})
	if err != nil {
		logger.Debug("request failed", "error", err)
		return nil, WrapError(m.name, err)
	}
	logger.Debug("request successful", "status", resp.StatusCode)

	return c.normalize(m.name, ep, params, resp)
}

// apiHeader returns the headers sent on every API call.
func (c *Client) apiHeader() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("User-Agent", c.config.UserAgent)
	h.Set("trakt-api-version", APIVersion)
	h.Set("trakt-api-key", c.config.ClientID)
	return h
}

// buildBody copies the body template, takes caller values for template
// keys only, and drops keys whose final value is falsy.
func buildBody(tmpl map[string]any, params Params) map[string]any {
	body := make(map[string]any, len(tmpl))
	for k, v := range tmpl {
		body[k] = v
	}
	for k, v := range params {
		if _, ok := body[k]; ok {
			body[k] = v
		}
	}
	for k, v := range body {
		if !truthy(v) {
			delete(body, k)
		}
	}
	return body
}

// normalize decodes the payload and applies the pagination envelope and
// sanitizer. An empty body is never wrapped, even when pagination was
// requested: the result is an empty Result that marshals as null.
func (c *Client) normalize(op string, ep Endpoint, params Params, resp *Response) (*Result, error) {
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return &Result{}, nil
	}

	var data any
	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return nil, WrapError(op, fmt.Errorf("unmarshaling response: %w", err))
	}

	res := &Result{Data: data}
	if params.pagination() || c.config.Pagination {
		res.Wrapped = true
		if ep.Opts.Pagination && resp.Header != nil {
			res.Pagination = paginationFromHeader(resp.Header)
		}
	}
	if !c.config.DisableSanitize {
		res.Data = Sanitize(res.Data, c.config.Sanitizer)
	}
	return res, nil
}
