package trakt

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed endpoints.yaml
var defaultTableYAML []byte

// AuthPolicy says whether an endpoint needs an OAuth access token.
type AuthPolicy int

const (
	// AuthNone never sends the bearer token.
	AuthNone AuthPolicy = iota
	// AuthOptional sends the bearer token when one is present.
	AuthOptional
	// AuthRequired fails the call before any request when no token or
	// client secret is configured.
	AuthRequired
)

func (p AuthPolicy) String() string {
	switch p {
	case AuthOptional:
		return "optional"
	case AuthRequired:
		return "required"
	default:
		return "none"
	}
}

// UnmarshalYAML accepts true, false or "optional".
func (p *AuthPolicy) UnmarshalYAML(node *yaml.Node) error {
	var b bool
	if err := node.Decode(&b); err == nil {
		if b {
			*p = AuthRequired
		} else {
			*p = AuthNone
		}
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	switch strings.ToLower(s) {
	case "optional":
		*p = AuthOptional
	case "required", "true":
		*p = AuthRequired
	case "none", "false", "":
		*p = AuthNone
	default:
		return fmt.Errorf("auth: unknown policy %q", s)
	}
	return nil
}

// MarshalYAML writes the policy back in table form.
func (p AuthPolicy) MarshalYAML() (any, error) {
	switch p {
	case AuthOptional:
		return "optional", nil
	case AuthRequired:
		return true, nil
	default:
		return false, nil
	}
}

// Options are the per-endpoint flags. A missing flag is false.
type Options struct {
	Auth       AuthPolicy `yaml:"auth,omitempty"`
	Pagination bool       `yaml:"pagination,omitempty"`
	Extended   bool       `yaml:"extended,omitempty"`
}

// Endpoint describes one API method.
type Endpoint struct {
	Method   string         `yaml:"method"`
	URL      string         `yaml:"url"`
	Body     map[string]any `yaml:"body,omitempty"`
	Optional []string       `yaml:"optional,omitempty"`
	Opts     Options        `yaml:"opts,omitempty"`
}

// Clone returns a deep copy, so the copy shares no mutable state with e.
func (e Endpoint) Clone() Endpoint {
	out := e
	out.Optional = slices.Clone(e.Optional)
	if e.Body != nil {
		out.Body = make(map[string]any, len(e.Body))
		for k, v := range e.Body {
			out.Body[k] = cloneValue(v)
		}
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, x := range t {
			m[k] = cloneValue(x)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, x := range t {
			s[i] = cloneValue(x)
		}
		return s
	default:
		return v
	}
}

// IsOptional reports whether the named placeholder may be omitted.
func (e Endpoint) IsOptional(name string) bool {
	return slices.Contains(e.Optional, name)
}

// Table maps a namespace path such as "shows/summary" or "/calendars/my/shows"
// to its endpoint.
type Table map[string]Endpoint

// Keys returns the table's keys sorted.
func (t Table) Keys() []string {
	return slices.Sorted(maps.Keys(t))
}

// LoadTable decodes a YAML (or JSON) endpoint table.
func LoadTable(r io.Reader) (Table, error) {
	var t Table
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&t); err != nil {
		if errors.Is(err, io.EOF) {
			return Table{}, nil
		}
		return nil, fmt.Errorf("decode endpoint table: %w", err)
	}
	for k, ep := range t {
		ep.Method = strings.ToUpper(strings.TrimSpace(ep.Method))
		if ep.Method == "" {
			ep.Method = "GET"
		}
		t[k] = ep
	}
	return t, nil
}

// LoadTableFile reads an endpoint table from disk.
func LoadTableFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open endpoint table: %w", err)
	}
	defer f.Close()
	return LoadTable(f)
}

// DefaultTable returns a fresh copy of the embedded endpoint table.
func DefaultTable() Table {
	t, err := LoadTable(strings.NewReader(string(defaultTableYAML)))
	if err != nil {
		panic(fmt.Sprintf("trakt: embedded endpoint table: %v", err))
	}
	return t
}
