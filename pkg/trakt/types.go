package trakt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Token is the exported authentication state. It is the only shape a
// caller needs to persist.
type Token struct {
	AccessToken  string `json:"access_token,omitempty" yaml:"access_token,omitempty"`
	Expires      int64  `json:"expires,omitempty" yaml:"expires,omitempty"` // epoch milliseconds
	RefreshToken string `json:"refresh_token,omitempty" yaml:"refresh_token,omitempty"`
}

// IsZero reports whether no field is set.
func (t Token) IsZero() bool {
	return t == Token{}
}

// ExpiresAt returns the expiry as a time. A zero Expires yields the zero time.
func (t Token) ExpiresAt() time.Time {
	if t.Expires == 0 {
		return time.Time{}
	}
	return time.UnixMilli(t.Expires)
}

// IsExpired reports whether the expiry has passed at now.
// A zero expiry is treated as not expired.
func (t Token) IsExpired(now time.Time) bool {
	if t.Expires == 0 {
		return false
	}
	return t.Expires < now.UnixMilli()
}

// TokenResponse is the payload of the token endpoints.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope,omitempty"`
	CreatedAt    int64  `json:"created_at,omitempty"`
}

// DeviceCode is the payload of the device code endpoint, and the input
// to polling.
type DeviceCode struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURL string `json:"verification_url"`
	ExpiresIn       int64  `json:"expires_in"` // seconds
	Interval        int64  `json:"interval"`   // seconds
}

// validate reports whether the fields polling depends on are set.
func (d *DeviceCode) validate() error {
	if d == nil || d.DeviceCode == "" || d.ExpiresIn <= 0 || d.Interval <= 0 {
		return ErrInvalidPoll
	}
	return nil
}

// Pagination header names.
const (
	HeaderItemCount = "X-Pagination-Item-Count"
	HeaderLimit     = "X-Pagination-Limit"
	HeaderPage      = "X-Pagination-Page"
	HeaderPageCount = "X-Pagination-Page-Count"
)

// Pagination mirrors the pagination headers of a response.
type Pagination struct {
	ItemCount int `json:"item-count"`
	Limit     int `json:"limit"`
	Page      int `json:"page"`
	PageCount int `json:"page-count"`
}

func paginationFromHeader(h http.Header) *Pagination {
	num := func(name string) int {
		n, _ := strconv.Atoi(h.Get(name))
		return n
	}
	return &Pagination{
		ItemCount: num(HeaderItemCount),
		Limit:     num(HeaderLimit),
		Page:      num(HeaderPage),
		PageCount: num(HeaderPageCount),
	}
}

// Result is the normalized outcome of a method call.
//
// When pagination was not requested, Wrapped is false and Data is the
// decoded payload. When it was requested, Wrapped is true and Pagination
// holds the header values, or is nil when the endpoint does not paginate.
// A response with an empty body yields the zero Result, never an envelope.
type Result struct {
	Data       any
	Wrapped    bool
	Pagination *Pagination
}

// MarshalJSON writes the raw payload, or {"data": ..., "pagination": ...}
// with pagination false when the endpoint does not paginate.
func (r *Result) MarshalJSON() ([]byte, error) {
	if !r.Wrapped {
		return marshalRaw(r.Data)
	}
	var pag any = false
	if r.Pagination != nil {
		pag = r.Pagination
	}
	return marshalRaw(struct {
		Data       any `json:"data"`
		Pagination any `json:"pagination"`
	}{r.Data, pag})
}

// marshalRaw is json.Marshal without HTML escaping, so unsanitized
// payloads keep their markup as sent.
func marshalRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Decode re-decodes Data into v.
func (r *Result) Decode(v any) error {
	raw, err := json.Marshal(r.Data)
	if err != nil {
		return fmt.Errorf("re-encoding result: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding result: %w", err)
	}
	return nil
}
