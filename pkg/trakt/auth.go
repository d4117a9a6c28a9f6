package trakt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// authState is the client's authentication record. It is only ever
// replaced whole, under Client.mu.
type authState struct {
	accessToken  string
	refreshToken string
	expires      int64 // epoch milliseconds
	csrfState    string
}

func (s authState) export() Token {
	return Token{
		AccessToken:  s.accessToken,
		Expires:      s.expires,
		RefreshToken: s.refreshToken,
	}
}

func (c *Client) authSnapshot() authState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

// replaceAuth swaps in the record returned by fn.
func (c *Client) replaceAuth(fn func(authState) authState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = fn(c.auth)
}

// storeTokens installs a new token set, keeping the CSRF state.
func (c *Client) storeTokens(access, refresh string, expires int64) {
	c.replaceAuth(func(s authState) authState {
		return authState{
			accessToken:  access,
			refreshToken: refresh,
			expires:      expires,
			csrfState:    s.csrfState,
		}
	})
}

var apiPrefix = regexp.MustCompile(`api\W`)

// siteURL is the API URL with its "api." host prefix removed, which is
// where the browser authorization page lives.
func (c *Client) siteURL() string {
	u := c.config.APIURL
	if loc := apiPrefix.FindStringIndex(u); loc != nil {
		u = u[:loc[0]] + u[loc[1]:]
	}
	return u
}

func (c *Client) oauthConfig() *oauth2.Config {
	site := c.siteURL()
	return &oauth2.Config{
		ClientID:     c.config.ClientID,
		ClientSecret: c.config.ClientSecret,
		RedirectURL:  c.config.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  site + "/oauth/authorize",
			TokenURL: c.config.APIURL + "/oauth/token",
		},
	}
}

// AuthURL issues a new CSRF state and returns the browser authorization URL
// carrying it.
func (c *Client) AuthURL() string {
	state := strings.ReplaceAll(uuid.NewString(), "-", "")
	c.replaceAuth(func(s authState) authState {
		s.csrfState = state
		return s
	})
	return c.oauthConfig().AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for tokens. A non-empty state
// must match the one issued by AuthURL.
func (c *Client) ExchangeCode(ctx context.Context, code, state string) (*TokenResponse, error) {
	const op = "ExchangeCode"
	if state != "" && state != c.authSnapshot().csrfState {
		return nil, WrapError(op, ErrCSRFMismatch)
	}

	tr, err := c.exchange(ctx, op, map[string]string{
		"code":          code,
		"client_id":     c.config.ClientID,
		"client_secret": c.config.ClientSecret,
		"redirect_uri":  c.config.RedirectURI,
		"grant_type":    "authorization_code",
	})
	if err != nil {
		return nil, err
	}
	c.replaceAuth(func(s authState) authState {
		s.csrfState = ""
		return s
	})
	return tr, nil
}

// RefreshToken exchanges the stored refresh token for a new token set.
func (c *Client) RefreshToken(ctx context.Context) (*TokenResponse, error) {
	const op = "RefreshToken"
	refresh := c.authSnapshot().refreshToken
	if refresh == "" {
		return nil, WrapError(op, ErrNoRefreshToken)
	}
	return c.exchange(ctx, op, map[string]string{
		"refresh_token": refresh,
		"client_id":     c.config.ClientID,
		"client_secret": c.config.ClientSecret,
		"redirect_uri":  c.config.RedirectURI,
		"grant_type":    "refresh_token",
	})
}

// exchange posts to the token endpoint and stores the result. A 401 is
// reported as an *AuthServerError built from WWW-Authenticate.
func (c *Client) exchange(ctx context.Context, op string, payload map[string]string) (*TokenResponse, error) {
	var tr TokenResponse
	if err := c.postOAuth(ctx, "/oauth/token", payload, &tr); err != nil {
		var te *TransportError
		if errors.As(err, &te) && te.StatusCode == http.StatusUnauthorized {
			return nil, WrapError(op, &AuthServerError{
				Challenge: te.Header.Get("WWW-Authenticate"),
				Err:       te,
			})
		}
		return nil, WrapError(op, err)
	}

	created := tr.CreatedAt
	if created == 0 {
		created = c.now().Unix()
	}
	c.storeTokens(tr.AccessToken, tr.RefreshToken, (created+tr.ExpiresIn)*1000)
	c.logger.Info("token stored", "op", op, "expires_in", tr.ExpiresIn)
	return &tr, nil
}

// DeviceCodes requests a device and user code for the device flow.
func (c *Client) DeviceCodes(ctx context.Context) (*DeviceCode, error) {
	var dc DeviceCode
	err := c.postOAuth(ctx, "/oauth/device/code", map[string]string{
		"client_id": c.config.ClientID,
	}, &dc)
	if err != nil {
		return nil, WrapError("DeviceCodes", err)
	}
	return &dc, nil
}

// deviceToken asks whether the user has approved a device code yet and
// stores the tokens when they have.
func (c *Client) deviceToken(ctx context.Context, deviceCode string) (*TokenResponse, error) {
	var tr TokenResponse
	err := c.postOAuth(ctx, "/oauth/device/token", map[string]string{
		"code":          deviceCode,
		"client_id":     c.config.ClientID,
		"client_secret": c.config.ClientSecret,
	}, &tr)
	if err != nil {
		return nil, err
	}
	c.storeTokens(tr.AccessToken, tr.RefreshToken, c.now().UnixMilli()+tr.ExpiresIn*1000)
	return &tr, nil
}

// ImportToken installs a previously exported token. An already expired
// token is refreshed before returning.
func (c *Client) ImportToken(ctx context.Context, tok Token) (Token, error) {
	c.storeTokens(tok.AccessToken, tok.RefreshToken, tok.Expires)
	if tok.IsExpired(c.now()) {
		c.logger.Info("imported token expired, refreshing")
		if _, err := c.RefreshToken(ctx); err != nil {
			return Token{}, err
		}
	}
	return c.ExportToken(), nil
}

// ExportToken returns a snapshot of the current token.
func (c *Client) ExportToken() Token {
	return c.authSnapshot().export()
}

// RevokeToken revokes the access token and clears all authentication
// state. It does nothing when there is no access token. The state is
// cleared even if the revoke request fails.
func (c *Client) RevokeToken(ctx context.Context) error {
	access := c.authSnapshot().accessToken
	if access == "" {
		return nil
	}
	err := c.postOAuth(ctx, "/oauth/revoke", map[string]string{
		"token":         access,
		"client_id":     c.config.ClientID,
		"client_secret": c.config.ClientSecret,
	}, nil)
	c.replaceAuth(func(authState) authState { return authState{} })
	c.logger.Info("token revoked")
	if err != nil {
		return WrapError("RevokeToken", err)
	}
	return nil
}

// postOAuth sends a JSON POST to an OAuth endpoint and decodes the reply
// into out when out is non-nil.
func (c *Client) postOAuth(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("User-Agent", c.config.UserAgent)

	c.logger.Debug("oauth request", "path", path)
	resp, err := c.transport.Send(ctx, &Request{
		Method: http.MethodPost,
		URL:    c.config.APIURL + path,
		Header: header,
		Body:   body,
	})
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("unmarshaling response: %w", err)
	}
	return nil
}

// TokenSource adapts the client's authentication state to an
// oauth2.TokenSource. Expired tokens are refreshed using ctx.
func (c *Client) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, client: c}
}

type tokenSource struct {
	ctx    context.Context
	client *Client
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	tok := ts.client.ExportToken()
	if tok.AccessToken == "" {
		return nil, ErrAuthorizationRequired
	}
	if tok.IsExpired(ts.client.now()) {
		if _, err := ts.client.RefreshToken(ts.ctx); err != nil {
			return nil, err
		}
		tok = ts.client.ExportToken()
	}
	return &oauth2.Token{
		AccessToken:  tok.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.ExpiresAt(),
	}, nil
}
