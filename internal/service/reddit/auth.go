package reddit

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"CoinDash/internal/service/upstream"
	xhttp "CoinDash/pkg/http"
	applogger "CoinDash/pkg/logger"
)

// AuthState is the client-credentials token lifecycle.
type AuthState string

const (
	Unauthenticated AuthState = "unauthenticated"
	Authenticating  AuthState = "authenticating"
	Authenticated   AuthState = "authenticated"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (c *Client) setState(s AuthState, token string, expiry time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
	c.token = token
	c.expiry = expiry
}

func (c *Client) validToken() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state == Authenticated && c.base.Clock().Now().Before(c.expiry) {
		return c.token, true
	}
	return "", false
}

// accessToken returns a valid bearer token, authenticating when there is
// none or it has expired. authMu makes concurrent callers share a single
// authentication.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	if err := c.base.Guard("auth"); err != nil {
		return "", err
	}
	if tok, ok := c.validToken(); ok {
		return tok, nil
	}

	c.authMu.Lock()
	defer c.authMu.Unlock()
	if tok, ok := c.validToken(); ok {
		return tok, nil
	}

	c.setState(Authenticating, "", time.Time{})
	c.base.Logger().Info("authenticating")

	var resp tokenResponse
	creds := base64.StdEncoding.EncodeToString([]byte(c.cfg.ClientID + ":" + c.cfg.ClientSecret))
	err := c.base.Send(ctx, "auth", &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.cfg.AuthURL,
		Headers: map[string]string{
			"Authorization": "Basic " + creds,
			"Content-Type":  "application/x-www-form-urlencoded",
			"User-Agent":    c.cfg.UserAgent,
		},
		Body: map[string]string{"grant_type": "client_credentials"},
	}, &resp)
	if err == nil && resp.AccessToken == "" {
		err = upstream.Malformed(Name, "auth", errors.New("token response has no access_token"))
	}
	if err != nil {
		c.setState(Unauthenticated, "", time.Time{})
		return "", err
	}

	expiry := c.base.Clock().Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	c.setState(Authenticated, resp.AccessToken, expiry)
	c.base.Logger().Info("authenticated", applogger.Any("expires_at", expiry))
	return resp.AccessToken, nil
}

// Status is the reddit-status diagnostic.
type Status struct {
	Configured    bool       `json:"configured"`
	Authenticated bool       `json:"authenticated"`
	State         AuthState  `json:"state"`
	Disabled      bool       `json:"disabled"`
	TokenExpiry   *time.Time `json:"tokenExpiry,omitempty"`
}

func (c *Client) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := Status{
		Configured:    c.base.Configured(),
		Authenticated: c.state == Authenticated && c.base.Clock().Now().Before(c.expiry),
		State:         c.state,
		Disabled:      c.base.Disabled() != nil,
	}
	if !c.expiry.IsZero() {
		exp := c.expiry
		st.TokenExpiry = &exp
	}
	return st
}
