package authtoken

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/andyle182810/wpsec/apierror"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultTimeout       = 30 * time.Second
	DefaultRetryCount    = 2
	DefaultRetryWait     = 300 * time.Millisecond
	DefaultRetryMaxWait  = 5 * time.Second
	tokenExpiryBuffer    = 30 * time.Second
	grantTypeCredentials = "client_credentials"
	authFailedMarker     = "Client authentication failed"
)

//nolint:tagliatelle
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

//nolint:tagliatelle // OAuth error bodies are snake_case
type oauthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
}

type Client struct {
	tokenURL     string
	clientID     string
	clientSecret string
	restyClient  *resty.Client

	mu          sync.RWMutex
	accessToken string
	expiresAt   time.Time // zero means the token does not expire
}

func New(tokenURL, clientID, clientSecret string, opts ...Option) *Client {
	c := &Client{
		tokenURL:     tokenURL,
		clientID:     strings.TrimSpace(clientID),
		clientSecret: strings.TrimSpace(clientSecret),
		restyClient:  newRestyClient(),
		mu:           sync.RWMutex{},
		accessToken:  "",
		expiresAt:    time.Time{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func newRestyClient() *resty.Client {
	return resty.New().
		SetTimeout(DefaultTimeout).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{}).
		SetRetryCount(DefaultRetryCount).
		SetRetryWaitTime(DefaultRetryWait).
		SetRetryMaxWaitTime(DefaultRetryMaxWait).
		AddRetryCondition(shouldRetry)
}

// shouldRetry mirrors the executor policy: transport failures, 429 and 5xx.
func shouldRetry(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}

	if resp == nil {
		return false
	}

	status := resp.StatusCode()

	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func (c *Client) GetToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.validLocked() {
		token := c.accessToken
		c.mu.RUnlock()

		return token, nil
	}
	c.mu.RUnlock()

	return c.refreshToken(ctx)
}

func (c *Client) validLocked() bool {
	if c.accessToken == "" {
		return false
	}

	return c.expiresAt.IsZero() || time.Now().Before(c.expiresAt)
}

func (c *Client) refreshToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock (another goroutine might have refreshed)
	if c.validLocked() {
		return c.accessToken, nil
	}

	token, expiresIn, err := c.fetchToken(ctx)
	if err != nil {
		return "", err
	}

	c.accessToken = token
	c.expiresAt = time.Time{}

	if expiresIn > 0 {
		c.expiresAt = time.Now().Add(time.Duration(expiresIn)*time.Second - tokenExpiryBuffer)
	}

	return c.accessToken, nil
}

func (c *Client) fetchToken(ctx context.Context) (string, int, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return "", 0, apierror.New(apierror.KindValidation, "client ID and client secret are required")
	}

	resp, err := c.restyClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    grantTypeCredentials,
			"client_id":     c.clientID,
			"client_secret": c.clientSecret,
		}).
		Post(c.tokenURL)
	if err != nil {
		return "", 0, apierror.FromTransport(ctx, err)
	}

	body := resp.Body()

	if resp.StatusCode() == http.StatusUnauthorized || bytes.Contains(body, []byte(authFailedMarker)) {
		apiErr := apierror.New(apierror.KindAuthentication,
			"client authentication failed, invalid client ID or client secret")
		apiErr.StatusCode = resp.StatusCode()

		return "", 0, apiErr
	}

	if !resp.IsSuccess() {
		return "", 0, apierror.FromStatus(resp.StatusCode(), errorMessage(body))
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		apiErr := apierror.Wrap(apierror.KindMalformedResponse, err,
			"token response is not valid JSON: "+strings.TrimSpace(string(body)))
		apiErr.StatusCode = resp.StatusCode()

		return "", 0, apiErr
	}

	if tokenResp.AccessToken == "" {
		apiErr := apierror.New(apierror.KindMalformedResponse, "no access_token in token response")
		apiErr.StatusCode = resp.StatusCode()

		return "", 0, apiErr
	}

	return tokenResp.AccessToken, tokenResp.ExpiresIn, nil
}

func (c *Client) InvalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accessToken = ""
	c.expiresAt = time.Time{}
}

func errorMessage(body []byte) string {
	var oerr oauthError
	if err := json.Unmarshal(body, &oerr); err == nil {
		switch {
		case oerr.ErrorDescription != "":
			return oerr.ErrorDescription
		case oerr.Message != "":
			return oerr.Message
		case oerr.Error != "":
			return oerr.Error
		}
	}

	return strings.TrimSpace(string(body))
}
