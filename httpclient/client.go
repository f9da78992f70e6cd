package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andyle182810/wpsec/apierror"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const errorPreviewLength = 100

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type TokenProvider interface {
	GetToken(ctx context.Context) (string, error)
	InvalidateToken()
}

type Client struct {
	baseURL         string
	httpClient      Doer
	defaultHeaders  map[string]string
	tokenProvider   TokenProvider
	timeout         time.Duration
	retry           RetryConfig
	limiter         *rate.Limiter
	maxResponseSize int64 // 0 means no limit
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{}, //nolint:exhaustruct
		defaultHeaders: map[string]string{
			HeaderContentType: ContentTypeJSON,
			HeaderAccept:      ContentTypeJSON,
		},
		tokenProvider:   nil,
		timeout:         DefaultTimeout,
		retry:           DefaultRetryConfig(),
		limiter:         nil,
		maxResponseSize: 0,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Get(ctx context.Context, path string, response any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, response, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body, response any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, response, opts...)
}

// Do executes the call and decodes the JSON payload into response when it is not nil.
func (c *Client) Do(
	ctx context.Context,
	method string,
	path string,
	body any,
	response any,
	opts ...RequestOption,
) error {
	result, err := c.Execute(ctx, method, path, body, opts...)
	if err != nil {
		return err
	}

	if response == nil {
		return nil
	}

	return result.Decode(response)
}

// Execute performs method+path against the base URL, retrying transient
// failures with backoff, and returns either the response or an *apierror.Error.
func (c *Client) Execute(
	ctx context.Context,
	method string,
	path string,
	body any,
	opts ...RequestOption,
) (*Result, error) {
	cfg := c.buildRequestConfig(opts...)

	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	token, err := c.token(ctx, cfg)
	if err != nil {
		return nil, err
	}

	schedule := c.retry.BackOff()
	previousDelay := time.Duration(0)
	logger := log.With().
		Str("method", method).
		Str("path", path).
		Str("request_id", cfg.requestID).
		Logger()

	for attempt := 1; ; attempt++ {
		result, retryAfter, err := c.attempt(ctx, method, path, payload, token, cfg)
		if err == nil {
			result.Attempts = attempt

			return result, nil
		}

		apiErr := asAPIError(err)
		apiErr.Attempts = attempt

		if apiErr.RequestID == "" {
			apiErr.RequestID = cfg.requestID
		}

		if apiErr.Kind == apierror.KindAuthentication && c.tokenProvider != nil && !cfg.skipAuth {
			c.tokenProvider.InvalidateToken()
		}

		if !apiErr.Kind.Retryable() || attempt >= c.retry.MaxAttempts {
			return nil, apiErr
		}

		delay, ok := c.retry.NextDelay(schedule, retryAfter, previousDelay)
		if !ok {
			return nil, apiErr
		}

		previousDelay = delay

		logger.Warn().
			Err(apiErr).
			Int("attempt", attempt).
			Int("max_attempts", c.retry.MaxAttempts).
			Dur("delay", delay).
			Msg("Retrying request after transient failure")

		if err := sleep(ctx, delay); err != nil {
			// A caller deadline ends the retries but keeps the last failure.
			if !errors.Is(err, context.Canceled) {
				return nil, apiErr
			}

			canceled := apierror.Wrap(apierror.KindCanceled, err, "")
			canceled.Attempts = attempt
			canceled.RequestID = cfg.requestID

			return nil, canceled
		}
	}
}

func (c *Client) token(ctx context.Context, cfg *requestConfig) (string, error) {
	if c.tokenProvider == nil || cfg.skipAuth {
		return "", nil
	}

	token, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		if _, ok := apierror.As(err); ok {
			return "", err
		}

		return "", apierror.Wrap(apierror.KindAuthentication, err, "")
	}

	return token, nil
}

func (c *Client) attempt(
	ctx context.Context,
	method string,
	path string,
	payload []byte,
	token string,
	cfg *requestConfig,
) (*Result, time.Duration, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, apierror.Wrap(apierror.KindCanceled, err, "")
		}
	}

	timeout := c.timeout
	if cfg.timeout > 0 {
		timeout = cfg.timeout
	}

	reqCtx := ctx

	if timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := c.buildRequest(reqCtx, method, path, payload, token, cfg)
	if err != nil {
		return nil, 0, err
	}

	started := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, apierror.FromTransport(ctx, err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("method", method).
		Str("url", req.URL.Redacted()).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("HTTP request completed")

	return c.handleResponse(ctx, resp, cfg)
}

func (c *Client) buildRequestConfig(opts ...RequestOption) *requestConfig {
	cfg := &requestConfig{
		headers:     make(map[string]string),
		query:       nil,
		timeout:     0,
		requestID:   "",
		skipAuth:    false,
		rawResponse: false,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.requestID == "" {
		cfg.requestID = uuid.New().String()
	}

	return cfg
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindValidation, err, "failed to encode request body")
	}

	return payload, nil
}

func (c *Client) buildRequest(
	ctx context.Context,
	method string,
	path string,
	payload []byte,
	token string,
	cfg *requestConfig,
) (*http.Request, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path, cfg.query), bodyReader)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindValidation, err, "failed to create request")
	}

	for k, v := range c.defaultHeaders {
		req.Header.Set(k, v)
	}

	for k, v := range cfg.headers {
		req.Header.Set(k, v)
	}

	if token != "" {
		req.Header.Set(HeaderAuthorization, "Bearer "+token)
	}

	req.Header.Set(HeaderXRequestID, cfg.requestID)

	return req, nil
}

func (c *Client) handleResponse(
	ctx context.Context,
	resp *http.Response,
	cfg *requestConfig,
) (*Result, time.Duration, error) {
	requestID := resp.Header.Get(HeaderXRequestID)
	if requestID == "" {
		requestID = cfg.requestID
	}

	bodyBytes, err := c.readBody(resp.Body)
	if err != nil {
		apiErr, ok := apierror.As(err)
		if !ok {
			apiErr = apierror.FromTransport(ctx, err)
		}

		apiErr.StatusCode = resp.StatusCode
		apiErr.RequestID = requestID

		return nil, 0, apiErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := apierror.FromStatus(resp.StatusCode, errorMessage(bodyBytes))
		apiErr.RequestID = requestID

		return nil, parseRetryAfter(resp.Header, time.Now()), apiErr
	}

	result := &Result{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       bodyBytes,
		RequestID:  requestID,
		Attempts:   0,
	}

	if cfg.rawResponse {
		return result, 0, nil
	}

	trimmed := bytes.TrimSpace(bodyBytes)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		apiErr := apierror.Newf(apierror.KindMalformedResponse,
			"response is not valid JSON: %q", preview(trimmed))
		apiErr.StatusCode = resp.StatusCode
		apiErr.RequestID = requestID

		return nil, 0, apiErr
	}

	result.Body = trimmed

	return result, 0, nil
}

func (c *Client) readBody(body io.Reader) ([]byte, error) {
	if c.maxResponseSize > 0 {
		body = io.LimitReader(body, c.maxResponseSize+1)
	}

	bodyBytes, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if c.maxResponseSize > 0 && int64(len(bodyBytes)) > c.maxResponseSize {
		return nil, apierror.Newf(apierror.KindMalformedResponse,
			"response body exceeds %d bytes", c.maxResponseSize)
	}

	return bodyBytes, nil
}

func (c *Client) buildURL(path string, query map[string]string) string {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	fullURL := c.baseURL + path

	if len(query) == 0 {
		return fullURL
	}

	params := url.Values{}
	for k, v := range query {
		params.Add(k, v)
	}

	return fullURL + "?" + params.Encode()
}

func asAPIError(err error) *apierror.Error {
	if apiErr, ok := apierror.As(err); ok {
		return apiErr
	}

	return apierror.Wrap(apierror.KindUnknown, err, "")
}

func errorMessage(body []byte) string {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		switch {
		case errResp.Message != "":
			return errResp.Message
		case errResp.Error != "":
			return errResp.Error
		}
	}

	return preview(bytes.TrimSpace(body))
}

func preview(body []byte) string {
	text := string(body)
	if len(text) > errorPreviewLength {
		return text[:errorPreviewLength] + "..."
	}

	return text
}
