package wpsec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andyle182810/wpsec/apierror"
	"github.com/andyle182810/wpsec/httpclient"
	"github.com/andyle182810/wpsec/validator"
	"github.com/rs/zerolog/log"
)

const (
	DefaultAPIVersion    = "v1"
	DefaultSlowThreshold = time.Second
)

const (
	siteAddedMarker = `"Site added"`
	siteTakenMarker = "been taken"
	errorMarker     = "Error"
)

var (
	ErrSiteExists     = errors.New("site already exists on your account")
	ErrReportNotFound = errors.New("report not found")
	ErrReportAccess   = errors.New("report access denied")
)

// Service issues the WPSec API operations through a request executor.
type Service struct {
	client        *httpclient.Client
	validator     *validator.Validator
	apiVersion    string
	slowThreshold time.Duration
}

func NewService(client *httpclient.Client, opts ...Option) *Service {
	s := &Service{
		client:        client,
		validator:     validator.New(),
		apiVersion:    DefaultAPIVersion,
		slowThreshold: DefaultSlowThreshold,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) path(segments ...string) string {
	escaped := make([]string, 0, len(segments)+1)
	escaped = append(escaped, s.apiVersion)

	for _, segment := range segments {
		escaped = append(escaped, url.PathEscape(segment))
	}

	return "/" + strings.Join(escaped, "/")
}

func (s *Service) Sites(ctx context.Context) ([]Site, error) {
	sites, err := httpclient.GetJSON[[]Site](ctx, s.client, s.path("sites"))
	if err != nil {
		return nil, err
	}

	return sites, nil
}

// AddSite validates and normalizes the input, then registers the site. The
// returned AddedSite carries the values that were sent.
func (s *Service) AddSite(ctx context.Context, title, rawURL string) (*AddedSite, error) {
	input := AddSiteInput{
		Title: strings.TrimSpace(title),
		URL:   strings.TrimSpace(rawURL),
	}

	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	if validator.IsLocalHost(input.URL) {
		log.Warn().Str("url", input.URL).Msg("Adding site with local URL")
	}

	payload := AddSiteInput{
		Title: html.EscapeString(input.Title),
		URL:   withRootPath(input.URL),
	}

	result, err := s.client.Execute(ctx, http.MethodPost, s.path("sites"), payload, httpclient.WithRawResponse())
	if err != nil {
		return nil, err
	}

	return interpretAddSite(result, payload)
}

func interpretAddSite(result *httpclient.Result, payload AddSiteInput) (*AddedSite, error) {
	body := bytes.TrimSpace(result.Body)

	var apiErr *apierror.Error

	switch {
	case bytes.Contains(body, []byte(errorMarker)):
		apiErr = apierror.Newf(apierror.KindClient, "error in response: %s", body)
	case bytes.Contains(body, []byte(siteAddedMarker)):
		return &AddedSite{Title: payload.Title, URL: payload.URL}, nil
	case bytes.Contains(body, []byte(siteTakenMarker)):
		apiErr = apierror.Wrap(apierror.KindClient, ErrSiteExists,
			fmt.Sprintf("%s: %s (%s)", ErrSiteExists, payload.Title, payload.URL))
	default:
		apiErr = apierror.Newf(apierror.KindMalformedResponse, "unknown response from server: %s", body)
	}

	apiErr.StatusCode = result.StatusCode
	apiErr.RequestID = result.RequestID
	apiErr.Attempts = result.Attempts

	return nil, apiErr
}

// withRootPath appends "/" when the URL has no path.
func withRootPath(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Path != "" {
		return raw
	}

	parsed.Path = "/"

	return parsed.String()
}
