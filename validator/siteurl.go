package validator

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

const (
	minPort = 1
	maxPort = 65535
)

var (
	ErrURLEmpty       = errors.New("URL cannot be empty")
	ErrURLSpaces      = errors.New("URL contains spaces")
	ErrURLFormat      = errors.New("invalid URL format")
	ErrURLScheme      = errors.New("URL must start with http:// or https://")
	ErrURLSchemeTypo  = errors.New("invalid URL scheme")
	ErrURLMissingHost = errors.New("missing domain name, for example https://example.com")
	ErrURLHost        = errors.New("invalid domain name")
	ErrURLPort        = errors.New("port must be between 1 and 65535")
)

const forbiddenHostChars = " <>\"{}|\\^`"

//nolint:gochecknoglobals
var localHosts = []string{"localhost", "127.0.0.1", "0.0.0.0"}

// CheckSiteURL reports why raw is not acceptable as a site URL, or nil.
func CheckSiteURL(raw string) error {
	if raw == "" {
		return ErrURLEmpty
	}

	if strings.ContainsAny(raw, " \t\n") {
		return ErrURLSpaces
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrURLFormat, raw)
	}

	switch parsed.Scheme {
	case "http", "https":
	case "htpp", "htpps":
		return fmt.Errorf("%w: '%s', did you mean 'http' or 'https'?", ErrURLSchemeTypo, parsed.Scheme)
	default:
		return ErrURLScheme
	}

	if parsed.Host == "" {
		return ErrURLMissingHost
	}

	if strings.ContainsAny(parsed.Host, forbiddenHostChars) {
		return fmt.Errorf("%w: %s", ErrURLHost, parsed.Host)
	}

	hostname := parsed.Hostname()
	if !strings.Contains(hostname, ".") && !slices.Contains(localHosts, hostname) {
		return fmt.Errorf("%w: %s", ErrURLHost, hostname)
	}

	if port := parsed.Port(); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < minPort || n > maxPort {
			return fmt.Errorf("%w: %s", ErrURLPort, parsed.Host)
		}
	}

	return nil
}

// IsLocalHost reports whether the URL points at the local machine.
func IsLocalHost(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return slices.Contains(localHosts, parsed.Hostname())
}
