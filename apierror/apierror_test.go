package apierror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/andyle182810/wpsec/apierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errCause = errors.New("dial tcp: connection refused")

func TestKindFromStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		expected apierror.Kind
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, expected: apierror.KindAuthentication},
		{name: "too many requests", status: http.StatusTooManyRequests, expected: apierror.KindRateLimited},
		{name: "internal server error", status: http.StatusInternalServerError, expected: apierror.KindServer},
		{name: "bad gateway", status: http.StatusBadGateway, expected: apierror.KindServer},
		{name: "bad request", status: http.StatusBadRequest, expected: apierror.KindClient},
		{name: "not found", status: http.StatusNotFound, expected: apierror.KindClient},
		{name: "request timeout is a plain client error", status: http.StatusRequestTimeout, expected: apierror.KindClient},
		{name: "redirect", status: http.StatusFound, expected: apierror.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, apierror.KindFromStatus(tt.status))
		})
	}
}

func TestKind_Retryable(t *testing.T) {
	t.Parallel()

	retryable := []apierror.Kind{
		apierror.KindTimeout,
		apierror.KindRateLimited,
		apierror.KindServer,
		apierror.KindNetwork,
	}
	terminal := []apierror.Kind{
		apierror.KindUnknown,
		apierror.KindAuthentication,
		apierror.KindValidation,
		apierror.KindMalformedResponse,
		apierror.KindClient,
		apierror.KindCanceled,
	}

	for _, kind := range retryable {
		assert.True(t, kind.Retryable(), kind.String())
	}

	for _, kind := range terminal {
		assert.False(t, kind.Retryable(), kind.String())
	}
}

func TestError_IsMatchesKindSentinel(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("list sites: %w", apierror.FromStatus(http.StatusServiceUnavailable, ""))

	require.ErrorIs(t, err, apierror.ErrServer)
	require.NotErrorIs(t, err, apierror.ErrClient)
	require.True(t, apierror.IsRetryable(err))
}

func TestError_UnwrapExposesCause(t *testing.T) {
	t.Parallel()

	err := apierror.Wrap(apierror.KindNetwork, errCause, "")

	require.ErrorIs(t, err, errCause)
	require.ErrorIs(t, err, apierror.ErrNetwork)
	require.Equal(t, "network: dial tcp: connection refused", err.Error())
}

func TestError_MessageIncludesStatus(t *testing.T) {
	t.Parallel()

	err := apierror.FromStatus(http.StatusNotFound, "")

	require.Equal(t, "client (HTTP 404): Not Found", err.Error())
	require.Equal(t, http.StatusNotFound, err.StatusCode)
}

func TestKindOf_NonAPIError(t *testing.T) {
	t.Parallel()

	require.Equal(t, apierror.KindUnknown, apierror.KindOf(errCause))
	require.False(t, apierror.IsRetryable(errCause))

	_, ok := apierror.As(errCause)
	require.False(t, ok)
}

func TestKind_StringUnknownValue(t *testing.T) {
	t.Parallel()

	require.Equal(t, "kind(99)", apierror.Kind(99).String())
	require.Equal(t, "rate_limited", apierror.KindRateLimited.String())
}
