package authtoken_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andyle182810/wpsec/apierror"
	"github.com/andyle182810/wpsec/authtoken"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) authtoken.Option {
	return authtoken.WithRetry(attempts, time.Millisecond, 5*time.Millisecond)
}

func writeToken(w http.ResponseWriter, token string, expiresIn int) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   expiresIn,
	})
}

func TestClient_FetchesTokenOnFirstCall(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Equal(t, "WPSec CLI/test", r.Header.Get("User-Agent"))

		err := r.ParseForm()
		assert.NoError(t, err)

		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		assert.Equal(t, "test-client", r.Form.Get("client_id"))
		assert.Equal(t, "test-secret", r.Form.Get("client_secret"))

		writeToken(w, "test-access-token", 3600)
	}))
	defer server.Close()

	client := authtoken.New(server.URL, "test-client", "test-secret", authtoken.WithUserAgent("WPSec CLI/test"))

	token, err := client.GetToken(t.Context())

	require.NoError(t, err)
	require.Equal(t, "test-access-token", token)
}

func TestClient_TrimsCredentials(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "test-client", r.Form.Get("client_id"))
		writeToken(w, "trimmed", 3600)
	}))
	defer server.Close()

	client := authtoken.New(server.URL, "  test-client\n", "test-secret")

	_, err := client.GetToken(t.Context())

	require.NoError(t, err)
}

func TestClient_ReturnsCachedToken(t *testing.T) {
	t.Parallel()

	var callCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		callCount.Add(1)
		writeToken(w, "cached-token", 3600)
	}))
	defer server.Close()

	client := authtoken.New(server.URL, "test-client", "test-secret")

	token1, err := client.GetToken(t.Context())
	require.NoError(t, err)

	token2, err := client.GetToken(t.Context())
	require.NoError(t, err)

	require.Equal(t, token1, token2)
	require.Equal(t, int32(1), callCount.Load())
}

func TestClient_TokenWithoutExpiryIsCached(t *testing.T) {
	t.Parallel()

	var callCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		callCount.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"forever"}`))
	}))
	defer server.Close()

	client := authtoken.New(server.URL, "test-client", "test-secret")

	for range 3 {
		token, err := client.GetToken(t.Context())
		require.NoError(t, err)
		require.Equal(t, "forever", token)
	}

	require.Equal(t, int32(1), callCount.Load())
}

func TestClient_RefreshesExpiredToken(t *testing.T) {
	t.Parallel()

	var callCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		count := callCount.Add(1)
		writeToken(w, fmt.Sprintf("token-%d", count), 1) // expired at once because of the 30s buffer
	}))
	defer server.Close()

	client := authtoken.New(server.URL, "test-client", "test-secret")

	token1, err := client.GetToken(t.Context())
	require.NoError(t, err)

	token2, err := client.GetToken(t.Context())
	require.NoError(t, err)

	require.NotEqual(t, token1, token2)
	require.Equal(t, int32(2), callCount.Load())
}

func TestClient_UnauthorizedIsAuthenticationError(t *testing.T) {
	t.Parallel()

	var callCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		callCount.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := authtoken.New(server.URL, "test-client", "wrong-secret", fastRetry(3))

	_, err := client.GetToken(t.Context())

	require.ErrorIs(t, err, apierror.ErrAuthentication)
	require.Equal(t, int32(1), callCount.Load())
}

func TestClient_AuthFailureMarkerInBodyIsAuthenticationError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_client","message":"Client authentication failed"}`))
	}))
	defer server.Close()

	client := authtoken.New(server.URL, "test-client", "wrong-secret")

	_, err := client.GetToken(t.Context())

	require.ErrorIs(t, err, apierror.ErrAuthentication)
}

func TestClient_MissingCredentialsFailBeforeNetworkCall(t *testing.T) {
	t.Parallel()

	var callCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		callCount.Add(1)
		writeToken(w, "unused", 3600)
	}))
	defer server.Close()

	client := authtoken.New(server.URL, "", "  ")

	_, err := client.GetToken(t.Context())

	require.ErrorIs(t, err, apierror.ErrValidation)
	require.Equal(t, int32(0), callCount.Load())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var callCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if callCount.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		writeToken(w, "after-retries", 3600)
	}))
	defer server.Close()

	client := authtoken.New(server.URL, "test-client", "test-secret", fastRetry(3))

	token, err := client.GetToken(t.Context())

	require.NoError(t, err)
	require.Equal(t, "after-retries", token)
	require.Equal(t, int32(3), callCount.Load())
}

func TestClient_ServerErrorAfterRetriesIsClassified(t *testing.T) {
	t.Parallel()

	var callCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		callCount.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"server_error","error_description":"database unavailable"}`))
	}))
	defer server.Close()

	client := authtoken.New(server.URL, "test-client", "test-secret", fastRetry(2))

	_, err := client.GetToken(t.Context())

	require.ErrorIs(t, err, apierror.ErrServer)
	require.Equal(t, int32(2), callCount.Load())

	apiErr, ok := apierror.As(err)
	require.True(t, ok)
	require.Equal(t, "database unavailable", apiErr.Message)
}

func TestClient_InvalidJSONIsMalformedResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	client := authtoken.New(server.URL, "test-client", "test-secret")

	_, err := client.GetToken(t.Context())

	require.ErrorIs(t, err, apierror.ErrMalformedResponse)
}

func TestClient_EmptyAccessTokenIsMalformedResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeToken(w, "", 3600)
	}))
	defer server.Close()

	client := authtoken.New(server.URL, "test-client", "test-secret")

	_, err := client.GetToken(t.Context())

	require.ErrorIs(t, err, apierror.ErrMalformedResponse)
}

func TestClient_ConnectionRefusedIsNetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	url := server.URL
	server.Close()

	client := authtoken.New(url, "test-client", "test-secret", fastRetry(2))

	_, err := client.GetToken(t.Context())

	require.ErrorIs(t, err, apierror.ErrNetwork)
}

func TestWithTimeout_ClassifiesAsTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeToken(w, "slow-token", 3600)
	}))
	defer server.Close()

	client := authtoken.New(
		server.URL,
		"test-client",
		"test-secret",
		authtoken.WithTimeout(20*time.Millisecond),
		fastRetry(1),
	)

	_, err := client.GetToken(t.Context())

	require.ErrorIs(t, err, apierror.ErrTimeout)
}

func TestClient_InvalidateTokenClearsCache(t *testing.T) {
	t.Parallel()

	var callCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		count := callCount.Add(1)
		writeToken(w, fmt.Sprintf("token-%d", count), 3600)
	}))
	defer server.Close()

	client := authtoken.New(server.URL, "test-client", "test-secret")

	token1, err := client.GetToken(t.Context())
	require.NoError(t, err)

	client.InvalidateToken()

	token2, err := client.GetToken(t.Context())
	require.NoError(t, err)

	require.NotEqual(t, token1, token2)
	require.Equal(t, int32(2), callCount.Load())
}

func TestClient_ConcurrentRequestsShareToken(t *testing.T) {
	t.Parallel()

	var callCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		callCount.Add(1)
		time.Sleep(50 * time.Millisecond)
		writeToken(w, "concurrent-token", 3600)
	}))
	defer server.Close()

	client := authtoken.New(server.URL, "test-client", "test-secret")

	var wg sync.WaitGroup

	tokens := make([]string, 10)
	errs := make([]error, 10)

	for idx := range 10 {
		wg.Add(1)

		go func(idx int) {
			defer wg.Done()

			tokens[idx], errs[idx] = client.GetToken(t.Context())
		}(idx)
	}

	wg.Wait()

	for idx, err := range errs {
		require.NoError(t, err, "goroutine %d", idx)
	}

	for idx, token := range tokens {
		require.Equal(t, "concurrent-token", token, "goroutine %d", idx)
	}

	require.Equal(t, int32(1), callCount.Load())
}
