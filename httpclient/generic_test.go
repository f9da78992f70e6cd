package httpclient_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andyle182810/wpsec/apierror"
	"github.com/andyle182810/wpsec/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSite struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

func TestGetJSON_ReturnsTypedResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		writeJSON(w, http.StatusOK, []testSite{{ID: 1, Title: "Blog"}})
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	sites, err := httpclient.GetJSON[[]testSite](t.Context(), client, "/v1/sites")

	require.NoError(t, err)
	require.Len(t, sites, 1)
	require.Equal(t, "Blog", sites[0].Title)
}

func TestPostJSON_SendsBodyAndReturnsTypedResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var input testSite
		_ = json.NewDecoder(r.Body).Decode(&input)

		writeJSON(w, http.StatusCreated, testSite{ID: 7, Title: input.Title})
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	site, err := httpclient.PostJSON[testSite](t.Context(), client, "/v1/sites", testSite{ID: 0, Title: "Shop"})

	require.NoError(t, err)
	require.Equal(t, 7, site.ID)
	require.Equal(t, "Shop", site.Title)
}

func TestDoJSON_UsesGivenMethod(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"method": r.Method})
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	response, err := httpclient.DoJSON[map[string]string](t.Context(), client, "CUSTOM", "/v1/sites", nil)

	require.NoError(t, err)
	require.Equal(t, "CUSTOM", response["method"])
}

func TestGetJSON_ReturnsZeroValueOnError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	site, err := httpclient.GetJSON[testSite](t.Context(), client, "/v1/sites/1")

	require.ErrorIs(t, err, apierror.ErrClient)
	require.Equal(t, testSite{ID: 0, Title: ""}, site)
}
