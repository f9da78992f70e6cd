package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	FakeClientID     = "test-client"
	FakeClientSecret = "test-secret"
	FakeAccessToken  = "fake-access-token"
	FakeReportID     = "0123456789abcdef0123456789abcdef"
)

// FakeAPI is an in-process WPSec API. Routes behave like the real service
// unless overridden with Handle; every request is counted per "METHOD /path".
type FakeAPI struct {
	Server *httptest.Server

	mu        sync.Mutex
	mux       *http.ServeMux
	overrides map[string]http.HandlerFunc
	calls     map[string]int
	sites     []map[string]any
	reports   []map[string]any
	perPage   int
	documents map[string]any
}

func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	api := &FakeAPI{
		Server:    nil,
		mu:        sync.Mutex{},
		mux:       http.NewServeMux(),
		overrides: make(map[string]http.HandlerFunc),
		calls:     make(map[string]int),
		sites:     nil,
		reports:   nil,
		perPage:   50, //nolint:mnd
		documents: make(map[string]any),
	}

	api.mux.HandleFunc("POST /oauth/token", api.handleToken)
	api.mux.HandleFunc("GET /v1/ping", api.handlePing)
	api.mux.HandleFunc("GET /v1/sites", api.authenticated(api.handleListSites))
	api.mux.HandleFunc("POST /v1/sites", api.authenticated(api.handleAddSite))
	api.mux.HandleFunc("GET /v1/reports", api.authenticated(api.handleListReports))
	api.mux.HandleFunc("GET /v1/report/{id}", api.authenticated(api.handleGetReport))

	api.Server = httptest.NewServer(api)
	t.Cleanup(api.Server.Close)

	return api
}

func (f *FakeAPI) URL() string {
	return f.Server.URL
}

func (f *FakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path

	f.mu.Lock()
	f.calls[key]++
	override := f.overrides[key]
	f.mu.Unlock()

	if override != nil {
		override(w, r)

		return
	}

	f.mux.ServeHTTP(w, r)
}

// Handle replaces the route for method and path.
func (f *FakeAPI) Handle(method, path string, handler http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.overrides[method+" "+path] = handler
}

func (f *FakeAPI) Calls(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[method+" "+path]
}

func (f *FakeAPI) SetSites(sites ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sites = sites
}

// SetReports stores reports oldest first, split into API pages of perPage.
func (f *FakeAPI) SetReports(perPage int, reports ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.perPage = perPage
	f.reports = reports
}

func (f *FakeAPI) SetReport(id string, document any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.documents[id] = document
}

// NumberedReports builds n reports whose createdAt encodes their position, oldest first.
func NumberedReports(n int) []map[string]any {
	reports := make([]map[string]any, 0, n)

	for i := 1; i <= n; i++ {
		reports = append(reports, map[string]any{
			"reportId":  fmt.Sprintf("%032x", i),
			"createdAt": fmt.Sprintf("2024-01-01 00:00:%02d", i%60), //nolint:mnd
			"url":       fmt.Sprintf("https://site%d.example.com/", i),
		})
	}

	return reports
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (f *FakeAPI) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+FakeAccessToken {
			WriteJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})

			return
		}

		next(w, r)
	}
}

func (f *FakeAPI) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})

		return
	}

	if r.Form.Get("grant_type") != "client_credentials" ||
		r.Form.Get("client_id") != FakeClientID ||
		r.Form.Get("client_secret") != FakeClientSecret {
		WriteJSON(w, http.StatusUnauthorized, map[string]string{
			"error":   "invalid_client",
			"message": "Client authentication failed",
		})

		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"token_type":   "Bearer",
		"expires_in":   3600, //nolint:mnd
		"access_token": FakeAccessToken,
	})
}

func (f *FakeAPI) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Ping Pong"))
}

func (f *FakeAPI) handleListSites(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	sites := f.sites
	f.mu.Unlock()

	if sites == nil {
		sites = []map[string]any{}
	}

	WriteJSON(w, http.StatusOK, sites)
}

func (f *FakeAPI) handleAddSite(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteJSON(w, http.StatusOK, map[string]string{"message": "Error: invalid payload"})

		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, site := range f.sites {
		if site["url"] == input.URL {
			WriteJSON(w, http.StatusOK, map[string][]string{"url": {"The url has already been taken."}})

			return
		}
	}

	f.sites = append(f.sites, map[string]any{
		"id":    len(f.sites) + 1,
		"name":  input.Title,
		"title": input.Title,
		"url":   input.URL,
	})

	WriteJSON(w, http.StatusCreated, "Site added")
}

func (f *FakeAPI) handleListReports(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	f.mu.Lock()
	reports := f.reports
	perPage := f.perPage
	f.mu.Unlock()

	lastPage := max((len(reports)+perPage-1)/perPage, 1)
	data := map[string]any{
		"paginate": map[string]int{
			"last_page": lastPage,
			"total":     len(reports),
			"per_page":  perPage,
		},
	}

	start := (page - 1) * perPage
	for i := start; i < min(start+perPage, len(reports)); i++ {
		data[strconv.Itoa(i-start)] = reports[i]
	}

	WriteJSON(w, http.StatusOK, map[string]any{"data": data})
}

func (f *FakeAPI) handleGetReport(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	document, ok := f.documents[r.PathValue("id")]
	f.mu.Unlock()

	if !ok {
		WriteJSON(w, http.StatusOK, map[string]string{"message": "No resource found"})

		return
	}

	WriteJSON(w, http.StatusOK, document)
}

// RequireCalls asserts the number of requests served for method and path.
func (f *FakeAPI) RequireCalls(t *testing.T, method, path string, expected int) {
	t.Helper()
	require.Equal(t, expected, f.Calls(method, path), "calls to %s %s", method, path)
}
