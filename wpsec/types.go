package wpsec

import (
	"bytes"
	"encoding/json"
	"html"
	"strconv"
	"time"

	"github.com/andyle182810/wpsec/pagination"
)

// SiteID accepts both numeric and string identifiers from the API.
type SiteID string

func (id *SiteID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if bytes.Equal(data, []byte("null")) {
		*id = ""

		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err //nolint:wrapcheck
		}

		*id = SiteID(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err //nolint:wrapcheck
	}

	*id = SiteID(n.String())

	return nil
}

func (id SiteID) String() string {
	return string(id)
}

type Site struct {
	ID    SiteID `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// DisplayName is the site name with HTML entities decoded.
func (s Site) DisplayName() string {
	return html.UnescapeString(s.Name)
}

// DisplayURL prefers the title and falls back to the URL.
func (s Site) DisplayURL() string {
	if s.Title != "" {
		return html.UnescapeString(s.Title)
	}

	return s.URL
}

type AddSiteInput struct {
	Title string `json:"title" validate:"required,max=255"`
	URL   string `json:"url"   validate:"required,siteurl"`
}

type AddedSite struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type ReportSummary struct {
	ReportID  string `json:"reportId"`
	CreatedAt string `json:"createdAt"`
	URL       string `json:"url"`
}

// ReportList is one API page of reports in the order the API numbered them
// (oldest first).
type ReportList struct {
	Reports  []ReportSummary
	Paginate pagination.Info
}

// ReportPage is a newest-first page as presented to the user.
type ReportPage struct {
	Page       int             `json:"page"`
	TotalPages int             `json:"totalPages"`
	Total      int             `json:"total"`
	PerPage    int             `json:"perPage"`
	Reports    []ReportSummary `json:"reports"`
}

type PingStatus string

const (
	PingUp    PingStatus = "up"
	PingDown  PingStatus = "down"
	PingError PingStatus = "error"
)

type PingResult struct {
	Status       PingStatus
	ResponseTime time.Duration
	Slow         bool
	Err          error
}

func (r PingResult) Up() bool {
	return r.Status == PingUp
}

func numericKey(key string) (int, bool) {
	n, err := strconv.Atoi(key)
	if err != nil {
		return 0, false
	}

	return n, true
}
