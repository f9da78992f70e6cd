package wpsec

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/andyle182810/wpsec/apierror"
	"github.com/andyle182810/wpsec/httpclient"
	"github.com/andyle182810/wpsec/pagination"
	"github.com/rs/zerolog/log"
)

const paginateKey = "paginate"

var errDataNotObject = errors.New("data is not an object")

type reportsEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// Reports fetches one API page as numbered by the API (oldest first).
func (s *Service) Reports(ctx context.Context, page int) (*ReportList, error) {
	result, err := s.client.Execute(ctx, http.MethodGet, s.path("reports"), nil,
		httpclient.WithQuery("page", strconv.Itoa(page)))
	if err != nil {
		return nil, err
	}

	list, err := parseReportList(result.Body)
	if err != nil {
		if apiErr, ok := apierror.As(err); ok {
			apiErr.StatusCode = result.StatusCode
			apiErr.RequestID = result.RequestID
			apiErr.Attempts = result.Attempts
		}

		return nil, err
	}

	return list, nil
}

// ReportPage returns user page `page` with the newest reports first. Page 1 is
// topped up from the previous API page when the newest API page is short.
func (s *Service) ReportPage(ctx context.Context, page int) (*ReportPage, error) {
	if page < pagination.DefaultPage {
		return nil, apierror.Newf(apierror.KindValidation, "page %d is out of range, pages start at 1", page)
	}

	fetched := make(map[int]*ReportList, 2) //nolint:mnd

	fetch := func(apiPage int) (*ReportList, error) {
		if list, ok := fetched[apiPage]; ok {
			return list, nil
		}

		list, err := s.Reports(ctx, apiPage)
		if err != nil {
			return nil, err
		}

		fetched[apiPage] = list

		return list, nil
	}

	first, err := fetch(1)
	if err != nil {
		return nil, err
	}

	info := first.Paginate

	actual, err := pagination.ReversePage(page, info.LastPage)
	if err != nil {
		return nil, err
	}

	current, err := fetch(actual)
	if err != nil {
		return nil, err
	}

	var previous []ReportSummary

	if pagination.NeedsFill(page, actual, len(current.Reports), info.PerPage) {
		log.Debug().
			Int("api_page", actual-1).
			Int("have", len(current.Reports)).
			Int("per_page", info.PerPage).
			Msg("Filling newest page from previous API page")

		prev, err := fetch(actual - 1)
		if err != nil {
			return nil, err
		}

		previous = prev.Reports
	}

	return &ReportPage{
		Page:       page,
		TotalPages: info.LastPage,
		Total:      info.Total,
		PerPage:    info.PerPage,
		Reports:    pagination.NewestFirst(current.Reports, previous, info.PerPage),
	}, nil
}

func parseReportList(body []byte) (*ReportList, error) {
	var envelope reportsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, apierror.Wrap(apierror.KindMalformedResponse, err, "invalid response format: "+err.Error())
	}

	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, apierror.New(apierror.KindMalformedResponse, "invalid response format: missing data")
	}

	keys, values, err := decodeObject(data)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindMalformedResponse, err, "invalid response format: "+err.Error())
	}

	rawPaginate, ok := values[paginateKey]
	if !ok {
		return nil, apierror.New(apierror.KindMalformedResponse, "invalid response format: missing data.paginate")
	}

	var info pagination.Info
	if err := json.Unmarshal(rawPaginate, &info); err != nil {
		return nil, apierror.Wrap(apierror.KindMalformedResponse, err, "invalid paginate block: "+err.Error())
	}

	if info.LastPage < 1 && info.Total > 0 && info.PerPage > 0 {
		info.LastPage = pagination.ComputeTotals(info.Total, info.PerPage)
	}

	reports, err := collectReports(keys, values)
	if err != nil {
		return nil, err
	}

	return &ReportList{Reports: reports, Paginate: info.Normalize()}, nil
}

// decodeObject splits a JSON object into its members, returning the keys in
// document order.
func decodeObject(raw []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("read data block: %w", err)
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, errDataNotObject
	}

	keys := make([]string, 0)
	values := make(map[string]json.RawMessage)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("read data key: %w", err)
		}

		key, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("read data entry %q: %w", key, err)
		}

		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}

		values[key] = value
	}

	return keys, values, nil
}

// collectReports returns the report entries of a data block: numerically
// keyed entries in key order, then any other keyed entries in document order.
// Entries that are not objects or carry no reportId are skipped.
func collectReports(keys []string, values map[string]json.RawMessage) ([]ReportSummary, error) {
	numbered := make([]string, 0, len(keys))
	named := make([]string, 0)

	for _, key := range keys {
		if key == paginateKey {
			continue
		}

		if _, ok := numericKey(key); ok {
			numbered = append(numbered, key)

			continue
		}

		named = append(named, key)
	}

	slices.SortStableFunc(numbered, func(a, b string) int {
		x, _ := numericKey(a)
		y, _ := numericKey(b)

		return cmp.Compare(x, y)
	})

	ordered := append(numbered, named...) //nolint:gocritic

	reports := make([]ReportSummary, 0, len(ordered))

	for _, key := range ordered {
		raw := bytes.TrimSpace(values[key])
		if len(raw) == 0 || raw[0] != '{' {
			log.Debug().Str("key", key).Msg("Skipping report entry that is not an object")

			continue
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, apierror.Wrap(apierror.KindMalformedResponse, err, "invalid report entry: "+err.Error())
		}

		if _, ok := fields["reportId"]; !ok {
			log.Debug().Str("key", key).Msg("Skipping report entry without reportId")

			continue
		}

		var report ReportSummary
		if err := json.Unmarshal(raw, &report); err != nil {
			return nil, apierror.Wrap(apierror.KindMalformedResponse, err, "invalid report entry: "+err.Error())
		}

		reports = append(reports, report)
	}

	return reports, nil
}
