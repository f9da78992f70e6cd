package wpsec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/andyle182810/wpsec/apierror"
	"github.com/andyle182810/wpsec/httpclient"
	"github.com/andyle182810/wpsec/validator"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	noResourceMarker   = `"No resource found`
	htmlPreviewLength  = 100
	htmlLogLength      = 500
	contentTypeHTML    = "text/html"
	reportIDFieldLabel = "report ID"
)

//nolint:gochecknoglobals
var numberedErrorPattern = regexp.MustCompile(`(?i)Error\s+(\d+):\s*([^<\n]+)`)

// Report fetches the full report document. The id is validated before any
// request is made.
func (s *Service) Report(ctx context.Context, reportID string) (json.RawMessage, error) {
	reportID = strings.TrimSpace(reportID)

	if err := s.validator.ValidateVar(reportIDFieldLabel, reportID, "required,"+validator.TagReportID); err != nil {
		log.Warn().Str("report_id", reportID).Msg("Report ID does not look like a valid format")

		return nil, err
	}

	result, err := s.client.Execute(ctx, http.MethodGet, s.path("report", reportID), nil, httpclient.WithRawResponse())
	if err != nil {
		if apiErr, ok := apierror.As(err); ok && apiErr.StatusCode == http.StatusNotFound {
			notFound := apierror.Wrap(apierror.KindClient, ErrReportNotFound,
				"report not found, please check the report ID is correct")
			notFound.StatusCode = apiErr.StatusCode
			notFound.RequestID = apiErr.RequestID
			notFound.Attempts = apiErr.Attempts

			return nil, notFound
		}

		return nil, err
	}

	document, apiErr := interpretReport(result)
	if apiErr != nil {
		apiErr.StatusCode = result.StatusCode
		apiErr.RequestID = result.RequestID
		apiErr.Attempts = result.Attempts

		return nil, apiErr
	}

	return document, nil
}

func interpretReport(result *httpclient.Result) (json.RawMessage, *apierror.Error) {
	if strings.Contains(strings.ToLower(result.ContentType()), contentTypeHTML) {
		return nil, htmlReportError(result.Body)
	}

	body := bytes.TrimSpace(result.Body)

	if len(body) == 0 {
		return nil, apierror.New(apierror.KindMalformedResponse, "empty response from server")
	}

	if bytes.Contains(body, []byte(noResourceMarker)) {
		return nil, apierror.Wrap(apierror.KindClient, ErrReportNotFound, ErrReportNotFound.Error())
	}

	if !json.Valid(body) {
		return nil, apierror.Newf(apierror.KindMalformedResponse,
			"error parsing JSON response, response started with: %q", truncate(string(body), htmlPreviewLength))
	}

	return json.RawMessage(body), nil
}

// htmlReportError turns an HTML page served in place of a report into a
// readable error.
func htmlReportError(body []byte) *apierror.Error {
	page := strings.TrimSpace(string(body))

	log.Debug().Str("html", truncate(page, htmlLogLength)).Msg("Got HTML response for report")

	message := ExtractHTMLError(page)
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "not found"):
		return apierror.Wrap(apierror.KindClient, ErrReportNotFound,
			message+", please check the report ID is correct")
	case strings.Contains(lower, "permission"), strings.Contains(lower, "access"):
		return apierror.Wrap(apierror.KindClient, ErrReportAccess,
			message+", you may not have permission to access this report")
	default:
		return apierror.Newf(apierror.KindMalformedResponse, "API returned HTML instead of JSON: %s", message)
	}
}

// ExtractHTMLError finds the most specific error text in an HTML page: a
// numbered "Error N: ..." line, then the title, the first h1, a p.error
// paragraph, and finally the page text cut to 100 characters.
func ExtractHTMLError(page string) string {
	if match := numberedErrorPattern.FindStringSubmatch(page); match != nil {
		return fmt.Sprintf("Error %s: %s", match[1], strings.TrimSpace(match[2]))
	}

	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return truncate(normalizeSpace(page), htmlPreviewLength)
	}

	matchers := []func(*html.Node) bool{
		isElement(atom.Title),
		isElement(atom.H1),
		isErrorParagraph,
	}

	for _, matches := range matchers {
		if node := findNode(doc, matches); node != nil {
			if text := normalizeSpace(textContent(node)); text != "" {
				return text
			}
		}
	}

	return truncate(normalizeSpace(textContent(doc)), htmlPreviewLength)
}

func isElement(a atom.Atom) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == a
	}
}

func isErrorParagraph(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.P {
		return false
	}

	for _, attr := range n.Attr {
		if attr.Key == "class" && strings.EqualFold(attr.Val, "error") {
			return true
		}
	}

	return false
}

func findNode(n *html.Node, matches func(*html.Node) bool) *html.Node {
	if matches(n) {
		return n
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findNode(child, matches); found != nil {
			return found
		}
	}

	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch {
		case node.Type == html.TextNode:
			sb.WriteString(node.Data)
			sb.WriteByte(' ')
		case node.Type == html.ElementNode && (node.DataAtom == atom.Script || node.DataAtom == atom.Style):
			return
		}

		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}

	walk(n)

	return sb.String()
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit]) + "..."
	}

	return s
}
