package output

import (
	"fmt"
	"html"
	"io"
	"time"

	"github.com/andyle182810/wpsec/wpsec"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const (
	apiName    = "WPSec"
	supportURL = "support@wpsec.com"
)

const banner = `__ __ ___ __ ___ ___ __
\ V  V / '_ (_-</ -_) _|
 \_/\_/| .__/__/\___\__|
       |_|`

// Printer renders results on out and status messages on errOut. In quiet
// mode results are tab separated and status messages are dropped.
type Printer struct {
	out       io.Writer
	errOut    io.Writer
	quiet     bool
	styles    styles
	// errStyles follow errOut's color profile.
	errStyles styles
}

func New(out, errOut io.Writer, quiet bool) *Printer {
	return &Printer{
		out:       out,
		errOut:    errOut,
		quiet:     quiet,
		styles:    newStyles(lipgloss.NewRenderer(out)),
		errStyles: newStyles(lipgloss.NewRenderer(errOut)),
	}
}

func (p *Printer) Quiet() bool {
	return p.quiet
}

func (p *Printer) Banner(version string) {
	if p.quiet {
		return
	}

	fmt.Fprintln(p.errOut, p.errStyles.Logo.Render(banner))
	fmt.Fprintln(p.errOut, p.errStyles.Info.Render("Version "+version))
	fmt.Fprintln(p.errOut)
}

func (p *Printer) Status(format string, args ...any) {
	if p.quiet {
		return
	}

	fmt.Fprintln(p.errOut, p.errStyles.Info.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Success(format string, args ...any) {
	if p.quiet {
		return
	}

	fmt.Fprintln(p.errOut, p.errStyles.Success.Render(fmt.Sprintf(format, args...)))
}

// Error is printed even in quiet mode.
func (p *Printer) Error(err error) {
	fmt.Fprintln(p.errOut, p.errStyles.Error.Render("Error: "+err.Error()))
}

func (p *Printer) Hint(format string, args ...any) {
	if p.quiet {
		return
	}

	fmt.Fprintln(p.errOut, p.errStyles.Warning.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Sites(sites []wpsec.Site) {
	if p.quiet {
		for _, site := range sites {
			fmt.Fprintf(p.out, "%s\t%s\t%s\n", site.ID, site.DisplayName(), site.DisplayURL())
		}

		return
	}

	if len(sites) == 0 {
		fmt.Fprintln(p.out, p.styles.Warning.Render("No sites found."))

		return
	}

	rows := make([][]string, 0, len(sites))
	for _, site := range sites {
		rows = append(rows, []string{site.ID.String(), site.DisplayName(), site.DisplayURL()})
	}

	fmt.Fprintln(p.out, p.table(rows, "ID", "Title", "URL"))
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.styles.Success.Render(fmt.Sprintf("Total sites: %d", len(sites))))
}

func (p *Printer) AddedSite(site *wpsec.AddedSite) {
	title := html.UnescapeString(site.Title)

	if p.quiet {
		fmt.Fprintf(p.out, "%s (%s)\n", title, site.URL)

		return
	}

	fmt.Fprintln(p.out, p.styles.Success.Render(fmt.Sprintf("Site added: %s (%s)", title, site.URL)))
}

func (p *Printer) Reports(page *wpsec.ReportPage) {
	if p.quiet {
		for _, report := range page.Reports {
			fmt.Fprintf(p.out, "%s\t%s\t%s\n", report.ReportID, report.CreatedAt, report.URL)
		}

		return
	}

	if len(page.Reports) == 0 {
		fmt.Fprintln(p.out, p.styles.Warning.Render(fmt.Sprintf("No reports found on page %d", page.Page)))

		return
	}

	fmt.Fprintln(p.out, p.styles.Success.Render(
		fmt.Sprintf("Listing %d reports below (newest first):", len(page.Reports))))
	fmt.Fprintln(p.out)

	rows := make([][]string, 0, len(page.Reports))
	for _, report := range page.Reports {
		rows = append(rows, []string{report.ReportID, report.CreatedAt, report.URL})
	}

	fmt.Fprintln(p.out, p.table(rows, "Report ID", "Created at", "URL"))
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.styles.Info.Render(
		fmt.Sprintf("Page %d of %d (%d reports total)", page.Page, page.TotalPages, page.Total)))

	if page.Page == 1 && page.TotalPages > 1 {
		fmt.Fprintln(p.out, p.styles.Warning.Render("Hint: Use -p/--page to paginate results"))
	}
}

func (p *Printer) Ping(result wpsec.PingResult) {
	seconds := result.ResponseTime.Seconds()

	switch {
	case !result.Up():
		if p.quiet {
			fmt.Fprintf(p.out, "%s (%.2fs)\n", result.Status, seconds)

			return
		}

		fmt.Fprintln(p.out, p.styles.Error.Render(fmt.Sprintf(
			"%s API is down. Please create a new support ticket at: %s", apiName, supportURL)))
	case p.quiet:
		fmt.Fprintf(p.out, "up (%.2fs)\n", seconds)
	case result.Slow:
		fmt.Fprintln(p.out, p.styles.Warning.Render(fmt.Sprintf(
			"%s API is up, but response time is slow: %.2f seconds!", apiName, seconds)))
	default:
		fmt.Fprintln(p.out, p.styles.Success.Render(fmt.Sprintf(
			`%s API is up and running \o/. Response time: %.2f seconds`, apiName, seconds)))
	}
}

func (p *Printer) PingSummary(summary wpsec.LatencySummary) {
	if p.quiet {
		fmt.Fprintf(p.out, "%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			summary.Count, summary.Up,
			millis(summary.Min), millis(summary.P50), millis(summary.P90), millis(summary.P99), millis(summary.Max))

		return
	}

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.styles.Info.Render(fmt.Sprintf(
		"%d pings, %d up, %.0f%% loss", summary.Count, summary.Up, summary.Loss()*100))) //nolint:mnd

	if summary.Up == 0 {
		return
	}

	fmt.Fprintln(p.out, p.table([][]string{{
		millis(summary.Min), millis(summary.P50), millis(summary.P90),
		millis(summary.P99), millis(summary.Max), millis(summary.Mean),
	}}, "min", "p50", "p90", "p99", "max", "mean"))
}

func (p *Printer) table(rows [][]string, headers ...string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.styles.Border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return p.styles.Header
			case row%2 == 1:
				return p.styles.DimCell
			default:
				return p.styles.Cell
			}
		}).
		Headers(headers...).
		Rows(rows...).
		Render()
}

func millis(d time.Duration) string {
	return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
}
