package cli

import (
	"time"

	"github.com/andyle182810/wpsec/apierror"
	"github.com/andyle182810/wpsec/output"
	"github.com/andyle182810/wpsec/wpsec"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const defaultPingInterval = time.Second

func (a *app) pingCommand() *cobra.Command {
	var (
		count    int
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:     "ping",
		Aliases: []string{"p"},
		Short:   "Check that the WPSec API is up",
		Long: `Check the WPSec API health endpoint. No credentials are needed.

Examples:
  wpsec ping            Ping once
  wpsec ping -c 10      Ping ten times and print latency percentiles`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 {
				return apierror.Newf(apierror.KindValidation, "count must be at least 1, got %d", count)
			}

			a.printer.Status("Pinging %s...", a.cfg.BaseURL())

			results, err := a.service().PingN(cmd.Context(), count, interval)
			for _, result := range results {
				if result.Err != nil {
					log.Debug().Err(result.Err).Msg("Ping failed")
				}

				a.printer.Ping(result)
			}

			if err != nil {
				return err //nolint:wrapcheck
			}

			if count > 1 {
				a.printer.PingSummary(wpsec.Summarize(results))
			}

			for _, result := range results {
				if !result.Up() {
					return &exitError{code: ExitFailure}
				}
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "c", 1, "Number of pings")
	cmd.Flags().DurationVarP(&interval, "interval", "i", defaultPingInterval, "Wait between pings")

	return cmd
}

func (a *app) sitesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "sites",
		Aliases: []string{"get_sites", "gs"},
		Short:   "List the sites on your account",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			service, err := a.authenticatedService(cmd.Context())
			if err != nil {
				return err
			}

			a.printer.Status("Fetching sites...")

			sites, err := service.Sites(cmd.Context())
			if err != nil {
				return err //nolint:wrapcheck
			}

			a.printer.Sites(sites)

			return nil
		},
	}
}

func (a *app) addCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "add TITLE URL",
		Aliases: []string{"add_site", "as"},
		Short:   "Add a site to your account",
		Long: `Add a site to your account. The title is at most 255 characters and the
URL must use http or https.

Examples:
  wpsec add "My blog" https://blog.example.com`,
		Args: cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			a.printer.Status("Adding site %s...", args[1])

			site, err := a.service().AddSite(cmd.Context(), args[0], args[1])
			if err != nil {
				return err //nolint:wrapcheck
			}

			a.printer.AddedSite(site)

			return nil
		},
	}
}

func (a *app) reportsCommand() *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:     "reports",
		Aliases: []string{"list_reports", "lr"},
		Short:   "List reports, newest first",
		Long: `List the reports on your account. Page 1 holds the newest reports.

Examples:
  wpsec reports         Newest reports
  wpsec reports -p 2    Older reports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			service, err := a.authenticatedService(cmd.Context())
			if err != nil {
				return err
			}

			a.printer.Status("Fetching reports (page %d)...", page)

			result, err := service.ReportPage(cmd.Context(), page)
			if err != nil {
				return err //nolint:wrapcheck
			}

			a.printer.Reports(result)

			return nil
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number, 1 is the newest")

	return cmd
}

func (a *app) reportCommand() *cobra.Command {
	var (
		path   string
		format string
	)

	cmd := &cobra.Command{
		Use:     "report ID",
		Aliases: []string{"get_report", "gr"},
		Short:   "Show a single report",
		Long: `Show a report as JSON or YAML, or save it to a file.

Examples:
  wpsec report 0123456789abcdef0123456789abcdef
  wpsec report 0123456789abcdef0123456789abcdef -f yaml -o report.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, err := output.ParseFormat(format)
			if err != nil {
				return err //nolint:wrapcheck
			}

			service, err := a.authenticatedService(cmd.Context())
			if err != nil {
				return err
			}

			a.printer.Status("Fetching report %s...", args[0])

			document, err := service.Report(cmd.Context(), args[0])
			if err != nil {
				return err //nolint:wrapcheck
			}

			return a.printer.Report(document, outputFormat, path) //nolint:wrapcheck
		},
	}

	cmd.Flags().StringVarP(&path, "output", "o", "", "Write the report to this file")
	cmd.Flags().StringVarP(&format, "format", "f", string(output.FormatJSON), "Output format: json or yaml")

	return cmd
}
