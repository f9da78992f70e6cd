package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/andyle182810/wpsec/apierror"
	"github.com/andyle182810/wpsec/output"
	"github.com/spf13/cobra"
)

const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

const long = `__ __ ___ __ ___ ___ __
\ V  V / '_ (_-</ -_) _|
 \_/\_/| .__/__/\___\__|
       |_|

wpsec is a command line client for the WPSec API. It manages the sites on
your account and fetches their security reports.

Credentials are read from --client-id/--client-secret or from the
WPSEC_CLIENT_ID and WPSEC_CLIENT_SECRET environment variables (a .env file in
the working directory is loaded too).

Get started:
  wpsec ping              Check that the API is reachable
  wpsec sites             List your sites
  wpsec add TITLE URL     Add a site
  wpsec reports           List reports, newest first
  wpsec report ID         Show a single report`

// Options configures one invocation. A nil Environment reads the process
// environment.
type Options struct {
	Version     string
	Out         io.Writer
	Err         io.Writer
	Environment map[string]string

	// InstallLogger replaces the global zerolog logger with a console logger
	// on Err. Tests leave it off.
	InstallLogger bool
}

// exitError ends the command with code without printing anything more.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// Run executes the command line in args and returns the process exit code.
func Run(ctx context.Context, args []string, opts Options) int {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	if opts.Err == nil {
		opts.Err = os.Stderr
	}

	a := newApp(opts)
	root := a.rootCommand()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	return a.exitCode(ctx, err)
}

func (a *app) exitCode(ctx context.Context, err error) int {
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}

	printer := a.printer
	if printer == nil {
		printer = output.New(a.opts.Out, a.opts.Err, false)
	}

	if errors.Is(err, apierror.ErrCanceled) || ctx.Err() != nil {
		printer.Error(errors.New("interrupted"))

		return ExitInterrupted
	}

	printer.Error(err)

	if !a.flags.debug && !a.flags.quiet {
		printer.Hint("Run with --debug flag for more details")
	}

	return ExitFailure
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "wpsec",
		Short:             "Command line client for the WPSec API",
		Long:              long,
		Version:           a.opts.Version,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(a.opts.Out)
	root.SetErr(a.opts.Err)
	root.SetVersionTemplate("wpsec {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&a.flags.clientID, "client-id", "", "API client ID (env WPSEC_CLIENT_ID)")
	flags.StringVar(&a.flags.clientSecret, "client-secret", "", "API client secret (env WPSEC_CLIENT_SECRET)")
	flags.BoolVarP(&a.flags.debug, "debug", "d", false, "Enable debug logging")
	flags.BoolVarP(&a.flags.quiet, "quiet", "q", false, "Print results only, tab separated")
	flags.BoolVar(&a.flags.stage, "stage", false, "Use the staging API")
	flags.StringVarP(&a.flags.apiURL, "api-url", "u", "", "Override the API base URL")
	flags.DurationVar(&a.flags.timeout, "timeout", 0, "Per-attempt request timeout (default 30s)")
	flags.IntVar(&a.flags.maxRetries, "max-retries", 0, "Attempts per request, the first one included (default 3)")
	root.Flags().BoolP("version", "v", false, "Print the version and exit")

	root.AddCommand(
		a.pingCommand(),
		a.sitesCommand(),
		a.addCommand(),
		a.reportsCommand(),
		a.reportCommand(),
	)

	return root
}

type globalFlags struct {
	clientID     string
	clientSecret string
	debug        bool
	quiet        bool
	stage        bool
	apiURL       string
	timeout      time.Duration
	maxRetries   int
}
