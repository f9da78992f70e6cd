package cli

import (
	"context"

	"github.com/andyle182810/wpsec/authtoken"
	"github.com/andyle182810/wpsec/config"
	"github.com/andyle182810/wpsec/httpclient"
	"github.com/andyle182810/wpsec/logutil"
	"github.com/andyle182810/wpsec/output"
	"github.com/andyle182810/wpsec/wpsec"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type app struct {
	opts    Options
	flags   globalFlags
	cfg     *config.Config
	printer *output.Printer
}

func newApp(opts Options) *app {
	return &app{
		opts:    opts,
		flags:   globalFlags{}, //nolint:exhaustruct
		cfg:     nil,
		printer: nil,
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.printer = output.New(a.opts.Out, a.opts.Err, a.flags.quiet)

	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err //nolint:wrapcheck
	}

	a.cfg = cfg

	if a.opts.InstallLogger {
		logutil.Setup(a.opts.Err, cfg.Level(), !isTerminal(a.opts.Err))
	}

	log.Debug().
		Str("base_url", cfg.BaseURL()).
		Dur("timeout", cfg.Timeout).
		Int("max_attempts", cfg.MaxAttempts).
		Msg("Configuration loaded")

	a.printer.Banner(a.opts.Version)

	return nil
}

func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)

	if a.opts.Environment != nil {
		cfg, err = config.FromEnvironment(a.opts.Environment)
	} else {
		cfg, err = config.New()
	}

	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	flags := cmd.Flags()

	if flags.Changed("client-id") {
		cfg.ClientID = a.flags.clientID
	}

	if flags.Changed("client-secret") {
		cfg.ClientSecret = a.flags.clientSecret
	}

	if flags.Changed("debug") {
		cfg.Debug = a.flags.debug
	}

	a.flags.debug = cfg.Debug

	if flags.Changed("stage") {
		cfg.Stage = a.flags.stage
	}

	if flags.Changed("api-url") {
		cfg.APIURL = a.flags.apiURL
	}

	if flags.Changed("timeout") {
		cfg.Timeout = a.flags.timeout
	}

	if flags.Changed("max-retries") {
		cfg.MaxAttempts = a.flags.maxRetries
	}

	return cfg, nil
}

func (a *app) userAgent() string {
	return "WPSec CLI/" + a.opts.Version
}

// service wires the token exchange and the request executor for the loaded
// configuration.
func (a *app) service() *wpsec.Service {
	_, service := a.clients()

	return service
}

// authenticatedService exchanges the credentials for a token before handing
// out the service, so credential failures surface before any API call.
func (a *app) authenticatedService(ctx context.Context) (*wpsec.Service, error) {
	tokens, service := a.clients()

	a.printer.Status("Authenticating...")

	if _, err := tokens.GetToken(ctx); err != nil {
		return nil, err //nolint:wrapcheck
	}

	a.printer.Success("Authentication successful!")

	return service, nil
}

func (a *app) clients() (*authtoken.Client, *wpsec.Service) {
	cfg := a.cfg

	tokens := authtoken.New(cfg.TokenURL(), cfg.ClientID, cfg.ClientSecret,
		authtoken.WithTimeout(cfg.Timeout),
		authtoken.WithUserAgent(a.userAgent()),
		authtoken.WithRetry(cfg.MaxAttempts, cfg.RetryBaseDelay, cfg.RetryMaxDelay),
	)

	client := httpclient.New(cfg.BaseURL(),
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithUserAgent(a.userAgent()),
		httpclient.WithTokenProvider(tokens),
		httpclient.WithRetry(cfg.RetryConfig()),
		httpclient.WithRateLimit(cfg.RateLimit),
	)

	return tokens, wpsec.NewService(client,
		wpsec.WithAPIVersion(cfg.APIVersion),
		wpsec.WithSlowThreshold(cfg.SlowThreshold),
	)
}

type fder interface {
	Fd() uintptr
}

func isTerminal(w any) bool {
	f, ok := w.(fder)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd())) //nolint:gosec
}
