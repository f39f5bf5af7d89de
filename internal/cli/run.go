package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ael-dev3/Hypercast/internal/config"
	"github.com/ael-dev3/Hypercast/internal/feed"
	"github.com/ael-dev3/Hypercast/internal/harvest"
	"github.com/ael-dev3/Hypercast/internal/poller"
	"github.com/ael-dev3/Hypercast/internal/store"
)

// knownHubHosts are public hubs that may be harvested without
// --allow-unlisted-hub. Loopback addresses are always allowed.
var knownHubHosts = map[string]bool{
	"hub.farcaster.standardcrypto.vc": true,
	"hub.pinata.cloud":                true,
	"hoyt.farcaster.xyz":              true,
	"lamia.farcaster.xyz":             true,
	"nemes.farcaster.xyz":             true,
}

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Hub              string
	Database         string
	StatePath        string
	Interval         time.Duration
	MaxPages         int
	Once             bool
	AllowUnlistedHub bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Harvest hub events into the local cast store",
		Long: `Run the harvest loop against a hub's event API.

Each cycle resumes from the persisted cursor, fetches and normalizes event
pages, applies the resulting actions to the local SQLite store, and persists
the advanced cursor. With --once a single cycle runs and the command exits
with that cycle's status.

Example:
  hypercast run --db ./hypercast.db --state ./state.json
  hypercast run --hub http://localhost:2281 --allow-unlisted-hub --once`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPoller(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Hub, "hub", "", "hub base URL (overrides config)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.Flags().StringVar(&opts.StatePath, "state", "", "path to cursor state file (overrides config)")
	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "delay between harvest cycles (overrides config)")
	cmd.Flags().IntVar(&opts.MaxPages, "max-pages", 0, "page budget per harvest cycle (overrides config)")
	cmd.Flags().BoolVar(&opts.Once, "once", false, "run exactly one harvest cycle and exit")
	cmd.Flags().BoolVar(&opts.AllowUnlistedHub, "allow-unlisted-hub", false, "permit harvesting a hub host not on the built-in list")

	return cmd
}

func runPoller(opts *RunOptions, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	applyRunOverrides(&cfg, opts)

	if err := checkHubAllowed(cfg.Hub.Endpoint, opts.AllowUnlistedHub); err != nil {
		return WrapExitError(ExitCommandError, "hub not allowed", err)
	}

	slog.Info("opening database", "path", cfg.Store.Path)
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	p := poller.New(poller.Options{
		Harvest: harvest.Config{
			Endpoint: cfg.Hub.Endpoint,
			PageSize: cfg.Hub.PageSize,
			Reverse:  cfg.Hub.Reverse,
			Timeout:  cfg.Hub.Timeout,
		},
		MaxPages:  cfg.Poller.MaxPages,
		StatePath: cfg.Poller.StatePath,
		Interval:  cfg.Poller.Interval,
	}, st, feed.NewStore(cfg.Feed.MaxVisible))

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("poller starting",
		"hub", cfg.Hub.Endpoint,
		"db", cfg.Store.Path,
		"state", cfg.Poller.StatePath,
		"source_id", p.SourceID(),
		"once", opts.Once,
	)

	if err := p.Run(ctx, opts.Once); err != nil {
		return WrapExitError(ExitFailure, "harvest failed", err)
	}
	return nil
}

// loadConfig resolves the effective config: the file named by --config, or
// defaults when no file is given.
func loadConfig(rootOpts *RootOptions) (config.Config, error) {
	if rootOpts.ConfigPath == "" {
		return config.Default(), nil
	}
	return config.Load(rootOpts.ConfigPath)
}

func applyRunOverrides(cfg *config.Config, opts *RunOptions) {
	if opts.Hub != "" {
		cfg.Hub.Endpoint = opts.Hub
	}
	if opts.Database != "" {
		cfg.Store.Path = opts.Database
	}
	if opts.StatePath != "" {
		cfg.Poller.StatePath = opts.StatePath
	}
	if opts.Interval > 0 {
		cfg.Poller.Interval = opts.Interval
	}
	if opts.MaxPages > 0 {
		cfg.Poller.MaxPages = opts.MaxPages
	}
}

// checkHubAllowed enforces the hub allow-list. Loopback hosts are always
// permitted so local hubs and tests need no extra flag.
func checkHubAllowed(endpoint string, allowUnlisted bool) error {
	if allowUnlisted {
		return nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("parse hub endpoint %q: %w", endpoint, err)
	}
	host := u.Hostname()
	if host == "localhost" {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return nil
	}
	if !knownHubHosts[host] {
		return fmt.Errorf("%q is not a known hub host; pass --allow-unlisted-hub to harvest it", host)
	}
	return nil
}
