// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ashzansoc/darkchat-fusion/internal/chatapi"
	"github.com/ashzansoc/darkchat-fusion/internal/config"
	"github.com/ashzansoc/darkchat-fusion/internal/controller"
	"github.com/ashzansoc/darkchat-fusion/internal/logging"
	"github.com/ashzansoc/darkchat-fusion/internal/telemetry"
	"github.com/ashzansoc/darkchat-fusion/internal/ui/styles"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath  string
	Origin      string
	ChatURL     string
	HealthURL   string
	FallbackURL string
	LogLevel    string
	LogFile     string
	MetricsAddr string
}

// NewRootCommand builds the darkchat command tree. Running it without a
// subcommand starts the TUI.
func NewRootCommand() *cobra.Command {
	opts := &GlobalOptions{}

	root := &cobra.Command{
		Use:           "darkchat",
		Short:         "Terminal client for a remote chat API",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.darkchat/config.toml)")
	f.StringVar(&opts.Origin, "origin", "", "origin used to select endpoints")
	f.StringVar(&opts.ChatURL, "chat-url", "", "chat endpoint override")
	f.StringVar(&opts.HealthURL, "health-url", "", "health endpoint override")
	f.StringVar(&opts.FallbackURL, "fallback-url", "", "fallback endpoint override")
	f.StringVar(&opts.LogLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	f.StringVar(&opts.LogFile, "log-file", "", "log file")
	f.StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	root.AddCommand(
		newTUICommand(opts),
		newChatCommand(opts),
		newAskCommand(opts),
		newStatusCommand(opts),
		newConfigCommand(opts),
	)
	return root
}

// Execute runs darkchat with os.Args and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCommand()
	err := root.ExecuteContext(ctx)
	if err != nil && !isSilent(err) {
		fmt.Fprintln(root.ErrOrStderr(), ErrorStyle.Render("Error:"), err)
	}
	return ExitCodeFor(err)
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// apply layers the flags over cfg.
func (o *GlobalOptions) apply(cfg *config.Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.API.Origin, o.Origin)
	set(&cfg.API.ChatURL, o.ChatURL)
	set(&cfg.API.HealthURL, o.HealthURL)
	set(&cfg.API.FallbackURL, o.FallbackURL)
	set(&cfg.Log.Level, o.LogLevel)
	set(&cfg.Log.File, o.LogFile)
	set(&cfg.Metrics.Addr, o.MetricsAddr)
}

// loadConfig builds the effective configuration for a command.
func (o *GlobalOptions) loadConfig(command string) (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, configError(command, err)
	}
	o.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, configError(command, errors.Wrap(err, "invalid flags"))
	}
	return cfg, nil
}

// configFile returns the file the configuration was read from, or "".
func (o *GlobalOptions) configFile() string {
	if o.ConfigPath != "" {
		return o.ConfigPath
	}
	return config.FindConfigFile()
}

// =============================================================================
// APPLICATION WIRING
// =============================================================================

// app bundles what a command needs to run a chat session.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	closer  io.Closer
	client  *chatapi.Client
	metrics *telemetry.Metrics
}

// newApp loads configuration and builds the logger and API client. The TUI
// owns the terminal, so it always logs to a file; other commands log to
// stderr at warn unless --log-level or a log file says otherwise.
func newApp(command string, o *GlobalOptions, logToFile bool) (*app, error) {
	cfg, err := o.loadConfig(command)
	if err != nil {
		return nil, err
	}

	logOpts := logging.Options{Level: cfg.Log.Level, File: cfg.Log.File, Console: true}
	if logOpts.File == "" {
		if logToFile {
			if logOpts.File, err = config.DefaultLogFile(); err != nil {
				return nil, configError(command, err)
			}
		} else if o.LogLevel == "" {
			logOpts.Level = "warn"
		}
	}
	log, closer, err := logging.New(logOpts)
	if err != nil {
		return nil, configError(command, err)
	}

	cc, err := cfg.ClientConfig()
	if err != nil {
		closer.Close()
		return nil, configError(command, err)
	}
	log.Debug().
		Str("chat", cc.ChatURL).
		Str("health", cc.HealthURL).
		Str("fallback", cc.FallbackURL).
		Msg("resolved endpoints")

	return &app{
		cfg:     cfg,
		log:     log,
		closer:  closer,
		client:  chatapi.NewClient(cc, chatapi.WithLogger(log)),
		metrics: telemetry.New(),
	}, nil
}

// controller builds a session controller. Later options override the
// defaults taken from configuration.
func (a *app) controller(n controller.Notifier, opts ...controller.Option) *controller.Controller {
	base := []controller.Option{
		controller.WithLogger(a.log),
		controller.WithMetrics(a.metrics),
		controller.WithSettleDelay(a.cfg.SettleDelay()),
	}
	if n != nil {
		base = append(base, controller.WithNotifier(n))
	}
	return controller.New(a.client, append(base, opts...)...)
}

// serveMetrics exposes /metrics until ctx ends, when configured.
func (a *app) serveMetrics(ctx context.Context) {
	addr := a.cfg.Metrics.Addr
	if addr == "" {
		return
	}
	go func() {
		if err := a.metrics.Serve(ctx, addr, a.log); err != nil {
			a.log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
}

func (a *app) Close() error {
	return a.closer.Close()
}

// stderrNotifier prints each notification as one marked line.
func stderrNotifier(w io.Writer) controller.Notifier {
	return controller.NotifierFunc(func(n controller.Notification) {
		line := n.Title
		if n.Message != "" {
			line += ": " + n.Message
		}
		switch n.Severity {
		case controller.SeverityError:
			line = styles.RenderError(line)
		case controller.SeverityWarning:
			line = styles.RenderWarning(line)
		default:
			line = styles.RenderInfo(line)
		}
		fmt.Fprintln(w, line)
	})
}
