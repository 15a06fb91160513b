// Package cli provides the codeflow-tui command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/olivoil/codeflow/tui/internal/app"
	"github.com/olivoil/codeflow/tui/internal/backend"
	"github.com/olivoil/codeflow/tui/internal/channel"
	"github.com/olivoil/codeflow/tui/internal/config"
	"github.com/olivoil/codeflow/tui/internal/logging"
	"github.com/olivoil/codeflow/tui/internal/metrics"
	"github.com/olivoil/codeflow/tui/internal/status"
	"github.com/olivoil/codeflow/tui/internal/telemetry"
	"github.com/olivoil/codeflow/tui/internal/ui"
)

// envKey stores the loaded environment in the command context.
type envKey struct{}

// env is what every command needs once flags are parsed.
type env struct {
	cfg     *config.Config
	cfgFile string
	logger  *logging.Logger
	tokens  *backend.TokenStore
}

func (e *env) client() *backend.Client {
	return backend.NewClient(e.cfg.Server.GraphQLURL, e.tokens, backend.WithLogger(e.logger.Logger))
}

func getEnv(ctx context.Context) *env {
	if e, ok := ctx.Value(envKey{}).(*env); ok {
		return e
	}
	return nil
}

// NewRootCmd creates the root command. Without a subcommand it runs the TUI,
// optionally starting at the location given as the only argument.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "codeflow-tui [location]",
		Short: "Terminal UI for codeflow projects",
		Long: `codeflow-tui shows your bookmarked codeflow projects and keeps them current
while the realtime channel pushes changes.

Start at a location with e.g. "codeflow-tui /projects/checkout/staging".`,
		Version: app.AppVersion,
		Args:    cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}
			cfg, used, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			logger, err := logging.Open(cfg.Log.File, cfg.Log.Level)
			if err != nil {
				return err
			}
			slog.SetDefault(logger.Logger)
			logger.Info("starting", "version", app.AppVersion, "config", used, "command", cmd.Name())

			e := &env{cfg: cfg, cfgFile: used, logger: logger, tokens: backend.NewTokenStore(cfg.Auth.TokenFile)}
			cmd.SetContext(context.WithValue(cmd.Context(), envKey{}, e))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if e := getEnv(cmd.Context()); e != nil {
				return e.logger.Close()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			start := ""
			if len(args) == 1 {
				start = args[0]
			}
			return runTUI(cmd.Context(), getEnv(cmd.Context()), start)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/codeflow/config.toml)")
	pf.String("graphql-url", "", "GraphQL endpoint")
	pf.String("channel-url", "", "realtime channel websocket URL")
	pf.String("token-file", "", "access token file")
	pf.String("state-dir", "", "directory for logs and state")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	pf.String("log-file", "", "log file (default: <state-dir>/codeflow-tui.log)")
	pf.String("metrics", "", "serve Prometheus metrics on this address, e.g. 127.0.0.1:9464")

	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newProjectsCmd())

	return rootCmd
}

// Execute runs the root command until it finishes or the process is signalled.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func runTUI(ctx context.Context, e *env, start string) error {
	cfg, logger := e.cfg, e.logger.Logger

	theme, err := ui.LoadTheme(cfg.Theme.File)
	if err != nil {
		logger.Warn("theme ignored", "file", cfg.Theme.File, "error", err)
	} else {
		ui.Apply(theme)
	}

	reporter, err := telemetry.New(telemetry.Options{
		DSN:         cfg.Telemetry.SentryDSN,
		Environment: cfg.Telemetry.Environment,
		Release:     app.AppName + "-tui@" + app.AppVersion,
	})
	if err != nil {
		logger.Warn("error reporting disabled", "error", err)
	}

	tokens := e.tokens
	transport := channel.NewWSTransport(channel.WSConfig{
		URL:               cfg.Server.ChannelURL,
		Header:            bearerHeader(tokens),
		ReconnectAttempts: cfg.Channel.ReconnectAttempts,
		ReconnectDelay:    cfg.Channel.ReconnectDelay,
		ReconnectDelayMax: cfg.Channel.ReconnectDelayMax,
		Logger:            logger,
	})

	return app.Run(ctx, app.RunOptions{
		Options: app.Options{
			Source:       e.client(),
			Credentials:  tokens,
			Conn:         channel.New(transport, logger),
			Status:       status.NewStore(cfg.Notify.SnackbarDuration),
			Metrics:      metrics.New(prometheus.NewRegistry()),
			Reporter:     reporter,
			Logger:       logger,
			SupportEmail: cfg.Support.Email,
			StartPath:    start,
		},
		Tokens:      tokens,
		MetricsAddr: cfg.Metrics.Addr,
	})
}

// bearerHeader reads the token on every dial so a new login is picked up.
func bearerHeader(tokens *backend.TokenStore) func() http.Header {
	return func() http.Header {
		h := http.Header{}
		if tok, err := tokens.Load(); err == nil && tok != "" {
			h.Set("Authorization", "Bearer "+tok)
		}
		return h
	}
}
