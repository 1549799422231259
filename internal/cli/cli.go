// Package cli implements the oictl command-line interface.
//
// This package provides commands for extracting inventory metadata
// (connections, integrations) from an Oracle Integration Cloud instance
// into CSV files, and for bulk-importing integration archives back into an
// instance. The CLI is built using cobra with verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - export connections: Extract connection metadata with service accounts
//   - export integrations: Extract integration metadata
//   - import: Upload .iar packages with create-or-replace semantics
//   - completion: Generate shell completion scripts
//
// All commands support --verbose (-v) for debug-level logging, and read the
// target deployment from a config file (-c) and environment name (-e).
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/oictools/oictl/pkg/buildinfo"
	"github.com/oictools/oictl/pkg/config"
	"github.com/oictools/oictl/pkg/oic"
)

// appName is the application name used for display and completions.
const appName = "oictl"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "oictl manages Oracle Integration Cloud inventory and deployments",
		Long:         `oictl extracts connection and integration inventory from an Oracle Integration Cloud instance into CSV files, and bulk-imports integration archives with create-or-replace semantics.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.exportCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// connectOpts holds the flags shared by every command that talks to OIC.
type connectOpts struct {
	config string // config file path
	env    string // environment name within the config
}

func (o *connectOpts) addFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&o.config, "config", "c", "config.toml", "config file (TOML or JSON)")
	cmd.PersistentFlags().StringVarP(&o.env, "env", "e", "dev", "environment name from the config")
}

// target bundles everything a command needs to reach one environment.
type target struct {
	cfg    *config.Config
	env    config.Environment
	client *oic.Client
}

// connect loads the config, selects the environment, and builds an
// authenticated client. Configuration errors are fatal before any network
// call is made.
func (o *connectOpts) connect() (*target, error) {
	cfg, err := config.Load(o.config)
	if err != nil {
		return nil, err
	}
	env, err := cfg.Env(o.env)
	if err != nil {
		return nil, err
	}
	return &target{
		cfg:    cfg,
		env:    env,
		client: oic.NewClient(env.Authorization.BearerToken),
	}, nil
}

// progress tracks the start time of an operation and logs completion with
// elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since the tracker was created.
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
