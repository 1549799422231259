package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oictools/oictl/pkg/csvio"
	"github.com/oictools/oictl/pkg/errors"
	"github.com/oictools/oictl/pkg/oic"
)

// exportOpts holds the command-line flags for the export commands.
type exportOpts struct {
	connectOpts
	output string // output file path, empty for the per-env default
	limit  int    // page size for the inventory sweep
}

// exportCommand creates the export command with its resource subcommands.
func (c *CLI) exportCommand() *cobra.Command {
	opts := exportOpts{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Extract inventory metadata to CSV",
		Long: `Extract inventory metadata from an OIC instance into CSV files.

Examples:
  oictl export connections -e dev
  oictl export integrations -e prod -o prod_integrations.csv`,
	}

	opts.addFlags(cmd)
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "", "output file (default: per-environment extract path)")
	cmd.PersistentFlags().IntVar(&opts.limit, "limit", 0, "page size for the inventory sweep (default 100)")

	cmd.AddCommand(c.exportConnectionsCommand(&opts))
	cmd.AddCommand(c.exportIntegrationsCommand(&opts))

	return cmd
}

// exportConnectionsCommand creates the "export connections" subcommand.
func (c *CLI) exportConnectionsCommand(opts *exportOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "connections",
		Short: "Extract connection metadata with service accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExportConnections(cmd, opts)
		},
	}
}

// exportIntegrationsCommand creates the "export integrations" subcommand.
func (c *CLI) exportIntegrationsCommand(opts *exportOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "integrations",
		Short: "Extract integration metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExportIntegrations(cmd, opts)
		},
	}
}

// runExportConnections performs the connections extraction pipeline:
// dual-host paginated sweep, CSV write, then a second pass that enriches
// each row with its service account and rewrites the file. A sweep error
// suppresses the CSV write entirely; the extract is only ever complete.
func (c *CLI) runExportConnections(cmd *cobra.Command, opts *exportOpts) error {
	ctx := cmd.Context()
	t, err := opts.connect()
	if err != nil {
		return err
	}

	primary := t.cfg.InstanceHost(t.env)
	secondary := t.cfg.DesignHost()
	c.Logger.Infof("Extracting connections from %s", t.env.Instance)

	prog := newProgress(c.Logger)
	rows, err := t.client.ListConnections(ctx, primary, secondary,
		t.cfg.APIs.RetrieveConnections, t.env.Instance, opts.limit, c.Logger.Debugf)
	if err != nil {
		reportSweepFailure(len(rows), err)
		return err
	}
	prog.done(fmt.Sprintf("Collected %d connections", len(rows)))

	out := opts.output
	if out == "" {
		out = defaultExtractPath(opts.env, "conn")
	}
	if err := csvio.WriteFile(out, oic.ConnectionFields, oic.ConnectionRecords(rows)); err != nil {
		return err
	}
	printFile(out)

	// Second pass: service accounts. Per-row failures are logged and the
	// row keeps an empty service_account field.
	prog = newProgress(c.Logger)
	enriched := t.client.EnrichServiceAccounts(ctx, primary, t.env.Instance, rows, c.Logger.Warnf)
	prog.done(fmt.Sprintf("Enriched %d of %d connections with service accounts", enriched, len(rows)))

	if err := csvio.WriteFile(out, oic.ConnectionFields, oic.ConnectionRecords(rows)); err != nil {
		return err
	}

	printSuccess("Exported %d connections", len(rows))
	printFile(out)
	if enriched < len(rows) {
		printWarning("%d connections are missing a service account", len(rows)-enriched)
	}
	return nil
}

// runExportIntegrations performs the integrations extraction pipeline:
// single-host paginated sweep, then one CSV write.
func (c *CLI) runExportIntegrations(cmd *cobra.Command, opts *exportOpts) error {
	ctx := cmd.Context()
	t, err := opts.connect()
	if err != nil {
		return err
	}

	host := t.cfg.InstanceHost(t.env)
	c.Logger.Infof("Extracting integrations from %s", t.env.Instance)

	prog := newProgress(c.Logger)
	rows, err := t.client.ListIntegrations(ctx, host,
		t.cfg.APIs.RetrieveIntegrations, t.env.Instance, opts.limit, c.Logger.Debugf)
	if err != nil {
		reportSweepFailure(len(rows), err)
		return err
	}
	prog.done(fmt.Sprintf("Collected %d integrations", len(rows)))

	out := opts.output
	if out == "" {
		out = defaultExtractPath(opts.env, "int")
	}
	if err := csvio.WriteFile(out, oic.IntegrationFields, oic.IntegrationRecords(rows)); err != nil {
		return err
	}

	printSuccess("Exported %d integrations", len(rows))
	printFile(out)
	return nil
}

// defaultExtractPath returns the conventional extract location for an
// environment, e.g. conn_inventory_dev/oic_dev_conn_extract.csv.
func defaultExtractPath(env, kind string) string {
	return filepath.Join(
		fmt.Sprintf("%s_inventory_%s", kind, env),
		fmt.Sprintf("oic_%s_%s_extract.csv", env, kind),
	)
}

// reportSweepFailure reports an aborted sweep. Rows collected before the
// failure are preserved in memory but never written: extracts are all or
// nothing, so a reader can't mistake a partial file for a full inventory.
func reportSweepFailure(collected int, err error) {
	printError("Extraction aborted after %d rows: %s", collected, errors.UserMessage(err))
	printDetail("no extract written; fix the failure and rerun")
}
