package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oictools/oictl/pkg/csvio"
	"github.com/oictools/oictl/pkg/oic"
)

// importOpts holds the command-line flags for the import command.
type importOpts struct {
	connectOpts
	dir    string // package directory, empty for export_directory from config
	output string // summary file path, empty for import_summary_{instance}.csv
}

// importCommand creates the import command.
func (c *CLI) importCommand() *cobra.Command {
	opts := importOpts{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk-import .iar packages into an OIC instance",
		Long: `Import every .iar package from a directory into an OIC instance.

Each package is created with POST; if the platform reports a conflict (409),
the package is replaced with PUT. Packages succeed or fail independently and
the per-package outcomes are written to a CSV summary.

Examples:
  oictl import -e dev
  oictl import -e prod --dir ./release-42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd, &opts)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.dir, "dir", "", "package directory (default: export_directory from config)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "summary file (default: import_summary_{instance}.csv)")

	return cmd
}

// runImport drives the batch import and writes the outcome summary.
func (c *CLI) runImport(cmd *cobra.Command, opts *importOpts) error {
	t, err := opts.connect()
	if err != nil {
		return err
	}

	dir := opts.dir
	if dir == "" {
		dir = t.cfg.ExportDirectory
	}

	importer := oic.NewImporter(t.client, t.cfg.DesignHost(), t.cfg.APIs.ImportIntegration, t.env.Instance)
	importer.Log = c.Logger.Infof

	c.Logger.Infof("Importing packages from %s into %s", dir, t.env.Instance)
	prog := newProgress(c.Logger)
	outcomes, err := importer.ImportDirectory(cmd.Context(), dir)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Processed %d packages", len(outcomes)))

	out := opts.output
	if out == "" {
		out = fmt.Sprintf("import_summary_%s.csv", t.env.Instance)
	}
	if err := csvio.WriteFile(out, oic.ImportFields, oic.ImportRecords(outcomes)); err != nil {
		return err
	}

	succeeded := 0
	for _, o := range outcomes {
		if o.Status == oic.StatusSuccess {
			printSuccess("%s: %s", o.Integration, o.Message)
			succeeded++
		} else {
			printError("%s: %s", o.Integration, o.Message)
		}
	}
	if len(outcomes) == 0 {
		printInfo("No .iar packages found in %s", dir)
	}
	printCounts(succeeded, len(outcomes)-succeeded)
	printFile(out)
	return nil
}
