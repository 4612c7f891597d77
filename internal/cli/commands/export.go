package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/leapstack-labs/ssot/pkg/crossfilter"
	"github.com/spf13/cobra"
)

// ExportOptions holds options for the export command.
type ExportOptions struct {
	FilterOptions
	File string
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export <dataset>",
		Short: "Export the filtered rows of a dataset as CSV",
		Long: `Write the rows that pass the current selections as CSV.

Every column is exported, including the ones the dashboard hides. Fields are
always quoted. Without --file the export is written to
<dataset>_export_<YYYY-MM-DD>.csv in the current directory; use "-" for stdout.`,
		Example: `  # Export the media plan of one agency
  ssot export media-plan --agency OMD

  # Export to stdout
  ssot export radia-plan -f -`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: datasetCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], opts)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Output file (\"-\" for stdout)")

	return cmd
}

func runExport(cmd *cobra.Command, name string, opts *ExportOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer
	spec, ds, err := cmdCtx.Load(cmd.Context(), name)
	if err != nil {
		return err
	}

	f := crossfilter.NewFilter(ds.Rows, spec.Dimensions)
	warnings, err := opts.apply(f)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		r.Warning(w)
	}
	rows := f.Visible()

	if opts.File == "-" {
		return crossfilter.ExportCSV(cmd.OutOrStdout(), rows, ds.Columns)
	}

	path := opts.File
	if path == "" {
		path = crossfilter.ExportFilename(spec.ID, time.Now())
	}
	if err := writeFile(path, func(w io.Writer) error {
		return crossfilter.ExportCSV(w, rows, ds.Columns)
	}); err != nil {
		return err
	}

	cmdCtx.Logger.Debug("dataset exported", "dataset", spec.ID, "rows", len(rows), "path", path)
	r.Success(fmt.Sprintf("Exported %d of %d rows to %s", len(rows), ds.Len(), path))
	return nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	out, err := os.Create(path) //nolint:gosec // path comes from the user
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	if err := write(out); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
