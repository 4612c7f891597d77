package commands

import (
	"fmt"

	"github.com/leapstack-labs/ssot/internal/cli/output"
	"github.com/leapstack-labs/ssot/pkg/core"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Dataset string
	Limit   int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the edit journal",
		Long: `List the row updates sent from the dashboard, newest first.

Every attempt is journaled, including the ones the backend rejected.`,
		Example: `  # Last 20 edits
  ssot history

  # Edits of the targeting dataset as JSON
  ssot history --dataset targeting-analytics -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Dataset, "dataset", "", "Only edits of this dataset")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "Maximum number of edits (0 for all)")
	_ = cmd.RegisterFlagCompletionFunc("dataset", datasetCompletion)

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	filter := core.EditFilter{Limit: opts.Limit}
	if opts.Dataset != "" {
		id, err := core.ParseDatasetID(opts.Dataset)
		if err != nil {
			return err
		}
		filter.Dataset = id
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer
	edits, err := cmdCtx.Store.ListEdits(cmd.Context(), filter)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		if edits == nil {
			edits = []*core.Edit{}
		}
		return r.JSON(edits)
	}

	r.Header(1, fmt.Sprintf("Edit history (%d)", len(edits)))
	if len(edits) == 0 {
		r.Muted("No edits recorded")
		return nil
	}

	rows := make([][]string, 0, len(edits))
	for _, e := range edits {
		rows = append(rows, []string{
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			string(e.Dataset),
			e.Action,
			string(e.Status),
			e.Error,
		})
	}
	r.Table([]string{"Time", "Dataset", "Action", "Status", "Error"}, rows)
	return nil
}
