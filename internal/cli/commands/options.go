package commands

import (
	"fmt"

	"github.com/leapstack-labs/ssot/internal/cli/output"
	"github.com/leapstack-labs/ssot/pkg/crossfilter"
	"github.com/spf13/cobra"
)

// OptionListOptions holds options for the options command.
type OptionListOptions struct {
	FilterOptions
	Search string
}

// NewOptionsCommand creates the options command.
func NewOptionsCommand() *cobra.Command {
	opts := &OptionListOptions{}

	cmd := &cobra.Command{
		Use:   "options <dataset> <dimension>",
		Short: "List the selectable values of a dimension",
		Long: `List the values a dimension can take given the selections of every other
dimension. The dimension's own selection is marked but does not narrow the list.`,
		Example: `  # Advertisers available for one agency
  ssot options radia-plan advertiser --agency OMD

  # Campaigns containing "spring"
  ssot options media-plan campaign --search spring`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptions(cmd, args[0], args[1], opts)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "Case-insensitive substring filter")

	return cmd
}

type optionOutput struct {
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

func runOptions(cmd *cobra.Command, name, dim string, opts *OptionListOptions) error {
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
	if _, ok := f.Dimension(dim); !ok {
		return fmt.Errorf("dimension %q is not available in %s", dim, spec.ID)
	}
	warnings, err := opts.apply(f)
	if err != nil {
		return err
	}

	values := crossfilter.MatchOptions(f.Options(dim), opts.Search)
	out := make([]optionOutput, len(values))
	for i, v := range values {
		out[i] = optionOutput{Value: v, Selected: f.Selected(dim, v)}
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	for _, w := range warnings {
		r.Warning(w)
	}
	d, _ := f.Dimension(dim)
	r.Header(2, fmt.Sprintf("%s (%d)", d.Label, len(out)))
	if len(out) == 0 {
		r.Muted("No options")
		return nil
	}
	for _, o := range out {
		mark := "[ ]"
		if o.Selected {
			mark = "[x]"
		}
		r.Printf("- %s %s\n", mark, o.Value)
	}
	return nil
}
