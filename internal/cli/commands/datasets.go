package commands

import (
	"strings"

	"github.com/leapstack-labs/ssot/internal/cli/output"
	"github.com/leapstack-labs/ssot/pkg/core"
	"github.com/spf13/cobra"
)

// NewDatasetsCommand creates the datasets command.
func NewDatasetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List the datasets and their endpoints",
		Long: `List every dataset of the dashboard with its endpoint, filter dimensions
and the edit actions it accepts.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDatasets(cmd)
		},
	}
}

type datasetOutput struct {
	ID         core.DatasetID   `json:"id"`
	Label      string           `json:"label"`
	Endpoint   string           `json:"endpoint"`
	Dimensions []core.Dimension `json:"dimensions"`
	Actions    []string         `json:"actions,omitempty"`
	Mirrored   bool             `json:"mirrored"`
}

func runDatasets(cmd *cobra.Command) error {
	cmdCtx := NewCommandContextWithoutData(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	endpoints := cfg.Endpoints()
	mirrored := make(map[core.DatasetID]bool)
	for _, id := range cfg.MirrorIDs() {
		mirrored[id] = true
	}

	var out []datasetOutput
	for _, id := range core.DatasetIDs() {
		spec, _ := cfg.DatasetSpec(id)
		d := datasetOutput{
			ID:         id,
			Label:      spec.Label,
			Endpoint:   endpoints[id],
			Dimensions: spec.Dimensions,
			Mirrored:   mirrored[id],
		}
		for _, a := range spec.Actions {
			d.Actions = append(d.Actions, a.Name)
		}
		out = append(out, d)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	r.Header(1, "Datasets")
	rows := make([][]string, 0, len(out))
	for _, d := range out {
		dims := make([]string, len(d.Dimensions))
		for i, dim := range d.Dimensions {
			dims[i] = dim.Name
		}
		mirror := ""
		if d.Mirrored {
			mirror = "yes"
		}
		rows = append(rows, []string{
			string(d.ID), d.Label, d.Endpoint,
			strings.Join(dims, ", "), strings.Join(d.Actions, ", "), mirror,
		})
	}
	r.Table([]string{"ID", "Label", "Endpoint", "Dimensions", "Edits", "Mirrored"}, rows)
	return nil
}
