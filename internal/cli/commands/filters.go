package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/ssot/pkg/core"
	"github.com/leapstack-labs/ssot/pkg/crossfilter"
	"github.com/spf13/cobra"
)

// FilterOptions holds the selection flags shared by data commands.
type FilterOptions struct {
	Agency     string
	Advertiser string
	Campaign   string
	Channel    string
	Filters    []string
}

func (o *FilterOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Agency, "agency", "", "Drill down to one agency")
	cmd.Flags().StringVar(&o.Advertiser, "advertiser", "", "Drill down to one advertiser")
	cmd.Flags().StringVar(&o.Campaign, "campaign", "", "Drill down to one campaign")
	cmd.Flags().StringVar(&o.Channel, "channel", "", "Drill down to one channel")
	cmd.Flags().StringArrayVar(&o.Filters, "filter", nil, "Explicit selection DIM=v1,v2 (repeatable)")
}

// presets returns the drill-down values keyed by dimension name.
func (o *FilterOptions) presets() map[string]string {
	out := make(map[string]string)
	for name, v := range map[string]string{
		core.AgencyDimension.Name:     o.Agency,
		core.AdvertiserDimension.Name: o.Advertiser,
		core.CampaignDimension.Name:   o.Campaign,
		core.ChannelDimension.Name:    o.Channel,
	} {
		if v != "" {
			out[name] = v
		}
	}
	return out
}

// parseFilter splits "dim=v1,v2" into its parts.
func parseFilter(s string) (string, []string, error) {
	name, list, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", nil, fmt.Errorf("invalid filter %q (expected DIM=v1,v2)", s)
	}
	var values []string
	for _, v := range strings.Split(list, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return name, values, nil
}

// apply builds the selections on f: presets first, then explicit filters.
// Values that do not exist in the dataset are reported as warnings.
func (o *FilterOptions) apply(f *crossfilter.Filter) ([]string, error) {
	var warnings []string

	presets := o.presets()
	if len(presets) > 0 {
		for name, v := range presets {
			if !slices.Contains(f.Universe(name), v) {
				warnings = append(warnings, fmt.Sprintf("%s %q not found in dataset; selection unchanged", name, v))
			}
		}
		f.Preselect(presets)
	}

	for _, raw := range o.Filters {
		name, values, err := parseFilter(raw)
		if err != nil {
			return warnings, err
		}
		unknown, err := f.SetSelection(name, values)
		if err != nil {
			return warnings, err
		}
		if len(unknown) > 0 {
			warnings = append(warnings, fmt.Sprintf("%s: ignoring unknown values %s", name, strings.Join(unknown, ", ")))
		}
	}
	slices.Sort(warnings)
	return warnings, nil
}
