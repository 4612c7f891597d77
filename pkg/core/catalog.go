package core

import "sort"

// EditAction describes one way a row of a dataset can be edited and sent
// back to its backend.
type EditAction struct {
	// Name identifies the action in URLs and the edit journal.
	Name string
	// SubResource is appended to the dataset endpoint for the PUT request.
	SubResource string
	Label       string
	// TriggerColumn is the column whose cell opens this action in the table.
	// Empty means the action is offered from the row's edit button.
	TriggerColumn string
	// ReadOnly lists columns that are shown but cannot be changed.
	ReadOnly []string
	// ListColumn, when set, is edited as a comma separated multi-select.
	ListColumn string
	// Refreshes lists the datasets to re-fetch after a successful update.
	Refreshes []DatasetID
	// FailureMessage is used when the backend fails without a response body.
	FailureMessage string
	// AlertMessage is shown to the user when the update fails.
	AlertMessage string
}

// IsReadOnly reports whether column may not be edited by this action.
func (a EditAction) IsReadOnly(column string) bool {
	for _, c := range a.ReadOnly {
		if c == column {
			return true
		}
	}
	return false
}

// DatasetSpec is the static description of a dataset.
type DatasetSpec struct {
	ID         DatasetID
	Label      string
	Path       string
	Dimensions []Dimension
	// Hidden columns are not rendered in the table but are still exported.
	Hidden []string
	// HeaderOverrides replaces the derived header label for some columns.
	HeaderOverrides map[string]string
	Actions         []EditAction
	// FetchFailure is the error text used when the GET fails.
	FetchFailure string
}

// Action returns the named edit action.
func (s DatasetSpec) Action(name string) (EditAction, bool) {
	for _, a := range s.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return EditAction{}, false
}

// ActionForColumn returns the action triggered by clicking a cell of column.
func (s DatasetSpec) ActionForColumn(column string) (EditAction, bool) {
	for _, a := range s.Actions {
		if a.TriggerColumn != "" && a.TriggerColumn == column {
			return a, true
		}
	}
	return EditAction{}, false
}

// Dimension looks up a dimension by name.
func (s DatasetSpec) Dimension(name string) (Dimension, bool) {
	for _, d := range s.Dimensions {
		if d.Name == name {
			return d, true
		}
	}
	return Dimension{}, false
}

// Editable reports whether any edit action exists.
func (s DatasetSpec) Editable() bool { return len(s.Actions) > 0 }

var mediaPlanReadOnly = []string{
	"CLIENT", "AGENCY_NAME", "ADVERTISER_NAME", "PRODUCT", "CAMPAIGN_ID",
	"CAMPAIGN_NAME", "PACKAGE", "PLACMENT", "FLIGHT", "TOTAL_BUDGET", "IMPRESSIONS",
}

var packageReadOnly = []string{
	"RADIA_OR_PRISMA_PACKAGE_NAME", "PLACEMENTNAME", "LINE_ITEM_BREAK_DSP_SPECIFIC",
	"BOOLEAN_LOGIC", "CAMPAIGN_ID", "ADVERTISER_NAME", "AGENCY_NAME", "TARGETING_BLURB",
	"AUDIENCE_INFO", "DEMOGRAPHICS", "DATA_SOURCE_DSP", "PRIMARY_KPI", "BENCHMARKS",
	"DEAL_NAME", "DEAL_IDS", "FLOOR_PRICE", "DEVICE", "BUY_MODEL", "FREQUENCY_CAP",
	"GEO", "PIXELS_FLOODLIGHT",
}

var packageAndPlacementReadOnly = []string{
	"RADIA_OR_PRISMA_PACKAGE_NAME", "PLACEMENTNAME", "CAMPAIGN_ID", "ADVERTISER_NAME",
	"AGENCY_NAME", "TACTIC", "BUY_MODEL", "BRAND_SAFETY", "BLS_MEASUREMENT", "LIVE_DATE",
}

var commonDimensions = []Dimension{AgencyDimension, AdvertiserDimension, CampaignDimension}

var builtinSpecs = map[DatasetID]DatasetSpec{
	RadiaPlan: {
		ID:           RadiaPlan,
		Label:        "Radia Plan",
		Path:         "/api/radiaplan",
		Dimensions:   []Dimension{AgencyDimension, AdvertiserDimension, CampaignDimension, ChannelDimension},
		FetchFailure: "Failed to fetch Radia plan data",
	},
	MediaPlan: {
		ID:         MediaPlan,
		Label:      "Media Plan",
		Path:       "/api/mediaplan",
		Dimensions: commonDimensions,
		Actions: []EditAction{{
			Name:           "media-plan",
			SubResource:    "update-mediaplan-and-targeting-analytics",
			Label:          "Edit Media Plan",
			ReadOnly:       mediaPlanReadOnly,
			Refreshes:      []DatasetID{TargetingAnalytics, MediaPlan},
			FailureMessage: "Failed to update media plan and targeting data",
			AlertMessage:   "Failed to update media plan",
		}},
		FetchFailure: "Failed to fetch Media plan data",
	},
	CampaignOverview: {
		ID:           CampaignOverview,
		Label:        "Campaign Overview",
		Path:         "/api/campaign",
		Dimensions:   commonDimensions,
		FetchFailure: "Failed to fetch data",
	},
	TargetingAnalytics: {
		ID:         TargetingAnalytics,
		Label:      "Targeting & Analytics",
		Path:       "/api/targeting",
		Dimensions: commonDimensions,
		Hidden:     []string{"AGENCY_NAME", "ADVERTISER_NAME", "CAMPAIGN_ID"},
		HeaderOverrides: map[string]string{
			"PIXELS_FLOODLIGHT": "Pixels",
		},
		Actions: []EditAction{
			{
				Name:           "by-package",
				SubResource:    "by-package",
				Label:          "Edit Package",
				TriggerColumn:  "RADIA_OR_PRISMA_PACKAGE_NAME",
				ReadOnly:       packageReadOnly,
				Refreshes:      []DatasetID{TargetingAnalytics},
				FailureMessage: "Failed to update package",
				AlertMessage:   "Failed to update package",
			},
			{
				Name:           "by-package-and-placement",
				SubResource:    "by-package-and-placement",
				Label:          "Edit Package & Placement",
				TriggerColumn:  "PLACEMENTNAME",
				ReadOnly:       packageAndPlacementReadOnly,
				Refreshes:      []DatasetID{TargetingAnalytics},
				FailureMessage: "Failed to update record",
				AlertMessage:   "Failed to update record",
			},
			{
				Name:           "audience-info",
				SubResource:    "audience-info",
				Label:          "Edit Audience Info",
				TriggerColumn:  "AUDIENCE_INFO",
				ListColumn:     "AUDIENCE_INFO",
				Refreshes:      []DatasetID{TargetingAnalytics},
				FailureMessage: "Failed to update audience info",
				AlertMessage:   "Failed to update audience info. Please try again.",
			},
		},
		FetchFailure: "Failed to fetch data",
	},
}

// datasetOrder is the tab order of the dashboard.
var datasetOrder = []DatasetID{RadiaPlan, MediaPlan, CampaignOverview, TargetingAnalytics}

// DatasetIDs returns the known datasets in tab order.
func DatasetIDs() []DatasetID {
	out := make([]DatasetID, len(datasetOrder))
	copy(out, datasetOrder)
	return out
}

// Spec returns the built-in description of a dataset.
func Spec(id DatasetID) (DatasetSpec, bool) {
	s, ok := builtinSpecs[id]
	if !ok {
		return DatasetSpec{}, false
	}
	return s.clone(), true
}

// Specs returns every dataset description in tab order.
func Specs() []DatasetSpec {
	out := make([]DatasetSpec, 0, len(datasetOrder))
	for _, id := range datasetOrder {
		out = append(out, builtinSpecs[id].clone())
	}
	return out
}

// WithChannelColumn returns a copy of s whose channel dimension reads column.
func (s DatasetSpec) WithChannelColumn(column string) DatasetSpec {
	if column == "" {
		return s
	}
	out := s.clone()
	for i, d := range out.Dimensions {
		if d.Name == ChannelDimension.Name {
			out.Dimensions[i].Column = column
		}
	}
	return out
}

// DefaultAudiences is the built-in list offered by the audience editor.
func DefaultAudiences() []string {
	out := []string{
		"Tech Enthusiasts", "Business Professionals", "Students (18-24)",
		"Young Professionals (25-34)", "Parents with Young Children", "Luxury Shoppers",
		"Fitness Enthusiasts", "Travel Lovers", "Foodies", "Gamers", "Sports Fans",
		"Movie Buffs", "Music Lovers", "Pet Owners", "Home Improvement DIYers",
		"Fashion Forward", "Eco-Conscious Consumers", "Early Adopters",
		"Health & Wellness Seekers", "Remote Workers",
	}
	sort.Strings(out)
	return out
}

func (s DatasetSpec) clone() DatasetSpec {
	out := s
	out.Dimensions = append([]Dimension(nil), s.Dimensions...)
	out.Hidden = append([]string(nil), s.Hidden...)
	out.Actions = append([]EditAction(nil), s.Actions...)
	if s.HeaderOverrides != nil {
		out.HeaderOverrides = make(map[string]string, len(s.HeaderOverrides))
		for k, v := range s.HeaderOverrides {
			out.HeaderOverrides[k] = v
		}
	}
	return out
}
