package testutil

import "github.com/leapstack-labs/ssot/pkg/core"

// RadiaRows is a small Radia plan dataset.
func RadiaRows() []core.Row {
	return []core.Row{
		{"AGENCY_NAME": "OMD", "ADVERTISER_NAME": "Nike", "CAMPAIGN_ID": "C1", "CHANNEL": "Video", "BUDGET": "1000"},
		{"AGENCY_NAME": "OMD", "ADVERTISER_NAME": "Adidas", "CAMPAIGN_ID": "C2", "CHANNEL": "Display", "BUDGET": "250"},
		{"AGENCY_NAME": "PHD", "ADVERTISER_NAME": "Nike", "CAMPAIGN_ID": "C3", "CHANNEL": "Audio", "BUDGET": "75"},
		{"AGENCY_NAME": "PHD", "ADVERTISER_NAME": "Puma", "CAMPAIGN_ID": "C4", "CHANNEL": "Video", "BUDGET": "500"},
	}
}

// MediaRows is a small media plan dataset.
func MediaRows() []core.Row {
	return []core.Row{
		{"CLIENT": "Nike", "AGENCY_NAME": "OMD", "ADVERTISER_NAME": "Nike", "CAMPAIGN_ID": "C1", "PACKAGE": "P1", "TOTAL_BUDGET": "1000", "NOTES": ""},
		{"CLIENT": "Puma", "AGENCY_NAME": "PHD", "ADVERTISER_NAME": "Puma", "CAMPAIGN_ID": "C4", "PACKAGE": "P2", "TOTAL_BUDGET": "500", "NOTES": "rush"},
	}
}

// CampaignRows is a small campaign overview dataset.
func CampaignRows() []core.Row {
	return []core.Row{
		{"AGENCY_NAME": "OMD", "ADVERTISER_NAME": "Nike", "CAMPAIGN_ID": "C1", "STATUS": "Live"},
		{"AGENCY_NAME": "PHD", "ADVERTISER_NAME": "Puma", "CAMPAIGN_ID": "C4", "STATUS": "Draft"},
	}
}

// TargetingRows is a small targeting & analytics dataset.
func TargetingRows() []core.Row {
	return []core.Row{
		{
			"AGENCY_NAME": "OMD", "ADVERTISER_NAME": "Nike", "CAMPAIGN_ID": "C1",
			"RADIA_OR_PRISMA_PACKAGE_NAME": "P1", "PLACEMENTNAME": "PL1",
			"AUDIENCE_INFO": "Gamers,Foodies", "TACTIC": "Prospecting", "PIXELS_FLOODLIGHT": "yes",
		},
		{
			"AGENCY_NAME": "PHD", "ADVERTISER_NAME": "Puma", "CAMPAIGN_ID": "C4",
			"RADIA_OR_PRISMA_PACKAGE_NAME": "P2", "PLACEMENTNAME": "PL2",
			"AUDIENCE_INFO": "", "TACTIC": "Retargeting", "PIXELS_FLOODLIGHT": "no",
		},
	}
}

// SampleRows returns the fixture rows of a dataset.
func SampleRows(id core.DatasetID) []core.Row {
	switch id {
	case core.RadiaPlan:
		return RadiaRows()
	case core.MediaPlan:
		return MediaRows()
	case core.CampaignOverview:
		return CampaignRows()
	case core.TargetingAnalytics:
		return TargetingRows()
	}
	return nil
}
