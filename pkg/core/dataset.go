package core

import (
	"fmt"
	"time"
)

// DatasetID names one of the remote datasets.
type DatasetID string

// Known datasets.
const (
	RadiaPlan          DatasetID = "radia-plan"
	MediaPlan          DatasetID = "media-plan"
	CampaignOverview   DatasetID = "campaign-overview"
	TargetingAnalytics DatasetID = "targeting-analytics"
)

// ParseDatasetID validates s against the catalog.
func ParseDatasetID(s string) (DatasetID, error) {
	id := DatasetID(s)
	if _, ok := builtinSpecs[id]; !ok {
		return "", fmt.Errorf("unknown dataset %q (available: %v)", s, DatasetIDs())
	}
	return id, nil
}

// Dataset is the full row collection fetched from one endpoint.
// It is never mutated after load; a re-fetch produces a new Dataset.
type Dataset struct {
	ID        DatasetID
	Rows      []Row
	Columns   []string
	FetchedAt time.Time
}

// NewDataset builds a dataset, deriving the column set when none is given.
func NewDataset(id DatasetID, rows []Row, columns []string) *Dataset {
	if rows == nil {
		rows = []Row{}
	}
	if len(columns) == 0 {
		columns = Columns(rows)
	}
	return &Dataset{
		ID:        id,
		Rows:      rows,
		Columns:   columns,
		FetchedAt: time.Now().UTC(),
	}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Dimension is a named projection of a dataset onto one column.
type Dimension struct {
	Name   string `json:"name"`
	Column string `json:"column"`
	Label  string `json:"label"`
}

// Standard dimensions shared by every dataset.
var (
	AgencyDimension     = Dimension{Name: "agency", Column: "AGENCY_NAME", Label: "Agency"}
	AdvertiserDimension = Dimension{Name: "advertiser", Column: "ADVERTISER_NAME", Label: "Advertiser"}
	CampaignDimension   = Dimension{Name: "campaign", Column: "CAMPAIGN_ID", Label: "Campaign"}
	ChannelDimension    = Dimension{Name: "channel", Column: "CHANNEL", Label: "Channel"}
)
