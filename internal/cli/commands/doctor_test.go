package commands

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ssot/internal/cli/config"
	"github.com/leapstack-labs/ssot/pkg/core"
)

func TestCalculateHealthScore(t *testing.T) {
	tests := []struct {
		name     string
		checks   []HealthCheck
		expected int
	}{
		{
			name:     "no checks returns 100",
			expected: 100,
		},
		{
			name: "all passing returns 100",
			checks: []HealthCheck{
				{RuleID: "CF01", Status: "pass"},
				{RuleID: "ST01", Status: "pass"},
			},
			expected: 100,
		},
		{
			name: "warnings cost per issue",
			checks: []HealthCheck{
				{RuleID: "CF01", Status: "pass"},
				{RuleID: "ST02", Status: "warn", IssueCount: 2},
			},
			expected: 90,
		},
		{
			name: "errors cost more",
			checks: []HealthCheck{
				{RuleID: "DS:media-plan", Status: "error", IssueCount: 1},
			},
			expected: 80,
		},
		{
			name: "score never drops below 0",
			checks: []HealthCheck{
				{RuleID: "DS:radia-plan", Status: "error", IssueCount: 1},
				{RuleID: "DS:media-plan", Status: "error", IssueCount: 1},
				{RuleID: "DS:campaign-overview", Status: "error", IssueCount: 1},
				{RuleID: "DS:targeting-analytics", Status: "error", IssueCount: 1},
				{RuleID: "ST01", Status: "error", IssueCount: 1},
				{RuleID: "ST02", Status: "warn", IssueCount: 4},
			},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, calculateHealthScore(tt.checks))
		})
	}
}

func TestGetRecommendation(t *testing.T) {
	tests := []struct {
		check    HealthCheck
		expected string
	}{
		{HealthCheck{RuleID: "CF01"}, "session_secret"},
		{HealthCheck{RuleID: "CF02"}, "cache.mirror"},
		{HealthCheck{RuleID: "ST01"}, "state database"},
		{HealthCheck{RuleID: "ST02"}, "snapshots"},
		{HealthCheck{RuleID: "DS:media-plan", Status: "error"}, "base_url"},
		{HealthCheck{RuleID: "DS:media-plan", Status: "warn"}, "channel_column"},
		{HealthCheck{RuleID: "UNKNOWN"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.check.RuleID+"/"+tt.check.Status, func(t *testing.T) {
			rec := getRecommendation(tt.check)
			if tt.expected == "" {
				assert.Empty(t, rec)
				return
			}
			assert.Contains(t, rec, tt.expected)
		})
	}
}

func TestGenerateRecommendations(t *testing.T) {
	checks := []HealthCheck{
		{RuleID: "CF01", Status: "warn", IssueCount: 1},
		{RuleID: "DS:media-plan", Status: "error", IssueCount: 1},
		{RuleID: "DS:radia-plan", Status: "error", IssueCount: 1},
		{RuleID: "ST01", Status: "pass"},
	}

	recommendations := generateRecommendations(checks)

	// duplicates collapse, passing checks add nothing
	require.Len(t, recommendations, 2)
	assert.Contains(t, recommendations[0], "session_secret")
	assert.Contains(t, recommendations[1], "base_url")
}

func TestGenerateRecommendations_LimitTo5(t *testing.T) {
	checks := []HealthCheck{
		{RuleID: "CF01", Status: "warn", IssueCount: 1},
		{RuleID: "CF02", Status: "warn", IssueCount: 1},
		{RuleID: "ST01", Status: "error", IssueCount: 1},
		{RuleID: "ST02", Status: "warn", IssueCount: 1},
		{RuleID: "DS:media-plan", Status: "error", IssueCount: 1},
		{RuleID: "DS:radia-plan", Status: "warn", IssueCount: 1},
	}

	assert.Len(t, generateRecommendations(checks), 5)
}

func TestDatasetCheck(t *testing.T) {
	spec, ok := core.Spec(core.RadiaPlan)
	require.True(t, ok)

	t.Run("fetch error", func(t *testing.T) {
		check := datasetCheck(spec, nil, errors.New("Failed to fetch Radia plan data"))
		assert.Equal(t, "error", check.Status)
		assert.Equal(t, "DS:radia-plan", check.RuleID)
		assert.Equal(t, []string{"Failed to fetch Radia plan data"}, check.Details)
	})

	t.Run("empty dataset", func(t *testing.T) {
		check := datasetCheck(spec, core.NewDataset(core.RadiaPlan, nil, nil), nil)
		assert.Equal(t, "warn", check.Status)
		assert.Equal(t, 1, check.IssueCount)
	})

	t.Run("missing filter column", func(t *testing.T) {
		ds := core.NewDataset(core.RadiaPlan, []core.Row{
			{"AGENCY_NAME": "OMD", "ADVERTISER_NAME": "Acme", "CAMPAIGN_ID": "C1"},
		}, nil)
		check := datasetCheck(spec, ds, nil)
		assert.Equal(t, "warn", check.Status)
		require.Len(t, check.Details, 1)
		assert.Contains(t, check.Details[0], "CHANNEL")
	})

	t.Run("healthy", func(t *testing.T) {
		ds := core.NewDataset(core.RadiaPlan, []core.Row{
			{"AGENCY_NAME": "OMD", "ADVERTISER_NAME": "Acme", "CAMPAIGN_ID": "C1", "CHANNEL": "Display"},
		}, nil)
		check := datasetCheck(spec, ds, nil)
		assert.Equal(t, "pass", check.Status)
		assert.Zero(t, check.IssueCount)
	})
}

func TestSnapshotCheck(t *testing.T) {
	mirror := []core.DatasetID{core.RadiaPlan, core.MediaPlan}

	check := snapshotCheck(mirror, map[core.DatasetID]bool{core.RadiaPlan: true}, nil)
	assert.Equal(t, "warn", check.Status)
	assert.Equal(t, []string{"no snapshot of media-plan yet"}, check.Details)

	check = snapshotCheck(mirror, map[core.DatasetID]bool{core.RadiaPlan: true, core.MediaPlan: true}, nil)
	assert.Equal(t, "pass", check.Status)

	check = snapshotCheck(mirror, nil, errors.New("database not open"))
	assert.Equal(t, "error", check.Status)
}

func TestMigrationCheck(t *testing.T) {
	assert.Equal(t, "pass", migrationCheck(1, nil).Status)
	assert.Equal(t, "error", migrationCheck(0, nil).Status)
	assert.Equal(t, "error", migrationCheck(0, errors.New("boom")).Status)
}

func TestConfigChecks(t *testing.T) {
	cfg := config.Defaults()
	checks := configChecks(cfg)
	require.Len(t, checks, 2)
	assert.Equal(t, "warn", checks[0].Status, "no session secret by default")
	assert.Equal(t, "pass", checks[1].Status)

	cfg.UI.SessionSecret = "s3cret"
	cfg.Cache.Mirror = nil
	checks = configChecks(cfg)
	assert.Equal(t, "pass", checks[0].Status)
	assert.Equal(t, "warn", checks[1].Status)
}
