package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecs_Order(t *testing.T) {
	var ids []DatasetID
	for _, s := range Specs() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []DatasetID{RadiaPlan, MediaPlan, CampaignOverview, TargetingAnalytics}, ids)
}

func TestParseDatasetID(t *testing.T) {
	id, err := ParseDatasetID("media-plan")
	require.NoError(t, err)
	assert.Equal(t, MediaPlan, id)

	_, err = ParseDatasetID("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dataset")
}

func TestSpec_Dimensions(t *testing.T) {
	radia, ok := Spec(RadiaPlan)
	require.True(t, ok)
	assert.Len(t, radia.Dimensions, 4)

	ch, ok := radia.Dimension("channel")
	require.True(t, ok)
	assert.Equal(t, "CHANNEL", ch.Column)

	media, ok := Spec(MediaPlan)
	require.True(t, ok)
	_, ok = media.Dimension("channel")
	assert.False(t, ok)
}

func TestSpec_IsCopy(t *testing.T) {
	s, _ := Spec(RadiaPlan)
	s.Dimensions[0].Column = "CHANGED"

	again, _ := Spec(RadiaPlan)
	assert.Equal(t, "AGENCY_NAME", again.Dimensions[0].Column)
}

func TestWithChannelColumn(t *testing.T) {
	s, _ := Spec(RadiaPlan)
	custom := s.WithChannelColumn("MEDIA_CHANNEL")

	ch, _ := custom.Dimension("channel")
	assert.Equal(t, "MEDIA_CHANNEL", ch.Column)

	orig, _ := s.Dimension("channel")
	assert.Equal(t, "CHANNEL", orig.Column)
}

func TestEditActions(t *testing.T) {
	targeting, _ := Spec(TargetingAnalytics)

	a, ok := targeting.ActionForColumn("PLACEMENTNAME")
	require.True(t, ok)
	assert.Equal(t, "by-package-and-placement", a.SubResource)
	assert.True(t, a.IsReadOnly("TACTIC"))
	assert.False(t, a.IsReadOnly("TARGETING_BLURB"))

	_, ok = targeting.ActionForColumn("GEO")
	assert.False(t, ok)

	media, _ := Spec(MediaPlan)
	mp, ok := media.Action("media-plan")
	require.True(t, ok)
	assert.Equal(t, []DatasetID{TargetingAnalytics, MediaPlan}, mp.Refreshes)
	assert.True(t, media.Editable())

	overview, _ := Spec(CampaignOverview)
	assert.False(t, overview.Editable())
}
