package history

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ssot/internal/ui/features"
	"github.com/leapstack-labs/ssot/pkg/core"
)

func TestHistoryPage(t *testing.T) {
	fixture := features.SetupTestFixture(t)
	h := NewHandlers(fixture.Deps)

	rec := httptest.NewRecorder()
	h.HistoryPage(rec, httptest.NewRequest(http.MethodGet, "/history", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No edits recorded")

	ctx := context.Background()
	require.NoError(t, fixture.Store.RecordEdit(ctx, &core.Edit{
		Dataset: core.MediaPlan, Action: "media-plan", Row: core.Row{"NOTES": "x"},
	}))
	require.NoError(t, fixture.Store.RecordEdit(ctx, &core.Edit{
		Dataset: core.TargetingAnalytics, Action: "by-package", Status: core.EditStatusFailed, Error: "Failed to update package",
	}))

	tests := []struct {
		name    string
		target  string
		want    []string
		notWant []string
	}{
		{
			name:   "all datasets",
			target: "/history",
			want:   []string{"<td>media-plan</td>", "<td>by-package</td>", "Failed to update package"},
		},
		{
			name:    "one dataset",
			target:  "/history?dataset=targeting-analytics",
			want:    []string{"<td>by-package</td>", `<option value="targeting-analytics" selected>`},
			notWant: []string{"<td>media-plan</td>"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HistoryPage(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			require.Equal(t, http.StatusOK, rec.Code)
			for _, want := range tt.want {
				assert.Contains(t, rec.Body.String(), want)
			}
			for _, not := range tt.notWant {
				assert.NotContains(t, rec.Body.String(), not)
			}
		})
	}
}

func TestHistoryPage_UnknownDataset(t *testing.T) {
	fixture := features.SetupTestFixture(t)
	h := NewHandlers(fixture.Deps)

	rec := httptest.NewRecorder()
	h.HistoryPage(rec, httptest.NewRequest(http.MethodGet, "/history?dataset=nope", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
