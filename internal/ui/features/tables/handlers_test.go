package tables

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ssot/internal/testutil"
	"github.com/leapstack-labs/ssot/internal/ui/features"
	"github.com/leapstack-labs/ssot/pkg/core"
)

type testEnv struct {
	fixture *features.TestFixture
	handler *Handlers
	router  chi.Router
	cookies http.Header
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	fixture := features.SetupTestFixture(t)
	router := chi.NewRouter()
	require.NoError(t, SetupRoutes(router, fixture.Deps))
	return &testEnv{
		fixture: fixture,
		handler: NewHandlers(fixture.Deps),
		router:  router,
	}
}

// open loads a tab page and keeps its session cookie for later requests.
func (e *testEnv) open(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := e.do(t, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	if len(rec.Result().Cookies()) > 0 {
		e.cookies = rec.Header()
	}
	return rec
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if e.cookies != nil {
		req = features.WithCookies(req, e.cookies)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) post(t *testing.T, target string) string {
	t.Helper()
	rec := e.do(t, httptest.NewRequest(http.MethodPost, target, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return rec.Body.String()
}

func (e *testEnv) get(t *testing.T, target string) string {
	t.Helper()
	rec := e.do(t, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return rec.Body.String()
}

func TestTablePage(t *testing.T) {
	e := setup(t)

	rec := e.open(t, "/table?tab=media-plan")
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Media Plan · SSOT</title>")
	assert.Contains(t, body, `id="table-content"`)
	assert.Contains(t, body, "/table/media-plan")
	assert.Contains(t, body, "/table/updates?tab=media-plan")
	assert.NotEmpty(t, rec.Result().Cookies(), "session cookie is set")
}

func TestTablePage_UnknownTab(t *testing.T) {
	e := setup(t)
	rec := e.do(t, httptest.NewRequest(http.MethodGet, "/table?tab=nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTablePage_PresetsDrillDown(t *testing.T) {
	e := setup(t)

	body := e.open(t, "/table?tab=radia-plan&agency=PHD&channel=Audio").Body.String()
	assert.Contains(t, body, "Agency</span> PHD")
	assert.Contains(t, body, "Channel</span> Audio")

	content := e.get(t, "/table/radia-plan")
	assert.Contains(t, content, "<td>C3</td>")
	assert.NotContains(t, content, "<td>C1</td>")

	// presets apply to every tab of the session
	media := e.get(t, "/table/media-plan")
	assert.Contains(t, media, "<td>Puma</td>")
	assert.NotContains(t, media, "<td>Nike</td>")

	// switching tabs without query presets keeps them
	e.open(t, "/table?tab=campaign-overview")
	assert.Contains(t, e.get(t, "/table/campaign-overview"), "<td>Draft</td>")
	assert.NotContains(t, e.get(t, "/table/campaign-overview"), "<td>Live</td>")

	// an explicit empty drill-down clears them
	e.open(t, "/table?tab=radia-plan&agency=")
	assert.Contains(t, e.get(t, "/table/radia-plan"), "<td>C1</td>")
}

func TestContent_PendingThenTable(t *testing.T) {
	e := setup(t)
	e.open(t, "/table?tab=radia-plan")

	body := e.get(t, "/table/radia-plan")
	assert.Equal(t, 2, strings.Count(body, "event:"), "pending then table")
	assert.Contains(t, body, "Loading Radia Plan")
	assert.Contains(t, body, "<td>Nike</td>")
	assert.Contains(t, body, "Showing 1 to 4 of 4 entries")

	body = e.get(t, "/table/radia-plan")
	assert.Equal(t, 1, strings.Count(body, "event:"), "cached dataset renders directly")
	assert.Equal(t, 1, e.fixture.Backend.Gets(core.RadiaPlan))
}

func TestContent_HiddenColumnsAndOverrides(t *testing.T) {
	e := setup(t)
	e.open(t, "/table?tab=targeting-analytics")

	body := e.get(t, "/table/targeting-analytics")
	assert.Contains(t, body, ">Pixels")
	assert.NotContains(t, body, ">Agency Name<")
	assert.Contains(t, body, "Radia Or Prisma Package Name")
	assert.Contains(t, body, `class="editable"`)
}

func TestContent_FailureAndRetry(t *testing.T) {
	e := setup(t)
	e.open(t, "/table?tab=campaign-overview")
	e.fixture.Backend.FailGets(core.CampaignOverview, 1)

	body := e.get(t, "/table/campaign-overview")
	assert.Contains(t, body, "Failed to fetch data")
	assert.Contains(t, body, "Retry")
	assert.NotContains(t, body, "No data matches")

	body = e.post(t, "/table/campaign-overview/retry")
	assert.Contains(t, body, "<td>Live</td>")
	assert.Equal(t, 2, e.fixture.Backend.Gets(core.CampaignOverview))
}

func TestContent_EmptyDataset(t *testing.T) {
	e := setup(t)
	e.fixture.Backend.SetRows(core.MediaPlan, []core.Row{})
	e.open(t, "/table?tab=media-plan")

	body := e.get(t, "/table/media-plan")
	assert.Contains(t, body, "No data matches the current filters")
}

func TestDropdown_ToggleSearchAndOption(t *testing.T) {
	e := setup(t)
	e.open(t, "/table?tab=radia-plan")
	e.get(t, "/table/radia-plan")

	body := e.post(t, "/table/radia-plan/dropdown/advertiser/toggle")
	assert.Contains(t, body, "dropdown-menu")
	assert.Contains(t, body, "datastar-patch-signals")

	req := httptest.NewRequest(http.MethodPost, "/table/radia-plan/dropdown/advertiser/search", strings.NewReader(`{"search":"ni"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := e.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="dropdown-advertiser"`)
	assert.Contains(t, rec.Body.String(), "Nike")
	assert.NotContains(t, rec.Body.String(), "Puma")
	assert.NotContains(t, rec.Body.String(), `id="table-content"`)

	// select all toggles only the matching option
	body = e.post(t, "/table/radia-plan/dropdown/advertiser/select-all")
	assert.NotContains(t, body, "<td>C1</td>")
	assert.Contains(t, body, "<td>C2</td>")

	body = e.post(t, "/table/radia-plan/dropdown/advertiser/option?"+url.Values{"value": {"Nike"}}.Encode())
	assert.Contains(t, body, "<td>C1</td>")

	body = e.post(t, "/table/radia-plan/dropdown/advertiser/close")
	assert.NotContains(t, body, "dropdown-menu")
}

func TestDropdown_UnknownDimension(t *testing.T) {
	e := setup(t)
	e.open(t, "/table?tab=media-plan")

	rec := e.do(t, httptest.NewRequest(http.MethodPost, "/table/media-plan/dropdown/channel/toggle", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleOption_IgnoresUnknownValue(t *testing.T) {
	e := setup(t)
	e.open(t, "/table?tab=radia-plan")
	e.get(t, "/table/radia-plan")

	body := e.post(t, "/table/radia-plan/dropdown/agency/option?"+url.Values{"value": {"BBDO"}}.Encode())
	assert.Contains(t, body, "Showing 1 to 4 of 4 entries")
	assert.NotContains(t, body, "BBDO")
}

func TestResetAndClear(t *testing.T) {
	e := setup(t)
	e.open(t, "/table?tab=radia-plan&agency=OMD")

	body := e.post(t, "/table/radia-plan/clear")
	assert.Contains(t, body, "No data matches the current filters")

	body = e.post(t, "/table/radia-plan/reset")
	assert.Contains(t, body, "Showing 1 to 4 of 4 entries")
}

func TestSortAndPaging(t *testing.T) {
	e := setup(t)
	e.open(t, "/table?tab=radia-plan")

	body := e.post(t, "/table/radia-plan/sort?column=BUDGET")
	assert.Less(t, strings.Index(body, "<td>75</td>"), strings.Index(body, "<td>1000</td>"))
	assert.Contains(t, body, "Budget ▲")

	body = e.post(t, "/table/radia-plan/sort?column=BUDGET")
	assert.Less(t, strings.Index(body, "<td>1000</td>"), strings.Index(body, "<td>75</td>"))
	assert.Contains(t, body, "Budget ▼")

	body = e.post(t, "/table/radia-plan/page-size?size=200")
	assert.Contains(t, body, `<option value="200" selected>`)

	body = e.post(t, "/table/radia-plan/page?n=9")
	assert.Contains(t, body, "Showing 1 to 4 of 4 entries")

	rec := e.do(t, httptest.NewRequest(http.MethodPost, "/table/radia-plan/page-size?size=75", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExport(t *testing.T) {
	e := setup(t)
	e.open(t, "/table?tab=targeting-analytics&agency=PHD")

	rec := e.do(t, httptest.NewRequest(http.MethodGet, "/table/targeting-analytics/export.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "targeting-analytics_export_"+time.Now().Format(time.DateOnly)+".csv")

	lines := strings.Split(rec.Body.String(), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], `"ADVERTISER_NAME","AGENCY_NAME"`), "hidden columns are exported")
	assert.Contains(t, lines[1], `"Puma"`)
}

func TestExport_FetchFailure(t *testing.T) {
	e := setup(t)
	e.fixture.Backend.FailGets(core.MediaPlan, 1)

	rec := e.do(t, httptest.NewRequest(http.MethodGet, "/table/media-plan/export.csv", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to fetch Media plan data")
}

func TestEdit_Success(t *testing.T) {
	e := setup(t)
	e.open(t, "/table?tab=media-plan")
	e.get(t, "/table/media-plan")
	e.fixture.Warm(t, core.TargetingAnalytics)

	body := e.get(t, "/table/media-plan/rows/1/edit?action=media-plan")
	assert.Contains(t, body, "Edit Media Plan")
	assert.Contains(t, body, `name="CLIENT" value="Puma" readonly`)
	assert.Contains(t, body, `name="NOTES" value="rush">`)

	form := url.Values{"NOTES": {"hold"}, "CLIENT": {"Hacked"}}
	req := httptest.NewRequest(http.MethodPost, "/table/media-plan/rows/1/edit?action=media-plan", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := e.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "alert(")
	assert.NotContains(t, rec.Body.String(), "modal")

	puts := e.fixture.Backend.Puts()
	require.Len(t, puts, 1)
	assert.Equal(t, "/api/mediaplan/update-mediaplan-and-targeting-analytics", puts[0].Path)
	assert.Equal(t, "hold", puts[0].Row["NOTES"])
	assert.Equal(t, "Puma", puts[0].Row["CLIENT"], "read-only columns keep their value")

	assert.Equal(t, 2, e.fixture.Backend.Gets(core.MediaPlan))
	assert.Equal(t, 2, e.fixture.Backend.Gets(core.TargetingAnalytics))

	edits, err := e.fixture.Store.ListEdits(context.Background(), core.EditFilter{})
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, core.EditStatusOK, edits[0].Status)
	assert.Equal(t, "media-plan", edits[0].Action)
}

func TestEdit_FailureKeepsDialogOpen(t *testing.T) {
	e := setup(t)
	e.open(t, "/table?tab=targeting-analytics")
	e.get(t, "/table/targeting-analytics")
	e.fixture.Backend.FailPuts("audience-info", "audience list locked")

	body := e.get(t, "/table/targeting-analytics/rows/0/edit?action=audience-info")
	assert.Contains(t, body, `value="Gamers" checked`)
	assert.Contains(t, body, `value="Foodies" checked`)

	form := url.Values{"AUDIENCE_INFO": {"Gamers", "Pet Owners"}}
	req := httptest.NewRequest(http.MethodPost, "/table/targeting-analytics/rows/0/edit?action=audience-info", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := e.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body = rec.Body.String()
	assert.Contains(t, body, "audience list locked")
	assert.Contains(t, body, "alert(")
	assert.Contains(t, body, "Failed to update audience info. Please try again.")
	assert.Contains(t, body, `value="Pet Owners" checked`, "edited values survive the failure")
	assert.Equal(t, 1, e.fixture.Backend.Gets(core.TargetingAnalytics), "no refresh after a failed update")

	puts := e.fixture.Backend.Puts()
	require.Len(t, puts, 1)
	assert.Equal(t, "Gamers,Pet Owners", puts[0].Row["AUDIENCE_INFO"])

	edits, err := e.fixture.Store.ListEdits(context.Background(), core.EditFilter{Dataset: core.TargetingAnalytics})
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, core.EditStatusFailed, edits[0].Status)
	assert.Equal(t, "audience list locked", edits[0].Error)

	// the dialog is still open on the next render until cancelled
	assert.Contains(t, e.get(t, "/table/targeting-analytics"), "audience list locked")
	assert.Contains(t, e.post(t, "/table/targeting-analytics/dialog/close"), `<div id="edit-dialog"></div>`)
	assert.NotContains(t, e.get(t, "/table/targeting-analytics"), "audience list locked")
}

func TestEdit_RefetchWhileDialogOpen(t *testing.T) {
	e := setup(t)
	e.open(t, "/table?tab=media-plan")
	e.get(t, "/table/media-plan")

	body := e.get(t, "/table/media-plan/rows/1/edit?action=media-plan")
	assert.Contains(t, body, `name="CLIENT" value="Puma" readonly`)

	// another session's update re-fetches the dataset in a new order
	rows := testutil.MediaRows()
	e.fixture.Backend.SetRows(core.MediaPlan, []core.Row{rows[1], rows[0]})
	_, err := e.fixture.Deps.Cache.Reload(context.Background(), core.MediaPlan)
	require.NoError(t, err)

	form := url.Values{"NOTES": {"hold"}}
	req := httptest.NewRequest(http.MethodPost, "/table/media-plan/rows/1/edit?action=media-plan", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := e.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	puts := e.fixture.Backend.Puts()
	require.Len(t, puts, 1)
	assert.Equal(t, "Puma", puts[0].Row["CLIENT"])
	assert.Equal(t, "P2", puts[0].Row["PACKAGE"])
	assert.Equal(t, "hold", puts[0].Row["NOTES"])
}

func TestEdit_SubmitWithoutOpenDialog(t *testing.T) {
	e := setup(t)
	e.open(t, "/table?tab=media-plan")
	e.get(t, "/table/media-plan")

	submit := func(target string) int {
		form := url.Values{"NOTES": {"hold"}}
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return e.do(t, req).Code
	}

	assert.Equal(t, http.StatusConflict, submit("/table/media-plan/rows/1/edit?action=media-plan"))

	e.get(t, "/table/media-plan/rows/0/edit?action=media-plan")
	assert.Equal(t, http.StatusConflict, submit("/table/media-plan/rows/1/edit?action=media-plan"), "dialog is open on another row")
	assert.Empty(t, e.fixture.Backend.Puts())
}

func TestEdit_BadRequests(t *testing.T) {
	e := setup(t)
	e.open(t, "/table?tab=media-plan")

	rec := e.do(t, httptest.NewRequest(http.MethodGet, "/table/media-plan/rows/0/edit?action=nope", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, httptest.NewRequest(http.MethodGet, "/table/media-plan/rows/99/edit?action=media-plan", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, httptest.NewRequest(http.MethodGet, "/table/campaign-overview/rows/0/edit?action=media-plan", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "campaign overview is read-only")
}

func TestUpdates_NoInitialState(t *testing.T) {
	e := setup(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/table/updates?tab=media-plan", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	e.handler.Updates(rec, req)

	assert.Equal(t, 0, strings.Count(rec.Body.String(), "event:"))
}

func TestUpdates_RerendersOnRefetch(t *testing.T) {
	e := setup(t)
	e.open(t, "/table?tab=media-plan")
	e.get(t, "/table/media-plan")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	req := features.WithCookies(httptest.NewRequest(http.MethodGet, "/table/updates?tab=media-plan", nil), e.cookies).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		e.handler.Updates(rec, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	e.fixture.Backend.SetRows(core.MediaPlan, []core.Row{
		{"AGENCY_NAME": "OMD", "ADVERTISER_NAME": "Reebok", "CAMPAIGN_ID": "C9"},
	})
	e.fixture.Deps.Notifier.Broadcast(core.CampaignOverview)
	_, err := e.fixture.Deps.Cache.Reload(context.Background(), core.MediaPlan)
	require.NoError(t, err)

	<-done
	body := rec.Body.String()
	assert.Equal(t, 1, strings.Count(body, "event:"), "only the watched dataset re-renders")
	assert.Contains(t, body, "<td>Reebok</td>")
}
