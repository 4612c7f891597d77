package crossfilter

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ssot/pkg/core"
)

func TestExportCSV_Format(t *testing.T) {
	rows := []core.Row{
		{"NAME": "plain", "NOTE": `say "hi"`},
		{"NAME": "a,b"},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, rows, []string{"NAME", "NOTE"}))

	want := `"NAME","NOTE"` + "\n" +
		`"plain","say ""hi"""` + "\n" +
		`"a,b",""`
	assert.Equal(t, want, buf.String())
}

func TestExportCSV_RoundTrip(t *testing.T) {
	columns := []string{"AGENCY_NAME", "NOTES", "BUDGET"}
	rows := []core.Row{
		{"AGENCY_NAME": "OMD, Inc.", "NOTES": `the "big" one`, "BUDGET": "1,000"},
		{"AGENCY_NAME": "PHD", "NOTES": "", "BUDGET": "25.5"},
		{"AGENCY_NAME": `"quoted"`, "NOTES": "x", "BUDGET": "0"},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, rows, columns))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(rows)+1)

	assert.Equal(t, columns, records[0])
	for i, row := range rows {
		for j, col := range columns {
			assert.Equal(t, row.Get(col), records[i+1][j])
		}
	}
}

func TestExportCSV_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, nil, []string{"A"}))
	assert.Equal(t, `"A"`, buf.String())
}

func TestExportFilename(t *testing.T) {
	ts := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, "media-plan_export_2024-03-01.csv", ExportFilename(core.MediaPlan, ts))
}
