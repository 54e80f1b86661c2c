package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/verte-zerg/hpsdash/internal/dataset"
	"github.com/verte-zerg/hpsdash/internal/model"
	"github.com/verte-zerg/hpsdash/internal/query"
	"github.com/verte-zerg/hpsdash/internal/store"
)

func testSnapshot() model.Snapshot {
	filter := model.DefaultFilter()
	filter.Years = model.YearRange{From: 2020, To: 2022}
	filter.State = "Colorado"
	detail := query.StateDetails("Colorado")
	return model.Snapshot{
		Filter:       filter,
		StateData:    dataset.StateRecords(),
		TopStates:    query.TopStates(dataset.StateRecords(), filter.Metric, filter.State),
		TimeSeries:   query.TimeSeries(dataset.YearRecords(), filter.Years, filter.State),
		Demographics: dataset.Demographics(model.DemographicRace),
		Correlations: query.Correlations(dataset.BaseCorrelations(), filter.State),
		Detail:       &detail,
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"JSON": FormatJSON, "yml": FormatYAML, "db": FormatSQLite, " xlsx ": FormatXLSX} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	require.Error(t, err)

	got, err := FormatFromPath("/tmp/out/report.csv")
	require.NoError(t, err)
	require.Equal(t, FormatCSV, got)
	_, err = FormatFromPath("report")
	require.Error(t, err)
}

func TestWriteJSONUsesDatasetFieldNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, testSnapshot()))
	require.Contains(t, buf.String(), `"Case_Rate": 0.9`)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded["topStates"], 1)
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, testSnapshot()))
	out := buf.String()
	require.Contains(t, out, "Mortality_Rate: 42.2")
	require.Contains(t, out, "state: Colorado")
}

func TestWriteCSVSections(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, testSnapshot()))

	r := csv.NewReader(strings.NewReader(buf.String()))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)

	var sections []string
	for _, rec := range records {
		if strings.HasPrefix(rec[0], "# ") {
			sections = append(sections, strings.TrimPrefix(rec[0], "# "))
		}
	}
	require.Equal(t, []string{"Filter", "State Data", "Top States", "Time Series", "Demographics", "Correlations", "State Details"}, sections)
	require.Contains(t, buf.String(), "Year,National,Colorado\n2020,25,2\n")
}

func TestWriteXLSXSheets(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, testSnapshot()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = f.Close()
	})
	require.Equal(t, []string{"Filter", "State Data", "Top States", "Time Series", "Demographics", "Correlations", "State Details"}, f.GetSheetList())

	value, err := f.GetCellValue("Top States", "B2")
	require.NoError(t, err)
	require.Equal(t, "Colorado", value)
}

func TestWriteRejectsSQLiteStream(t *testing.T) {
	require.Error(t, Write(&bytes.Buffer{}, FormatSQLite, testSnapshot()))
}

func TestWriteFileSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "exports", "snapshot.db")
	snap := testSnapshot()
	require.NoError(t, WriteFile(ctx, path, FormatSQLite, snap))

	st, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	counts, err := st.TableCounts(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, counts["snapshots"])
	require.Equal(t, len(snap.StateData), counts["state_records"])
}

func TestWriteFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, WriteFile(context.Background(), path, FormatJSON, testSnapshot()))
	require.FileExists(t, path)
}
