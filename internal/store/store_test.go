package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/hpsdash/internal/dataset"
	"github.com/verte-zerg/hpsdash/internal/model"
	"github.com/verte-zerg/hpsdash/internal/query"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "hpsdash.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func testSnapshot() model.Snapshot {
	filter := model.DefaultFilter()
	filter.Years = model.YearRange{From: 2000, To: 2002}
	filter.Selected = "Colorado"
	detail := query.StateDetails("Colorado")
	return model.Snapshot{
		Filter:       filter,
		StateData:    dataset.StateRecords(),
		TopStates:    query.TopStates(dataset.StateRecords(), filter.Metric, filter.State),
		TimeSeries:   query.TimeSeries(dataset.YearRecords(), filter.Years, filter.State),
		Demographics: dataset.Demographics(model.DemographicGender),
		Correlations: dataset.BaseCorrelations(),
		Detail:       &detail,
	}
}

func TestWriteSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	snap := testSnapshot()

	id, err := st.WriteSnapshot(ctx, snap)
	require.NoError(t, err)
	require.Positive(t, id)

	records, err := st.ListStateRecords(ctx, id)
	require.NoError(t, err)
	require.Len(t, records, len(snap.StateData))
	require.Equal(t, "Arizona", records[0].State)

	years, err := st.ListYearCounts(ctx, id)
	require.NoError(t, err)
	require.Equal(t, snap.TimeSeries, years)

	infos, err := st.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, snap.Filter, infos[0].Filter)
}

func TestTableCounts(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	snap := testSnapshot()
	_, err := st.WriteSnapshot(ctx, snap)
	require.NoError(t, err)

	counts, err := st.TableCounts(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, counts["snapshots"])
	require.Equal(t, len(snap.StateData), counts["state_records"])
	require.Equal(t, len(snap.TopStates), counts["top_states"])
	require.Equal(t, 3*(1+len(dataset.TrackedStates())), counts["year_counts"])
	require.Equal(t, len(snap.Demographics), counts["demographics"])
	require.Equal(t, len(snap.Correlations), counts["correlations"])
	require.Equal(t, 1, counts["state_details"])
}

func TestWriteSnapshotWithoutDetail(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	snap := testSnapshot()
	snap.Detail = nil
	_, err := st.WriteSnapshot(ctx, snap)
	require.NoError(t, err)

	counts, err := st.TableCounts(ctx)
	require.NoError(t, err)
	require.Zero(t, counts["state_details"])
}

func TestWriteSnapshotCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st := openTestStore(t)
	_, err := st.WriteSnapshot(ctx, testSnapshot())
	require.Error(t, err)

	counts, err := st.TableCounts(context.Background())
	require.NoError(t, err)
	require.Zero(t, counts["snapshots"])
}
