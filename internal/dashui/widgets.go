package dashui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/verte-zerg/hpsdash/internal/geo"
	"github.com/verte-zerg/hpsdash/internal/model"
	"github.com/verte-zerg/hpsdash/internal/query"
)

type widgetID int

const (
	widgetMap widgetID = iota
	widgetTop
	widgetTrends
	widgetDemographics
	widgetCorrelations
	widgetDetail
	widgetCount
)

func (w widgetID) String() string {
	switch w {
	case widgetMap:
		return "map"
	case widgetTop:
		return "top-states"
	case widgetTrends:
		return "trends"
	case widgetDemographics:
		return "demographics"
	case widgetCorrelations:
		return "correlations"
	case widgetDetail:
		return "state-details"
	}
	return fmt.Sprintf("widget-%d", int(w))
}

// widget tracks one widget's request state. seq identifies the latest
// request; shown is the seq of the response currently displayed.
type widget struct {
	seq     uint64
	shown   uint64
	filter  model.Filter
	loading bool
	err     error
}

func (w widget) loaded() bool {
	return w.shown > 0
}

type loadedMsg struct {
	widget widgetID
	seq    uint64
	filter model.Filter
	data   any
	err    error
}

// changedWidgets lists the widgets whose query inputs differ between two filters.
func changedWidgets(prev, next model.Filter) []widgetID {
	years := prev.Years != next.Years
	metric := prev.Metric != next.Metric
	state := prev.State != next.State
	var out []widgetID
	if years || metric {
		out = append(out, widgetMap)
	}
	if years || metric || state {
		out = append(out, widgetTop, widgetTrends)
	}
	if state || prev.Demographic != next.Demographic {
		out = append(out, widgetDemographics)
	}
	if state {
		out = append(out, widgetCorrelations)
	}
	if next.Selected != "" && (years || prev.Selected != next.Selected) {
		out = append(out, widgetDetail)
	}
	return out
}

func fetch(ctx context.Context, svc *query.Service, id widgetID, f model.Filter) (any, error) {
	switch id {
	case widgetMap:
		return svc.StateData(ctx, f.Years, f.Metric)
	case widgetTop:
		return svc.TopStates(ctx, f.Years, f.Metric, f.State)
	case widgetTrends:
		return svc.TimeSeries(ctx, f.Years, f.Metric, f.State)
	case widgetDemographics:
		return svc.Demographics(ctx, f.Demographic, f.State)
	case widgetCorrelations:
		return svc.Correlations(ctx, f.State)
	case widgetDetail:
		return svc.StateDetails(ctx, f.Selected, f.Years)
	}
	return nil, fmt.Errorf("unknown widget %d", int(id))
}

// load starts a request for a widget and returns the command that runs it.
func (m *Model) load(id widgetID) tea.Cmd {
	w := &m.widgets[id]
	w.seq++
	w.loading = true
	seq, svc, ctx, f := w.seq, m.svc, m.ctx, m.filter
	m.logger.Debug("widget loading",
		zap.Stringer("widget", id),
		zap.Uint64("seq", seq),
		zap.Stringer("years", f.Years),
		zap.String("metric", string(f.Metric)),
		zap.String("state", f.State))
	fetchCmd := func() tea.Msg {
		data, err := fetch(ctx, svc, id, f)
		return loadedMsg{widget: id, seq: seq, filter: f, data: data, err: err}
	}
	if m.ticking {
		return fetchCmd
	}
	m.ticking = true
	return tea.Batch(fetchCmd, m.spinner.Tick)
}

func (m *Model) loadWidgets(ids []widgetID) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, m.load(id))
	}
	return tea.Batch(cmds...)
}

// applyLoaded stores a response unless a newer request for the same widget
// has been issued since.
func (m *Model) applyLoaded(msg loadedMsg) {
	w := &m.widgets[msg.widget]
	if msg.seq != w.seq {
		m.logger.Debug("dropped stale response",
			zap.Stringer("widget", msg.widget),
			zap.Uint64("seq", msg.seq),
			zap.Uint64("latest", w.seq))
		return
	}
	w.loading = false
	if msg.err != nil {
		w.err = msg.err
		m.logger.Warn("widget load failed",
			zap.Stringer("widget", msg.widget),
			zap.Stringer("years", msg.filter.Years),
			zap.String("metric", string(msg.filter.Metric)),
			zap.String("demographic", string(msg.filter.Demographic)),
			zap.String("state", msg.filter.State),
			zap.Error(msg.err))
		return
	}
	w.err = nil
	switch msg.widget {
	case widgetMap:
		m.stateData, _ = msg.data.([]model.StateRecord)
		m.choropleth = geo.NewChoropleth(m.stateData, msg.filter.Metric)
	case widgetTop:
		m.topStates, _ = msg.data.([]model.StateRecord)
	case widgetTrends:
		m.timeSeries, _ = msg.data.([]model.YearRecord)
		if !w.loaded() {
			m.trendIdx = len(m.timeSeries) - 1
		}
		m.trendIdx = clampIndex(m.trendIdx, len(m.timeSeries))
	case widgetDemographics:
		m.demographics, _ = msg.data.([]model.DemographicEntry)
	case widgetCorrelations:
		m.correlations, _ = msg.data.([]model.CorrelationEntry)
	case widgetDetail:
		m.detail, _ = msg.data.(model.StateDetail)
	}
	w.shown = msg.seq
	w.filter = msg.filter
}

func (m *Model) anyLoading() bool {
	for _, w := range m.widgets {
		if w.loading {
			return true
		}
	}
	return false
}

func (m *Model) loadingNames() []string {
	var names []string
	for i, w := range m.widgets {
		if w.loading {
			names = append(names, widgetID(i).String())
		}
	}
	return names
}

func clampIndex(i, n int) int {
	if n == 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
