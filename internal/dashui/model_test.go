package dashui

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/verte-zerg/hpsdash/internal/model"
	"github.com/verte-zerg/hpsdash/internal/query"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// drain runs a command and feeds its messages back into the model until
// nothing is left. Spinner ticks are dropped so the loop terminates.
func drain(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case nil, spinner.TickMsg:
	case tea.BatchMsg:
		for _, c := range msg {
			drain(m, c)
		}
	default:
		_, next := m.Update(msg)
		drain(m, next)
	}
}

func newTestModel(t *testing.T, filter model.Filter) *Model {
	t.Helper()
	m := NewModel(query.New(query.WithLatency(0)), filter, nil)
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	drain(m, m.Init())
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, s string) {
	_, cmd := m.Update(key(s))
	drain(m, cmd)
}

func TestInitLoadsWidgets(t *testing.T) {
	m := newTestModel(t, model.DefaultFilter())
	for id := widgetMap; id < widgetDetail; id++ {
		if !m.widgets[id].loaded() || m.widgets[id].loading {
			t.Fatalf("%s not loaded", id)
		}
	}
	if m.widgets[widgetDetail].loaded() {
		t.Fatalf("detail should load only on selection")
	}
	if m.anyLoading() {
		t.Fatalf("expected no pending loads, got %v", m.loadingNames())
	}
	view := m.View()
	for _, want := range []string{"Overview", "Years: 1993-2022", "NM", "Top 5 States"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

func TestStaleResponseDropped(t *testing.T) {
	m := newTestModel(t, model.DefaultFilter())
	before := m.topStates
	m.load(widgetTop)
	stale := m.widgets[widgetTop].seq
	m.load(widgetTop)

	m.applyLoaded(loadedMsg{widget: widgetTop, seq: stale, data: []model.StateRecord{{State: "Stale"}}})
	if diff := cmp.Diff(before, m.topStates); diff != "" {
		t.Fatalf("stale response applied (-want +got):\n%s", diff)
	}
	if !m.widgets[widgetTop].loading {
		t.Fatalf("widget should still wait for the latest response")
	}

	fresh := []model.StateRecord{{State: "Fresh"}}
	m.applyLoaded(loadedMsg{widget: widgetTop, seq: m.widgets[widgetTop].seq, data: fresh})
	if diff := cmp.Diff(fresh, m.topStates); diff != "" {
		t.Fatalf("latest response not applied (-want +got):\n%s", diff)
	}
}

func TestWidgetErrorKeepsPreviousView(t *testing.T) {
	m := newTestModel(t, model.DefaultFilter())
	before := m.topStates
	m.load(widgetTop)
	m.applyLoaded(loadedMsg{widget: widgetTop, seq: m.widgets[widgetTop].seq, err: errors.New("boom")})
	if diff := cmp.Diff(before, m.topStates); diff != "" {
		t.Fatalf("failed load replaced data (-want +got):\n%s", diff)
	}
	if got := m.errorSummary(); !strings.Contains(got, "top-states") {
		t.Fatalf("unexpected error summary %q", got)
	}
	if !strings.Contains(m.View(), "Failed to refresh") {
		t.Fatalf("expected failure in footer")
	}
}

func TestChangedWidgets(t *testing.T) {
	base := model.DefaultFilter()
	tests := []struct {
		name string
		edit func(f *model.Filter)
		want []widgetID
	}{
		{"none", func(f *model.Filter) {}, nil},
		{"years", func(f *model.Filter) { f.Years.From = 2000 }, []widgetID{widgetMap, widgetTop, widgetTrends}},
		{"metric", func(f *model.Filter) { f.Metric = model.MetricCaseRate }, []widgetID{widgetMap, widgetTop, widgetTrends}},
		{"state", func(f *model.Filter) { f.State = "Colorado" }, []widgetID{widgetTop, widgetTrends, widgetDemographics, widgetCorrelations}},
		{"demographic", func(f *model.Filter) { f.Demographic = model.DemographicAge }, []widgetID{widgetDemographics}},
		{"selected", func(f *model.Filter) { f.Selected = "Utah" }, []widgetID{widgetDetail}},
	}
	for _, tt := range tests {
		next := base
		tt.edit(&next)
		if diff := cmp.Diff(tt.want, changedWidgets(base, next)); diff != "" {
			t.Fatalf("%s: unexpected widgets (-want +got):\n%s", tt.name, diff)
		}
	}

	selected := base
	selected.Selected = "Utah"
	moved := selected
	moved.Years.To = 2010
	if diff := cmp.Diff([]widgetID{widgetMap, widgetTop, widgetTrends, widgetDetail}, changedWidgets(selected, moved)); diff != "" {
		t.Fatalf("years with selection (-want +got):\n%s", diff)
	}
}

func TestYearKeysKeepRangeOrdered(t *testing.T) {
	f := model.DefaultFilter()
	f.Years = model.YearRange{From: 2000, To: 2000}
	m := newTestModel(t, f)

	press(m, "]")
	press(m, "{")
	if got := m.Filter().Years; got != (model.YearRange{From: 2000, To: 2000}) {
		t.Fatalf("range crossed over: %s", got)
	}
	press(m, "[")
	press(m, "}")
	if got := m.Filter().Years; got != (model.YearRange{From: 1999, To: 2001}) {
		t.Fatalf("unexpected range %s", got)
	}
	if got := m.widgets[widgetMap].filter.Years; got != m.Filter().Years {
		t.Fatalf("map shows %s, filter is %s", got, m.Filter().Years)
	}

	m = newTestModel(t, model.DefaultFilter())
	press(m, "[")
	press(m, "}")
	if got := m.Filter().Years; got != model.FullYearRange() {
		t.Fatalf("range left dataset bounds: %s", got)
	}
}

func TestMetricKeyReloadsAffectedWidgets(t *testing.T) {
	m := newTestModel(t, model.DefaultFilter())
	demoSeq := m.widgets[widgetDemographics].seq
	press(m, "m")
	if got := m.widgets[widgetMap].filter.Metric; got != model.MetricCaseRate {
		t.Fatalf("map metric = %s", got)
	}
	if m.choropleth.Metric != model.MetricCaseRate {
		t.Fatalf("choropleth not rebuilt")
	}
	if m.widgets[widgetDemographics].seq != demoSeq {
		t.Fatalf("demographics reloaded for a metric change")
	}
}

func TestEnterOpensDetailAndEscCloses(t *testing.T) {
	m := newTestModel(t, model.DefaultFilter())
	if m.cursor.Name != "New Mexico" {
		t.Fatalf("unexpected initial cursor %s", m.cursor.Name)
	}
	press(m, "enter")
	if got := m.Filter().Selected; got != "New Mexico" {
		t.Fatalf("selected = %q", got)
	}
	if !m.widgets[widgetDetail].loaded() || m.detail.CaseStats.TotalCases == 0 {
		t.Fatalf("detail not loaded: %+v", m.detail)
	}
	if !strings.Contains(m.View(), "New Mexico State Details") {
		t.Fatalf("expected detail modal")
	}
	press(m, "tab")
	if m.detailTab != 1 {
		t.Fatalf("detail tab = %d", m.detailTab)
	}
	press(m, "esc")
	if got := m.Filter().Selected; got != "" {
		t.Fatalf("esc should clear selection, got %q", got)
	}
	if strings.Contains(m.View(), "State Details") {
		t.Fatalf("modal still shown")
	}
}

func TestDetailShowsLoadingForNewSelection(t *testing.T) {
	m := newTestModel(t, model.DefaultFilter())
	press(m, "enter")
	press(m, "esc")
	press(m, "k")
	if m.cursor.Name != "Colorado" {
		t.Fatalf("unexpected cursor %s", m.cursor.Name)
	}

	_, cmd := m.Update(key("enter"))
	body := m.renderDetail(80)
	if !strings.Contains(body, "Colorado State Details") || !strings.Contains(body, "Loading...") {
		t.Fatalf("expected loading detail for Colorado, got:\n%s", body)
	}
	if strings.Contains(body, "Total Cases") {
		t.Fatalf("previous state's figures shown while loading:\n%s", body)
	}

	drain(m, cmd)
	body = m.renderDetail(80)
	if strings.Contains(body, "Loading...") || m.detail.State != "Colorado" {
		t.Fatalf("detail not refreshed for Colorado: %+v", m.detail)
	}
	if !strings.Contains(body, "45") {
		t.Fatalf("expected Colorado's cases in detail:\n%s", body)
	}
}

func TestMouseClickSelectsState(t *testing.T) {
	m := newTestModel(t, model.DefaultFilter())
	headerHeight, _, _ := m.layoutHeights()
	// Colorado sits at row 4, column 3 of the tile grid.
	x, y := 3*mapCellWidth+1, headerHeight+mapTop+4

	_, cmd := m.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion})
	drain(m, cmd)
	if m.cursor.Name != "Colorado" || m.Filter().Selected != "" {
		t.Fatalf("hover should move the cursor only: %s %q", m.cursor.Name, m.Filter().Selected)
	}

	_, cmd = m.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	drain(m, cmd)
	if got := m.Filter().Selected; got != "Colorado" {
		t.Fatalf("selected = %q", got)
	}

	m.filter.Selected = ""
	_, cmd = m.Update(tea.MouseMsg{X: 0, Y: headerHeight + mapTop + 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	drain(m, cmd)
	if got := m.Filter().Selected; got != "" {
		t.Fatalf("empty cell selected %q", got)
	}
}

func TestArrowKeysMoveCursor(t *testing.T) {
	m := newTestModel(t, model.DefaultFilter())
	press(m, "k")
	if m.cursor.Name != "Colorado" {
		t.Fatalf("expected Colorado above New Mexico, got %s", m.cursor.Name)
	}
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.cursor.Name != "Utah" {
		t.Fatalf("expected Utah, got %s", m.cursor.Name)
	}
}

func TestFilterFormValidation(t *testing.T) {
	m := newTestModel(t, model.DefaultFilter())
	press(m, "/")
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	press(m, "q")
	if !m.filterMode {
		t.Fatalf("q should type into the form")
	}

	m.filterInputs[inputFrom].SetValue("2010")
	m.filterInputs[inputTo].SetValue("2005")
	m.filterInputs[inputState].SetValue("colorado")
	press(m, "enter")
	if !m.filterMode || m.filterError == "" {
		t.Fatalf("expected validation error")
	}
	if m.Filter().Years != model.FullYearRange() {
		t.Fatalf("invalid form changed the filter")
	}

	m.filterInputs[inputTo].SetValue("2015")
	m.filterInputs[inputState].SetValue("qqq")
	press(m, "enter")
	if !strings.Contains(m.filterError, "unknown state") {
		t.Fatalf("unexpected error %q", m.filterError)
	}

	m.filterInputs[inputState].SetValue("colorado")
	press(m, "enter")
	if m.filterMode {
		t.Fatalf("form should close: %s", m.filterError)
	}
	want := model.YearRange{From: 2010, To: 2015}
	if got := m.Filter(); got.Years != want || got.State != "Colorado" {
		t.Fatalf("unexpected filter %+v", got)
	}
	if len(m.topStates) != 1 || m.topStates[0].State != "Colorado" {
		t.Fatalf("top states not reloaded: %+v", m.topStates)
	}
}

func TestTrendHoverKeys(t *testing.T) {
	m := newTestModel(t, model.DefaultFilter())
	press(m, "2")
	if m.activeTab != tabTrends {
		t.Fatalf("active tab = %d", m.activeTab)
	}
	last := len(m.timeSeries) - 1
	if m.trendIdx != last {
		t.Fatalf("hover should start at the last year, got %d", m.trendIdx)
	}
	press(m, ",")
	press(m, ".")
	press(m, ".")
	if m.trendIdx != last {
		t.Fatalf("hover should stop at the last year, got %d", m.trendIdx)
	}
}

func TestQuitCancelsQueries(t *testing.T) {
	m := newTestModel(t, model.DefaultFilter())
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message")
	}
	if m.ctx.Err() == nil {
		t.Fatalf("expected canceled context")
	}
}
