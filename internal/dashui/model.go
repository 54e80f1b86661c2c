// Package dashui provides the Bubble Tea dashboard interface.
package dashui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/verte-zerg/hpsdash/internal/geo"
	"github.com/verte-zerg/hpsdash/internal/model"
	"github.com/verte-zerg/hpsdash/internal/query"
	"github.com/verte-zerg/hpsdash/internal/stats"
)

const (
	tabOverview = iota
	tabTrends
	tabDemographics
	tabCorrelations
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#ffa502"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	modalStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#ffa502")).
			Padding(1, 2)
)

// Model implements the Bubble Tea dashboard.
type Model struct {
	svc    *query.Service
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc

	filter  model.Filter
	widgets [widgetCount]widget

	stateData    []model.StateRecord
	choropleth   geo.Choropleth
	topStates    []model.StateRecord
	timeSeries   []model.YearRecord
	demographics []model.DemographicEntry
	correlations []model.CorrelationEntry
	detail       model.StateDetail

	tabs      []string
	activeTab int
	viewports []viewport.Model
	spinner   spinner.Model
	ticking   bool
	cache     *lru.Cache[string, string]

	cursor   geo.Tile
	trendIdx int

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string

	detailTab int
}

// NewModel constructs a dashboard model for the initial filter. A nil logger
// disables logging.
func NewModel(svc *query.Service, filter model.Filter, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	cache, err := lru.New[string, string](renderCacheSize)
	if err != nil {
		// Only a non-positive size fails.
		panic(err)
	}
	m := &Model{
		svc:     svc,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		filter:  filter,
		tabs:    []string{"Overview", "Trends", "Demographics", "Correlations"},
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		cache:   cache,
	}
	m.cursor = initialCursor(filter)
	m.initInputs()
	m.initViewports()
	return m
}

func initialCursor(filter model.Filter) geo.Tile {
	for _, name := range []string{filter.Selected, filter.State, "New Mexico"} {
		if t, ok := geo.TileByName(name); ok {
			return t
		}
	}
	return geo.Tiles()[0]
}

// Filter returns the current filter.
func (m *Model) Filter() model.Filter {
	return m.filter
}

// Close cancels outstanding queries.
func (m *Model) Close() {
	m.cancel()
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	ids := []widgetID{widgetMap, widgetTop, widgetTrends, widgetDemographics, widgetCorrelations}
	if m.filter.Selected != "" {
		ids = append(ids, widgetDetail)
	}
	return m.loadWidgets(ids)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.refreshContent()
		return m, nil
	case loadedMsg:
		m.applyLoaded(msg)
		m.refreshContent()
		return m, nil
	case spinner.TickMsg:
		if !m.anyLoading() {
			m.ticking = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.MouseMsg:
		return m.updateMouse(msg)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m.quit()
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if m.filter.Selected != "" {
			return m.updateDetail(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.cancel()
	return m, tea.Quit
}

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m.quit()
	case "tab":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "shift+tab":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "1", "2", "3", "4":
		m.activeTab = int(msg.String()[0] - '1')
		return m, tea.ClearScreen
	case "left", "h":
		if m.activeTab == tabOverview {
			m.moveCursor(0, -1)
			return m, nil
		}
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l":
		if m.activeTab == tabOverview {
			m.moveCursor(0, 1)
			return m, nil
		}
		m.moveTab(1)
		return m, tea.ClearScreen
	case "up", "k":
		if m.activeTab == tabOverview {
			m.moveCursor(-1, 0)
			return m, nil
		}
	case "down", "j":
		if m.activeTab == tabOverview {
			m.moveCursor(1, 0)
			return m, nil
		}
	case ",":
		if m.activeTab == tabTrends {
			m.moveTrendHover(-1)
		}
		return m, nil
	case ".":
		if m.activeTab == tabTrends {
			m.moveTrendHover(1)
		}
		return m, nil
	case "enter":
		if m.activeTab == tabOverview {
			return m, m.selectState(m.cursor.Name)
		}
		return m, nil
	case "m":
		next := m.filter
		next.Metric = next.Metric.Next()
		return m, m.setFilter(next)
	case "d":
		next := m.filter
		next.Demographic = next.Demographic.Next()
		return m, m.setFilter(next)
	case "[", "]", "{", "}":
		return m, m.setFilter(m.filterWithYears(msg.String()))
	case "/":
		return m.startFilter()
	case "g", "home":
		m.viewports[m.activeTab].GotoTop()
		return m, nil
	case "G", "end":
		m.viewports[m.activeTab].GotoBottom()
		return m, nil
	}
	vp := m.viewports[m.activeTab]
	var cmd tea.Cmd
	vp, cmd = vp.Update(msg)
	m.viewports[m.activeTab] = vp
	return m, cmd
}

// filterWithYears applies a year key. The range stays within the dataset
// bounds and From never passes To.
func (m *Model) filterWithYears(key string) model.Filter {
	next := m.filter
	switch key {
	case "[":
		next.Years.From = maxInt(model.MinYear, next.Years.From-1)
	case "]":
		next.Years.From = minInt(next.Years.To, next.Years.From+1)
	case "{":
		next.Years.To = maxInt(next.Years.From, next.Years.To-1)
	case "}":
		next.Years.To = minInt(model.MaxYear, next.Years.To+1)
	}
	return next
}

// setFilter replaces the filter and reloads the widgets it affects.
func (m *Model) setFilter(next model.Filter) tea.Cmd {
	changed := changedWidgets(m.filter, next)
	m.filter = next
	if len(changed) == 0 {
		return nil
	}
	m.logger.Info("filter changed",
		zap.Stringer("years", next.Years),
		zap.String("metric", string(next.Metric)),
		zap.String("demographic", string(next.Demographic)),
		zap.String("state", next.State))
	cmd := m.loadWidgets(changed)
	m.refreshContent()
	return cmd
}

func (m *Model) selectState(name string) tea.Cmd {
	if name == "" {
		return nil
	}
	next := m.filter
	next.Selected = name
	m.detailTab = 0
	return m.setFilter(next)
}

func (m *Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m.quit()
	case "esc":
		m.filter.Selected = ""
		return m, tea.ClearScreen
	case "tab", "right", "l":
		m.detailTab = (m.detailTab + 1) % len(stats.DetailSections)
	case "shift+tab", "left", "h":
		m.detailTab = (m.detailTab + len(stats.DetailSections) - 1) % len(stats.DetailSections)
	}
	return m, nil
}

func (m *Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.filterMode || m.filter.Selected != "" || m.activeTab != tabOverview || !m.widgets[widgetMap].loaded() {
		return m, nil
	}
	if msg.Action != tea.MouseActionPress && msg.Action != tea.MouseActionMotion {
		return m, nil
	}
	headerHeight, _, _ := m.layoutHeights()
	line := msg.Y - headerHeight + m.viewports[tabOverview].YOffset - mapTop
	tile, ok := geo.HitTest(float64(msg.X), float64(line), mapCellWidth, 1)
	if !ok {
		return m, nil
	}
	if tile != m.cursor {
		m.cursor = tile
		m.refreshContent()
	}
	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		return m, m.selectState(tile.Name)
	}
	return m, nil
}

func (m *Model) moveCursor(dRow, dCol int) {
	next := geo.Neighbor(m.cursor, dRow, dCol)
	if next == m.cursor {
		return
	}
	m.cursor = next
	m.refreshContent()
}

func (m *Model) moveTrendHover(delta int) {
	next := clampIndex(m.trendIdx+delta, len(m.timeSeries))
	if next == m.trendIdx {
		return
	}
	m.trendIdx = next
	m.refreshContent()
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.filter.Selected != "" && !m.filterMode {
		return fitLines(m.renderDetailModal(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errorSummary() != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

// refreshContent re-renders every tab into its viewport.
func (m *Model) refreshContent() {
	if len(m.viewports) == 0 {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(m.renderOverview(width))
	m.viewports[tabTrends].SetContent(m.renderTrends(width))
	m.viewports[tabDemographics].SetContent(m.renderDemographics(width))
	m.viewports[tabCorrelations].SetContent(m.renderCorrelations(width))
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		label := fmt.Sprintf("%d %s", i+1, tab)
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(label))
		} else {
			parts = append(parts, inactiveNavStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	f := m.filter
	state := f.State
	if !f.StateFiltered() {
		state = model.AllStates
	}
	summary := fmt.Sprintf("Years: %s  Metric: %s  Demographic: %s  State: %s",
		f.Years, f.Metric.Label(), f.Demographic.Label(), state)
	if m.anyLoading() {
		summary += "  " + m.spinner.View() + " " + strings.Join(m.loadingNames(), ", ")
	}
	summary = truncateLine(summary, m.width)
	return headerStyle.Render(summary)
}

func (m *Model) renderHelp() string {
	help := "Tabs: tab/1-4  Metric: m  Demographic: d  Years: [ ] { }  Filter: /  Quit: q"
	switch m.activeTab {
	case tabOverview:
		help = "Map: arrows  Details: enter/click  Tabs: tab/1-4  Metric: m  Years: [ ] { }  Filter: /  Quit: q"
	case tabTrends:
		help = "Year: , .  Tabs: tab/1-4  Metric: m  Years: [ ] { }  Filter: /  Quit: q"
	}
	return headerStyle.Render(help)
}

func (m *Model) errorSummary() string {
	var failed []string
	for i, w := range m.widgets {
		if w.err != nil {
			failed = append(failed, widgetID(i).String())
		}
	}
	if len(failed) == 0 {
		return ""
	}
	return "Failed to refresh: " + strings.Join(failed, ", ")
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return m.renderFilterHelp()
	}
	if msg := m.errorSummary(); msg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(msg)
	}
	return m.renderHelp()
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) renderDetailModal() string {
	box := modalStyle.Width(modalWidth(m.width)).Render(m.renderDetail(modalInnerWidth(m.width)))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func modalWidth(width int) int {
	return maxInt(40, minInt(width-4, 100))
}

func modalInnerWidth(width int) int {
	w := modalWidth(width)
	w -= 6 // 2 border + 4 padding
	if w < 10 {
		return 10
	}
	return w
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
