package dashui

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/hpsdash/internal/chart"
	"github.com/verte-zerg/hpsdash/internal/dataset"
	"github.com/verte-zerg/hpsdash/internal/geo"
	"github.com/verte-zerg/hpsdash/internal/model"
	"github.com/verte-zerg/hpsdash/internal/stats"
)

const (
	mapCellWidth    = 5
	mapTop          = 1
	plotHeight      = 10
	pieWidth        = 60
	renderCacheSize = 256
)

var (
	significantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#0be881")).Bold(true)
	legendMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

// cached returns the memoized render of a widget. extra distinguishes
// widget-local view state such as the map cursor.
func (m *Model) cached(id widgetID, width, extra int, render func() string) string {
	key := fmt.Sprintf("%s|%d|%d|%d", id, m.widgets[id].shown, width, extra)
	if s, ok := m.cache.Get(key); ok {
		return s
	}
	s := render()
	m.cache.Add(key, s)
	return s
}

func (m *Model) widgetBody(id widgetID, render func() string) string {
	w := m.widgets[id]
	// Details fetched for another state are never shown under the new title.
	stale := id == widgetDetail && w.filter.Selected != m.filter.Selected
	if !w.loaded() || stale {
		if w.err != nil {
			return "Unavailable."
		}
		return "Loading..."
	}
	return render()
}

func (m *Model) renderOverview(width int) string {
	w := m.widgets[widgetMap]
	lines := []string{cardValueStyle.Render("HPS Cases Across the United States: " + w.filter.Metric.Label())}
	cursorKey := m.cursor.Row*geo.GridCols + m.cursor.Col
	lines = append(lines, m.widgetBody(widgetMap, func() string {
		return m.cached(widgetMap, width, cursorKey, func() string {
			return renderMap(m.choropleth, m.cursor)
		})
	}))
	lines = append(lines, "", cardValueStyle.Render("Top 5 States by HPS Incidence"))
	lines = append(lines, m.widgetBody(widgetTop, func() string {
		return m.cached(widgetTop, width, 0, func() string {
			return strings.Join(stats.BarLines(m.topStates, m.widgets[widgetTop].filter.Metric, width, true), "\n")
		})
	}))
	return strings.Join(lines, "\n")
}

func renderMap(c geo.Choropleth, cursor geo.Tile) string {
	rows := make([]string, 0, geo.GridRows+3)
	for r := 0; r < geo.GridRows; r++ {
		var b strings.Builder
		for col := 0; col < geo.GridCols; col++ {
			tile, ok := geo.TileAt(r, col)
			if !ok {
				b.WriteString(strings.Repeat(" ", mapCellWidth))
				continue
			}
			fill := c.Fill(tile.Name)
			style := lipgloss.NewStyle().
				Background(lipgloss.Color(fill)).
				Foreground(lipgloss.Color(textColorFor(fill)))
			label := fmt.Sprintf(" %-2s ", tile.Abbr)
			if tile == cursor {
				label = fmt.Sprintf("[%-2s]", tile.Abbr)
				style = style.Bold(true).Reverse(true)
			}
			b.WriteString(style.Render(label))
			b.WriteByte(' ')
		}
		rows = append(rows, strings.TrimRight(b.String(), " "))
	}
	rows = append(rows, renderRampLegend(c.Metric))
	tip := c.Tooltip(cursor.Name)
	if tip == nil {
		tip = []string{cursor.Name, "No data"}
	}
	rows = append(rows, "", cardTitleStyle.Render(strings.Join(tip, "  ")))
	return strings.Join(rows, "\n")
}

func renderRampLegend(metric model.Metric) string {
	var b strings.Builder
	b.WriteString(legendMutedStyle.Render("Low "))
	for _, col := range geo.Ramp(metric) {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(col)).Render("██"))
	}
	b.WriteString(legendMutedStyle.Render(" High   "))
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(geo.NeutralFill)).Render("██"))
	b.WriteString(legendMutedStyle.Render(" No data"))
	return b.String()
}

// textColorFor picks a readable label color for a fill.
func textColorFor(fill string) string {
	v, err := strconv.ParseUint(strings.TrimPrefix(fill, "#"), 16, 32)
	if err != nil {
		return "#000000"
	}
	r, g, b := float64(v>>16&0xff), float64(v>>8&0xff), float64(v&0xff)
	if 0.299*r+0.587*g+0.114*b < 140 {
		return "#FFFFFF"
	}
	return "#000000"
}

func (m *Model) renderTrends(width int) string {
	lines := []string{cardValueStyle.Render("HPS Cases Over Time")}
	lines = append(lines, m.widgetBody(widgetTrends, func() string {
		return m.cached(widgetTrends, width, m.trendIdx, func() string {
			return renderTrendPlot(m.timeSeries, m.widgets[widgetTrends].filter.State, width, m.trendIdx)
		})
	}))
	return strings.Join(lines, "\n")
}

func renderTrendPlot(records []model.YearRecord, state string, width, hover int) string {
	axis, series := stats.TrendSeries(records, state)
	var buf bytes.Buffer
	if err := stats.PlotSeriesWithColor(&buf, "", axis, series, stats.PlotWidthFor(width), plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render trends: %v", err)
	}
	out := strings.TrimRight(buf.String(), "\n")
	if line := trendHoverLine(records, series, hover); line != "" {
		out += "\n" + line
	}
	return out
}

// trendHoverLine lists every series value at the hovered year, largest first.
func trendHoverLine(records []model.YearRecord, series []stats.Series, hover int) string {
	if len(records) == 0 {
		return ""
	}
	hover = clampIndex(hover, len(records))
	categories := make([]string, len(series))
	for i, s := range series {
		categories[i] = s.Name
	}
	lc := chart.LayoutLines(stats.TrendRows(records), categories, chart.Options{})
	tip, ok := lc.HoverKey(strconv.Itoa(records[hover].Year))
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(tip.Entries))
	for _, e := range tip.Entries {
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color(e.Color)).Render(e.Name)+" "+e.Text)
	}
	return headerStyle.Render("Year "+tip.Key+": ") + strings.Join(parts, "  ")
}

func (m *Model) renderDemographics(width int) string {
	w := m.widgets[widgetDemographics]
	lines := []string{cardValueStyle.Render("Demographic Breakdown: " + w.filter.Demographic.Label())}
	lines = append(lines, m.widgetBody(widgetDemographics, func() string {
		return m.cached(widgetDemographics, width, 0, func() string {
			return strings.Join(stats.PieLines(m.demographics, minInt(width, pieWidth), true), "\n")
		})
	}))
	return strings.Join(lines, "\n")
}

func (m *Model) renderCorrelations(width int) string {
	lines := []string{cardValueStyle.Render("Environmental Factor Correlations")}
	lines = append(lines, m.widgetBody(widgetCorrelations, func() string {
		return m.cached(widgetCorrelations, width, 0, func() string {
			return renderCorrelationTable(m.correlations)
		})
	}))
	lines = append(lines, "", cardValueStyle.Render("Key Findings"))
	for _, k := range dataset.KeyFindings {
		lines = append(lines, "• "+k)
	}
	lines = append(lines, "", legendMutedStyle.Render("Source: "+dataset.Source))
	return strings.Join(lines, "\n")
}

func renderCorrelationTable(entries []model.CorrelationEntry) string {
	lines := stats.CorrelationLines(entries)
	if len(entries) == 0 {
		return strings.Join(lines, "\n")
	}
	out := make([]string, len(lines))
	out[0] = headerStyle.Render(lines[0])
	for i, line := range lines[1:] {
		if entries[i].Significance == model.Significant {
			line = significantStyle.Render(line)
		}
		out[i+1] = line
	}
	return strings.Join(out, "\n")
}

func (m *Model) renderDetail(width int) string {
	title := cardValueStyle.Render(m.filter.Selected + " State Details")
	if m.widgets[widgetDetail].loading {
		title += " " + m.spinner.View()
	}
	body := m.widgetBody(widgetDetail, func() string {
		return m.cached(widgetDetail, width, m.detailTab, func() string {
			return renderDetailBody(m.detail, stats.DetailSections[m.detailTab], width)
		})
	})
	lines := []string{
		title,
		m.renderDetailTabs(),
		body,
		"",
		headerStyle.Render("tab/left/right: section  esc: close"),
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderDetailTabs() string {
	parts := make([]string, 0, len(stats.DetailSections))
	for i, s := range stats.DetailSections {
		if i == m.detailTab {
			parts = append(parts, activeNavStyle.Render(s.String()))
		} else {
			parts = append(parts, inactiveNavStyle.Render(s.String()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func renderDetailBody(d model.StateDetail, section stats.DetailSection, width int) string {
	cs := d.CaseStats
	cards := []string{
		metricCard("Total Cases", strconv.Itoa(cs.TotalCases)),
		metricCard("Total Deaths", strconv.Itoa(cs.TotalDeaths)),
		metricCard("Case Rate", fmt.Sprintf("%.2f", cs.CaseRate)),
		metricCard("Mortality", fmt.Sprintf("%.2f%%", cs.MortalityRate)),
	}
	var summary string
	if width < 80 {
		summary = lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1]),
			lipgloss.JoinHorizontal(lipgloss.Top, cards[2], cards[3]))
	} else {
		summary = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	table := tableMutedStyle.Render(strings.Join(stats.DetailLines(d, section), "\n"))
	return summary + "\n" + table
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}
