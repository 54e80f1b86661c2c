package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/hpsdash/internal/chart"
	"github.com/verte-zerg/hpsdash/internal/dataset"
	"github.com/verte-zerg/hpsdash/internal/model"
	"github.com/verte-zerg/hpsdash/internal/query"
)

const (
	barRune       = '█'
	minBarWidth   = 10
	noDataMessage = "No data for the selected filters."
)

// BarLines renders one horizontal bar per state record, sized on a shared
// [0, max] scale.
func BarLines(records []model.StateRecord, metric model.Metric, width int, useColor bool) []string {
	if len(records) == 0 {
		return []string{noDataMessage}
	}
	labelWidth := 0
	values := make([]float64, len(records))
	maxVal := 0.0
	for i, rec := range records {
		v, _ := rec.Value(metric)
		values[i] = math.Max(0, v)
		maxVal = math.Max(maxVal, values[i])
		labelWidth = max(labelWidth, displayWidth(rec.State))
	}
	valueWidth := 0
	for _, v := range values {
		valueWidth = max(valueWidth, displayWidth(metric.Format(v)))
	}
	barWidth := width - labelWidth - valueWidth - 2
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}
	scale := chart.NewLinearScale(0, maxVal, 0, float64(barWidth))
	lines := make([]string, 0, len(records))
	for i, rec := range records {
		n := int(math.Round(scale.Map(values[i])))
		bar := strings.Repeat(string(barRune), n)
		if useColor && n > 0 {
			bar = ansiForeground(chart.BarColor) + bar + colorReset
		}
		lines = append(lines, fmt.Sprintf("%s %s%s %s",
			padCell(rec.State, labelWidth, false), bar, strings.Repeat(" ", barWidth-n), metric.Format(values[i])))
	}
	return lines
}

// PieLines renders a proportional strip followed by the pie legend.
func PieLines(entries []model.DemographicEntry, width int, useColor bool) []string {
	if len(entries) == 0 {
		return []string{noDataMessage}
	}
	slices := make([]chart.Slice, len(entries))
	for i, e := range entries {
		slices[i] = chart.Slice{Label: e.Name, Value: e.Value}
	}
	pie := chart.LayoutPie(slices, chart.Options{Compact: true, Format: formatPercentValue})
	if width < minBarWidth {
		width = minBarWidth
	}
	var strip strings.Builder
	used := 0
	for i, arc := range pie.Arcs {
		n := int(math.Round(arc.Percent / 100 * float64(width)))
		if i == len(pie.Arcs)-1 {
			n = width - used
		}
		n = clampInt(n, 0, width-used)
		used += n
		segment := strings.Repeat(string(shadeRune(i)), n)
		if useColor && n > 0 {
			segment = ansiForeground(arc.Color) + strings.Repeat(string(barRune), n) + colorReset
		}
		strip.WriteString(segment)
	}
	lines := []string{strip.String()}
	for i, item := range pie.Legend {
		marker := string(shadeRune(i))
		if useColor {
			marker = ansiForeground(item.Color) + string(barRune) + colorReset
		}
		lines = append(lines, marker+" "+item.Text)
	}
	return lines
}

var shades = []rune{'█', '▓', '▒', '░', '▞'}

func shadeRune(i int) rune {
	return shades[i%len(shades)]
}

func formatPercentValue(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// CorrelationLines renders the correlation table, marking significant rows.
func CorrelationLines(entries []model.CorrelationEntry) []string {
	if len(entries) == 0 {
		return []string{noDataMessage}
	}
	headers := []string{"Environmental Factor", "Correlation", "P-Value", "Significance"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		sig := e.Significance
		if sig == model.Significant {
			sig = "* " + sig
		}
		rows = append(rows, []string{
			e.Factor,
			fmt.Sprintf("%.3f", e.Correlation),
			fmt.Sprintf("%.3f", e.PValue),
			sig,
		})
	}
	return formatTable(headers, rows, map[int]bool{1: true, 2: true})
}

// DetailSection names a tab of the state detail panel.
type DetailSection int

// State detail sections.
const (
	DetailCases DetailSection = iota
	DetailEnvironmental
	DetailDemographics
)

// DetailSections lists the state detail tabs in display order.
var DetailSections = []DetailSection{DetailCases, DetailEnvironmental, DetailDemographics}

func (s DetailSection) String() string {
	switch s {
	case DetailEnvironmental:
		return "Environmental Factors"
	case DetailDemographics:
		return "Demographics"
	}
	return "Case Statistics"
}

// DetailSummary renders the headline figures of a state detail.
func DetailSummary(d model.StateDetail) []string {
	return []string{
		fmt.Sprintf("Total Cases: %d", d.CaseStats.TotalCases),
		fmt.Sprintf("Total Deaths: %d", d.CaseStats.TotalDeaths),
		fmt.Sprintf("Case Rate: %.2f per 100,000", d.CaseStats.CaseRate),
		fmt.Sprintf("Mortality Rate: %.2f%%", d.CaseStats.MortalityRate),
	}
}

// DetailLines renders one section of a state detail as a table.
func DetailLines(d model.StateDetail, section DetailSection) []string {
	switch section {
	case DetailEnvironmental:
		env := d.Environmental
		return formatTable([]string{"Factor", "Value"}, [][]string{
			{"Average Elevation (m)", fmt.Sprintf("%.1f", env.AvgElevation)},
			{"Forest Coverage (%)", fmt.Sprintf("%.1f%%", env.ForestCoverage)},
			{"Population Density", fmt.Sprintf("%.1f", env.PopulationDensity)},
			{"Annual Precipitation (cm)", fmt.Sprintf("%.1f", env.AnnualPrecipitation)},
		}, map[int]bool{1: true})
	case DetailDemographics:
		demo := d.Demographic
		return formatTable([]string{"Demographic", "Percentage"}, [][]string{
			{"Male", fmt.Sprintf("%.1f%%", demo.MalePct)},
			{"Female", fmt.Sprintf("%.1f%%", demo.FemalePct)},
			{"White", fmt.Sprintf("%.1f%%", demo.WhitePct)},
			{"Black", fmt.Sprintf("%.1f%%", demo.BlackPct)},
			{"Hispanic", fmt.Sprintf("%.1f%%", demo.HispanicPct)},
			{"Asian", fmt.Sprintf("%.1f%%", demo.AsianPct)},
			{"Other", fmt.Sprintf("%.1f%%", demo.OtherPct)},
		}, map[int]bool{1: true})
	}
	cs := d.CaseStats
	return formatTable([]string{"Metric", "Value"}, [][]string{
		{"Total Cases", fmt.Sprintf("%d", cs.TotalCases)},
		{"Total Deaths", fmt.Sprintf("%d", cs.TotalDeaths)},
		{"Case Rate (per 100,000)", fmt.Sprintf("%.2f", cs.CaseRate)},
		{"Mortality Rate (%)", fmt.Sprintf("%.2f%%", cs.MortalityRate)},
		{"Average Population", humanize.Comma(int64(cs.AvgPopulation))},
	}, map[int]bool{1: true})
}

// TrendSeries converts a time series into plot series for a state filter.
// Every series has one value per year; years without a count are NaN.
func TrendSeries(records []model.YearRecord, state string) (Axis, []Series) {
	records = cloneYears(records)
	query.ClampCounts(records)
	names := query.SeriesNames(state)
	labels := make([]string, len(records))
	for i, rec := range records {
		labels[i] = fmt.Sprintf("%d", rec.Year)
	}
	series := make([]Series, 0, len(names))
	for i, name := range names {
		values := make([]float64, 0, len(records))
		for _, rec := range records {
			if name == dataset.National {
				values = append(values, float64(rec.National))
				continue
			}
			v, ok := rec.States[name]
			if !ok {
				values = append(values, math.NaN())
				continue
			}
			values = append(values, float64(v))
		}
		series = append(series, Series{
			Name:   name,
			Color:  chart.Palette[i%len(chart.Palette)],
			Values: values,
		})
	}
	return Axis{XLabels: labels}, series
}

// TrendRows converts a time series into chart rows keyed by year.
func TrendRows(records []model.YearRecord) []chart.Row {
	rows := make([]chart.Row, 0, len(records))
	for _, rec := range records {
		values := map[string]float64{dataset.National: float64(rec.National)}
		for k, v := range rec.States {
			values[k] = float64(v)
		}
		rows = append(rows, chart.Row{Key: fmt.Sprintf("%d", rec.Year), Values: values})
	}
	return rows
}

// StateRows converts state records into single-category chart rows.
func StateRows(records []model.StateRecord, metric model.Metric) []chart.Row {
	rows := make([]chart.Row, 0, len(records))
	for _, rec := range records {
		v, _ := rec.Value(metric)
		rows = append(rows, chart.Row{Key: rec.State, Values: map[string]float64{ValueCategory: v}})
	}
	return rows
}

// ValueCategory is the category name of single-series bar rows.
const ValueCategory = "value"

// DemographicSlices converts a breakdown into pie slices.
func DemographicSlices(entries []model.DemographicEntry) []chart.Slice {
	out := make([]chart.Slice, len(entries))
	for i, e := range entries {
		out[i] = chart.Slice{Label: e.Name, Value: e.Value}
	}
	return out
}

func cloneYears(records []model.YearRecord) []model.YearRecord {
	out := make([]model.YearRecord, len(records))
	for i, rec := range records {
		out[i] = rec.Clone()
	}
	return out
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
