// Package model defines shared data structures.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Year bounds covered by the surveillance dataset.
const (
	MinYear = 1993
	MaxYear = 2022
)

// AllStates is the state filter value that disables state filtering.
const AllStates = "All States"

// Metric names a per-state quantity that can be visualized.
type Metric string

// Supported metrics.
const (
	MetricCases         Metric = "Cases"
	MetricCaseRate      Metric = "Case_Rate"
	MetricMortalityRate Metric = "Mortality_Rate"
)

// Metrics lists the supported metrics in display order.
var Metrics = []Metric{MetricCases, MetricCaseRate, MetricMortalityRate}

// ParseMetric accepts canonical metric names and lower/kebab-case aliases.
func ParseMetric(value string) (Metric, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	switch normalized {
	case "cases", "case_count":
		return MetricCases, nil
	case "case_rate", "rate":
		return MetricCaseRate, nil
	case "mortality_rate", "mortality":
		return MetricMortalityRate, nil
	}
	return "", fmt.Errorf("unknown metric %q (expected cases, case-rate or mortality-rate)", value)
}

// Label returns the legend label for the metric.
func (m Metric) Label() string {
	switch m {
	case MetricCases:
		return "Case Count"
	case MetricCaseRate:
		return "Case Rate (per 100,000)"
	case MetricMortalityRate:
		return "Mortality Rate (%)"
	}
	return string(m)
}

// AxisLabel returns the value-axis label for the metric.
func (m Metric) AxisLabel() string {
	switch m {
	case MetricCases:
		return "Number of Cases"
	case MetricCaseRate:
		return "Cases per 100,000"
	case MetricMortalityRate:
		return "Mortality Rate (%)"
	}
	return string(m)
}

// Format renders a value of the metric: whole numbers for counts, two decimals for rates.
func (m Metric) Format(v float64) string {
	if m == MetricCases {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Next returns the metric after m in display order, wrapping around.
func (m Metric) Next() Metric {
	for i, candidate := range Metrics {
		if candidate == m {
			return Metrics[(i+1)%len(Metrics)]
		}
	}
	return Metrics[0]
}

// DemographicType selects a demographic breakdown.
type DemographicType string

// Supported demographic breakdowns. DemographicAll shows the age table.
const (
	DemographicAll    DemographicType = "all"
	DemographicGender DemographicType = "gender"
	DemographicRace   DemographicType = "race"
	DemographicAge    DemographicType = "age"
)

// DemographicTypes lists the demographic selector options in display order.
var DemographicTypes = []DemographicType{DemographicAll, DemographicGender, DemographicRace, DemographicAge}

// ParseDemographicType validates a demographic selector value.
func ParseDemographicType(value string) (DemographicType, error) {
	normalized := DemographicType(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return DemographicAll, nil
	}
	for _, dt := range DemographicTypes {
		if dt == normalized {
			return dt, nil
		}
	}
	return "", fmt.Errorf("unknown demographic type %q (expected all, gender, race or age)", value)
}

// Label returns the selector label.
func (d DemographicType) Label() string {
	switch d {
	case DemographicGender:
		return "Gender"
	case DemographicRace:
		return "Race/Ethnicity"
	case DemographicAge:
		return "Age Group"
	}
	return "All Demographics"
}

// Next returns the demographic type after d, wrapping around.
func (d DemographicType) Next() DemographicType {
	for i, candidate := range DemographicTypes {
		if candidate == d {
			return DemographicTypes[(i+1)%len(DemographicTypes)]
		}
	}
	return DemographicTypes[0]
}

// YearRange is an inclusive range of years.
type YearRange struct {
	From int `json:"from" yaml:"from"`
	To   int `json:"to" yaml:"to"`
}

// FullYearRange covers the whole dataset.
func FullYearRange() YearRange {
	return YearRange{From: MinYear, To: MaxYear}
}

// Validate checks the range lies within the dataset bounds and is ordered.
func (r YearRange) Validate() error {
	if r.From < MinYear || r.From > MaxYear {
		return fmt.Errorf("start year %d outside %d-%d", r.From, MinYear, MaxYear)
	}
	if r.To < MinYear || r.To > MaxYear {
		return fmt.Errorf("end year %d outside %d-%d", r.To, MinYear, MaxYear)
	}
	if r.From > r.To {
		return fmt.Errorf("start year %d is after end year %d", r.From, r.To)
	}
	return nil
}

// Contains reports whether year lies in the inclusive range.
func (r YearRange) Contains(year int) bool {
	return year >= r.From && year <= r.To
}

func (r YearRange) String() string {
	return fmt.Sprintf("%d-%d", r.From, r.To)
}

// StateRecord holds aggregate case figures for one state.
type StateRecord struct {
	State         string  `json:"State" yaml:"State"`
	Cases         int     `json:"Cases" yaml:"Cases"`
	Deaths        int     `json:"Deaths" yaml:"Deaths"`
	Population    int     `json:"Population" yaml:"Population"`
	CaseRate      float64 `json:"Case_Rate" yaml:"Case_Rate"`
	MortalityRate float64 `json:"Mortality_Rate" yaml:"Mortality_Rate"`
}

// Value returns the record's value for a metric. Unknown metrics report false.
func (r StateRecord) Value(m Metric) (float64, bool) {
	switch m {
	case MetricCases:
		return float64(r.Cases), true
	case MetricCaseRate:
		return r.CaseRate, true
	case MetricMortalityRate:
		return r.MortalityRate, true
	}
	return 0, false
}

// YearRecord holds national and per-state case counts for one year.
type YearRecord struct {
	Year     int            `json:"Year" yaml:"Year"`
	National int            `json:"National" yaml:"National"`
	States   map[string]int `json:"States" yaml:"States"`
}

// Clone returns a deep copy of the record.
func (r YearRecord) Clone() YearRecord {
	out := YearRecord{Year: r.Year, National: r.National}
	if r.States != nil {
		out.States = make(map[string]int, len(r.States))
		for k, v := range r.States {
			out.States[k] = v
		}
	}
	return out
}

// DemographicEntry is one category of a demographic breakdown, as a percentage.
type DemographicEntry struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

// Significance labels.
const (
	Significant    = "Significant"
	NotSignificant = "Not Significant"
)

// SignificanceLevel is the p-value threshold for a significant correlation.
const SignificanceLevel = 0.05

// CorrelationEntry relates an environmental factor to case incidence.
type CorrelationEntry struct {
	Factor       string  `json:"Factor" yaml:"Factor"`
	Correlation  float64 `json:"Correlation" yaml:"Correlation"`
	PValue       float64 `json:"P_Value" yaml:"P_Value"`
	Significance string  `json:"Significance" yaml:"Significance"`
}

// SignificanceFor returns the significance label for a p-value.
func SignificanceFor(pValue float64) string {
	if pValue < SignificanceLevel {
		return Significant
	}
	return NotSignificant
}

// CaseStats summarizes case figures for a state.
type CaseStats struct {
	TotalCases    int     `json:"totalCases" yaml:"totalCases"`
	TotalDeaths   int     `json:"totalDeaths" yaml:"totalDeaths"`
	CaseRate      float64 `json:"caseRate" yaml:"caseRate"`
	MortalityRate float64 `json:"mortalityRate" yaml:"mortalityRate"`
	AvgPopulation int     `json:"avgPopulation" yaml:"avgPopulation"`
}

// Environmental holds environmental factors for a state.
type Environmental struct {
	AvgElevation        float64 `json:"avgElevation" yaml:"avgElevation"`
	ForestCoverage      float64 `json:"forestCoverage" yaml:"forestCoverage"`
	PopulationDensity   float64 `json:"populationDensity" yaml:"populationDensity"`
	AnnualPrecipitation float64 `json:"annualPrecipitation" yaml:"annualPrecipitation"`
}

// DemographicSnapshot holds demographic percentages for a state.
type DemographicSnapshot struct {
	MalePct     float64 `json:"malePct" yaml:"malePct"`
	FemalePct   float64 `json:"femalePct" yaml:"femalePct"`
	WhitePct    float64 `json:"whitePct" yaml:"whitePct"`
	BlackPct    float64 `json:"blackPct" yaml:"blackPct"`
	HispanicPct float64 `json:"hispanicPct" yaml:"hispanicPct"`
	AsianPct    float64 `json:"asianPct" yaml:"asianPct"`
	OtherPct    float64 `json:"otherPct" yaml:"otherPct"`
}

// StateDetail aggregates everything shown for a selected state.
type StateDetail struct {
	State         string              `json:"state" yaml:"state"`
	CaseStats     CaseStats           `json:"caseStats" yaml:"caseStats"`
	Environmental Environmental       `json:"environmental" yaml:"environmental"`
	Demographic   DemographicSnapshot `json:"demographic" yaml:"demographic"`
}

// Filter is the dashboard's filter state.
type Filter struct {
	Years       YearRange       `json:"years" yaml:"years"`
	Metric      Metric          `json:"metric" yaml:"metric"`
	Demographic DemographicType `json:"demographic" yaml:"demographic"`
	State       string          `json:"state" yaml:"state"`
	Selected    string          `json:"selected,omitempty" yaml:"selected,omitempty"`
}

// DefaultFilter returns the initial dashboard filter.
func DefaultFilter() Filter {
	return Filter{
		Years:       FullYearRange(),
		Metric:      MetricCases,
		Demographic: DemographicAll,
		State:       AllStates,
	}
}

// StateFiltered reports whether a specific state filter is active.
func (f Filter) StateFiltered() bool {
	return IsStateFilter(f.State)
}

// IsStateFilter reports whether state names a specific state rather than all states.
func IsStateFilter(state string) bool {
	return state != "" && state != AllStates
}

// Snapshot holds every dashboard view for one filter.
type Snapshot struct {
	Filter       Filter             `json:"filter" yaml:"filter"`
	StateData    []StateRecord      `json:"stateData" yaml:"stateData"`
	TopStates    []StateRecord      `json:"topStates" yaml:"topStates"`
	TimeSeries   []YearRecord       `json:"timeSeries" yaml:"timeSeries"`
	Demographics []DemographicEntry `json:"demographics" yaml:"demographics"`
	Correlations []CorrelationEntry `json:"correlations" yaml:"correlations"`
	Detail       *StateDetail       `json:"detail,omitempty" yaml:"detail,omitempty"`
}
