// Package dataset provides the static HPS surveillance data.
package dataset

import "github.com/verte-zerg/hpsdash/internal/model"

// Title is the dashboard headline.
const Title = "Hantavirus Pulmonary Syndrome (HPS) Dashboard (1993-2022)"

// Source cites where the figures come from.
const Source = "CDC Reported Cases of Hantavirus Disease (https://www.cdc.gov/hantavirus/data-research/cases/index.html)"

// National is the series name for national counts.
const National = "National"

// trackedStates is the display order of states carried in the time series.
var trackedStates = []string{"New Mexico", "Arizona", "Colorado", "California", "Washington"}

var stateRecords = []model.StateRecord{
	{State: "New Mexico", Cases: 72, Deaths: 33, Population: 2000000, CaseRate: 3.6, MortalityRate: 45.8},
	{State: "Arizona", Cases: 55, Deaths: 21, Population: 6000000, CaseRate: 0.92, MortalityRate: 38.2},
	{State: "Colorado", Cases: 45, Deaths: 19, Population: 5000000, CaseRate: 0.9, MortalityRate: 42.2},
	{State: "Washington", Cases: 42, Deaths: 16, Population: 7000000, CaseRate: 0.6, MortalityRate: 38.1},
	{State: "California", Cases: 38, Deaths: 14, Population: 39000000, CaseRate: 0.1, MortalityRate: 36.8},
}

// yearRows holds National, New Mexico, Arizona, Colorado, Washington, California per year.
var yearRows = [][7]int{
	{1993, 24, 8, 2, 3, 5, 3},
	{1994, 28, 10, 4, 2, 4, 3},
	{1995, 26, 7, 3, 3, 5, 2},
	{1996, 25, 6, 3, 4, 4, 2},
	{1997, 23, 5, 2, 3, 3, 3},
	{1998, 30, 9, 3, 3, 3, 2},
	{1999, 32, 9, 3, 4, 6, 4},
	{2000, 37, 11, 4, 5, 2, 4},
	{2001, 21, 6, 2, 2, 2, 1},
	{2002, 19, 4, 3, 2, 1, 2},
	{2003, 38, 7, 3, 6, 3, 5},
	{2004, 29, 5, 4, 3, 4, 2},
	{2005, 31, 5, 5, 4, 2, 3},
	{2006, 43, 10, 5, 3, 3, 5},
	{2007, 32, 7, 2, 2, 3, 2},
	{2008, 41, 9, 3, 4, 4, 3},
	{2009, 24, 4, 2, 2, 2, 2},
	{2010, 23, 3, 3, 2, 1, 2},
	{2011, 30, 5, 3, 3, 3, 2},
	{2012, 33, 6, 4, 4, 2, 3},
	{2013, 27, 5, 4, 2, 2, 2},
	{2014, 36, 8, 3, 4, 4, 3},
	{2015, 33, 7, 3, 4, 3, 2},
	{2016, 42, 9, 5, 4, 3, 4},
	{2017, 39, 8, 5, 4, 3, 3},
	{2018, 26, 4, 3, 3, 3, 2},
	{2019, 28, 6, 3, 2, 2, 2},
	{2020, 25, 5, 2, 2, 2, 2},
	{2021, 30, 7, 3, 3, 2, 3},
	{2022, 32, 6, 4, 3, 3, 2},
}

var yearRowStates = []string{"New Mexico", "Arizona", "Colorado", "Washington", "California"}

var demographics = map[model.DemographicType][]model.DemographicEntry{
	model.DemographicGender: {
		{Name: "Male", Value: 58.5},
		{Name: "Female", Value: 41.5},
	},
	model.DemographicRace: {
		{Name: "White", Value: 68.3},
		{Name: "Hispanic", Value: 21.7},
		{Name: "Native American", Value: 7.2},
		{Name: "Black", Value: 1.5},
		{Name: "Asian", Value: 1.3},
	},
	model.DemographicAge: {
		{Name: "Under 18", Value: 20.0},
		{Name: "18-44", Value: 35.2},
		{Name: "45-64", Value: 25.2},
		{Name: "65+", Value: 19.6},
	},
}

var baseCorrelations = []model.CorrelationEntry{
	{Factor: "Average Elevation", Correlation: 0.68, PValue: 0.012, Significance: model.Significant},
	{Factor: "Forest Coverage", Correlation: 0.72, PValue: 0.008, Significance: model.Significant},
	{Factor: "Population Density", Correlation: -0.45, PValue: 0.078, Significance: model.NotSignificant},
	{Factor: "Annual Precipitation", Correlation: 0.31, PValue: 0.215, Significance: model.NotSignificant},
}

var environmental = map[string]model.Environmental{
	"Colorado":   {AvgElevation: 2200, ForestCoverage: 34, PopulationDensity: 55, AnnualPrecipitation: 15},
	"New Mexico": {AvgElevation: 1700, ForestCoverage: 25, PopulationDensity: 17, AnnualPrecipitation: 14},
	"Arizona":    {AvgElevation: 1250, ForestCoverage: 18, PopulationDensity: 64, AnnualPrecipitation: 13},
	"Washington": {AvgElevation: 520, ForestCoverage: 52, PopulationDensity: 113, AnnualPrecipitation: 38},
	"California": {AvgElevation: 880, ForestCoverage: 33, PopulationDensity: 253, AnnualPrecipitation: 22},
}

var defaultEnvironmental = model.Environmental{
	AvgElevation:        500,
	ForestCoverage:      30,
	PopulationDensity:   100,
	AnnualPrecipitation: 20,
}

var demographicSnapshot = model.DemographicSnapshot{
	MalePct:     58.5,
	FemalePct:   41.5,
	WhitePct:    68.3,
	BlackPct:    1.5,
	HispanicPct: 21.7,
	AsianPct:    1.3,
	OtherPct:    7.2,
}

// KeyFindings summarizes the national picture.
var KeyFindings = []string{
	"Highest incidence states: New Mexico, Arizona, Colorado, California, Washington",
	"Most cases occur in western states with higher elevations and forest coverage",
	"Strong correlation between HPS cases and forest coverage (R=0.720, p=0.008)",
	"Significant correlation with elevation (R=0.680, p=0.012)",
}

// StateRecords returns a copy of the per-state records.
func StateRecords() []model.StateRecord {
	return append([]model.StateRecord(nil), stateRecords...)
}

// StateRecord looks up a state's record.
func StateRecord(state string) (model.StateRecord, bool) {
	for _, rec := range stateRecords {
		if rec.State == state {
			return rec, true
		}
	}
	return model.StateRecord{}, false
}

// YearRecords returns a fresh copy of the yearly time series, ascending by year.
func YearRecords() []model.YearRecord {
	out := make([]model.YearRecord, 0, len(yearRows))
	for _, row := range yearRows {
		rec := model.YearRecord{
			Year:     row[0],
			National: row[1],
			States:   make(map[string]int, len(yearRowStates)),
		}
		for i, state := range yearRowStates {
			rec.States[state] = row[i+2]
		}
		out = append(out, rec)
	}
	return out
}

// TrackedStates returns the states carried in the time series, in display order.
func TrackedStates() []string {
	return append([]string(nil), trackedStates...)
}

// IsTracked reports whether state has time-series data.
func IsTracked(state string) bool {
	for _, s := range trackedStates {
		if s == state {
			return true
		}
	}
	return false
}

// Demographics returns a copy of a demographic table. DemographicAll and unknown types map to age.
func Demographics(dt model.DemographicType) []model.DemographicEntry {
	entries, ok := demographics[dt]
	if !ok {
		entries = demographics[model.DemographicAge]
	}
	return append([]model.DemographicEntry(nil), entries...)
}

// BaseCorrelations returns a copy of the national correlation rows.
func BaseCorrelations() []model.CorrelationEntry {
	return append([]model.CorrelationEntry(nil), baseCorrelations...)
}

// EnvironmentalFor returns the environmental factors for a state, with national defaults.
func EnvironmentalFor(state string) model.Environmental {
	if env, ok := environmental[state]; ok {
		return env
	}
	return defaultEnvironmental
}

// DemographicSnapshot returns the demographic percentages shown in state details.
func DemographicSnapshot() model.DemographicSnapshot {
	return demographicSnapshot
}
