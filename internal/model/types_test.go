package model

import "testing"

func TestParseMetric(t *testing.T) {
	tests := map[string]Metric{
		"Cases":          MetricCases,
		"cases":          MetricCases,
		"case-rate":      MetricCaseRate,
		"Case_Rate":      MetricCaseRate,
		"mortality rate": MetricMortalityRate,
		"Mortality_Rate": MetricMortalityRate,
	}
	for input, want := range tests {
		got, err := ParseMetric(input)
		if err != nil {
			t.Fatalf("ParseMetric(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseMetric(%q) = %q, want %q", input, got, want)
		}
	}
	if _, err := ParseMetric("deaths"); err == nil {
		t.Fatalf("expected error for unknown metric")
	}
}

func TestMetricFormat(t *testing.T) {
	if got := MetricCases.Format(45); got != "45" {
		t.Fatalf("unexpected cases format: %q", got)
	}
	if got := MetricCaseRate.Format(0.9); got != "0.90" {
		t.Fatalf("unexpected rate format: %q", got)
	}
}

func TestMetricNextWraps(t *testing.T) {
	if MetricMortalityRate.Next() != MetricCases {
		t.Fatalf("expected wrap to cases")
	}
	if Metric("bogus").Next() != MetricCases {
		t.Fatalf("expected unknown metric to reset to cases")
	}
}

func TestYearRangeValidate(t *testing.T) {
	valid := []YearRange{{1993, 2022}, {2000, 2000}}
	for _, r := range valid {
		if err := r.Validate(); err != nil {
			t.Fatalf("expected %v valid: %v", r, err)
		}
	}
	invalid := []YearRange{{1992, 2000}, {2000, 2023}, {2010, 2000}}
	for _, r := range invalid {
		if err := r.Validate(); err == nil {
			t.Fatalf("expected %v invalid", r)
		}
	}
}

func TestStateRecordValue(t *testing.T) {
	rec := StateRecord{Cases: 45, CaseRate: 0.9, MortalityRate: 42.2}
	if v, ok := rec.Value(MetricCaseRate); !ok || v != 0.9 {
		t.Fatalf("unexpected case rate: %v %v", v, ok)
	}
	if _, ok := rec.Value("Deaths"); ok {
		t.Fatalf("expected unknown metric to be missing")
	}
}

func TestSignificanceFor(t *testing.T) {
	if SignificanceFor(0.049) != Significant {
		t.Fatalf("expected significant below threshold")
	}
	if SignificanceFor(0.05) != NotSignificant {
		t.Fatalf("expected not significant at threshold")
	}
}
