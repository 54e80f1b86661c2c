package geo

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/hpsdash/internal/model"
)

// NeutralFill colors regions without data.
const NeutralFill = "#EEEEEE"

// Buckets is the number of color classes.
const Buckets = 7

var ramps = map[model.Metric][Buckets]string{
	model.MetricCases:         {"#cceeff", "#99ddff", "#66ccff", "#33bbff", "#00aaff", "#0088cc", "#006699"},
	model.MetricCaseRate:      {"#ffeecc", "#ffdd99", "#ffcc66", "#ffbb33", "#ffaa00", "#cc8800", "#996600"},
	model.MetricMortalityRate: {"#ffcccc", "#ff9999", "#ff6666", "#ff3333", "#ff0000", "#cc0000", "#990000"},
}

// Ramp returns the low-to-high colors for a metric. Unknown metrics use the
// mortality ramp.
func Ramp(m model.Metric) []string {
	r, ok := ramps[m]
	if !ok {
		r = ramps[model.MetricMortalityRate]
	}
	return r[:]
}

// Quantizer splits [min, max] into equal-width buckets.
type Quantizer struct {
	min, max float64
	n        int
}

// NewQuantizer builds a quantizer with n buckets over [lo, hi].
func NewQuantizer(lo, hi float64, n int) Quantizer {
	if n < 1 {
		n = 1
	}
	return Quantizer{min: lo, max: hi, n: n}
}

// Bucket returns the bucket index of v. Values at or beyond a bucket's upper
// threshold fall into the next bucket; a degenerate domain maps to the top.
func (q Quantizer) Bucket(v float64) int {
	count := 0
	for i := 0; i < q.n-1; i++ {
		threshold := (float64(i+1)*q.max - float64(i+1-q.n)*q.min) / float64(q.n)
		if v >= threshold {
			count++
		}
	}
	return count
}

// Choropleth assigns fill colors to regions for one metric.
type Choropleth struct {
	Metric  model.Metric
	records map[string]model.StateRecord
	quant   Quantizer
	ramp    []string
}

// NewChoropleth builds the shading for records under metric.
func NewChoropleth(records []model.StateRecord, metric model.Metric) Choropleth {
	c := Choropleth{
		Metric:  metric,
		records: make(map[string]model.StateRecord, len(records)),
		ramp:    Ramp(metric),
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, rec := range records {
		v, ok := rec.Value(metric)
		if !ok {
			continue
		}
		c.records[rec.State] = rec
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if len(c.records) > 0 {
		c.quant = NewQuantizer(lo, hi, Buckets)
	}
	return c
}

// Record returns the data behind a region.
func (c Choropleth) Record(state string) (model.StateRecord, bool) {
	rec, ok := c.records[state]
	return rec, ok
}

// Fill returns a region's color.
func (c Choropleth) Fill(state string) string {
	rec, ok := c.records[state]
	if !ok {
		return NeutralFill
	}
	v, _ := rec.Value(c.Metric)
	return c.ramp[c.quant.Bucket(v)]
}

// Tooltip returns the hover text lines for a region, or nil without data.
func (c Choropleth) Tooltip(state string) []string {
	rec, ok := c.records[state]
	if !ok {
		return nil
	}
	switch c.Metric {
	case model.MetricCaseRate:
		return []string{
			rec.State,
			fmt.Sprintf("Case Rate: %.2f per 100,000", rec.CaseRate),
			fmt.Sprintf("Cases: %d", rec.Cases),
			"Population: " + humanize.Comma(int64(rec.Population)),
		}
	case model.MetricMortalityRate:
		return []string{
			rec.State,
			fmt.Sprintf("Mortality Rate: %.2f%%", rec.MortalityRate),
			fmt.Sprintf("Deaths: %d", rec.Deaths),
			fmt.Sprintf("Cases: %d", rec.Cases),
		}
	}
	return []string{
		rec.State,
		fmt.Sprintf("Cases: %d", rec.Cases),
		fmt.Sprintf("Case Rate: %.2f per 100,000", rec.CaseRate),
		"Population: " + humanize.Comma(int64(rec.Population)),
	}
}
