// Package chart maps data rows to bar, line and pie geometry.
package chart

import "math"

// BandPadding is the inner and outer padding of categorical axes.
const BandPadding = 0.3

// BandScale maps discrete keys to evenly spaced bands over a range.
type BandScale struct {
	keys      []string
	index     map[string]int
	start     float64
	step      float64
	bandwidth float64
}

// NewBandScale lays keys over [r0, r1] with equal inner and outer padding.
func NewBandScale(keys []string, r0, r1, padding float64) BandScale {
	s := BandScale{keys: append([]string(nil), keys...), index: make(map[string]int, len(keys))}
	for i, k := range keys {
		if _, ok := s.index[k]; !ok {
			s.index[k] = i
		}
	}
	n := float64(len(keys))
	if n == 0 || r1 <= r0 {
		s.start = r0
		return s
	}
	s.step = (r1 - r0) / math.Max(1, n-padding+padding*2)
	s.start = r0 + (r1-r0-s.step*(n-padding))*0.5
	s.bandwidth = s.step * (1 - padding)
	return s
}

// Position returns the start of a key's band.
func (s BandScale) Position(key string) (float64, bool) {
	i, ok := s.index[key]
	if !ok {
		return 0, false
	}
	return s.start + s.step*float64(i), true
}

// Center returns the midpoint of a key's band.
func (s BandScale) Center(key string) (float64, bool) {
	x, ok := s.Position(key)
	return x + s.bandwidth/2, ok
}

// Bandwidth returns the width of every band.
func (s BandScale) Bandwidth() float64 {
	return s.bandwidth
}

// Keys returns the scale's domain.
func (s BandScale) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Nearest returns the key whose band center is closest to x.
func (s BandScale) Nearest(x float64) (string, bool) {
	if len(s.keys) == 0 {
		return "", false
	}
	best := 0
	bestDist := math.Inf(1)
	for i := range s.keys {
		c := s.start + s.step*float64(i) + s.bandwidth/2
		if d := math.Abs(c - x); d < bestDist {
			best, bestDist = i, d
		}
	}
	return s.keys[best], true
}

// LinearScale maps a continuous domain onto a range.
type LinearScale struct {
	d0, d1 float64
	r0, r1 float64
}

// NewLinearScale creates a scale from [d0, d1] to [r0, r1].
func NewLinearScale(d0, d1, r0, r1 float64) LinearScale {
	return LinearScale{d0: d0, d1: d1, r0: r0, r1: r1}
}

// Map projects v. A degenerate domain maps everything to the range start.
func (s LinearScale) Map(v float64) float64 {
	span := s.d1 - s.d0
	if span == 0 || math.IsNaN(span) {
		return s.r0
	}
	return s.r0 + (v-s.d0)/span*(s.r1-s.r0)
}

// Domain returns the domain bounds.
func (s LinearScale) Domain() (float64, float64) {
	return s.d0, s.d1
}

// Ticks returns roughly count evenly spaced round values inside the domain.
func (s LinearScale) Ticks(count int) []float64 {
	lo, hi := s.d0, s.d1
	if lo > hi {
		lo, hi = hi, lo
	}
	if count <= 0 || hi == lo {
		return []float64{lo}
	}
	step := tickStep(lo, hi, count)
	if step == 0 || math.IsInf(step, 0) || math.IsNaN(step) {
		return []float64{lo}
	}
	first := math.Ceil(lo/step) * step
	var ticks []float64
	for v := first; v <= hi+step*1e-9; v += step {
		ticks = append(ticks, roundTo(v, step))
	}
	return ticks
}

func tickStep(lo, hi float64, count int) float64 {
	raw := (hi - lo) / float64(count)
	power := math.Pow(10, math.Floor(math.Log10(raw)))
	ratio := raw / power
	switch {
	case ratio >= math.Sqrt(50):
		return power * 10
	case ratio >= math.Sqrt(10):
		return power * 5
	case ratio >= math.Sqrt(2):
		return power * 2
	}
	return power
}

func roundTo(v, step float64) float64 {
	decimals := math.Max(0, -math.Floor(math.Log10(step)))
	p := math.Pow(10, decimals)
	return math.Round(v*p) / p
}

// Margin is the space reserved around a chart's plot area.
type Margin struct {
	Top, Right, Bottom, Left float64
}

// DefaultYAxisWidth is the left margin reserved for value-axis labels.
const DefaultYAxisWidth = 60

// DefaultMargin returns the margins used by cartesian charts.
func DefaultMargin() Margin {
	return Margin{Top: 20, Right: 20, Bottom: 40, Left: DefaultYAxisWidth}
}

// Row is one record of chart input: a key on the categorical axis and a
// value per category.
type Row struct {
	Key    string
	Values map[string]float64
}

// Palette is the ordinal color list for multi-series charts.
var Palette = []string{"#ff6b6b", "#ffa502", "#4bcffa", "#0be881", "#a55eea"}

// BarColor is the fill of single-series bar charts.
const BarColor = "#0000FF"

// Options configures a chart layout.
type Options struct {
	Width   float64
	Height  float64
	Margin  Margin
	Colors  []string
	Format  func(float64) string
	Compact bool
}

func (o Options) withDefaults(colors []string) Options {
	if o.Width <= 0 {
		o.Width = 600
	}
	if o.Height <= 0 {
		o.Height = 300
	}
	if o.Margin == (Margin{}) {
		o.Margin = DefaultMargin()
	}
	if len(o.Colors) == 0 {
		o.Colors = colors
	}
	if o.Format == nil {
		o.Format = func(v float64) string { return formatDefault(v) }
	}
	return o
}

func (o Options) innerWidth() float64 {
	return math.Max(0, o.Width-o.Margin.Left-o.Margin.Right)
}

func (o Options) innerHeight() float64 {
	return math.Max(0, o.Height-o.Margin.Top-o.Margin.Bottom)
}

func (o Options) color(i int) string {
	if len(o.Colors) == 0 {
		return BarColor
	}
	return o.Colors[i%len(o.Colors)]
}

// Tick is a labelled axis position.
type Tick struct {
	Pos   float64
	Label string
}

// TooltipEntry is one series value shown in a tooltip.
type TooltipEntry struct {
	Name  string
	Value float64
	Text  string
	Color string
}

// Tooltip is the hover state of a chart.
type Tooltip struct {
	Key     string
	X, Y    float64
	Entries []TooltipEntry
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

func rowKeys(rows []Row) []string {
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.Key
	}
	return keys
}

func maxValue(rows []Row, categories []string) float64 {
	maxV := 0.0
	for _, r := range rows {
		for _, c := range categories {
			if v := nonNegative(r.Values[c]); v > maxV {
				maxV = v
			}
		}
	}
	return maxV
}

func yTicks(scale LinearScale, format func(float64) string) []Tick {
	_, hi := scale.Domain()
	if hi == 0 {
		return []Tick{{Pos: scale.Map(0), Label: format(0)}}
	}
	values := scale.Ticks(5)
	ticks := make([]Tick, len(values))
	for i, v := range values {
		ticks[i] = Tick{Pos: scale.Map(v), Label: format(v)}
	}
	return ticks
}

func xTicks(scale BandScale) []Tick {
	keys := scale.Keys()
	ticks := make([]Tick, 0, len(keys))
	for _, k := range keys {
		c, _ := scale.Center(k)
		ticks = append(ticks, Tick{Pos: c, Label: k})
	}
	return ticks
}
