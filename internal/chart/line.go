package chart

import (
	"fmt"
	"sort"
	"strings"
)

// Point is one marker of a line series.
type Point struct {
	Key   string
	X, Y  float64
	Value float64
}

// LineSeries is one colored path of a line chart.
type LineSeries struct {
	Name   string
	Color  string
	Points []Point
}

// Path returns the SVG path data connecting the series' points.
func (s LineSeries) Path() string {
	var b strings.Builder
	for i, p := range s.Points {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		fmt.Fprintf(&b, "%.2f %.2f", p.X, p.Y)
	}
	return b.String()
}

// LineChart is the laid-out geometry of a multi-series line chart.
type LineChart struct {
	Width, Height float64
	Margin        Margin
	Series        []LineSeries
	XTicks        []Tick
	YTicks        []Tick
	MaxValue      float64

	format func(float64) string
	x      BandScale
}

// LayoutLines lays out one series per category over a shared band axis.
// The value axis spans [0, max] across every series.
func LayoutLines(rows []Row, categories []string, opts Options) LineChart {
	opts = opts.withDefaults(Palette)
	iw, ih := opts.innerWidth(), opts.innerHeight()
	x := NewBandScale(rowKeys(rows), 0, iw, BandPadding)
	maxV := maxValue(rows, categories)
	y := NewLinearScale(0, maxV, ih, 0)

	chart := LineChart{
		Width:    opts.Width,
		Height:   opts.Height,
		Margin:   opts.Margin,
		MaxValue: maxV,
		XTicks:   xTicks(x),
		YTicks:   yTicks(y, opts.Format),
		format:   opts.Format,
		x:        x,
	}
	for ci, c := range categories {
		series := LineSeries{Name: c, Color: opts.color(ci), Points: make([]Point, 0, len(rows))}
		for _, r := range rows {
			raw, ok := r.Values[c]
			if !ok {
				continue
			}
			v := nonNegative(raw)
			cx, _ := x.Center(r.Key)
			series.Points = append(series.Points, Point{Key: r.Key, X: cx, Y: y.Map(v), Value: v})
		}
		chart.Series = append(chart.Series, series)
	}
	return chart
}

// Hover returns every series value at the key nearest to px, sorted
// descending by value.
func (c LineChart) Hover(px float64) (Tooltip, bool) {
	key, ok := c.x.Nearest(px)
	if !ok {
		return Tooltip{}, false
	}
	return c.HoverKey(key)
}

// HoverKey returns every series value at key, sorted descending by value.
func (c LineChart) HoverKey(key string) (Tooltip, bool) {
	cx, ok := c.x.Center(key)
	if !ok {
		return Tooltip{}, false
	}
	tip := Tooltip{Key: key, X: cx}
	minY := c.Height
	for _, s := range c.Series {
		for _, p := range s.Points {
			if p.Key != key {
				continue
			}
			tip.Entries = append(tip.Entries, TooltipEntry{Name: s.Name, Value: p.Value, Text: c.format(p.Value), Color: s.Color})
			if p.Y < minY {
				minY = p.Y
			}
		}
	}
	tip.Y = minY
	sort.SliceStable(tip.Entries, func(i, j int) bool {
		return tip.Entries[i].Value > tip.Entries[j].Value
	})
	return tip, true
}
