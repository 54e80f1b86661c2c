package chart

import (
	"fmt"
	"math"
	"sort"
)

// Pie layout constants.
const (
	PiePadAngle       = 0.01
	PieLabelMinAngle  = 0.1
	pieLegendWidth    = 150
	pieCompactLegend  = 100
	pieMargin         = 20
	pieInnerRadiusPct = 0.5
)

// Slice is one pie input entry.
type Slice struct {
	Label string
	Value float64
}

// Arc is one laid-out pie segment. Angles run clockwise from 12 o'clock.
type Arc struct {
	Label      string
	Value      float64
	Percent    float64
	StartAngle float64
	EndAngle   float64
	Color      string
	ShowLabel  bool
	LabelX     float64
	LabelY     float64
}

// LegendItem is one pie legend row.
type LegendItem struct {
	Label   string
	Text    string
	Percent float64
	Color   string
}

// PieChart is the laid-out geometry of a donut chart.
type PieChart struct {
	Width, Height float64
	CenterX       float64
	CenterY       float64
	OuterRadius   float64
	InnerRadius   float64
	Total         float64
	Arcs          []Arc
	Legend        []LegendItem
}

// LayoutPie lays out a donut with arcs proportional to each slice's share of
// the total, ordered by descending value. Arcs keep input order.
func LayoutPie(slices []Slice, opts Options) PieChart {
	opts = opts.withDefaults(Palette)
	legendWidth := float64(pieLegendWidth)
	if opts.Compact {
		legendWidth = pieCompactLegend
	}
	iw := math.Max(0, opts.Width-legendWidth-2*pieMargin)
	ih := math.Max(0, opts.Height-2*pieMargin)
	radius := math.Min(iw, ih) / 2

	chart := PieChart{
		Width:       opts.Width,
		Height:      opts.Height,
		CenterX:     pieMargin + iw/2,
		CenterY:     pieMargin + ih/2,
		OuterRadius: radius,
		InnerRadius: radius * pieInnerRadiusPct,
	}
	if len(slices) == 0 {
		return chart
	}

	values := make([]float64, len(slices))
	for i, s := range slices {
		values[i] = nonNegative(s.Value)
		chart.Total += values[i]
	}

	order := make([]int, len(slices))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] > values[order[b]]
	})

	n := float64(len(slices))
	pad := math.Min(2*math.Pi/n, PiePadAngle)
	k := 0.0
	if chart.Total > 0 {
		k = (2*math.Pi - n*pad) / chart.Total
	}
	arcs := make([]Arc, len(slices))
	a0 := 0.0
	for _, idx := range order {
		a1 := a0 + values[idx]*k + pad
		arcs[idx] = Arc{
			Label:      slices[idx].Label,
			Value:      values[idx],
			Percent:    Percent(values[idx], chart.Total),
			StartAngle: a0,
			EndAngle:   a1,
			Color:      opts.color(idx),
			ShowLabel:  a1-a0 >= PieLabelMinAngle,
		}
		mid := (a0 + a1) / 2
		r := (chart.InnerRadius + chart.OuterRadius) / 2
		arcs[idx].LabelX, arcs[idx].LabelY = polar(chart.CenterX, chart.CenterY, r, mid)
		a0 = a1
	}
	chart.Arcs = arcs

	for _, arc := range arcs {
		chart.Legend = append(chart.Legend, LegendItem{
			Label:   arc.Label,
			Text:    fmt.Sprintf("%s: %s (%.1f%%)", arc.Label, opts.Format(arc.Value), arc.Percent),
			Percent: arc.Percent,
			Color:   arc.Color,
		})
	}
	return chart
}

// Percent returns v as a percentage of total, clamped to [0,100]. A zero
// total yields zero.
func Percent(v, total float64) float64 {
	if total <= 0 {
		return 0
	}
	p := v / total * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Path returns the SVG path of an arc with the pad angle split on both sides.
func (c PieChart) Path(a Arc) string {
	start := a.StartAngle
	end := a.EndAngle
	if end-start > PiePadAngle {
		start += PiePadAngle / 2
		end -= PiePadAngle / 2
	}
	if end <= start || c.OuterRadius <= 0 {
		return ""
	}
	large := 0
	if end-start > math.Pi {
		large = 1
	}
	ox0, oy0 := polar(c.CenterX, c.CenterY, c.OuterRadius, start)
	ox1, oy1 := polar(c.CenterX, c.CenterY, c.OuterRadius, end)
	ix1, iy1 := polar(c.CenterX, c.CenterY, c.InnerRadius, end)
	ix0, iy0 := polar(c.CenterX, c.CenterY, c.InnerRadius, start)
	return fmt.Sprintf("M%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 0 %.2f %.2f Z",
		ox0, oy0, c.OuterRadius, c.OuterRadius, large, ox1, oy1,
		ix1, iy1, c.InnerRadius, c.InnerRadius, large, ix0, iy0)
}

// Hover returns the tooltip for the arc under (px, py).
func (c PieChart) Hover(px, py float64, format func(float64) string) (Tooltip, bool) {
	dx, dy := px-c.CenterX, py-c.CenterY
	dist := math.Hypot(dx, dy)
	if dist < c.InnerRadius || dist > c.OuterRadius {
		return Tooltip{}, false
	}
	angle := math.Atan2(dx, -dy)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	if format == nil {
		format = formatDefault
	}
	for _, a := range c.Arcs {
		if angle >= a.StartAngle && angle < a.EndAngle {
			return Tooltip{
				Key: a.Label,
				X:   px,
				Y:   py,
				Entries: []TooltipEntry{{
					Name:  a.Label,
					Value: a.Value,
					Text:  format(a.Value),
					Color: a.Color,
				}},
			}, true
		}
	}
	return Tooltip{}, false
}

func polar(cx, cy, r, angle float64) (float64, float64) {
	return cx + r*math.Sin(angle), cy - r*math.Cos(angle)
}
