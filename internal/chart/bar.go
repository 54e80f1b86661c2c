package chart

import "strconv"

// Bar is one rectangle of a bar chart, in chart coordinates.
type Bar struct {
	Key      string
	Category string
	Value    float64
	X, Y     float64
	Width    float64
	Height   float64
	Color    string
}

// BarChart is the laid-out geometry of a bar chart.
type BarChart struct {
	Width, Height float64
	Margin        Margin
	Bars          []Bar
	XTicks        []Tick
	YTicks        []Tick
	MaxValue      float64

	format func(float64) string
	x      BandScale
}

// LayoutBars lays out one bar per row and category. Bars of several
// categories share their row's band.
func LayoutBars(rows []Row, categories []string, opts Options) BarChart {
	opts = opts.withDefaults([]string{BarColor})
	iw, ih := opts.innerWidth(), opts.innerHeight()
	x := NewBandScale(rowKeys(rows), 0, iw, BandPadding)
	maxV := maxValue(rows, categories)
	y := NewLinearScale(0, maxV, ih, 0)

	chart := BarChart{
		Width:    opts.Width,
		Height:   opts.Height,
		Margin:   opts.Margin,
		MaxValue: maxV,
		XTicks:   xTicks(x),
		YTicks:   yTicks(y, opts.Format),
		format:   opts.Format,
		x:        x,
	}
	if len(categories) == 0 {
		return chart
	}
	barWidth := x.Bandwidth() / float64(len(categories))
	for _, r := range rows {
		x0, _ := x.Position(r.Key)
		for ci, c := range categories {
			v := nonNegative(r.Values[c])
			top := y.Map(v)
			chart.Bars = append(chart.Bars, Bar{
				Key:      r.Key,
				Category: c,
				Value:    v,
				X:        x0 + barWidth*float64(ci),
				Y:        top,
				Width:    barWidth,
				Height:   ih - top,
				Color:    opts.color(ci),
			})
		}
	}
	return chart
}

// Hover returns the tooltip for the bar under (px, py), in plot-area
// coordinates.
func (c BarChart) Hover(px, py float64) (Tooltip, bool) {
	for _, b := range c.Bars {
		if px < b.X || px > b.X+b.Width || py < b.Y || py > b.Y+b.Height {
			continue
		}
		return Tooltip{
			Key: b.Key,
			X:   b.X + b.Width/2,
			Y:   b.Y,
			Entries: []TooltipEntry{{
				Name:  b.Category,
				Value: b.Value,
				Text:  c.format(b.Value),
				Color: b.Color,
			}},
		}, true
	}
	return Tooltip{}, false
}

// HoverKey returns the tooltip for every bar of a row.
func (c BarChart) HoverKey(key string) (Tooltip, bool) {
	var tip Tooltip
	for _, b := range c.Bars {
		if b.Key != key {
			continue
		}
		if tip.Key == "" {
			tip.Key = key
			tip.X = b.X + b.Width/2
			tip.Y = b.Y
		}
		tip.Entries = append(tip.Entries, TooltipEntry{Name: b.Category, Value: b.Value, Text: c.format(b.Value), Color: b.Color})
	}
	return tip, tip.Key != ""
}

func formatDefault(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
