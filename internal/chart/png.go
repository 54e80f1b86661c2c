package chart

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// PNG rendering goes through go-chart, which rejects empty inputs; those
// produce a blank image instead.

// WriteBarPNG renders a single-category bar chart as PNG.
func WriteBarPNG(w io.Writer, title string, rows []Row, category string, opts Options) error {
	opts = opts.withDefaults([]string{BarColor})
	bars := make([]gochart.Value, 0, len(rows))
	for _, r := range rows {
		bars = append(bars, gochart.Value{
			Label: r.Key,
			Value: nonNegative(r.Values[category]),
			Style: gochart.Style{FillColor: hexColor(opts.color(0)), StrokeColor: hexColor(opts.color(0))},
		})
	}
	maxV := maxValue(rows, []string{category})
	if len(bars) == 0 || maxV == 0 {
		return writeBlankPNG(w, opts)
	}
	// Bars share a [0, max] axis; go-chart otherwise fits the axis to the data.
	bc := gochart.BarChart{
		Title:    title,
		Width:    int(opts.Width),
		Height:   int(opts.Height),
		BarWidth: barPixelWidth(len(bars), opts),
		Bars:     bars,
		YAxis:    gochart.YAxis{Range: &gochart.ContinuousRange{Min: 0, Max: maxV}},
	}
	if err := bc.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("failed to render bar chart: %w", err)
	}
	return nil
}

// WriteLinePNG renders a multi-series line chart as PNG.
func WriteLinePNG(w io.Writer, title, yLabel string, rows []Row, categories []string, opts Options) error {
	opts = opts.withDefaults(Palette)
	if len(rows) < 2 || len(categories) == 0 {
		return writeBlankPNG(w, opts)
	}
	ticks := make([]gochart.Tick, len(rows))
	for i, r := range rows {
		ticks[i] = gochart.Tick{Value: float64(i), Label: r.Key}
	}
	series := make([]gochart.Series, 0, len(categories))
	for ci, c := range categories {
		xs := make([]float64, 0, len(rows))
		ys := make([]float64, 0, len(rows))
		for i, r := range rows {
			v, ok := r.Values[c]
			if !ok {
				continue
			}
			xs = append(xs, float64(i))
			ys = append(ys, nonNegative(v))
		}
		if len(xs) < 2 {
			continue
		}
		col := hexColor(opts.color(ci))
		series = append(series, gochart.ContinuousSeries{
			Name:    c,
			XValues: xs,
			YValues: ys,
			Style:   gochart.Style{StrokeColor: col, StrokeWidth: 2, DotColor: col, DotWidth: 3},
		})
	}
	if len(series) == 0 {
		return writeBlankPNG(w, opts)
	}
	maxV := maxValue(rows, categories)
	if maxV == 0 {
		maxV = 1
	}
	ch := gochart.Chart{
		Title:      title,
		Width:      int(opts.Width),
		Height:     int(opts.Height),
		Background: gochart.Style{Padding: gochart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20}},
		XAxis:      gochart.XAxis{Ticks: ticks},
		YAxis:      gochart.YAxis{Name: yLabel, Range: &gochart.ContinuousRange{Min: 0, Max: maxV}},
		Series:     series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("failed to render line chart: %w", err)
	}
	return nil
}

// WritePiePNG renders a pie chart as PNG. Zero-valued slices are omitted.
func WritePiePNG(w io.Writer, title string, slices []Slice, opts Options) error {
	opts = opts.withDefaults(Palette)
	total := 0.0
	for _, s := range slices {
		total += nonNegative(s.Value)
	}
	values := make([]gochart.Value, 0, len(slices))
	for i, s := range slices {
		v := nonNegative(s.Value)
		if v == 0 {
			continue
		}
		values = append(values, gochart.Value{
			Label: fmt.Sprintf("%s %.1f%%", s.Label, Percent(v, total)),
			Value: v,
			Style: gochart.Style{FillColor: hexColor(opts.color(i))},
		})
	}
	if len(values) == 0 {
		return writeBlankPNG(w, opts)
	}
	pc := gochart.PieChart{
		Title:  title,
		Width:  int(opts.Width),
		Height: int(opts.Height),
		Values: values,
	}
	if err := pc.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("failed to render pie chart: %w", err)
	}
	return nil
}

func barPixelWidth(n int, opts Options) int {
	if n <= 0 {
		return 0
	}
	w := int(opts.innerWidth() / float64(n) * (1 - BandPadding))
	if w < 1 {
		return 1
	}
	return w
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func writeBlankPNG(w io.Writer, opts Options) error {
	img := image.NewRGBA(image.Rect(0, 0, max(1, int(opts.Width)), max(1, int(opts.Height))))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}
