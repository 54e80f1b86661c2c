package geo

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strings"
)

const (
	svgCell   = 48
	svgGap    = 4
	svgMargin = 20
	svgLegend = 60
)

// WriteSVG renders the choropleth as a tile map with a Low to High legend.
func (c Choropleth) WriteSVG(w io.Writer, title string) error {
	width := svgMargin*2 + GridCols*svgCell
	height := svgMargin*2 + GridRows*svgCell + svgLegend
	bw := bufio.NewWriter(w)
	var werr error
	printf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(bw, format, args...)
	}

	printf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif" font-size="12">`+"\n",
		width, height, width, height)
	printf(`<rect width="100%%" height="100%%" fill="#ffffff"/>` + "\n")
	if title != "" {
		printf(`<text x="%d" y="%d" font-size="14" font-weight="bold">%s</text>`+"\n", svgMargin, svgMargin-4, html.EscapeString(title))
	}
	for _, t := range tiles {
		x := svgMargin + t.Col*svgCell
		y := svgMargin + t.Row*svgCell
		size := svgCell - svgGap
		tip := c.Tooltip(t.Name)
		if tip == nil {
			tip = []string{t.Name}
		}
		printf(`<g><title>%s</title>`, html.EscapeString(strings.Join(tip, "\n")))
		printf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s" stroke="#ffffff"/>`, x, y, size, size, c.Fill(t.Name))
		printf(`<text x="%d" y="%d" text-anchor="middle">%s</text></g>`+"\n", x+size/2, y+size/2+4, t.Abbr)
	}

	legendY := svgMargin + GridRows*svgCell + 10
	printf(`<text x="%d" y="%d" font-weight="bold">%s</text>`+"\n", svgMargin, legendY, html.EscapeString(c.Metric.Label()))
	swatch := 24
	for i, col := range c.ramp {
		printf(`<rect x="%d" y="%d" width="%d" height="10" fill="%s"/>`+"\n", svgMargin+i*swatch, legendY+6, swatch, col)
	}
	printf(`<text x="%d" y="%d">Low</text>`+"\n", svgMargin, legendY+30)
	printf(`<text x="%d" y="%d" text-anchor="end">High</text>`+"\n", svgMargin+len(c.ramp)*swatch, legendY+30)
	printf("</svg>\n")
	if werr != nil {
		return fmt.Errorf("failed to write map svg: %w", werr)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush map svg: %w", err)
	}
	return nil
}
