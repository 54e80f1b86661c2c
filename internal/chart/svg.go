package chart

import (
	"bufio"
	"fmt"
	"html"
	"io"
)

type svgWriter struct {
	w   *bufio.Writer
	err error
}

func newSVGWriter(w io.Writer, width, height float64) *svgWriter {
	s := &svgWriter{w: bufio.NewWriter(w)}
	s.printf(`<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f" font-family="sans-serif" font-size="12">`+"\n",
		width, height, width, height)
	s.printf(`<rect width="100%%" height="100%%" fill="#ffffff"/>` + "\n")
	return s
}

func (s *svgWriter) printf(format string, args ...any) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, args...)
}

func (s *svgWriter) text(x, y float64, anchor, value string) {
	s.printf(`<text x="%.2f" y="%.2f" text-anchor="%s">%s</text>`+"\n", x, y, anchor, html.EscapeString(value))
}

func (s *svgWriter) close() error {
	s.printf("</svg>\n")
	if s.err != nil {
		return fmt.Errorf("failed to write svg: %w", s.err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush svg: %w", err)
	}
	return nil
}

func (s *svgWriter) axes(m Margin, width, height float64, xTicks, yTicks []Tick) {
	ih := height - m.Top - m.Bottom
	iw := width - m.Left - m.Right
	s.printf(`<g transform="translate(%.2f,%.2f)">`+"\n", m.Left, m.Top)
	s.printf(`<line x1="0" y1="%.2f" x2="%.2f" y2="%.2f" stroke="#888"/>`+"\n", ih, iw, ih)
	s.printf(`<line x1="0" y1="0" x2="0" y2="%.2f" stroke="#888"/>`+"\n", ih)
	for _, t := range yTicks {
		s.printf(`<line x1="0" y1="%.2f" x2="%.2f" y2="%.2f" stroke="#eee"/>`+"\n", t.Pos, iw, t.Pos)
		s.text(-6, t.Pos+4, "end", t.Label)
	}
	for _, t := range xTicks {
		s.text(t.Pos, ih+16, "middle", t.Label)
	}
	s.printf("</g>\n")
}

// WriteSVG renders the bar chart as a standalone SVG document.
func (c BarChart) WriteSVG(w io.Writer) error {
	s := newSVGWriter(w, c.Width, c.Height)
	s.axes(c.Margin, c.Width, c.Height, c.XTicks, c.YTicks)
	s.printf(`<g transform="translate(%.2f,%.2f)">`+"\n", c.Margin.Left, c.Margin.Top)
	for _, b := range c.Bars {
		s.printf(`<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>%s: %s</title></rect>`+"\n",
			b.X, b.Y, b.Width, b.Height, b.Color, html.EscapeString(b.Key), html.EscapeString(c.format(b.Value)))
	}
	s.printf("</g>\n")
	return s.close()
}

// WriteSVG renders the line chart as a standalone SVG document.
func (c LineChart) WriteSVG(w io.Writer) error {
	s := newSVGWriter(w, c.Width, c.Height)
	s.axes(c.Margin, c.Width, c.Height, c.XTicks, c.YTicks)
	s.printf(`<g transform="translate(%.2f,%.2f)">`+"\n", c.Margin.Left, c.Margin.Top)
	for _, series := range c.Series {
		if len(series.Points) == 0 {
			continue
		}
		s.printf(`<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`+"\n", series.Path(), series.Color)
		for _, p := range series.Points {
			s.printf(`<circle cx="%.2f" cy="%.2f" r="3" fill="%s"><title>%s %s: %s</title></circle>`+"\n",
				p.X, p.Y, series.Color, html.EscapeString(p.Key), html.EscapeString(series.Name), html.EscapeString(c.format(p.Value)))
		}
	}
	s.printf("</g>\n")
	for i, series := range c.Series {
		y := c.Margin.Top + float64(i)*16
		x := c.Width - c.Margin.Right - 110
		s.printf(`<rect x="%.2f" y="%.2f" width="10" height="10" fill="%s"/>`+"\n", x, y, series.Color)
		s.text(x+14, y+9, "start", series.Name)
	}
	return s.close()
}

// WriteSVG renders the donut chart with its legend as a standalone SVG document.
func (c PieChart) WriteSVG(w io.Writer) error {
	s := newSVGWriter(w, c.Width, c.Height)
	for _, a := range c.Arcs {
		path := c.Path(a)
		if path == "" {
			continue
		}
		s.printf(`<path d="%s" fill="%s"><title>%s</title></path>`+"\n", path, a.Color, html.EscapeString(a.Label))
		if a.ShowLabel {
			s.text(a.LabelX, a.LabelY+4, "middle", fmt.Sprintf("%.0f%%", a.Percent))
		}
	}
	legendX := c.CenterX + c.OuterRadius + pieMargin
	for i, item := range c.Legend {
		y := float64(pieMargin) + float64(i)*18
		s.printf(`<rect x="%.2f" y="%.2f" width="10" height="10" fill="%s"/>`+"\n", legendX, y, item.Color)
		s.text(legendX+14, y+9, "start", item.Text)
	}
	return s.close()
}
