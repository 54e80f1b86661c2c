package stats

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPlotWidthFor(t *testing.T) {
	axisWidth := axisLabelWidth + utf8.RuneCountInString(axisSeparator)
	total := 80
	expected := total - axisWidth
	if expected < minPlotWidth {
		expected = minPlotWidth
	}
	if got := PlotWidthFor(total); got != expected {
		t.Fatalf("expected width %d, got %d", expected, got)
	}
	if got := PlotWidthFor(0); got != minPlotWidth {
		t.Fatalf("expected min width %d, got %d", minPlotWidth, got)
	}
}

func TestXAxisLineSpansPlot(t *testing.T) {
	line := xAxisLine([]string{"1993", "2022"}, 20)
	pad := axisLabelWidth + utf8.RuneCountInString(axisSeparator)
	if utf8.RuneCountInString(line) != pad+20 {
		t.Fatalf("expected line to span the plot, got %q", line)
	}
	if !strings.HasSuffix(line, "2022") {
		t.Fatalf("expected last label at the end, got %q", line)
	}
}
