package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Factor", "Correlation", "P-Value"}
	rows := [][]string{
		{"Forest Coverage", "0.720", "0.008"},
		{"Population Density", "-0.450", "0.078"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Factor             Correlation P-Value" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "Forest Coverage          0.720   0.008" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "Population Density      -0.450   0.078" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestDisplayWidthCountsWideRunes(t *testing.T) {
	if got := displayWidth("漢字"); got != 4 {
		t.Fatalf("expected width 4, got %d", got)
	}
	if got := padCell("ab", 4, true); got != "  ab" {
		t.Fatalf("unexpected padding: %q", got)
	}
}
