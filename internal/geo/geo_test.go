package geo

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/hpsdash/internal/dataset"
	"github.com/verte-zerg/hpsdash/internal/model"
)

func TestTilesCoverEveryState(t *testing.T) {
	for _, state := range dataset.States() {
		if _, ok := TileByName(state); !ok {
			t.Fatalf("missing tile for %s", state)
		}
	}
	seen := map[[2]int]string{}
	for _, tile := range Tiles() {
		cell := [2]int{tile.Row, tile.Col}
		if other, ok := seen[cell]; ok {
			t.Fatalf("%s and %s share a cell", tile.Name, other)
		}
		seen[cell] = tile.Name
		if tile.Row >= GridRows || tile.Col >= GridCols {
			t.Fatalf("%s outside the grid", tile.Name)
		}
	}
}

func TestQuantizerBuckets(t *testing.T) {
	q := NewQuantizer(0, 70, 7)
	tests := map[float64]int{0: 0, 9.99: 0, 10: 1, 35: 3, 69.9: 6, 70: 6, 100: 6, -5: 0}
	for v, want := range tests {
		if got := q.Bucket(v); got != want {
			t.Fatalf("Bucket(%v) = %d, want %d", v, got, want)
		}
	}
	if got := NewQuantizer(5, 5, 7).Bucket(5); got != 6 {
		t.Fatalf("degenerate domain should map to top bucket, got %d", got)
	}
}

func TestChoroplethFill(t *testing.T) {
	c := NewChoropleth(dataset.StateRecords(), model.MetricCases)
	ramp := Ramp(model.MetricCases)
	if got := c.Fill("New Mexico"); got != ramp[6] {
		t.Fatalf("max state should be darkest, got %s", got)
	}
	if got := c.Fill("California"); got != ramp[0] {
		t.Fatalf("min state should be lightest, got %s", got)
	}
	if got := c.Fill("Ohio"); got != NeutralFill {
		t.Fatalf("state without data should be neutral, got %s", got)
	}
	empty := NewChoropleth(nil, model.MetricCases)
	if got := empty.Fill("New Mexico"); got != NeutralFill {
		t.Fatalf("empty data should be neutral, got %s", got)
	}
}

func TestChoroplethRampPerMetric(t *testing.T) {
	rate := NewChoropleth(dataset.StateRecords(), model.MetricCaseRate)
	if got := rate.Fill("New Mexico"); got != "#996600" {
		t.Fatalf("unexpected case-rate fill %s", got)
	}
	mort := NewChoropleth(dataset.StateRecords(), model.MetricMortalityRate)
	if got := mort.Fill("California"); got != "#ffcccc" {
		t.Fatalf("unexpected mortality fill %s", got)
	}
}

func TestChoroplethTooltip(t *testing.T) {
	c := NewChoropleth(dataset.StateRecords(), model.MetricCases)
	got := c.Tooltip("California")
	if len(got) != 4 || got[3] != "Population: 39,000,000" {
		t.Fatalf("unexpected tooltip %q", got)
	}
	mort := NewChoropleth(dataset.StateRecords(), model.MetricMortalityRate)
	if got := mort.Tooltip("Colorado"); got[1] != "Mortality Rate: 42.20%" {
		t.Fatalf("unexpected mortality tooltip %q", got)
	}
	if c.Tooltip("Ohio") != nil {
		t.Fatalf("expected no tooltip without data")
	}
}

func TestHitTestAndNeighbor(t *testing.T) {
	tile, ok := HitTest(3*10+2, 4*5+1, 10, 5)
	if !ok || tile.Name != "Colorado" {
		t.Fatalf("unexpected hit %+v %v", tile, ok)
	}
	if _, ok := HitTest(0, 5*1+1, 10, 5); ok {
		t.Fatalf("expected empty cell")
	}
	co, _ := TileByName("Colorado")
	if got := Neighbor(co, 1, 0); got.Name != "New Mexico" {
		t.Fatalf("expected New Mexico below Colorado, got %s", got.Name)
	}
	ak, _ := TileByName("Alaska")
	if got := Neighbor(ak, 0, -1); got.Name != "Alaska" {
		t.Fatalf("expected to stay at the edge, got %s", got.Name)
	}
	if got := Neighbor(ak, 0, 1); got.Name != "Maine" {
		t.Fatalf("expected to skip empty cells, got %s", got.Name)
	}
}

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	c := NewChoropleth(dataset.StateRecords(), model.MetricCases)
	if err := c.WriteSVG(&buf, "HPS Cases"); err != nil {
		t.Fatalf("write svg: %v", err)
	}
	out := buf.String()
	if strings.Count(out, "<g><title>") != len(Tiles()) {
		t.Fatalf("expected one group per tile")
	}
	if !strings.Contains(out, `fill="#006699"`) || !strings.Contains(out, ">Low<") {
		t.Fatalf("expected ramp colors and legend")
	}
}
