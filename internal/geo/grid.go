// Package geo provides the choropleth map: a US tile grid shaded by metric buckets.
package geo

// Tile is one region of the map grid.
type Tile struct {
	Name string
	Abbr string
	Row  int
	Col  int
}

// Grid dimensions.
const (
	GridRows = 8
	GridCols = 12
)

var tiles = []Tile{
	{"Alaska", "AK", 0, 0}, {"Maine", "ME", 0, 11},
	{"Wisconsin", "WI", 1, 6}, {"Vermont", "VT", 1, 10}, {"New Hampshire", "NH", 1, 11},
	{"Washington", "WA", 2, 1}, {"Idaho", "ID", 2, 2}, {"Montana", "MT", 2, 3}, {"North Dakota", "ND", 2, 4},
	{"Minnesota", "MN", 2, 5}, {"Illinois", "IL", 2, 6}, {"Michigan", "MI", 2, 7}, {"New York", "NY", 2, 9},
	{"Massachusetts", "MA", 2, 10},
	{"Oregon", "OR", 3, 1}, {"Nevada", "NV", 3, 2}, {"Wyoming", "WY", 3, 3}, {"South Dakota", "SD", 3, 4},
	{"Iowa", "IA", 3, 5}, {"Indiana", "IN", 3, 6}, {"Ohio", "OH", 3, 7}, {"Pennsylvania", "PA", 3, 8},
	{"New Jersey", "NJ", 3, 9}, {"Connecticut", "CT", 3, 10}, {"Rhode Island", "RI", 3, 11},
	{"California", "CA", 4, 1}, {"Utah", "UT", 4, 2}, {"Colorado", "CO", 4, 3}, {"Nebraska", "NE", 4, 4},
	{"Missouri", "MO", 4, 5}, {"Kentucky", "KY", 4, 6}, {"West Virginia", "WV", 4, 7}, {"Virginia", "VA", 4, 8},
	{"Maryland", "MD", 4, 9}, {"Delaware", "DE", 4, 10},
	{"Arizona", "AZ", 5, 2}, {"New Mexico", "NM", 5, 3}, {"Kansas", "KS", 5, 4}, {"Arkansas", "AR", 5, 5},
	{"Tennessee", "TN", 5, 6}, {"North Carolina", "NC", 5, 7}, {"South Carolina", "SC", 5, 8},
	{"District of Columbia", "DC", 5, 9},
	{"Oklahoma", "OK", 6, 4}, {"Louisiana", "LA", 6, 5}, {"Mississippi", "MS", 6, 6}, {"Alabama", "AL", 6, 7},
	{"Georgia", "GA", 6, 8},
	{"Hawaii", "HI", 7, 0}, {"Texas", "TX", 7, 4}, {"Florida", "FL", 7, 9},
}

var (
	byName = map[string]Tile{}
	byCell = map[[2]int]Tile{}
)

func init() {
	for _, t := range tiles {
		byName[t.Name] = t
		byCell[[2]int{t.Row, t.Col}] = t
	}
}

// Tiles returns every region in row-major order of declaration.
func Tiles() []Tile {
	return append([]Tile(nil), tiles...)
}

// TileByName looks up a region by name.
func TileByName(name string) (Tile, bool) {
	t, ok := byName[name]
	return t, ok
}

// TileAt returns the region at a grid cell.
func TileAt(row, col int) (Tile, bool) {
	t, ok := byCell[[2]int{row, col}]
	return t, ok
}

// Neighbor returns the nearest region from t in direction (dRow, dCol),
// scanning past empty cells. It returns t when nothing lies that way.
func Neighbor(t Tile, dRow, dCol int) Tile {
	if dRow == 0 && dCol == 0 {
		return t
	}
	if dRow != 0 {
		for r := t.Row + dRow; r >= 0 && r < GridRows; r += dRow {
			if best, ok := closestInRow(r, t.Col); ok {
				return best
			}
		}
		return t
	}
	for c := t.Col + dCol; c >= 0 && c < GridCols; c += dCol {
		if next, ok := TileAt(t.Row, c); ok {
			return next
		}
	}
	return t
}

func closestInRow(row, col int) (Tile, bool) {
	var best Tile
	found := false
	bestDist := GridCols + 1
	for _, t := range tiles {
		if t.Row != row {
			continue
		}
		d := t.Col - col
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			best, bestDist, found = t, d, true
		}
	}
	return best, found
}

// HitTest maps a point inside a grid drawn with cells of cellW by cellH to a region.
func HitTest(x, y, cellW, cellH float64) (Tile, bool) {
	if x < 0 || y < 0 || cellW <= 0 || cellH <= 0 {
		return Tile{}, false
	}
	return TileAt(int(y/cellH), int(x/cellW))
}
