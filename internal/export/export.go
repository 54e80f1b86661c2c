// Package export writes dashboard snapshots to files.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/hpsdash/internal/dataset"
	"github.com/verte-zerg/hpsdash/internal/model"
	"github.com/verte-zerg/hpsdash/internal/store"
)

// Format names an export encoding.
type Format string

// Supported formats.
const (
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatCSV    Format = "csv"
	FormatXLSX   Format = "xlsx"
	FormatSQLite Format = "sqlite"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatYAML, FormatCSV, FormatXLSX, FormatSQLite}

// ParseFormat validates a format name. "yml" and "db" are accepted as aliases.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	case "sqlite", "db":
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("unknown export format %q (expected json, yaml, csv, xlsx or sqlite)", value)
}

// Extension returns the file extension used for the format.
func (f Format) Extension() string {
	if f == FormatSQLite {
		return "db"
	}
	return string(f)
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot infer export format from %q", path)
	}
	return ParseFormat(ext)
}

// Write encodes snap to w. SQLite needs a file and is rejected here.
func Write(w io.Writer, format Format, snap model.Snapshot) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return nil
	case FormatCSV:
		return writeCSV(w, snap)
	case FormatXLSX:
		return writeXLSX(w, snap)
	case FormatSQLite:
		return fmt.Errorf("sqlite export requires a file path")
	}
	return fmt.Errorf("unknown export format %q", format)
}

// WriteFile writes snap to path, creating parent directories.
func WriteFile(ctx context.Context, path string, format Format, snap model.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if format == FormatSQLite {
		return writeSQLite(ctx, path, snap)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := Write(file, format, snap); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	return nil
}

func writeSQLite(ctx context.Context, path string, snap model.Snapshot) (err error) {
	st, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close db: %w", cerr)
		}
	}()
	if _, err := st.WriteSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Table is one tabular view of a snapshot.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Tables flattens snap into one table per view, in dashboard order.
func Tables(snap model.Snapshot) []Table {
	f := snap.Filter
	tables := []Table{{
		Name:    "Filter",
		Headers: []string{"From", "To", "Metric", "Demographic", "State", "Selected"},
		Rows:    [][]any{{f.Years.From, f.Years.To, string(f.Metric), string(f.Demographic), f.State, f.Selected}},
	}}

	states := Table{Name: "State Data", Headers: []string{"State", "Cases", "Deaths", "Population", "Case_Rate", "Mortality_Rate"}}
	for _, r := range snap.StateData {
		states.Rows = append(states.Rows, []any{r.State, r.Cases, r.Deaths, r.Population, r.CaseRate, r.MortalityRate})
	}
	top := Table{Name: "Top States", Headers: []string{"Rank", "State", f.Metric.Label()}}
	for i, r := range snap.TopStates {
		v, _ := r.Value(f.Metric)
		top.Rows = append(top.Rows, []any{i + 1, r.State, v})
	}

	series := seriesColumns(snap.TimeSeries)
	trends := Table{Name: "Time Series", Headers: append([]string{"Year"}, series...)}
	for _, rec := range snap.TimeSeries {
		row := []any{rec.Year}
		for _, name := range series {
			if name == dataset.National {
				row = append(row, rec.National)
				continue
			}
			if v, ok := rec.States[name]; ok {
				row = append(row, v)
			} else {
				row = append(row, "")
			}
		}
		trends.Rows = append(trends.Rows, row)
	}

	demo := Table{Name: "Demographics", Headers: []string{"Category", "Percentage"}}
	for _, d := range snap.Demographics {
		demo.Rows = append(demo.Rows, []any{d.Name, d.Value})
	}
	corr := Table{Name: "Correlations", Headers: []string{"Factor", "Correlation", "P_Value", "Significance"}}
	for _, c := range snap.Correlations {
		corr.Rows = append(corr.Rows, []any{c.Factor, c.Correlation, c.PValue, c.Significance})
	}
	tables = append(tables, states, top, trends, demo, corr)

	if d := snap.Detail; d != nil {
		tables = append(tables, Table{
			Name:    "State Details",
			Headers: []string{"Field", "Value"},
			Rows: [][]any{
				{"State", d.State},
				{"Total Cases", d.CaseStats.TotalCases},
				{"Total Deaths", d.CaseStats.TotalDeaths},
				{"Case Rate", d.CaseStats.CaseRate},
				{"Mortality Rate", d.CaseStats.MortalityRate},
				{"Average Population", d.CaseStats.AvgPopulation},
				{"Average Elevation", d.Environmental.AvgElevation},
				{"Forest Coverage", d.Environmental.ForestCoverage},
				{"Population Density", d.Environmental.PopulationDensity},
				{"Annual Precipitation", d.Environmental.AnnualPrecipitation},
			},
		})
	}
	return tables
}

// seriesColumns returns National followed by tracked states present in records.
func seriesColumns(records []model.YearRecord) []string {
	cols := []string{dataset.National}
	for _, state := range dataset.TrackedStates() {
		for _, rec := range records {
			if _, ok := rec.States[state]; ok {
				cols = append(cols, state)
				break
			}
		}
	}
	return cols
}

func writeCSV(w io.Writer, snap model.Snapshot) error {
	cw := csv.NewWriter(w)
	for i, table := range Tables(snap) {
		if i > 0 {
			if err := cw.Write(nil); err != nil {
				return fmt.Errorf("failed to write csv: %w", err)
			}
		}
		if err := cw.Write([]string{"# " + table.Name}); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
		if err := cw.Write(table.Headers); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
		for _, row := range table.Rows {
			record := make([]string, len(row))
			for j, v := range row {
				record[j] = cellString(v)
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("failed to write csv: %w", err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

func cellString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

const xlsxColumnWidth = 18

func writeXLSX(w io.Writer, snap model.Snapshot) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close workbook: %w", cerr)
		}
	}()
	for i, table := range Tables(snap) {
		sheet := table.Name
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("failed to name sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", sheet, err)
		}
		for col, header := range table.Headers {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, header); err != nil {
				return fmt.Errorf("failed to write %s header: %w", sheet, err)
			}
			colName, err := excelize.ColumnNumberToName(col + 1)
			if err != nil {
				return err
			}
			if err := f.SetColWidth(sheet, colName, colName, xlsxColumnWidth); err != nil {
				return fmt.Errorf("failed to size %s column: %w", sheet, err)
			}
		}
		for r, row := range table.Rows {
			for col, v := range row {
				cell, err := excelize.CoordinatesToCellName(col+1, r+2)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return fmt.Errorf("failed to write %s cell %s: %w", sheet, cell, err)
				}
			}
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
