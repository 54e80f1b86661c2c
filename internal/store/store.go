// Package store persists dashboard snapshots to SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/verte-zerg/hpsdash/internal/dataset"
	"github.com/verte-zerg/hpsdash/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for snapshot exports.
type Store struct {
	db *sql.DB
}

// SnapshotInfo describes a stored snapshot.
type SnapshotInfo struct {
	ID        int64
	CreatedAt time.Time
	Filter    model.Filter
}

// Tables lists every table written by WriteSnapshot.
var Tables = []string{"snapshots", "state_records", "top_states", "year_counts", "demographics", "correlations", "state_details"}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY,
			created_at TEXT NOT NULL,
			year_from INTEGER NOT NULL,
			year_to INTEGER NOT NULL,
			metric TEXT NOT NULL,
			demographic TEXT NOT NULL,
			state TEXT NOT NULL,
			selected TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS state_records (
			snapshot_id INTEGER NOT NULL,
			state TEXT NOT NULL,
			cases INTEGER NOT NULL,
			deaths INTEGER NOT NULL,
			population INTEGER NOT NULL,
			case_rate REAL NOT NULL,
			mortality_rate REAL NOT NULL,
			PRIMARY KEY (snapshot_id, state)
		);`,
		`CREATE TABLE IF NOT EXISTS top_states (
			snapshot_id INTEGER NOT NULL,
			rank INTEGER NOT NULL,
			state TEXT NOT NULL,
			PRIMARY KEY (snapshot_id, rank)
		);`,
		`CREATE TABLE IF NOT EXISTS year_counts (
			snapshot_id INTEGER NOT NULL,
			year INTEGER NOT NULL,
			series TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (snapshot_id, year, series)
		);`,
		`CREATE TABLE IF NOT EXISTS demographics (
			snapshot_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (snapshot_id, position)
		);`,
		`CREATE TABLE IF NOT EXISTS correlations (
			snapshot_id INTEGER NOT NULL,
			factor TEXT NOT NULL,
			correlation REAL NOT NULL,
			p_value REAL NOT NULL,
			significance TEXT NOT NULL,
			PRIMARY KEY (snapshot_id, factor)
		);`,
		`CREATE TABLE IF NOT EXISTS state_details (
			snapshot_id INTEGER PRIMARY KEY,
			state TEXT NOT NULL,
			total_cases INTEGER NOT NULL,
			total_deaths INTEGER NOT NULL,
			case_rate REAL NOT NULL,
			mortality_rate REAL NOT NULL,
			avg_population INTEGER NOT NULL,
			avg_elevation REAL NOT NULL,
			forest_coverage REAL NOT NULL,
			population_density REAL NOT NULL,
			annual_precipitation REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_year_counts_series ON year_counts(series);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// WriteSnapshot stores every view of snap in one transaction and returns its id.
func (s *Store) WriteSnapshot(ctx context.Context, snap model.Snapshot) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	f := snap.Filter
	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (created_at, year_from, year_to, metric, demographic, state, selected)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano),
		f.Years.From,
		f.Years.To,
		string(f.Metric),
		string(f.Demographic),
		f.State,
		f.Selected,
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err = insertRows(ctx, tx,
		`INSERT INTO state_records (snapshot_id, state, cases, deaths, population, case_rate, mortality_rate)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		len(snap.StateData), func(i int) []any {
			r := snap.StateData[i]
			return []any{id, r.State, r.Cases, r.Deaths, r.Population, r.CaseRate, r.MortalityRate}
		}); err != nil {
		return 0, err
	}
	if err = insertRows(ctx, tx,
		`INSERT INTO top_states (snapshot_id, rank, state) VALUES (?, ?, ?)`,
		len(snap.TopStates), func(i int) []any {
			return []any{id, i + 1, snap.TopStates[i].State}
		}); err != nil {
		return 0, err
	}
	counts := flattenYearCounts(snap.TimeSeries)
	if err = insertRows(ctx, tx,
		`INSERT INTO year_counts (snapshot_id, year, series, count) VALUES (?, ?, ?, ?)`,
		len(counts), func(i int) []any {
			c := counts[i]
			return []any{id, c.year, c.series, c.count}
		}); err != nil {
		return 0, err
	}
	if err = insertRows(ctx, tx,
		`INSERT INTO demographics (snapshot_id, position, name, value) VALUES (?, ?, ?, ?)`,
		len(snap.Demographics), func(i int) []any {
			d := snap.Demographics[i]
			return []any{id, i, d.Name, d.Value}
		}); err != nil {
		return 0, err
	}
	if err = insertRows(ctx, tx,
		`INSERT INTO correlations (snapshot_id, factor, correlation, p_value, significance) VALUES (?, ?, ?, ?, ?)`,
		len(snap.Correlations), func(i int) []any {
			c := snap.Correlations[i]
			return []any{id, c.Factor, c.Correlation, c.PValue, c.Significance}
		}); err != nil {
		return 0, err
	}
	if d := snap.Detail; d != nil {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO state_details (snapshot_id, state, total_cases, total_deaths, case_rate, mortality_rate, avg_population,
				avg_elevation, forest_coverage, population_density, annual_precipitation)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, d.State, d.CaseStats.TotalCases, d.CaseStats.TotalDeaths, d.CaseStats.CaseRate, d.CaseStats.MortalityRate,
			d.CaseStats.AvgPopulation, d.Environmental.AvgElevation, d.Environmental.ForestCoverage,
			d.Environmental.PopulationDensity, d.Environmental.AnnualPrecipitation,
		); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func insertRows(ctx context.Context, tx *sql.Tx, query string, n int, args func(i int) []any) error {
	if n == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return err
		}
	}
	return nil
}

type yearCount struct {
	year   int
	series string
	count  int
}

func flattenYearCounts(records []model.YearRecord) []yearCount {
	var out []yearCount
	for _, rec := range records {
		out = append(out, yearCount{year: rec.Year, series: dataset.National, count: rec.National})
		names := make([]string, 0, len(rec.States))
		for name := range rec.States {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, yearCount{year: rec.Year, series: name, count: rec.States[name]})
		}
	}
	return out
}

// ListSnapshots returns stored snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, year_from, year_to, metric, demographic, state, selected
		 FROM snapshots ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		var createdAt, metric, demographic string
		if err := rows.Scan(&info.ID, &createdAt, &info.Filter.Years.From, &info.Filter.Years.To,
			&metric, &demographic, &info.Filter.State, &info.Filter.Selected); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		info.CreatedAt = parsed
		info.Filter.Metric = model.Metric(metric)
		info.Filter.Demographic = model.DemographicType(demographic)
		result = append(result, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListStateRecords returns the state records of a snapshot ordered by state.
func (s *Store) ListStateRecords(ctx context.Context, snapshotID int64) ([]model.StateRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT state, cases, deaths, population, case_rate, mortality_rate
		 FROM state_records WHERE snapshot_id = ? ORDER BY state ASC`, snapshotID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.StateRecord
	for rows.Next() {
		var r model.StateRecord
		if err := rows.Scan(&r.State, &r.Cases, &r.Deaths, &r.Population, &r.CaseRate, &r.MortalityRate); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListYearCounts rebuilds the time series of a snapshot.
func (s *Store) ListYearCounts(ctx context.Context, snapshotID int64) ([]model.YearRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT year, series, count FROM year_counts WHERE snapshot_id = ? ORDER BY year ASC, series ASC`, snapshotID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.YearRecord
	for rows.Next() {
		var c yearCount
		if err := rows.Scan(&c.year, &c.series, &c.count); err != nil {
			return nil, err
		}
		if len(result) == 0 || result[len(result)-1].Year != c.year {
			result = append(result, model.YearRecord{Year: c.year, States: map[string]int{}})
		}
		rec := &result[len(result)-1]
		if c.series == dataset.National {
			rec.National = c.count
			continue
		}
		rec.States[c.series] = c.count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// TableCounts returns the row count of every snapshot table.
func (s *Store) TableCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(Tables))
	for _, table := range Tables {
		var n int
		// Table names come from the fixed Tables list.
		if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
