// Package query provides the dashboard's data-access functions.
package query

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/hpsdash/internal/dataset"
	"github.com/verte-zerg/hpsdash/internal/model"
)

// DefaultLatency is the simulated round-trip time of every query.
const DefaultLatency = 300 * time.Millisecond

const topStatesLimit = 5

// Service answers dashboard queries over the static dataset.
type Service struct {
	latency time.Duration
	logger  *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLatency overrides the simulated latency. Zero disables the wait.
func WithLatency(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.latency = d
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Service.
func New(opts ...Option) *Service {
	s := &Service{latency: DefaultLatency, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Latency returns the configured simulated latency.
func (s *Service) Latency() time.Duration {
	return s.latency
}

func (s *Service) wait(ctx context.Context, op string) error {
	s.logger.Debug("query", zap.String("op", op), zap.Duration("latency", s.latency))
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// StateData returns every state record for the map.
func (s *Service) StateData(ctx context.Context, years model.YearRange, metric model.Metric) ([]model.StateRecord, error) {
	if err := s.wait(ctx, "state_data"); err != nil {
		return nil, err
	}
	return dataset.StateRecords(), nil
}

// TopStates returns up to five records sorted descending by metric.
func (s *Service) TopStates(ctx context.Context, years model.YearRange, metric model.Metric, state string) ([]model.StateRecord, error) {
	if err := s.wait(ctx, "top_states"); err != nil {
		return nil, err
	}
	return TopStates(dataset.StateRecords(), metric, state), nil
}

// TimeSeries returns the yearly counts inside years, projected for a tracked state.
func (s *Service) TimeSeries(ctx context.Context, years model.YearRange, metric model.Metric, state string) ([]model.YearRecord, error) {
	if err := s.wait(ctx, "time_series"); err != nil {
		return nil, err
	}
	return TimeSeries(dataset.YearRecords(), years, state), nil
}

// Demographics returns a demographic breakdown adjusted for the state filter.
func (s *Service) Demographics(ctx context.Context, dt model.DemographicType, state string) ([]model.DemographicEntry, error) {
	if err := s.wait(ctx, "demographics"); err != nil {
		return nil, err
	}
	return Demographics(dataset.Demographics(dt), state), nil
}

// Correlations returns the environmental correlations adjusted for the state filter.
func (s *Service) Correlations(ctx context.Context, state string) ([]model.CorrelationEntry, error) {
	if err := s.wait(ctx, "correlations"); err != nil {
		return nil, err
	}
	return Correlations(dataset.BaseCorrelations(), state), nil
}

// StateDetails assembles the detail panel for a state. Unknown states yield zero values.
func (s *Service) StateDetails(ctx context.Context, state string, years model.YearRange) (model.StateDetail, error) {
	if err := s.wait(ctx, "state_details"); err != nil {
		return model.StateDetail{}, err
	}
	return StateDetails(state), nil
}

// TopStates filters records by state, drops records lacking the metric and
// returns the five largest by metric.
func TopStates(records []model.StateRecord, metric model.Metric, state string) []model.StateRecord {
	filtered := make([]model.StateRecord, 0, len(records))
	for _, rec := range records {
		if model.IsStateFilter(state) && rec.State != state {
			continue
		}
		if _, ok := rec.Value(metric); !ok {
			continue
		}
		filtered = append(filtered, rec)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		vi, _ := filtered[i].Value(metric)
		vj, _ := filtered[j].Value(metric)
		return vi > vj
	})
	if len(filtered) > topStatesLimit {
		filtered = filtered[:topStatesLimit]
	}
	return filtered
}

// TimeSeries keeps records within years. A tracked state projects each record
// to the national count plus that state; any other filter keeps every column.
func TimeSeries(records []model.YearRecord, years model.YearRange, state string) []model.YearRecord {
	out := make([]model.YearRecord, 0, len(records))
	project := model.IsStateFilter(state) && dataset.IsTracked(state)
	for _, rec := range records {
		if !years.Contains(rec.Year) {
			continue
		}
		if !project {
			out = append(out, rec.Clone())
			continue
		}
		projected := model.YearRecord{Year: rec.Year, National: rec.National, States: map[string]int{}}
		if v, ok := rec.States[state]; ok {
			projected.States[state] = v
		}
		out = append(out, projected)
	}
	return out
}

// DemographicMultiplier is the regional adjustment applied for a state filter.
func DemographicMultiplier(state string) float64 {
	if !model.IsStateFilter(state) {
		return 1
	}
	return 0.85 + float64(len(state)%5)*0.05
}

// Demographics scales entries by the state multiplier and clamps them to [0,100].
func Demographics(entries []model.DemographicEntry, state string) []model.DemographicEntry {
	m := DemographicMultiplier(state)
	out := make([]model.DemographicEntry, len(entries))
	for i, e := range entries {
		out[i] = model.DemographicEntry{Name: e.Name, Value: clamp(e.Value*m, 0, 100)}
	}
	return out
}

// CorrelationMultiplier is the regional adjustment applied for a state filter.
func CorrelationMultiplier(state string) float64 {
	if !model.IsStateFilter(state) {
		return 1
	}
	return 0.9 + float64(len(state)%10)*0.02
}

// Correlations scales correlations up and p-values down by the state
// multiplier, then recomputes significance.
func Correlations(base []model.CorrelationEntry, state string) []model.CorrelationEntry {
	out := make([]model.CorrelationEntry, len(base))
	if !model.IsStateFilter(state) {
		copy(out, base)
		return out
	}
	m := CorrelationMultiplier(state)
	for i, e := range base {
		p := clamp(e.PValue/m, 0, 1)
		out[i] = model.CorrelationEntry{
			Factor:       e.Factor,
			Correlation:  clamp(e.Correlation*m, -1, 1),
			PValue:       p,
			Significance: model.SignificanceFor(p),
		}
	}
	return out
}

// StateDetails builds the detail panel for a state from the static tables.
func StateDetails(state string) model.StateDetail {
	rec, ok := dataset.StateRecord(state)
	if !ok {
		return model.StateDetail{State: state}
	}
	return model.StateDetail{
		State: state,
		CaseStats: model.CaseStats{
			TotalCases:    rec.Cases,
			TotalDeaths:   rec.Deaths,
			CaseRate:      rec.CaseRate,
			MortalityRate: rec.MortalityRate,
			AvgPopulation: rec.Population,
		},
		Environmental: dataset.EnvironmentalFor(state),
		Demographic:   dataset.DemographicSnapshot(),
	}
}

// SeriesNames returns the line series shown for a state filter: every
// tracked state for no filter, the state alongside National when tracked,
// and National alone otherwise.
func SeriesNames(state string) []string {
	if !model.IsStateFilter(state) {
		return append([]string{dataset.National}, dataset.TrackedStates()...)
	}
	if dataset.IsTracked(state) {
		return []string{dataset.National, state}
	}
	return []string{dataset.National}
}

// ClampCounts replaces negative counts with zero in place.
func ClampCounts(records []model.YearRecord) {
	for i := range records {
		if records[i].National < 0 {
			records[i].National = 0
		}
		for k, v := range records[i].States {
			if v < 0 {
				records[i].States[k] = 0
			}
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
