package stats

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/hpsdash/internal/dataset"
	"github.com/verte-zerg/hpsdash/internal/model"
	"github.com/verte-zerg/hpsdash/internal/query"
)

// ReportOptions controls text report rendering.
type ReportOptions struct {
	Width      int
	PlotHeight int
	ForceColor bool
}

// BuildSnapshot loads every dashboard view for filter concurrently.
func BuildSnapshot(ctx context.Context, svc *query.Service, filter model.Filter) (model.Snapshot, error) {
	if err := filter.Years.Validate(); err != nil {
		return model.Snapshot{}, err
	}
	snap := model.Snapshot{Filter: filter}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.StateData, err = svc.StateData(gctx, filter.Years, filter.Metric)
		return err
	})
	g.Go(func() error {
		var err error
		snap.TopStates, err = svc.TopStates(gctx, filter.Years, filter.Metric, filter.State)
		return err
	})
	g.Go(func() error {
		var err error
		snap.TimeSeries, err = svc.TimeSeries(gctx, filter.Years, filter.Metric, filter.State)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Demographics, err = svc.Demographics(gctx, filter.Demographic, filter.State)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Correlations, err = svc.Correlations(gctx, filter.State)
		return err
	})
	if selected := detailState(filter); selected != "" {
		g.Go(func() error {
			detail, err := svc.StateDetails(gctx, selected, filter.Years)
			if err != nil {
				return err
			}
			snap.Detail = &detail
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to load dashboard: %w", err)
	}
	return snap, nil
}

func detailState(filter model.Filter) string {
	if filter.Selected != "" {
		return filter.Selected
	}
	if filter.StateFiltered() {
		return filter.State
	}
	return ""
}

// RenderReport prints every dashboard view in page order.
func RenderReport(w io.Writer, snap model.Snapshot, opts ReportOptions) error {
	width := opts.Width
	if width <= 0 {
		width = terminalWidth()
	}
	useColor := shouldUseColor(w, opts.ForceColor)
	f := snap.Filter

	var lines []string
	section := func(title string, body []string) {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, title, strings.Repeat("─", min(displayWidth(title), width)))
		lines = append(lines, body...)
	}

	lines = append(lines, dataset.Title)
	lines = append(lines, fmt.Sprintf("Years: %s  Metric: %s  Demographic: %s  State: %s",
		f.Years, f.Metric.Label(), f.Demographic.Label(), stateLabel(f.State)))

	section("Hantavirus Cases by State ("+f.Metric.Label()+")", BarLines(snap.StateData, f.Metric, width, useColor))
	section("Top 5 States by "+f.Metric.Label(), BarLines(snap.TopStates, f.Metric, width, useColor))
	if err := writeLines(w, lines); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	axis, series := TrendSeries(snap.TimeSeries, f.State)
	if err := PlotSeriesWithColor(w, "Case Trends Over Time", axis, series, PlotWidthFor(width), opts.PlotHeight, opts.ForceColor); err != nil {
		return err
	}

	lines = lines[:0]
	section("Demographics: "+f.Demographic.Label(), PieLines(snap.Demographics, width, useColor))
	section("Environmental Correlations", CorrelationLines(snap.Correlations))
	if snap.Detail != nil {
		section("State Details: "+snap.Detail.State, DetailSummary(*snap.Detail))
		for _, s := range DetailSections {
			lines = append(lines, "", s.String())
			lines = append(lines, DetailLines(*snap.Detail, s)...)
		}
	}
	findings := make([]string, 0, len(dataset.KeyFindings))
	for _, k := range dataset.KeyFindings {
		findings = append(findings, "• "+k)
	}
	section("Key Findings", findings)
	lines = append(lines, "", "Source: "+dataset.Source)
	return writeLines(w, lines)
}

func stateLabel(state string) string {
	if !model.IsStateFilter(state) {
		return model.AllStates
	}
	return state
}
