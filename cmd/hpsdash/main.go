// Package main provides the CLI entrypoint for hpsdash.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/hpsdash/internal/chart"
	"github.com/verte-zerg/hpsdash/internal/config"
	"github.com/verte-zerg/hpsdash/internal/dashui"
	"github.com/verte-zerg/hpsdash/internal/dataset"
	"github.com/verte-zerg/hpsdash/internal/export"
	"github.com/verte-zerg/hpsdash/internal/geo"
	"github.com/verte-zerg/hpsdash/internal/logging"
	"github.com/verte-zerg/hpsdash/internal/mcptools"
	"github.com/verte-zerg/hpsdash/internal/model"
	"github.com/verte-zerg/hpsdash/internal/query"
	"github.com/verte-zerg/hpsdash/internal/stats"
)

const (
	version            = "0.1.0"
	defaultMetric      = "cases"
	defaultDemographic = "all"
	defaultChartWidth  = 800
	defaultChartHeight = 400
)

var (
	logLevel string
	logger   = zap.NewNop()
	fileCfg  config.FileConfig

	reportWidth int
	reportColor bool

	chartOut    string
	chartWidth  int
	chartHeight int

	exportFormat string
	exportOut    string

	statesTracked bool

	mcpLatency string
)

// filterFlags holds the filter flags shared by the dashboard and its batch commands.
type filterFlags struct {
	from        int
	to          int
	metric      string
	demographic string
	state       string
	latency     string
}

var filterOpts filterFlags

func main() {
	rootCmd := newRootCmd()
	err := rootCmd.Execute()
	// Best-effort flush; stderr sync fails on some terminals.
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "hpsdash",
		Short:             "Hantavirus Pulmonary Syndrome dashboard",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: setup,
		RunE:              runDashboardCmd,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logging.DefaultLevel, "log level (debug, info, warn, error)")
	filterOpts.register(rootCmd)

	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newChartCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newStatesCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newMCPCmd())
	return rootCmd
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.from, "from", model.MinYear, "first year of the range")
	cmd.Flags().IntVar(&f.to, "to", model.MaxYear, "last year of the range")
	cmd.Flags().StringVar(&f.metric, "metric", defaultMetric, "map metric (cases, case-rate, mortality-rate)")
	cmd.Flags().StringVar(&f.demographic, "demographic", defaultDemographic, "demographic breakdown (all, gender, race, age)")
	cmd.Flags().StringVar(&f.state, "state", model.AllStates, "state filter")
	cmd.Flags().StringVar(&f.latency, "latency", query.DefaultLatency.String(), "simulated query latency")
}

// setup loads the config file and builds the logger before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "config" {
		return nil
	}
	cfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	fileCfg = cfg

	level := logLevel
	if !cmd.Flags().Changed("log-level") && cfg.Log.Level != nil {
		level = *cfg.Log.Level
	}
	opts := logging.Options{Level: level}
	if cfg.Log.File != nil {
		opts.File = *cfg.Log.File
	} else if cmd == cmd.Root() {
		// The alt screen owns stdout and stderr while the dashboard runs.
		opts.File = config.DefaultLogPath()
	}
	l, err := logging.New(opts)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// resolve applies file config to unset flags and validates the result.
func (f *filterFlags) resolve(cmd *cobra.Command) (model.Filter, time.Duration, error) {
	d := fileCfg.Dashboard
	applyIntConfig(cmd, "from", &f.from, d.From)
	applyIntConfig(cmd, "to", &f.to, d.To)
	applyStringConfig(cmd, "metric", &f.metric, d.Metric)
	applyStringConfig(cmd, "demographic", &f.demographic, d.Demographic)
	applyStringConfig(cmd, "state", &f.state, d.State)
	applyStringConfig(cmd, "latency", &f.latency, d.Latency)

	filter := model.DefaultFilter()
	filter.Years = model.YearRange{From: f.from, To: f.to}
	if err := filter.Years.Validate(); err != nil {
		return filter, 0, fmt.Errorf("invalid --from/--to: %w", err)
	}
	metric, err := model.ParseMetric(f.metric)
	if err != nil {
		return filter, 0, fmt.Errorf("invalid --metric: %w", err)
	}
	filter.Metric = metric
	demographic, err := model.ParseDemographicType(f.demographic)
	if err != nil {
		return filter, 0, fmt.Errorf("invalid --demographic: %w", err)
	}
	filter.Demographic = demographic
	state, ok := dataset.MatchState(f.state)
	if !ok {
		return filter, 0, fmt.Errorf("invalid --state: unknown state %q", f.state)
	}
	filter.State = state
	latency, err := time.ParseDuration(strings.TrimSpace(f.latency))
	if err != nil || latency < 0 {
		return filter, 0, fmt.Errorf("invalid --latency %q (use a duration like 300ms)", f.latency)
	}
	return filter, latency, nil
}

func newService(latency time.Duration) *query.Service {
	return query.New(query.WithLatency(latency), query.WithLogger(logger))
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	filter, latency, err := filterOpts.resolve(cmd)
	if err != nil {
		return err
	}
	logger.Info("dashboard starting",
		zap.Stringer("years", filter.Years),
		zap.String("metric", string(filter.Metric)),
		zap.String("state", filter.State),
		zap.Duration("latency", latency))

	m := dashui.NewModel(newService(latency), filter, logger)
	defer m.Close()
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the dashboard as a text report",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	filterOpts.register(cmd)
	cmd.Flags().IntVar(&reportWidth, "width", 0, "output width (default: terminal width)")
	cmd.Flags().BoolVar(&reportColor, "color", false, "force colored output")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	snap, err := loadSnapshot(cmd)
	if err != nil {
		return err
	}
	opts := stats.ReportOptions{Width: reportWidth, ForceColor: reportColor}
	if err := stats.RenderReport(cmd.OutOrStdout(), snap, opts); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func loadSnapshot(cmd *cobra.Command) (model.Snapshot, error) {
	filter, latency, err := filterOpts.resolve(cmd)
	if err != nil {
		return model.Snapshot{}, err
	}
	return stats.BuildSnapshot(cmd.Context(), newService(latency), filter)
}

func newChartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "chart <bar|line|pie|map>",
		Short:     "Write a dashboard chart as SVG or PNG",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bar", "line", "pie", "map"},
		RunE:      runChartCmd,
	}
	filterOpts.register(cmd)
	cmd.Flags().StringVar(&chartOut, "out", "", "output file (.svg or .png)")
	cmd.Flags().IntVar(&chartWidth, "width", defaultChartWidth, "chart width in pixels")
	cmd.Flags().IntVar(&chartHeight, "height", defaultChartHeight, "chart height in pixels")
	return cmd
}

func runChartCmd(cmd *cobra.Command, args []string) error {
	kind := strings.ToLower(args[0])
	if chartOut == "" {
		return fmt.Errorf("--out is required")
	}
	ext := strings.ToLower(filepath.Ext(chartOut))
	if ext != ".svg" && ext != ".png" {
		return fmt.Errorf("--out must end in .svg or .png")
	}
	if kind == "map" && ext == ".png" {
		return fmt.Errorf("map charts are written as SVG only")
	}
	applyIntConfig(cmd, "width", &chartWidth, fileCfg.Chart.Width)
	applyIntConfig(cmd, "height", &chartHeight, fileCfg.Chart.Height)
	if chartWidth <= 0 || chartHeight <= 0 {
		return fmt.Errorf("--width and --height must be > 0")
	}
	filter, latency, err := filterOpts.resolve(cmd)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := writeChart(cmd.Context(), &buf, newService(latency), kind, ext == ".png", filter); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(chartOut), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(chartOut, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	logErrf("Wrote %s\n", chartOut)
	return nil
}

func writeChart(ctx context.Context, w io.Writer, svc *query.Service, kind string, png bool, f model.Filter) error {
	opts := chart.Options{Width: float64(chartWidth), Height: float64(chartHeight)}
	switch kind {
	case "bar":
		records, err := svc.TopStates(ctx, f.Years, f.Metric, f.State)
		if err != nil {
			return fmt.Errorf("failed to load top states: %w", err)
		}
		rows := stats.StateRows(records, f.Metric)
		if png {
			return chart.WriteBarPNG(w, "Top 5 States by "+f.Metric.Label(), rows, stats.ValueCategory, opts)
		}
		return chart.LayoutBars(rows, []string{stats.ValueCategory}, opts).WriteSVG(w)
	case "line":
		records, err := svc.TimeSeries(ctx, f.Years, f.Metric, f.State)
		if err != nil {
			return fmt.Errorf("failed to load time series: %w", err)
		}
		query.ClampCounts(records)
		rows := stats.TrendRows(records)
		series := query.SeriesNames(f.State)
		if png {
			return chart.WriteLinePNG(w, "Case Trends Over Time", "Number of Cases", rows, series, opts)
		}
		return chart.LayoutLines(rows, series, opts).WriteSVG(w)
	case "pie":
		entries, err := svc.Demographics(ctx, f.Demographic, f.State)
		if err != nil {
			return fmt.Errorf("failed to load demographics: %w", err)
		}
		slices := stats.DemographicSlices(entries)
		if png {
			return chart.WritePiePNG(w, "Demographics: "+f.Demographic.Label(), slices, opts)
		}
		return chart.LayoutPie(slices, opts).WriteSVG(w)
	case "map":
		records, err := svc.StateData(ctx, f.Years, f.Metric)
		if err != nil {
			return fmt.Errorf("failed to load state data: %w", err)
		}
		return geo.NewChoropleth(records, f.Metric).WriteSVG(w, "HPS Cases Across the United States: "+f.Metric.Label())
	}
	return fmt.Errorf("unknown chart %q (expected bar, line, pie or map)", kind)
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every dashboard view for the filter",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	filterOpts.register(cmd)
	cmd.Flags().StringVar(&exportFormat, "format", "", "json, yaml, csv, xlsx or sqlite (default: from --out, else json)")
	cmd.Flags().StringVar(&exportOut, "out", "", "output file (default: under the data directory)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	format, path, err := resolveExportTarget(exportFormat, exportOut, time.Now())
	if err != nil {
		return err
	}
	snap, err := loadSnapshot(cmd)
	if err != nil {
		return err
	}
	if err := export.WriteFile(cmd.Context(), path, format, snap); err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}
	logger.Info("exported snapshot", zap.String("path", path), zap.String("format", string(format)))
	logErrf("Wrote %s\n", path)
	return nil
}

// resolveExportTarget fills whichever of format and path is missing from the other.
func resolveExportTarget(formatFlag, out string, now time.Time) (export.Format, string, error) {
	var format export.Format
	switch {
	case formatFlag != "":
		f, err := export.ParseFormat(formatFlag)
		if err != nil {
			return "", "", fmt.Errorf("invalid --format: %w", err)
		}
		format = f
	case out != "":
		f, err := export.FormatFromPath(out)
		if err != nil {
			return "", "", fmt.Errorf("invalid --out: %w", err)
		}
		format = f
	default:
		format = export.FormatJSON
	}
	if out == "" {
		name := fmt.Sprintf("hpsdash-%s.%s", now.Format("20060102-150405"), format.Extension())
		out = filepath.Join(config.DefaultExportDir(), name)
	}
	return format, out, nil
}

func newStatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "states",
		Short: "List states",
		Args:  cobra.NoArgs,
		RunE:  runStatesCmd,
	}
	cmd.Flags().BoolVar(&statesTracked, "tracked", false, "only states with yearly case counts")
	return cmd
}

func runStatesCmd(cmd *cobra.Command, _ []string) error {
	states := dataset.States()
	if statesTracked {
		states = dataset.TrackedStates()
	}
	for _, state := range states {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), state); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve dashboard queries as MCP tools on stdio",
		Args:  cobra.NoArgs,
		RunE:  runMCPCmd,
	}
	cmd.Flags().StringVar(&mcpLatency, "latency", "0s", "simulated query latency")
	return cmd
}

func runMCPCmd(cmd *cobra.Command, _ []string) error {
	latency, err := time.ParseDuration(strings.TrimSpace(mcpLatency))
	if err != nil || latency < 0 {
		return fmt.Errorf("invalid --latency %q (use a duration like 300ms)", mcpLatency)
	}
	s := mcptools.NewServer("hpsdash", version, mcptools.NewHandlers(newService(latency), logger))
	logger.Info("serving mcp tools on stdio")
	if err := server.ServeStdio(s); err != nil {
		return fmt.Errorf("failed to serve mcp: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := writeConfigTemplate(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// writeConfigTemplate creates the config file unless it already exists.
func writeConfigTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# hpsdash configuration
# Uncomment a value to enable it. CLI flags override config values.

[dashboard]
# from = %d                # First year of the range
# to = %d                  # Last year of the range
# metric = %q          # cases, case-rate or mortality-rate
# demographic = %q       # all, gender, race or age
# state = %q      # State filter
# latency = %q       # Simulated query latency

[chart]
# width = %d               # Chart export width in pixels
# height = %d              # Chart export height in pixels

[log]
# level = %q           # debug, info, warn or error
# file = %q  # Log file (the dashboard defaults to this path)
`,
		model.MinYear,
		model.MaxYear,
		defaultMetric,
		defaultDemographic,
		model.AllStates,
		query.DefaultLatency.String(),
		defaultChartWidth,
		defaultChartHeight,
		logging.DefaultLevel,
		config.DefaultLogPath(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
