// Package mcptools exposes the dashboard queries as MCP tools.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/verte-zerg/hpsdash/internal/dataset"
	"github.com/verte-zerg/hpsdash/internal/model"
	"github.com/verte-zerg/hpsdash/internal/query"
)

// Tool names.
const (
	ToolStateData    = "state_data"
	ToolTopStates    = "top_states"
	ToolTimeSeries   = "time_series"
	ToolDemographics = "demographics"
	ToolCorrelations = "correlations"
	ToolStateDetails = "state_details"
)

// Handlers answers tool calls from the query service.
type Handlers struct {
	svc    *query.Service
	logger *zap.Logger
}

// NewHandlers builds tool handlers. A nil logger disables logging.
func NewHandlers(svc *query.Service, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{svc: svc, logger: logger}
}

// NewServer builds an MCP server with every dashboard tool registered.
func NewServer(name, version string, h *Handlers) *server.MCPServer {
	s := server.NewMCPServer(name, version)
	Register(s, h)
	return s
}

// Register registers all tools with the MCP server.
func Register(s *server.MCPServer, h *Handlers) {
	s.AddTool(mcp.NewTool(ToolStateData,
		mcp.WithDescription("Returns HPS case figures for every state with data. "+dataset.Source),
		yearsFromOption(), yearsToOption(), metricOption(),
	), h.StateData)
	s.AddTool(mcp.NewTool(ToolTopStates,
		mcp.WithDescription("Returns up to five states ranked by the chosen metric, highest first."),
		yearsFromOption(), yearsToOption(), metricOption(), stateOption(),
	), h.TopStates)
	s.AddTool(mcp.NewTool(ToolTimeSeries,
		mcp.WithDescription("Returns yearly national and per-state case counts within the year range."),
		yearsFromOption(), yearsToOption(), stateOption(),
	), h.TimeSeries)
	s.AddTool(mcp.NewTool(ToolDemographics,
		mcp.WithDescription("Returns a demographic breakdown of cases in percent."),
		mcp.WithString("type",
			mcp.Description("Breakdown: all, gender, race or age. Defaults to all."),
			mcp.Enum(demographicNames()...),
		),
		stateOption(),
	), h.Demographics)
	s.AddTool(mcp.NewTool(ToolCorrelations,
		mcp.WithDescription("Returns correlations between environmental factors and case incidence."),
		stateOption(),
	), h.Correlations)
	s.AddTool(mcp.NewTool(ToolStateDetails,
		mcp.WithDescription("Returns case statistics, environmental factors and demographics for one state."),
		mcp.WithString("state",
			mcp.Required(),
			mcp.Description("State name, for example Colorado"),
		),
		yearsFromOption(), yearsToOption(),
	), h.StateDetails)
}

func yearsFromOption() mcp.ToolOption {
	return mcp.WithNumber("from", mcp.Description(fmt.Sprintf("First year, %d-%d. Defaults to %d.", model.MinYear, model.MaxYear, model.MinYear)))
}

func yearsToOption() mcp.ToolOption {
	return mcp.WithNumber("to", mcp.Description(fmt.Sprintf("Last year, %d-%d. Defaults to %d.", model.MinYear, model.MaxYear, model.MaxYear)))
}

func metricOption() mcp.ToolOption {
	return mcp.WithString("metric", mcp.Description("Cases, Case_Rate or Mortality_Rate. Defaults to Cases."))
}

func stateOption() mcp.ToolOption {
	return mcp.WithString("state", mcp.Description("State filter. Omit or pass \"All States\" for every state."))
}

func demographicNames() []string {
	names := make([]string, len(model.DemographicTypes))
	for i, dt := range model.DemographicTypes {
		names[i] = string(dt)
	}
	return names
}

// StateData handles the state_data tool.
func (h *Handlers) StateData(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments
	years, err := yearsArg(args)
	if err != nil {
		return newToolResultError(err.Error()), nil
	}
	metric, err := metricArg(args)
	if err != nil {
		return newToolResultError(err.Error()), nil
	}
	data, err := h.svc.StateData(ctx, years, metric)
	return h.result(ToolStateData, data, err)
}

// TopStates handles the top_states tool.
func (h *Handlers) TopStates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments
	years, err := yearsArg(args)
	if err != nil {
		return newToolResultError(err.Error()), nil
	}
	metric, err := metricArg(args)
	if err != nil {
		return newToolResultError(err.Error()), nil
	}
	state, err := stateArg(args)
	if err != nil {
		return newToolResultError(err.Error()), nil
	}
	data, err := h.svc.TopStates(ctx, years, metric, state)
	return h.result(ToolTopStates, data, err)
}

// TimeSeries handles the time_series tool.
func (h *Handlers) TimeSeries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments
	years, err := yearsArg(args)
	if err != nil {
		return newToolResultError(err.Error()), nil
	}
	state, err := stateArg(args)
	if err != nil {
		return newToolResultError(err.Error()), nil
	}
	data, err := h.svc.TimeSeries(ctx, years, model.MetricCases, state)
	return h.result(ToolTimeSeries, data, err)
}

// Demographics handles the demographics tool.
func (h *Handlers) Demographics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments
	raw, _ := args["type"].(string)
	dt, err := model.ParseDemographicType(raw)
	if err != nil {
		return newToolResultError(err.Error()), nil
	}
	state, err := stateArg(args)
	if err != nil {
		return newToolResultError(err.Error()), nil
	}
	data, err := h.svc.Demographics(ctx, dt, state)
	return h.result(ToolDemographics, data, err)
}

// Correlations handles the correlations tool.
func (h *Handlers) Correlations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := stateArg(request.Params.Arguments)
	if err != nil {
		return newToolResultError(err.Error()), nil
	}
	data, err := h.svc.Correlations(ctx, state)
	return h.result(ToolCorrelations, data, err)
}

// StateDetails handles the state_details tool.
func (h *Handlers) StateDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments
	state, err := stateArg(args)
	if err != nil {
		return newToolResultError(err.Error()), nil
	}
	if !model.IsStateFilter(state) {
		return newToolResultError("state is required"), nil
	}
	years, err := yearsArg(args)
	if err != nil {
		return newToolResultError(err.Error()), nil
	}
	data, err := h.svc.StateDetails(ctx, state, years)
	return h.result(ToolStateDetails, data, err)
}

func (h *Handlers) result(tool string, data any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		h.logger.Warn("tool failed", zap.String("tool", tool), zap.Error(err))
		return newToolResultError(fmt.Sprintf("%s failed: %v", tool, err)), nil
	}
	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s result: %w", tool, err)
	}
	h.logger.Debug("tool answered", zap.String("tool", tool), zap.Int("bytes", len(body)))
	return mcp.NewToolResultText(string(body)), nil
}

func yearsArg(args map[string]interface{}) (model.YearRange, error) {
	years := model.FullYearRange()
	if v, ok := args["from"]; ok {
		n, err := intArg("from", v)
		if err != nil {
			return years, err
		}
		years.From = n
	}
	if v, ok := args["to"]; ok {
		n, err := intArg("to", v)
		if err != nil {
			return years, err
		}
		years.To = n
	}
	if err := years.Validate(); err != nil {
		return years, err
	}
	return years, nil
}

func intArg(name string, v interface{}) (int, error) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%s must be a whole year", name)
		}
		return int(n), nil
	case int:
		return n, nil
	}
	return 0, fmt.Errorf("%s must be a number", name)
}

func metricArg(args map[string]interface{}) (model.Metric, error) {
	raw, _ := args["metric"].(string)
	if raw == "" {
		return model.MetricCases, nil
	}
	return model.ParseMetric(raw)
}

// stateArg resolves the state argument with the same fuzzy matching as the dashboard.
func stateArg(args map[string]interface{}) (string, error) {
	raw, _ := args["state"].(string)
	if raw == "" {
		return model.AllStates, nil
	}
	state, ok := dataset.MatchState(raw)
	if !ok {
		return "", fmt.Errorf("unknown state %q", raw)
	}
	return state, nil
}

func newToolResultError(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: message,
			},
		},
		IsError: true,
	}
}
