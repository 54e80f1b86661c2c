package mcptools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/verte-zerg/hpsdash/internal/model"
	"github.com/verte-zerg/hpsdash/internal/query"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newHandlers() *Handlers {
	return NewHandlers(query.New(query.WithLatency(0)), nil)
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestTopStatesForColorado(t *testing.T) {
	res := call(t, newHandlers().TopStates, map[string]interface{}{"state": "colorado"})
	require.False(t, res.IsError)

	var got []model.StateRecord
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	require.Len(t, got, 1)
	require.Equal(t, "Colorado", got[0].State)
	require.Equal(t, 45, got[0].Cases)
	require.InDelta(t, 0.9, got[0].CaseRate, 1e-9)
}

func TestTimeSeriesRespectsYears(t *testing.T) {
	res := call(t, newHandlers().TimeSeries, map[string]interface{}{"from": float64(2000), "to": float64(2002)})
	require.False(t, res.IsError)

	var got []model.YearRecord
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	require.Len(t, got, 3)
	require.Equal(t, 2000, got[0].Year)
	require.Equal(t, 2002, got[2].Year)
}

func TestInvalidArgumentsReturnToolErrors(t *testing.T) {
	h := newHandlers()
	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]interface{}
	}{
		{"reversed years", h.StateData, map[string]interface{}{"from": float64(2010), "to": float64(2000)}},
		{"fractional year", h.StateData, map[string]interface{}{"from": 2000.5}},
		{"bad metric", h.TopStates, map[string]interface{}{"metric": "deaths"}},
		{"bad demographic", h.Demographics, map[string]interface{}{"type": "income"}},
		{"missing state", h.StateDetails, map[string]interface{}{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, tt.handler, tt.args)
			require.True(t, res.IsError)
		})
	}
}

func TestCorrelationsSignificance(t *testing.T) {
	res := call(t, newHandlers().Correlations, map[string]interface{}{"state": "North Carolina"})
	var got []model.CorrelationEntry
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	require.NotEmpty(t, got)
	for _, c := range got {
		require.Equal(t, model.SignificanceFor(c.PValue), c.Significance)
	}
}

func TestStateDetailsAndDemographics(t *testing.T) {
	h := newHandlers()
	res := call(t, h.StateDetails, map[string]interface{}{"state": "New Mexico"})
	var detail model.StateDetail
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &detail))
	require.Equal(t, "New Mexico", detail.State)
	require.Equal(t, 72, detail.CaseStats.TotalCases)

	res = call(t, h.Demographics, map[string]interface{}{"type": "gender"})
	var entries []model.DemographicEntry
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &entries))
	require.NotEmpty(t, entries)
	for _, e := range entries {
		require.GreaterOrEqual(t, e.Value, 0.0)
		require.LessOrEqual(t, e.Value, 100.0)
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	require.NotNil(t, NewServer("hpsdash", "test", newHandlers()))
}
