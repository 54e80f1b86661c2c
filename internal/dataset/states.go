package dataset

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/verte-zerg/hpsdash/internal/model"
)

var states = []string{
	"Alabama", "Alaska", "Arizona", "Arkansas", "California", "Colorado", "Connecticut", "Delaware",
	"Florida", "Georgia", "Hawaii", "Idaho", "Illinois", "Indiana", "Iowa", "Kansas", "Kentucky",
	"Louisiana", "Maine", "Maryland", "Massachusetts", "Michigan", "Minnesota", "Mississippi",
	"Missouri", "Montana", "Nebraska", "Nevada", "New Hampshire", "New Jersey", "New Mexico",
	"New York", "North Carolina", "North Dakota", "Ohio", "Oklahoma", "Oregon", "Pennsylvania",
	"Rhode Island", "South Carolina", "South Dakota", "Tennessee", "Texas", "Utah", "Vermont",
	"Virginia", "Washington", "West Virginia", "Wisconsin", "Wyoming",
}

// States returns the 50 state names in alphabetical order.
func States() []string {
	return append([]string(nil), states...)
}

// FilterOptions returns the state filter choices, starting with "All States".
func FilterOptions() []string {
	return append([]string{model.AllStates}, states...)
}

// MatchState resolves free text to a filter option. Exact case-insensitive
// matches win; otherwise the best fuzzy match is used.
func MatchState(query string) (string, bool) {
	q := strings.TrimSpace(query)
	if q == "" || strings.EqualFold(q, "all") || strings.EqualFold(q, model.AllStates) {
		return model.AllStates, true
	}
	for _, s := range states {
		if strings.EqualFold(s, q) {
			return s, true
		}
	}
	matches := fuzzy.Find(q, states)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Str, true
}

// SuggestStates returns up to limit fuzzy matches for a partial state name.
func SuggestStates(query string, limit int) []string {
	q := strings.TrimSpace(query)
	if q == "" || limit <= 0 {
		return nil
	}
	matches := fuzzy.Find(q, states)
	out := make([]string, 0, min(limit, len(matches)))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, m.Str)
	}
	return out
}
