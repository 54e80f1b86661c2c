package dashui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/hpsdash/internal/dataset"
	"github.com/verte-zerg/hpsdash/internal/model"
)

const (
	inputFrom = iota
	inputTo
	inputState
	suggestionLimit = 5
)

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput(fmt.Sprintf("From (%d-%d): ", model.MinYear, model.MaxYear)),
		newFilterInput(fmt.Sprintf("To (%d-%d): ", model.MinYear, model.MaxYear)),
		newFilterInput("State: "),
	}
	m.setInputsFromFilter()
}

func (m *Model) setInputsFromFilter() {
	if len(m.filterInputs) == 0 {
		return
	}
	m.filterInputs[inputFrom].SetValue(strconv.Itoa(m.filter.Years.From))
	m.filterInputs[inputTo].SetValue(strconv.Itoa(m.filter.Years.To))
	state := m.filter.State
	if !m.filter.StateFiltered() {
		state = ""
	}
	m.filterInputs[inputState].SetValue(state)
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromFilter()
	m.updateLayout()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		m.updateLayout()
		return m, nil
	case tea.KeyEnter:
		next, err := m.parseFilter()
		if err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.updateLayout()
		return m, m.setFilter(next)
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if count == 0 {
		return nil
	}
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

// parseFilter validates the form and returns the filter it describes.
// Nothing changes until every field is valid.
func (m *Model) parseFilter() (model.Filter, error) {
	next := m.filter
	from, err := parseYear(m.filterInputs[inputFrom].Value(), "start")
	if err != nil {
		return next, err
	}
	to, err := parseYear(m.filterInputs[inputTo].Value(), "end")
	if err != nil {
		return next, err
	}
	years := model.YearRange{From: from, To: to}
	if err := years.Validate(); err != nil {
		return next, fmt.Errorf("invalid years (%v)", err)
	}
	state, ok := dataset.MatchState(m.filterInputs[inputState].Value())
	if !ok {
		return next, fmt.Errorf("unknown state %q", strings.TrimSpace(m.filterInputs[inputState].Value()))
	}
	next.Years = years
	next.State = state
	return next, nil
}

func parseYear(input, name string) (int, error) {
	input = strings.TrimSpace(input)
	year, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("invalid %s year (use YYYY)", name)
	}
	return year, nil
}

func (m *Model) renderFilterHelp() string {
	return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel  quit: ctrl+c")
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Filters (enter to apply, esc to cancel, empty state for all)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterIndex == inputState {
		if hints := dataset.SuggestStates(m.filterInputs[inputState].Value(), suggestionLimit); len(hints) > 0 {
			lines = append(lines, tableMutedStyle.Render("  "+strings.Join(hints, "  ")))
		}
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}
