package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	questionStyle = lipgloss.NewStyle().Bold(true)
	markStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	disabledStyle = lipgloss.NewStyle().Faint(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

// promptModel is a bubbletea model that ends with an answer or an exit.
type promptModel interface {
	tea.Model
	exited() bool
}

func question(msg string) string {
	return markStyle.Render("?") + " " + questionStyle.Render(msg)
}

func isExitKey(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc
}

// selectModel picks one enabled choice from a list.
type selectModel struct {
	message string
	choices []Choice
	cursor  int
	chosen  int
	done    bool
	exit    bool
}

func newSelectModel(message string, choices []Choice) *selectModel {
	m := &selectModel{message: message, choices: choices, chosen: -1, cursor: -1}
	m.move(1)
	return m
}

func (m *selectModel) Init() tea.Cmd { return nil }

// move steps the cursor by delta to the next enabled choice, wrapping.
func (m *selectModel) move(delta int) {
	n := len(m.choices)
	for step := 1; step <= n; step++ {
		idx := ((m.cursor+delta*step)%n + n) % n
		if m.choices[idx].Disabled == "" {
			m.cursor = idx
			return
		}
	}
}

func (m *selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if isExitKey(key) {
		m.exit = true
		return m, tea.Quit
	}
	switch key.String() {
	case "up", "k", "shift+tab":
		m.move(-1)
	case "down", "j", "tab":
		m.move(1)
	case "enter":
		if m.cursor >= 0 && m.choices[m.cursor].Disabled == "" {
			m.chosen = m.cursor
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *selectModel) View() string {
	var b strings.Builder
	b.WriteString(question(m.message))
	if m.done {
		b.WriteString(" " + cursorStyle.Render(m.choices[m.chosen].Label) + "\n")
		return b.String()
	}
	b.WriteString("\n")
	for i, c := range m.choices {
		switch {
		case c.Disabled != "":
			b.WriteString(disabledStyle.Render(fmt.Sprintf("  - %s %s", c.Label, c.Disabled)))
		case i == m.cursor:
			b.WriteString(cursorStyle.Render("❯ " + c.Label))
		default:
			b.WriteString("  " + c.Label)
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑↓ navigate • ⏎ select") + "\n")
	return b.String()
}

func (m *selectModel) exited() bool { return m.exit }

// confirmModel answers a yes/no question.
type confirmModel struct {
	message string
	def     bool
	answer  bool
	done    bool
	exit    bool
}

func newConfirmModel(message string, def bool) *confirmModel {
	return &confirmModel{message: message, def: def}
}

func (m *confirmModel) Init() tea.Cmd { return nil }

func (m *confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if isExitKey(key) {
		m.exit = true
		return m, tea.Quit
	}
	switch key.String() {
	case "y", "Y":
		m.answer, m.done = true, true
	case "n", "N":
		m.answer, m.done = false, true
	case "enter":
		m.answer, m.done = m.def, true
	default:
		return m, nil
	}
	return m, tea.Quit
}

func (m *confirmModel) View() string {
	if m.done {
		answer := "No"
		if m.answer {
			answer = "Yes"
		}
		return question(m.message) + " " + cursorStyle.Render(answer) + "\n"
	}
	hint := "(y/N)"
	if m.def {
		hint = "(Y/n)"
	}
	return question(m.message) + " " + helpStyle.Render(hint) + "\n"
}

func (m *confirmModel) exited() bool { return m.exit }

// abortModel waits for a single key. y aborts the running edit, ctrl+c
// does too, and any other key dismisses the prompt.
type abortModel struct {
	abort bool
	done  bool
}

func (m *abortModel) Init() tea.Cmd { return nil }

func (m *abortModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	m.done = true
	m.abort = key.Type == tea.KeyCtrlC || key.String() == "y" || key.String() == "Y"
	return m, tea.Quit
}

func (m *abortModel) View() string {
	if m.done {
		return ""
	}
	return question("Type `y` to abort...") + "\n"
}

func (m *abortModel) exited() bool { return false }

// searchModel filters options by the typed query.
type searchModel struct {
	message  string
	options  []string
	match    MatchFunc
	input    textinput.Model
	filtered []string
	cursor   int
	chosen   string
	done     bool
	exit     bool
}

func newSearchModel(message string, options []string, match MatchFunc) *searchModel {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = "type to filter"
	input.Focus()
	m := &searchModel{message: message, options: options, match: match, input: input}
	m.filter()
	return m
}

func (m *searchModel) filter() {
	query := m.input.Value()
	m.filtered = m.filtered[:0]
	for _, o := range m.options {
		if query == "" || m.match(query, o) {
			m.filtered = append(m.filtered, o)
		}
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = len(m.filtered) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *searchModel) Init() tea.Cmd { return textinput.Blink }

func (m *searchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if isExitKey(key) {
			m.exit = true
			return m, tea.Quit
		}
		switch key.String() {
		case "up", "shift+tab":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "tab":
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			}
			return m, nil
		case "enter":
			if len(m.filtered) == 0 {
				return m, nil
			}
			m.chosen = m.filtered[m.cursor]
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.filter()
	return m, cmd
}

func (m *searchModel) View() string {
	if m.done {
		return question(m.message) + " " + cursorStyle.Render(m.chosen) + "\n"
	}
	var b strings.Builder
	b.WriteString(question(m.message) + " " + m.input.View() + "\n")
	if len(m.filtered) == 0 {
		b.WriteString(disabledStyle.Render("  No results") + "\n")
	}
	for i, o := range m.filtered {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("❯ "+o) + "\n")
			continue
		}
		b.WriteString("  " + o + "\n")
	}
	b.WriteString(helpStyle.Render("↑↓ navigate • ⏎ select") + "\n")
	return b.String()
}

func (m *searchModel) exited() bool { return m.exit }

// sortModel reorders items and toggles a flag on each.
type sortModel struct {
	message string
	labels  []string
	items   []SortItem
	cursor  int
	done    bool
	exit    bool
}

func newSortModel(message string, labels []string) *sortModel {
	items := make([]SortItem, len(labels))
	for i := range labels {
		items[i] = SortItem{Index: i}
	}
	return &sortModel{message: message, labels: labels, items: items}
}

func (m *sortModel) Init() tea.Cmd { return nil }

func (m *sortModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if isExitKey(key) {
		m.exit = true
		return m, tea.Quit
	}
	n := len(m.items)
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < n-1 {
			m.cursor++
		}
	case "shift+up", "ctrl+up", "K":
		if m.cursor > 0 {
			m.items[m.cursor], m.items[m.cursor-1] = m.items[m.cursor-1], m.items[m.cursor]
			m.cursor--
		}
	case "shift+down", "ctrl+down", "J":
		if m.cursor < n-1 {
			m.items[m.cursor], m.items[m.cursor+1] = m.items[m.cursor+1], m.items[m.cursor]
			m.cursor++
		}
	case " ":
		if n > 0 {
			m.items[m.cursor].Checked = !m.items[m.cursor].Checked
		}
	case "a":
		all := true
		for _, item := range m.items {
			all = all && item.Checked
		}
		for i := range m.items {
			m.items[i].Checked = !all
		}
	case "enter":
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *sortModel) View() string {
	var b strings.Builder
	b.WriteString(question(m.message) + "\n")
	if m.done {
		return b.String()
	}
	for i, item := range m.items {
		box := "◯"
		if item.Checked {
			box = markStyle.Render("◉")
		}
		line := box + " " + m.labels[item.Index]
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("❯") + line + "\n")
			continue
		}
		b.WriteString(" " + line + "\n")
	}
	b.WriteString(helpStyle.Render("↑↓ navigate • shift+↑↓ move • space flag for edit • a flag all • ⏎ done") + "\n")
	return b.String()
}

func (m *sortModel) exited() bool { return m.exit }
