package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keys(s ...string) []tea.KeyMsg {
	var msgs []tea.KeyMsg
	for _, k := range s {
		switch k {
		case "enter":
			msgs = append(msgs, tea.KeyMsg{Type: tea.KeyEnter})
		case "up":
			msgs = append(msgs, tea.KeyMsg{Type: tea.KeyUp})
		case "down":
			msgs = append(msgs, tea.KeyMsg{Type: tea.KeyDown})
		case "shift+up":
			msgs = append(msgs, tea.KeyMsg{Type: tea.KeyShiftUp})
		case "shift+down":
			msgs = append(msgs, tea.KeyMsg{Type: tea.KeyShiftDown})
		case "space":
			msgs = append(msgs, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
		case "ctrl+c":
			msgs = append(msgs, tea.KeyMsg{Type: tea.KeyCtrlC})
		case "esc":
			msgs = append(msgs, tea.KeyMsg{Type: tea.KeyEsc})
		default:
			msgs = append(msgs, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
		}
	}
	return msgs
}

func feed(m tea.Model, msgs []tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		m, cmd = m.Update(msg)
	}
	return m, cmd
}

func isQuit(t *testing.T, cmd tea.Cmd) bool {
	t.Helper()
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func menuChoices() []Choice {
	return []Choice{
		{Label: "Dequeue job", Value: "dequeueJob", Disabled: "(Empty job queue)"},
		{Label: "Enqueue job", Value: "enqueueJob"},
		{Label: "Edit queue", Value: "editQueue", Disabled: "(Empty job queue)"},
		{Label: "Add project", Value: "addProject"},
	}
}

func TestSelectModel(t *testing.T) {
	t.Run("skips disabled choices", func(t *testing.T) {
		m := newSelectModel("Select action", menuChoices())
		assert.Equal(t, 1, m.cursor)

		_, cmd := feed(m, keys("down", "enter"))
		assert.True(t, isQuit(t, cmd))
		assert.True(t, m.done)
		assert.Equal(t, "addProject", m.choices[m.chosen].Value)
	})

	t.Run("wraps around", func(t *testing.T) {
		m := newSelectModel("Select action", menuChoices())
		feed(m, keys("up"))
		assert.Equal(t, 3, m.cursor)
		feed(m, keys("down"))
		assert.Equal(t, 1, m.cursor)
	})

	t.Run("view shows disabled reason", func(t *testing.T) {
		m := newSelectModel("Select action", menuChoices())
		view := m.View()
		assert.Contains(t, view, "Select action")
		assert.Contains(t, view, "Dequeue job (Empty job queue)")
		assert.Contains(t, view, "Enqueue job")
	})

	t.Run("all disabled", func(t *testing.T) {
		m := newSelectModel("Select action", []Choice{{Label: "x", Value: "x", Disabled: "(no)"}})
		_, cmd := feed(m, keys("enter"))
		assert.False(t, isQuit(t, cmd))
		assert.False(t, m.done)
	})

	t.Run("exit", func(t *testing.T) {
		for _, k := range []string{"ctrl+c", "esc"} {
			m := newSelectModel("Select action", menuChoices())
			_, cmd := feed(m, keys(k))
			assert.True(t, isQuit(t, cmd))
			assert.True(t, m.exited())
		}
	})
}

func TestConfirmModel(t *testing.T) {
	tests := []struct {
		key  string
		def  bool
		want bool
	}{
		{"y", false, true},
		{"Y", false, true},
		{"n", true, false},
		{"enter", true, true},
		{"enter", false, false},
	}
	for _, tt := range tests {
		m := newConfirmModel("Abort all edits?", tt.def)
		_, cmd := feed(m, keys(tt.key))
		assert.True(t, isQuit(t, cmd))
		assert.True(t, m.done)
		assert.Equal(t, tt.want, m.answer, "key %s default %v", tt.key, tt.def)
	}

	m := newConfirmModel("Abort all edits?", true)
	assert.Contains(t, m.View(), "(Y/n)")
	_, cmd := feed(m, keys("x"))
	assert.False(t, isQuit(t, cmd))
	_, cmd = feed(m, keys("ctrl+c"))
	assert.True(t, isQuit(t, cmd))
	assert.True(t, m.exited())
}

func TestAbortModel(t *testing.T) {
	tests := []struct {
		key   string
		abort bool
	}{
		{"y", true},
		{"Y", true},
		{"ctrl+c", true},
		{"n", false},
		{"enter", false},
		{"x", false},
	}
	for _, tt := range tests {
		m := &abortModel{}
		assert.Contains(t, m.View(), "Type `y` to abort...")
		_, cmd := feed(m, keys(tt.key))
		assert.True(t, isQuit(t, cmd))
		assert.Equal(t, tt.abort, m.abort, "key %s", tt.key)
		assert.Empty(t, m.View(), "prompt line removed once answered")
		assert.False(t, m.exited())
	}
}

func TestSearchModel(t *testing.T) {
	options := []string{"alpha", "beta", "gamma"}
	match := func(q, o string) bool { return strings.Contains(o, q) }

	t.Run("filters and selects", func(t *testing.T) {
		m := newSearchModel("Enter the name of the project to edit", options, match)
		assert.Equal(t, options, m.filtered)

		feed(m, keys("m"))
		assert.Equal(t, []string{"gamma"}, m.filtered)

		_, cmd := feed(m, keys("enter"))
		assert.True(t, isQuit(t, cmd))
		assert.Equal(t, "gamma", m.chosen)
	})

	t.Run("cursor moves within results", func(t *testing.T) {
		m := newSearchModel("Search", options, match)
		feed(m, keys("a", "down", "down", "down"))
		assert.Equal(t, []string{"alpha", "beta", "gamma"}, m.filtered)
		assert.Equal(t, 2, m.cursor)
		feed(m, keys("l"))
		assert.Equal(t, []string{"alpha"}, m.filtered)
		assert.Equal(t, 0, m.cursor)
	})

	t.Run("no results", func(t *testing.T) {
		m := newSearchModel("Search", options, match)
		feed(m, keys("z"))
		assert.Empty(t, m.filtered)
		assert.Contains(t, m.View(), "No results")
		_, cmd := feed(m, keys("enter"))
		assert.False(t, isQuit(t, cmd))
	})
}

func TestSortModel(t *testing.T) {
	m := newSortModel("Reorder queue and/or select jobs to edit", []string{"a", "b", "c"})

	// Move c to the top and flag it, then flag b.
	feed(m, keys("down", "down", "shift+up", "shift+up", "space", "down", "down", "space"))
	_, cmd := feed(m, keys("enter"))
	require.True(t, isQuit(t, cmd))

	assert.Equal(t, []SortItem{
		{Index: 2, Checked: true},
		{Index: 0},
		{Index: 1, Checked: true},
	}, m.items)
	assert.Equal(t, []int{2, 0, 1}, Orders(m.items))
}

func TestSortModelView(t *testing.T) {
	m := newSortModel("Reorder", []string{"[X]\tjob one", "[Y]\tjob two"})
	feed(m, keys("space"))
	view := m.View()
	assert.Contains(t, view, "job one")
	assert.Contains(t, view, "job two")
	assert.Contains(t, view, "◉")
	assert.Contains(t, view, "◯")

	feed(m, keys("a"))
	assert.True(t, m.items[0].Checked && m.items[1].Checked)
	feed(m, keys("a"))
	assert.False(t, m.items[0].Checked || m.items[1].Checked)
}
