package ui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Terminal prompts with bubbletea programs, one per question.
type Terminal struct {
	in  io.Reader
	out io.Writer
}

// NewTerminal returns a Terminal reading keys from in and rendering to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out}
}

// run drives model until it quits. A cancelled ctx tears the program down
// and restores the terminal before run returns.
func (t *Terminal) run(ctx context.Context, model promptModel) (tea.Model, error) {
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(t.in),
		tea.WithOutput(t.out),
	)
	final, err := program.Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("prompt: %w", err)
	}
	if m, ok := final.(promptModel); ok && m.exited() {
		return nil, ErrExit
	}
	return final, nil
}

// Select implements Prompter.
func (t *Terminal) Select(ctx context.Context, message string, choices []Choice) (string, error) {
	final, err := t.run(ctx, newSelectModel(message, choices))
	if err != nil {
		return "", err
	}
	m := final.(*selectModel)
	if !m.done {
		return "", ErrExit
	}
	return m.choices[m.chosen].Value, nil
}

// Confirm implements Prompter.
func (t *Terminal) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	final, err := t.run(ctx, newConfirmModel(message, def))
	if err != nil {
		return false, err
	}
	m := final.(*confirmModel)
	if !m.done {
		return false, ErrExit
	}
	return m.answer, nil
}

// Search implements Prompter.
func (t *Terminal) Search(ctx context.Context, message string, options []string, match MatchFunc) (string, error) {
	final, err := t.run(ctx, newSearchModel(message, options, match))
	if err != nil {
		return "", err
	}
	m := final.(*searchModel)
	if !m.done {
		return "", ErrExit
	}
	return m.chosen, nil
}

// Sort implements Prompter.
func (t *Terminal) Sort(ctx context.Context, message string, items []string) ([]SortItem, error) {
	final, err := t.run(ctx, newSortModel(message, items))
	if err != nil {
		return nil, err
	}
	m := final.(*sortModel)
	if !m.done {
		return nil, ErrExit
	}
	return m.items, nil
}

// PromptAbort asks whether to abort the running edit. It returns false when
// the user dismisses the prompt and ctx.Err() when the prompt is cancelled.
func (t *Terminal) PromptAbort(ctx context.Context) (bool, error) {
	final, err := t.run(ctx, &abortModel{})
	if err != nil {
		return false, err
	}
	return final.(*abortModel).abort, nil
}
