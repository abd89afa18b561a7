// Package ui provides the interactive prompts and status output.
//
// Two Prompter implementations exist: Terminal renders full-screen style
// prompts with bubbletea, and Line reads numbered answers with readline
// for dumb terminals and piped input.
package ui

import (
	"context"
	"errors"
)

// ErrExit is returned by every prompt when the user asks to leave the
// program, typically with ctrl+c.
var ErrExit = errors.New("user exited")

// Choice is one entry of a Select prompt.
type Choice struct {
	Label string
	Value string
	// Disabled, when set, greys the choice out and is shown as the reason.
	Disabled string
}

// SortItem is one entry of a Sort result: the item's index before sorting
// and whether the user flagged it.
type SortItem struct {
	Index   int
	Checked bool
}

// Orders returns the original indices in their new order.
func Orders(items []SortItem) []int {
	order := make([]int, len(items))
	for i, item := range items {
		order[i] = item.Index
	}
	return order
}

// MatchFunc reports whether an option matches the typed query.
type MatchFunc func(query, option string) bool

// Prompter asks the user questions.
type Prompter interface {
	// Select returns the Value of the chosen enabled choice.
	Select(ctx context.Context, message string, choices []Choice) (string, error)
	// Confirm asks a yes/no question. def is used when the user just
	// presses enter.
	Confirm(ctx context.Context, message string, def bool) (bool, error)
	// Search lets the user narrow options by typing and returns the chosen
	// option.
	Search(ctx context.Context, message string, options []string, match MatchFunc) (string, error)
	// Sort lets the user reorder items and flag some of them.
	Sort(ctx context.Context, message string, items []string) ([]SortItem, error)
}
