package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
)

// LineReader reads one line of input after showing a prompt.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// Line prompts with numbered, line-oriented questions. It works without a
// terminal, e.g. with input piped from a script.
type Line struct {
	rl  LineReader
	out io.Writer
}

// NewLine returns a Line reading from in with readline.
func NewLine(in io.Reader, out io.Writer) (*Line, error) {
	stdin, ok := in.(io.ReadCloser)
	if !ok {
		stdin = io.NopCloser(in)
	}
	rl, err := readline.NewEx(&readline.Config{
		Stdin:           stdin,
		Stdout:          out,
		HistoryLimit:    -1,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("create readline: %w", err)
	}
	return &Line{rl: rl, out: out}, nil
}

// NewLineWith returns a Line reading from rl.
func NewLineWith(rl LineReader, out io.Writer) *Line {
	return &Line{rl: rl, out: out}
}

// Close releases the underlying reader.
func (l *Line) Close() error {
	if c, ok := l.rl.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (l *Line) read(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	l.rl.SetPrompt(prompt)
	line, err := l.rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return "", ErrExit
		}
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Select implements Prompter.
func (l *Line) Select(ctx context.Context, message string, choices []Choice) (string, error) {
	fmt.Fprintf(l.out, "? %s\n", message)
	for i, c := range choices {
		if c.Disabled != "" {
			fmt.Fprintf(l.out, "  -) %s %s\n", c.Label, c.Disabled)
			continue
		}
		fmt.Fprintf(l.out, "  %d) %s\n", i+1, c.Label)
	}

	for {
		answer, err := l.read(ctx, "> ")
		if err != nil {
			return "", err
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(choices) && choices[n-1].Disabled == "" {
			return choices[n-1].Value, nil
		}
		fmt.Fprintln(l.out, "Pick the number of an available choice.")
	}
}

// Confirm implements Prompter.
func (l *Line) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	hint := "(y/N)"
	if def {
		hint = "(Y/n)"
	}
	for {
		answer, err := l.read(ctx, fmt.Sprintf("? %s %s ", message, hint))
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(l.out, "Answer y or n.")
	}
}

// Search implements Prompter. A query matching one option selects it;
// otherwise the matches are listed and the user picks a number or refines
// the query.
func (l *Line) Search(ctx context.Context, message string, options []string, match MatchFunc) (string, error) {
	var matches []string
	picking := false
	for {
		prompt := fmt.Sprintf("? %s: ", message)
		if picking {
			prompt = "Pick a number or refine the search: "
		}
		answer, err := l.read(ctx, prompt)
		if err != nil {
			return "", err
		}
		if picking {
			if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(matches) {
				return matches[n-1], nil
			}
		}

		matches = matches[:0]
		for _, o := range options {
			if answer == "" || match(answer, o) {
				matches = append(matches, o)
			}
		}

		picking = false
		switch len(matches) {
		case 0:
			fmt.Fprintln(l.out, "No results.")
		case 1:
			return matches[0], nil
		default:
			for i, o := range matches {
				fmt.Fprintf(l.out, "  %d) %s\n", i+1, o)
			}
			picking = true
		}
	}
}

// Sort implements Prompter. The answer lists indices in their new order,
// with a trailing * flagging an item. Unlisted items keep their relative
// order after the listed ones.
func (l *Line) Sort(ctx context.Context, message string, items []string) ([]SortItem, error) {
	fmt.Fprintf(l.out, "? %s\n", message)
	for i, item := range items {
		fmt.Fprintf(l.out, "  %d) %s\n", i, item)
	}
	fmt.Fprintln(l.out, "Enter the new order, * flags an item for editing (e.g. \"2* 0\"). Empty keeps the order.")

	for {
		answer, err := l.read(ctx, "> ")
		if err != nil {
			return nil, err
		}
		result, err := ParseOrder(answer, len(items))
		if err == nil {
			return result, nil
		}
		fmt.Fprintln(l.out, err)
	}
}

// ParseOrder parses an order answer such as "2* 0" for n items.
func ParseOrder(answer string, n int) ([]SortItem, error) {
	fields := strings.FieldsFunc(answer, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})

	seen := make([]bool, n)
	result := make([]SortItem, 0, n)
	for _, field := range fields {
		checked := strings.HasSuffix(field, "*")
		idx, err := strconv.Atoi(strings.TrimSuffix(field, "*"))
		if err != nil || idx < 0 || idx >= n {
			return nil, fmt.Errorf("'%s' is not an index between 0 and %d", field, n-1)
		}
		if seen[idx] {
			return nil, fmt.Errorf("index %d listed twice", idx)
		}
		seen[idx] = true
		result = append(result, SortItem{Index: idx, Checked: checked})
	}
	for idx := range seen {
		if !seen[idx] {
			result = append(result, SortItem{Index: idx})
		}
	}
	return result, nil
}
