// Package loop runs the interactive menu until the user exits.
package loop

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	"github.com/nibzard/jobqueue-go/internal/actions"
	"github.com/nibzard/jobqueue-go/internal/ui"
)

// Menu is the set of actions offered each round.
type Menu interface {
	Choices() []ui.Choice
	Run(ctx context.Context, name actions.Name) error
}

// Screen separates the rounds of the menu.
type Screen interface {
	Blank()
}

// Loop manages the menu rounds.
type Loop struct {
	menu   Menu
	prompt ui.Prompter
	screen Screen
	log    *log.Logger
	rounds int
}

// New creates a new loop instance.
func New(menu Menu, prompt ui.Prompter, screen Screen, logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.Default()
	}
	return &Loop{menu: menu, prompt: prompt, screen: screen, log: logger}
}

// Run shows the menu and runs the chosen action until the user exits. A
// user exit, from the menu or from a prompt inside an action, ends the loop
// cleanly with a nil error. Any other error ends it and is returned.
func (l *Loop) Run(ctx context.Context) error {
	for {
		// Check context
		if err := ctx.Err(); err != nil {
			return err
		}

		choice, err := l.prompt.Select(ctx, "Select action", l.menu.Choices())
		if err != nil {
			return l.stop(err)
		}

		l.rounds++
		if err := l.menu.Run(ctx, actions.Name(choice)); err != nil {
			return l.stop(err)
		}
		l.screen.Blank()
	}
}

// Rounds returns how many actions were run.
func (l *Loop) Rounds() int {
	return l.rounds
}

func (l *Loop) stop(err error) error {
	if errors.Is(err, ui.ErrExit) {
		l.log.Debug("user exited menu", "rounds", l.rounds)
		return nil
	}
	return err
}
