// Package edit round-trips a single record through an external editor.
//
// Record seeds a scratch file with the record's JSON, waits for the editor
// while offering an abort prompt, then reparses and validates the result.
// Rejected text is left in the scratch file so the next editor session
// starts from the user's last attempt.
package edit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/jobqueue-go/internal/schema"
)

// Editor opens path in an external editor and returns once it exits.
type Editor interface {
	Edit(ctx context.Context, path string) error
}

// AbortPrompter asks the user whether to abort the running edit. It returns
// false when the user dismisses the prompt. Cancelling ctx must tear the
// prompt down and release the terminal before PromptAbort returns.
type AbortPrompter interface {
	PromptAbort(ctx context.Context) (bool, error)
}

// Reporter shows edit progress and rejections to the user.
type Reporter interface {
	Info(msg string)
	Reject(head string, err error)
}

// AbortError reports that the user cancelled an edit.
type AbortError struct {
	Reason string
}

func (e *AbortError) Error() string {
	return e.Reason
}

// Aborted returns an AbortError with the given reason.
func Aborted(reason string) error {
	return &AbortError{Reason: reason}
}

// IsAbort reports whether err is an AbortError.
func IsAbort(err error) bool {
	var ae *AbortError
	return errors.As(err, &ae)
}

// Session holds the collaborators shared by every edit.
type Session struct {
	Editor Editor
	// Abort is raced against the editor. Nil disables the abort prompt.
	Abort AbortPrompter
	Out   Reporter
	Log   *log.Logger
	// ScratchDir is where scratch files are created. Empty means os.TempDir.
	ScratchDir string
}

// Options customizes the presentation of one edit.
type Options struct {
	// ErrorHead prefixes every rejection, e.g. "Rejected job".
	ErrorHead string
	// ScratchPrefix prefixes the scratch file name.
	ScratchPrefix string
	// Tooltips are printed before the editor opens.
	Tooltips []string
}

// Checks are optional hooks run on the edited text.
type Checks[T any] struct {
	// PreParse runs on the raw text. Returning deleted ends the edit with
	// Result.Deleted; returning an error rejects the text.
	PreParse func(text string) (deleted bool, err error)
	// PostParse runs on the validated value. An error rejects it.
	PostParse func(value T) error
}

// Result is the terminal outcome of an edit that was not aborted.
type Result[T any] struct {
	Value   T
	Deleted bool
}

// DeleteIfBlank is a PreParse check treating blank text as a deletion.
func DeleteIfBlank(text string) (bool, error) {
	return strings.TrimSpace(text) == "", nil
}

// Record lets the user edit current until it passes sch and checks, or until
// the user deletes or aborts it. An abort is returned as *AbortError.
func Record[T any](ctx context.Context, s *Session, sch *schema.Schema, current T, opts Options, checks Checks[T]) (Result[T], error) {
	var zero Result[T]

	seed, err := schema.Encode(&current)
	if err != nil {
		return zero, fmt.Errorf("encode %s: %w", sch.Name(), err)
	}

	f, err := os.CreateTemp(s.ScratchDir, opts.ScratchPrefix+"*.json")
	if err != nil {
		return zero, fmt.Errorf("create scratch file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	_, err = f.Write(seed)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return zero, fmt.Errorf("write scratch file: %w", err)
	}
	s.logger().Debug("scratch file ready", "path", path, "schema", sch.Name())

	for {
		for _, tip := range opts.Tooltips {
			s.Out.Info(tip)
		}

		if err := s.wait(ctx, path); err != nil {
			return zero, err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return zero, fmt.Errorf("read scratch file: %w", err)
		}

		if checks.PreParse != nil {
			deleted, err := checks.PreParse(string(data))
			if err != nil {
				s.Out.Reject(opts.ErrorHead, err)
				continue
			}
			if deleted {
				return Result[T]{Deleted: true}, nil
			}
		}

		value, err := schema.Decode[T](sch, data)
		if err != nil {
			var ve *schema.ValidationError
			if !errors.As(err, &ve) {
				return zero, err
			}
			s.Out.Reject(opts.ErrorHead, ve)
			continue
		}

		if checks.PostParse != nil {
			if err := checks.PostParse(value); err != nil {
				s.Out.Reject(opts.ErrorHead, err)
				continue
			}
		}

		return Result[T]{Value: value}, nil
	}
}

type promptResult struct {
	abort bool
	err   error
}

// wait runs the editor on path, racing it against the abort prompt. The
// prompt is always torn down before wait returns. The editor is never
// killed: on abort it is left running and its result discarded.
func (s *Session) wait(ctx context.Context, path string) error {
	if s.Abort == nil {
		return s.Editor.Edit(ctx, path)
	}

	editCtx, cancelEdit := context.WithCancel(ctx)
	defer cancelEdit()
	promptCtx, cancelPrompt := context.WithCancel(ctx)
	defer cancelPrompt()

	edited := make(chan error, 1)
	go func() {
		edited <- s.Editor.Edit(editCtx, path)
	}()

	prompted := make(chan promptResult, 1)
	go func() {
		abort, err := s.Abort.PromptAbort(promptCtx)
		prompted <- promptResult{abort: abort, err: err}
	}()

	select {
	case err := <-edited:
		cancelPrompt()
		<-prompted
		return err
	case res := <-prompted:
		switch {
		case res.abort:
			s.logger().Debug("edit aborted, editor left running", "path", path)
			return Aborted("User aborted action")
		case res.err != nil && ctx.Err() == nil:
			s.logger().Warn("abort prompt failed", "err", res.err)
		}
		return <-edited
	}
}

func (s *Session) logger() *log.Logger {
	if s.Log == nil {
		return log.Default()
	}
	return s.Log
}
