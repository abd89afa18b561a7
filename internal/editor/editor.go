// Package editor launches the user's external text editor.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/jobqueue-go/internal/utils"
)

// ErrNoEditor is returned when no editor command could be determined.
var ErrNoEditor = errors.New("no editor command configured")

// Resolve returns the editor command to use. The configured command wins,
// then $VISUAL, then $EDITOR, then the platform default.
func Resolve(configured string) string {
	for _, candidate := range []string{configured, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	if runtime.GOOS == "windows" {
		return "notepad"
	}
	return "vi"
}

// Launcher runs an editor command on a file and waits for it to exit.
type Launcher struct {
	// Command is the program and its leading arguments. The file path is
	// appended as the final argument.
	Command []string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Log     *log.Logger
}

// New returns a Launcher attached to the process's standard streams.
func New(command string, logger *log.Logger) (*Launcher, error) {
	args, err := utils.SplitCommand(command)
	if err != nil {
		return nil, fmt.Errorf("parsing editor command %q: %w", command, err)
	}
	if len(args) == 0 {
		return nil, ErrNoEditor
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Launcher{
		Command: args,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Log:     logger,
	}, nil
}

// Edit opens path in the editor and blocks until the editor exits or ctx is
// done. Cancelling ctx stops the wait only; the editor process keeps
// running and is reaped in the background.
func (l *Launcher) Edit(ctx context.Context, path string) error {
	if len(l.Command) == 0 {
		return ErrNoEditor
	}

	args := append(append([]string(nil), l.Command[1:]...), path)
	cmd := exec.Command(l.Command[0], args...)
	cmd.Stdin = l.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start editor %s: %w", l.Command[0], err)
	}
	l.Log.Debug("editor started", "command", cmd.Args, "pid", cmd.Process.Pid)

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("editor %s: %w", l.Command[0], err)
		}
		l.Log.Debug("editor exited", "path", path)
		return nil
	case <-ctx.Done():
		l.Log.Debug("stopped waiting for editor", "pid", cmd.Process.Pid)
		return ctx.Err()
	}
}
