// Package cmd implements the CLI command structure for jobqueue.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nibzard/jobqueue-go/internal/actions"
	"github.com/nibzard/jobqueue-go/internal/config"
	"github.com/nibzard/jobqueue-go/internal/edit"
	"github.com/nibzard/jobqueue-go/internal/editor"
	"github.com/nibzard/jobqueue-go/internal/logging"
	"github.com/nibzard/jobqueue-go/internal/loop"
	"github.com/nibzard/jobqueue-go/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// configEnv selects another config file, like --config.
const configEnv = config.EnvPrefix + "_CONFIG"

// Run executes the jobqueue CLI.
func Run(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. Without a subcommand it runs the
// interactive menu.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "jobqueue",
		Short: "Keep track of jobs and projects built around a couple of JSON files",
		Long: `jobqueue keeps a queue of jobs and a pool of projects in two JSON files.
Records are edited in your text editor and validated on save. Every job
references a project by name; projects referenced by queued jobs stay active.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		RunE:          runInteractive,
	}
	root.SetVersionTemplate("jobqueue version {{.Version}}\n")
	addPersistentFlags(root.PersistentFlags())

	root.AddCommand(
		newLsCommand(),
		newDoctorCommand(),
		newSchemasCommand(),
		newConfigCommand(),
		newHistoryCommand(),
		newVersionCommand(),
	)
	return root
}

func addPersistentFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to config.toml (env "+configEnv+")")
	fs.StringP("jobqueue", "j", "", "path to jobqueue.json (optional, falls back to config)")
	fs.StringP("projectpool", "p", "", "path to projectpool.json (optional, falls back to config)")
	fs.StringP("editor", "e", "", "editor command (optional, falls back to config, $VISUAL, $EDITOR)")
	fs.String("schemas", "", "directory of the exported JSON schemas")
	fs.Bool("abort-prompt", true, "offer an abort prompt while the editor is open")
	fs.Bool("journal", true, "record completed actions in the session journal")
	fs.String("log-dir", "", "session journal directory")
	fs.String("log-level", "", "log level (debug|info|warn|error|fatal)")
	fs.String("log-format", "", "log format (text|json|logfmt)")
	fs.Bool("log-timestamps", false, "include timestamps in log lines")
	fs.Bool("log-caller", false, "include caller in log lines")
	fs.Bool("plain", false, "use line prompts instead of the terminal UI")
	fs.Bool("no-color", false, "disable colored output")
}

// workspace is the resolved configuration of one invocation.
type workspace struct {
	*config.WithSources
	log *log.Logger
}

func (w *workspace) cfg() *config.Config {
	return w.Config
}

// configPath returns the config file selected by flag, environment or the
// platform default.
func configPath(cmd *cobra.Command) (string, error) {
	if f := cmd.Flags().Lookup("config"); f != nil && f.Changed {
		return f.Value.String(), nil
	}
	if path, ok := os.LookupEnv(configEnv); ok && path != "" {
		return path, nil
	}
	if path := config.DefaultPath(); path != "" {
		return path, nil
	}
	return "", fmt.Errorf("cannot determine the user config directory; use --config")
}

// loadWorkspace loads the config with environment and flag overrides and
// builds the console logger from it.
func loadWorkspace(cmd *cobra.Command) (*workspace, error) {
	path, err := configPath(cmd)
	if err != nil {
		return nil, err
	}
	v, err := config.Bind(cmd.Flags())
	if err != nil {
		return nil, err
	}
	ws, err := config.Load(path, v, cmd.Flags())
	if err != nil {
		return nil, err
	}

	cfg := ws.Config
	logger := logging.NewConsoleFromConfig(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller)
	logger.Debug("config resolved", "path", ws.Path, "exists", ws.Exists)
	return &workspace{WithSources: ws, log: logger}, nil
}

func flagBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	return err == nil && v
}

func newPrinter(cmd *cobra.Command) *ui.Printer {
	out := cmd.OutOrStdout()
	return ui.NewPrinter(out, flagBool(cmd, "no-color") || !ui.IsTTY(out))
}

// runInteractive bootstraps the config on first run, loads both documents
// and runs the menu until the user exits.
func runInteractive(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	in, out := cmd.InOrStdin(), cmd.OutOrStdout()

	printer := newPrinter(cmd)
	printer.ClearScreen()
	printer.Banner()

	ws, err := loadWorkspace(cmd)
	if err != nil {
		return err
	}
	created, err := config.Bootstrap(ws.WithSources)
	if err != nil {
		return err
	}
	for _, path := range created {
		printer.Info("Created " + path)
	}
	if err := config.Check(ws.WithSources); err != nil {
		return err
	}

	cfg := ws.cfg()
	docs, err := actions.LoadDocuments(cfg.JobQueue, cfg.ProjectPool, ws.log)
	if err != nil {
		return err
	}

	prompt, abort, closePrompt, err := newPrompter(in, out, flagBool(cmd, "plain"))
	if err != nil {
		return err
	}
	defer closePrompt()

	_, err = config.Reconcile(ctx, ws.WithSources, func(ctx context.Context, msg string) (bool, error) {
		return prompt.Confirm(ctx, msg, false)
	})
	if errors.Is(err, ui.ErrExit) || interrupted(ctx, err) {
		printer.Farewell()
		return nil
	}
	if err != nil {
		return err
	}
	printer.Blank()

	launcher, err := editor.New(editor.Resolve(cfg.Editor), ws.log)
	if err != nil {
		return err
	}
	session := &edit.Session{Editor: launcher, Out: printer, Log: ws.log}
	if abort != nil && cfg.AbortPrompt {
		session.Abort = abort
	}

	var journal logging.Recorder = logging.Discard
	if cfg.Journal {
		j, err := logging.NewJournal(cfg.LogDir)
		if err != nil {
			return err
		}
		defer j.Close()
		ws.log.Debug("journal opened", "path", j.LogPath)
		journal = j
	}

	menu := &actions.Actions{
		Queue:   docs.Queue,
		Pool:    docs.Pool,
		Edit:    session,
		Prompt:  prompt,
		Out:     printer,
		Journal: journal,
		Log:     ws.log,
	}
	if err := loop.New(menu, prompt, printer, ws.log).Run(ctx); err != nil && !interrupted(ctx, err) {
		return err
	}
	printer.Farewell()
	return nil
}

// interrupted reports whether err comes from cancelling the run's context,
// which ends the menu the same way a user exit does.
func interrupted(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err())
}

// newPrompter picks the terminal UI when both ends are terminals and line
// prompts otherwise. The abort prompter is nil in line mode, where the
// editor owns the input.
func newPrompter(in io.Reader, out io.Writer, plain bool) (ui.Prompter, edit.AbortPrompter, func(), error) {
	if !plain && ui.IsInteractive(in, out) {
		term := ui.NewTerminal(in, out)
		return term, term, func() {}, nil
	}
	line, err := ui.NewLine(in, out)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init line prompts: %w", err)
	}
	return line, nil, func() { _ = line.Close() }, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "jobqueue version %s\n", Version)
			return nil
		},
	}
}
