package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nibzard/jobqueue-go/internal/logging"
)

func newHistoryCommand() *cobra.Command {
	var (
		n    int
		raw  bool
		list bool
	)
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show the actions recorded in the latest session journal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			runs, err := logging.FindLogRuns(ws.Config.LogDir)
			if err != nil {
				return fmt.Errorf("finding journals: %w", err)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No journal files found.")
				return nil
			}

			if list {
				tw := table.NewWriter()
				tw.SetOutputMirror(out)
				tw.AppendHeader(table.Row{"Run", "Modified", "Path"})
				for _, run := range runs {
					tw.AppendRow(table.Row{run.RunID, run.ModTime.Format("2006-01-02 15:04:05"), run.Path})
				}
				tw.Render()
				return nil
			}

			path := runs[0].Path
			if len(args) == 1 {
				path = ""
				for _, run := range runs {
					if run.RunID == args[0] {
						path = run.Path
					}
				}
				if path == "" {
					return fmt.Errorf("no journal for run %q", args[0])
				}
			}

			if raw {
				return logging.TailLog(out, path, n)
			}

			events, err := logging.ReadEvents(path)
			if err != nil {
				return err
			}
			if n > 0 && len(events) > n {
				events = events[len(events)-n:]
			}
			fmt.Fprintf(out, "Journal: %s\n", path)
			tw := table.NewWriter()
			tw.SetOutputMirror(out)
			tw.AppendHeader(table.Row{"Time", "Action", "Outcome", "Subject", "Detail"})
			for _, e := range events {
				tw.AppendRow(table.Row{e.Time.Local().Format("15:04:05"), e.Action, e.Outcome, e.Subject, e.Detail})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "lines", "n", 0, "number of events to show (0 = all)")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the JSONL lines as stored")
	cmd.Flags().BoolVar(&list, "list", false, "list the recorded sessions")
	return cmd
}
