package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nibzard/jobqueue-go/internal/actions"
	"github.com/nibzard/jobqueue-go/internal/tracker"
)

func newLsCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:       "ls [jobs|projects]",
		Short:     "List queued jobs or pooled projects",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"jobs", "projects"},
		RunE: func(cmd *cobra.Command, args []string) error {
			what := "jobs"
			if len(args) == 1 {
				what = args[0]
			}

			ws, err := loadWorkspace(cmd)
			if err != nil {
				return err
			}
			docs, err := actions.LoadDocuments(ws.Config.JobQueue, ws.Config.ProjectPool, ws.log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var data any = docs.Queue.Data
			if what == "projects" {
				data = docs.Pool.Data
			}
			switch format {
			case "json":
				return printJSON(out, data)
			case "yaml":
				return printYAML(out, data)
			case "table":
				if what == "projects" {
					renderProjects(out, docs.Pool.Data.Pool, docs.Queue.Data.Queue)
				} else {
					renderJobs(out, docs.Queue.Data.Queue)
				}
				return nil
			default:
				return fmt.Errorf("unknown format %q (expected table|json|yaml)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table|json|yaml)")
	return cmd
}

func renderJobs(w io.Writer, queue []tracker.Job) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"#", "Name", "Project", "Objectives", "Updates"})
	for i, job := range queue {
		tw.AppendRow(table.Row{i, job.Name, job.Project, strings.Join(job.Objectives, "\n"), tracker.Text(job.Updates)})
	}
	tw.Style().Format.Footer = text.FormatDefault
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d %s", len(queue), plural(len(queue), "job", "jobs"))})
	tw.Render()
}

func renderProjects(w io.Writer, pool []tracker.Project, queue []tracker.Job) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Name", "Status", "Jobs", "Repo", "Description"})
	for _, p := range pool {
		tw.AppendRow(table.Row{p.Name, p.Status, len(tracker.ReferencingJobs(queue, p.Name)), tracker.Text(p.Repo), tracker.Text(p.Description)})
	}
	tw.Style().Format.Footer = text.FormatDefault
	tw.AppendFooter(table.Row{fmt.Sprintf("%d %s", len(pool), plural(len(pool), "project", "projects"))})
	tw.Render()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
