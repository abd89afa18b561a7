package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nibzard/jobqueue-go/internal/config"
)

func newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration and where each value came from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ws.Exists {
				fmt.Fprintf(out, "Config file: %s\n", ws.Path)
			} else {
				fmt.Fprintf(out, "Config file: %s (not created yet)\n", ws.Path)
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(out)
			tw.SetStyle(table.StyleLight)
			tw.AppendHeader(table.Row{"Key", "Value", "Source", "Override"})
			for _, key := range config.Keys() {
				value, _ := ws.Config.Value(key)
				tw.AppendRow(table.Row{key, value, ws.Sources[key], "--" + config.FlagName(key) + " / " + config.EnvName(key)})
			}
			tw.Render()
			return nil
		},
	}
}
