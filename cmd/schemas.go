package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nibzard/jobqueue-go/internal/schema"
)

func newSchemasCommand() *cobra.Command {
	var (
		dir   string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "Export the JSON schemas of the documents and the config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				ws, err := loadWorkspace(cmd)
				if err != nil {
					return err
				}
				dir = ws.Config.Schemas
			}

			written, err := schema.Export(dir, force)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(written) == 0 {
				fmt.Fprintf(out, "Schemas already present in %s (use --force to overwrite)\n", dir)
				return nil
			}
			for _, path := range written {
				fmt.Fprintf(out, "Wrote %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "target directory (defaults to the configured schemas directory)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing schema files")
	return cmd
}
