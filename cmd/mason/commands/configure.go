package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/mason/internal/app"
)

func (c *CLI) newConfigureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configure <srcdir>",
		Short: "Generate the build file for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buildDir, _ := cmd.Flags().GetString("build-dir")
			return c.app.Configure(cmd.Context(), app.ConfigureOptions{
				SrcDir:   args[0],
				BuildDir: buildDir,
			})
		},
	}
	cmd.Flags().StringP("build-dir", "B", ".", "Directory to generate the build file in")
	return cmd
}
