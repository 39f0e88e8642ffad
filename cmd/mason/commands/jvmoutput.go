package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newJVMOutputCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "jvmoutput -o <file> -- <compiler command...>",
		Short:  "Run a JVM compiler and capture its class list",
		Hidden: true,
		Args:   cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			return c.app.FilterJVMOutput(cmd.Context(), output, args)
		},
	}
	cmd.Flags().StringP("output", "o", "", "File to write the class list to")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
