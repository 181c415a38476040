// Package commands wires the budgetmail CLI.
package commands

import (
	"github.com/spf13/cobra"
)

const version = "0.1.0"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "budgetmail",
		Short:   "Extract and categorize card transaction emails",
		Version: version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "budgetmail.yaml", "Config file path")

	rootCmd.AddCommand(newExtractCommand())
	rootCmd.AddCommand(newLabelCommand())
	rootCmd.AddCommand(newTrainCommand())
	rootCmd.AddCommand(newTransformCommand())
	rootCmd.AddCommand(newLoadCommand())

	return rootCmd
}
