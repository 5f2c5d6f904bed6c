package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/backoffice/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "backoffice",
		Short:   "Bulk spreadsheet import and export for the back-office ledger",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newReferenceCommand())
	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newExportCommand())
	rootCmd.AddCommand(newTemplateCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newServeCommand())

	return rootCmd
}
