package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/backoffice/internal/reference"
)

func newReferenceCommand() *cobra.Command {
	refCmd := &cobra.Command{
		Use:   "reference",
		Short: "Reference data operations",
	}
	refCmd.AddCommand(newReferenceLoadCommand())
	return refCmd
}

func newReferenceLoadCommand() *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load accounts, tags and users from reference/ into the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := openWorkspace(ctx, repoDir)
			if err != nil {
				return err
			}
			defer ws.Close()

			counts, err := reference.LoadDir(ctx, ws.root, ws.store)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d accounts, %d tags, %d users.\n",
				counts.Accounts, counts.Tags, counts.Users)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "workspace directory")
	return cmd
}
