package commands

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/backoffice/internal/importlog"
)

func newHistoryCommand() *cobra.Command {
	var repoDir string
	var limit int
	var entity string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent import runs and their batch IDs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := filepath.Abs(repoDir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			entries, err := importlog.Read(root)
			if err != nil {
				return err
			}

			if entity != "" {
				kept := entries[:0]
				for _, e := range entries {
					if strings.EqualFold(e.Entity, entity) {
						kept = append(kept, e)
					}
				}
				entries = kept
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No imports recorded.")
				return nil
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tBATCH\tENTITY\tFILE\tOK\tFAILED\tSKIPPED")
			for i := len(entries) - 1; i >= 0; i-- {
				e := entries[i]
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
					e.Timestamp.Local().Format("2006-01-02 15:04"), e.BatchID, e.Entity, e.File,
					e.Success, e.Errors, e.Skipped)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "workspace directory")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show at most this many runs, newest first (0 for all)")
	cmd.Flags().StringVar(&entity, "entity", "", "only runs of this entity")

	return cmd
}
