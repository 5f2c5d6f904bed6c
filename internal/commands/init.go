package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/backoffice/internal/accounts"
	"github.com/cleared-dev/backoffice/internal/config"
	"github.com/cleared-dev/backoffice/internal/gitops"
	"github.com/cleared-dev/backoffice/internal/reference"
)

func newInitCommand() *cobra.Command {
	var name string
	var entityType string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new backoffice workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, name, entityType)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&entityType, "entity-type", "llc_single_member", "entity type")

	return cmd
}

func runInit(cmd *cobra.Command, dir, name, entityType string) error {
	ctx := cmd.Context()

	// Create directory structure.
	dirs := []string{
		reference.Dir,
		"logs",
		"import",
		filepath.Join("import", "processed"),
		"exports",
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write backoffice.yaml.
	cfg := config.Default(name, entityType)
	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write starter reference data.
	if err := reference.Seed(dir, accounts.DefaultChart(entityType)); err != nil {
		return fmt.Errorf("writing reference data: %w", err)
	}

	// Write .gitignore.
	gitignore := "exports/\n*.db\n*.db-journal\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	// Write import/.gitkeep.
	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	// Create the store and load the seeded reference data.
	ws, err := openWorkspace(ctx, dir)
	if err != nil {
		return err
	}
	defer ws.Close()
	counts, err := reference.LoadDir(ctx, dir, ws.store)
	if err != nil {
		return fmt.Errorf("loading reference data: %w", err)
	}
	ws.log.Debug().Int("accounts", counts.Accounts).Int("tags", counts.Tags).Msg("reference data loaded")

	// Initialize git and create initial commit.
	author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	repo, err := gitops.Init(ctx, dir, author)
	if err != nil {
		return err
	}
	hash, err := repo.CommitAll(ctx, "init: Initialize "+name)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized backoffice workspace at %s (%s)\n", dir, hash)
	return nil
}
