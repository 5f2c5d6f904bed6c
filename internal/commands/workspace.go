package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/backoffice/internal/config"
	"github.com/cleared-dev/backoffice/internal/gitops"
	"github.com/cleared-dev/backoffice/internal/importer"
	"github.com/cleared-dev/backoffice/internal/logging"
	"github.com/cleared-dev/backoffice/internal/store"
)

// workspace is an opened backoffice directory: its config, logger and store.
type workspace struct {
	root  string
	cfg   *config.Config
	log   zerolog.Logger
	store *store.Store
}

func openWorkspace(ctx context.Context, repoDir string) (*workspace, error) {
	root, err := filepath.Abs(repoDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.LoadRepo(root)
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, err
	}
	return &workspace{root: root, cfg: cfg, log: log, store: st}, nil
}

func (w *workspace) Close() error {
	return w.store.Close()
}

func lookupSchema(name string) (importer.Schema, error) {
	reg := importer.DefaultRegistry()
	schema, ok := reg.Get(name)
	if !ok {
		return importer.Schema{}, fmt.Errorf("unknown entity %q (known: %v)", name, reg.Names())
	}
	return schema, nil
}

// commit records workspace changes in git when auto-commit is enabled.
// Returns the short hash, or "" when nothing was committed.
func (w *workspace) commit(ctx context.Context, message string) (string, error) {
	if !w.cfg.Git.AutoCommit {
		return "", nil
	}
	repo, ok := gitops.Open(w.root, gitops.Author{Name: w.cfg.Git.AuthorName, Email: w.cfg.Git.AuthorEmail})
	if !ok {
		return "", nil
	}
	return repo.CommitAll(ctx, message)
}
