package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/backoffice/internal/importer"
	"github.com/cleared-dev/backoffice/internal/importlog"
	"github.com/cleared-dev/backoffice/internal/logging"
)

func newImportCommand() *cobra.Command {
	var dryRun bool
	var repoDir string

	cmd := &cobra.Command{
		Use:   "import <entity> [files...]",
		Short: "Import a spreadsheet of records",
		Long: "Import expenses or transfers from .xlsx, .xls or .csv files.\n" +
			"Without files, every supported file in import/ is processed and moved to import/processed/.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd.Context(), repoDir)
			if err != nil {
				return err
			}
			defer ws.Close()
			return runImport(cmd.Context(), cmd.OutOrStdout(), ws, args[0], args[1:], dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate without creating records")
	cmd.Flags().StringVar(&repoDir, "repo", ".", "workspace directory")

	return cmd
}

// importFile is one file queued for import. Scanned files are moved to
// import/processed/ once they reach submission.
type importFile struct {
	name    string
	path    string
	scanned bool
}

func runImport(ctx context.Context, out io.Writer, ws *workspace, entity string, paths []string, dryRun bool) error {
	schema, err := lookupSchema(entity)
	if err != nil {
		return err
	}

	files, err := importFiles(ws.root, paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No files to import.")
		return nil
	}

	im := importer.New(ws.store, ws.log, importer.Options{SubmitRate: ws.cfg.Import.SubmitRate})
	ctx = logging.WithContext(ctx, ws.log)

	var entries []importlog.Entry
	var failed []string
	imported := 0
	for _, f := range files {
		sum, err := importOne(ctx, im, schema, f, dryRun)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", f.name, err)
			failed = append(failed, f.name)
			continue
		}
		fmt.Fprintf(out, "%s: %s", f.name, sum.Render(ws.cfg.Import.MaxDisplayErrors))
		if dryRun {
			continue
		}

		imported += sum.SuccessCount
		entries = append(entries, importlog.FromSummary(time.Now(), f.name, sum))
		if f.scanned && !sum.Cancelled {
			if err := importer.MarkProcessed(ws.root, f.name); err != nil {
				return err
			}
		}
		if sum.Cancelled {
			break
		}
	}

	if len(entries) > 0 {
		if err := importlog.Append(ws.root, entries); err != nil {
			ws.log.Warn().Err(err).Msg("failed to write import log")
		}
		msg := fmt.Sprintf("import: %d %s from %d file(s)", imported, strings.ToLower(schema.Name), len(entries))
		hash, err := ws.commit(context.WithoutCancel(ctx), msg)
		if err != nil {
			ws.log.Warn().Err(err).Msg("auto-commit failed")
		} else if hash != "" {
			ws.log.Info().Str("commit", hash).Msg("committed import")
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d file(s) could not be imported: %s", len(failed), strings.Join(failed, ", "))
	}
	return ctx.Err()
}

func importOne(ctx context.Context, im *importer.Importer, schema importer.Schema, f importFile, dryRun bool) (*importer.Summary, error) {
	r, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer r.Close()

	if dryRun {
		return im.ValidateFile(ctx, schema, r, f.name)
	}
	return im.ImportFile(ctx, schema, r, f.name)
}

func importFiles(repoRoot string, paths []string) ([]importFile, error) {
	if len(paths) == 0 {
		scanned, err := importer.Scan(repoRoot)
		if err != nil {
			return nil, err
		}
		files := make([]importFile, 0, len(scanned))
		for _, s := range scanned {
			files = append(files, importFile{name: s.Name, path: s.Path, scanned: true})
		}
		return files, nil
	}

	files := make([]importFile, 0, len(paths))
	for _, p := range paths {
		if !importer.Supported(p) {
			return nil, fmt.Errorf("%s: %w", p, importer.ErrUnsupportedFormat)
		}
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%s: file not found", p)
			}
			return nil, err
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s: is a directory", p)
		}
		files = append(files, importFile{name: filepath.Base(p), path: p})
	}
	return files, nil
}
