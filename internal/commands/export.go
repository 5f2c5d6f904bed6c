package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/backoffice/internal/exporter"
	"github.com/cleared-dev/backoffice/internal/id"
)

func newExportCommand() *cobra.Command {
	var repoDir string
	var filter exporter.Filter
	var format string
	var outPath string

	cmd := &cobra.Command{
		Use:   "export <entity>",
		Short: "Export records to a spreadsheet",
		Long: "Export expenses or transfers. Without --out the file is written to the\n" +
			"configured export directory with a timestamped name; --out - writes to stdout.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := openWorkspace(ctx, repoDir)
			if err != nil {
				return err
			}
			defer ws.Close()

			schema, err := lookupSchema(args[0])
			if err != nil {
				return err
			}
			ref, err := ws.store.ReferenceData(ctx)
			if err != nil {
				return err
			}
			q, err := filter.Resolve(ref)
			if err != nil {
				return err
			}

			format = strings.ToLower(format)
			ex := exporter.New(ws.store, ws.cfg.Export.Dir)
			if outPath == "" && format == exporter.FormatXLSX {
				res, err := ex.Export(ctx, schema, q)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d %s to %s\n",
					res.RecordCount, strings.ToLower(schema.Name), res.FileName)
				return nil
			}

			if outPath == "-" {
				_, err := ex.Write(ctx, cmd.OutOrStdout(), schema, q, format)
				return err
			}
			if outPath == "" {
				if err := os.MkdirAll(ws.cfg.Export.Dir, 0o755); err != nil {
					return fmt.Errorf("creating export dir: %w", err)
				}
				outPath = filepath.Join(ws.cfg.Export.Dir, id.ExportFileName(schema.Name, time.Now(), format))
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating %s: %w", outPath, err)
			}
			n, err := ex.Write(ctx, f, schema, q, format)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				os.Remove(outPath)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d %s to %s\n", n, strings.ToLower(schema.Name), outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "workspace directory")
	cmd.Flags().StringVar(&filter.From, "from", "", "earliest date, YYYY-MM-DD")
	cmd.Flags().StringVar(&filter.To, "to", "", "latest date, YYYY-MM-DD")
	cmd.Flags().StringVar(&filter.Account, "account", "", "only records touching this account")
	cmd.Flags().StringVar(&filter.Tag, "tag", "", "only records with this tag")
	cmd.Flags().StringVar(&filter.User, "user", "", "only records attributed to this user")
	cmd.Flags().StringVar(&filter.Batch, "batch", "", "only records created by this import batch (see history)")
	cmd.Flags().StringVar(&format, "format", exporter.FormatXLSX, "output format: xlsx or csv")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file, or - for stdout")

	return cmd
}

func newTemplateCommand() *cobra.Command {
	var outPath string
	var format string

	cmd := &cobra.Command{
		Use:   "template <entity>",
		Short: "Write a blank import template with sample rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := lookupSchema(args[0])
			if err != nil {
				return err
			}

			format = strings.ToLower(format)
			if outPath == "" {
				outPath = id.TemplateFileName(schema.Name)
				if format == exporter.FormatCSV {
					outPath = strings.TrimSuffix(outPath, ".xlsx") + ".csv"
				}
			}
			if outPath == "-" {
				return exporter.Template(cmd.OutOrStdout(), schema, format)
			}

			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating %s: %w", outPath, err)
			}
			err = exporter.Template(f, schema, format)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				os.Remove(outPath)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file, or - for stdout")
	cmd.Flags().StringVar(&format, "format", exporter.FormatXLSX, "output format: xlsx or csv")

	return cmd
}
