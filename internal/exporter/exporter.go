// Package exporter writes stored records as spreadsheets whose headers the
// importer reads back.
package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/backoffice/internal/catalog"
	"github.com/cleared-dev/backoffice/internal/id"
	"github.com/cleared-dev/backoffice/internal/importer"
	"github.com/cleared-dev/backoffice/internal/model"
	"github.com/cleared-dev/backoffice/internal/store"
)

// Output formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// Source supplies records and the reference data to flatten them.
type Source interface {
	ReferenceData(ctx context.Context) (model.ReferenceData, error)
	Records(ctx context.Context, q store.Query) ([]model.Record, error)
}

// Result describes a finished export.
type Result struct {
	FileName    string
	RecordCount int
}

// Exporter writes records matching a query to files or writers.
type Exporter struct {
	src Source
	dir string
	now func() time.Time
}

// New creates an exporter writing files under dir.
func New(src Source, dir string) *Exporter {
	return &Exporter{src: src, dir: dir, now: time.Now}
}

// Export writes the records matching q to a new xlsx file under the
// exporter's directory.
func (e *Exporter) Export(ctx context.Context, schema importer.Schema, q store.Query) (Result, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating export dir: %w", err)
	}
	name := id.ExportFileName(schema.Name, e.now(), FormatXLSX)

	f, err := os.Create(filepath.Join(e.dir, name))
	if err != nil {
		return Result{}, fmt.Errorf("creating %s: %w", name, err)
	}
	n, err := e.Write(ctx, f, schema, q, FormatXLSX)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing %s: %w", name, cerr)
	}
	if err != nil {
		_ = os.Remove(filepath.Join(e.dir, name))
		return Result{}, err
	}
	return Result{FileName: name, RecordCount: n}, nil
}

// Write streams the records matching q to w in format and returns how many
// were written.
func (e *Exporter) Write(ctx context.Context, w io.Writer, schema importer.Schema, q store.Query, format string) (int, error) {
	q.Kind = schema.Kind
	ref, err := e.src.ReferenceData(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading reference data: %w", err)
	}
	recs, err := e.src.Records(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("loading %s records: %w", schema.Noun, err)
	}

	cat := catalog.New(ref)
	grid := make([][]string, 0, len(recs))
	for _, rec := range recs {
		grid = append(grid, flatten(schema, cat, rec))
	}
	if err := writeGrid(w, schema, grid, format); err != nil {
		return 0, err
	}
	return len(recs), nil
}

// flatten renders rec as one row of cells in schema column order.
func flatten(schema importer.Schema, cat *catalog.Catalog, rec model.Record) []string {
	cells := make([]string, len(schema.Columns))
	for i, col := range schema.Columns {
		switch col.Field {
		case importer.FieldExternalID:
			cells[i] = rec.ExternalID
		case importer.FieldDate:
			if rec.HasDate() {
				cells[i] = rec.Date.Format("2006-01-02")
			}
		case importer.FieldAccount:
			cells[i] = accountName(cat, rec.AccountID)
		case importer.FieldToAccount:
			cells[i] = accountName(cat, rec.ToAccountID)
		case importer.FieldAmount:
			cells[i] = rec.Amount.String()
		case importer.FieldCurrency:
			cells[i] = rec.CurrencyCode
		case importer.FieldDescription:
			cells[i] = rec.Description
		case importer.FieldTags:
			names := make([]string, 0, len(rec.TagIDs))
			for _, tid := range rec.TagIDs {
				if t, ok := cat.TagByID(tid); ok {
					names = append(names, t.Name)
				}
			}
			cells[i] = strings.Join(names, ", ")
		case importer.FieldUser:
			if u, ok := cat.UserByID(rec.UserID); ok {
				cells[i] = u.Name
			}
		}
	}
	return cells
}

func accountName(cat *catalog.Catalog, accountID int) string {
	if accountID == 0 {
		return ""
	}
	if a, ok := cat.AccountByID(accountID); ok {
		return a.Name
	}
	return "#" + strconv.Itoa(accountID)
}

func writeGrid(w io.Writer, schema importer.Schema, grid [][]string, format string) error {
	switch format {
	case FormatXLSX, "":
		return writeXLSX(w, schema, grid)
	case FormatCSV:
		return writeCSV(w, schema, grid)
	default:
		return fmt.Errorf("%w: %q", importer.ErrUnsupportedFormat, format)
	}
}

func writeCSV(w io.Writer, schema importer.Schema, grid [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(schema.Headers()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := cw.WriteAll(grid); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}

func writeXLSX(w io.Writer, schema importer.Schema, grid [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := schema.Name
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]any, 0, len(schema.Columns))
	for _, h := range schema.Headers() {
		header = append(header, h)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, cells := range grid {
		row := make([]any, len(cells))
		for j, c := range cells {
			row[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
