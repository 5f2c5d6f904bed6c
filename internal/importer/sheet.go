package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const (
	extXLSX = ".xlsx"
	extXLSM = ".xlsm"
	extXLS  = ".xls"
	extCSV  = ".csv"
)

var (
	// ErrSheetNotFound is returned when a workbook lacks the entity's sheet.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrNoRecords is returned when a file has no data rows.
	ErrNoRecords = errors.New("No records found in the file") //nolint:staticcheck // shown to users verbatim
	// ErrUnsupportedFormat is returned for extensions other than xlsx, xls and csv.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Row is one data row of an import file.
type Row struct {
	// Number is the 1-based spreadsheet row; the header is row 1, so the
	// first data row is 2. Blank rows are skipped but still counted.
	Number int
	Cells  map[Field]string
}

// Get returns the trimmed cell for f, or "" when the column is absent.
func (r Row) Get(f Field) string {
	return strings.TrimSpace(r.Cells[f])
}

// ReadRows reads the entity's rows from an xlsx, xls or csv file. The
// format is chosen by fileName's extension.
func ReadRows(r io.Reader, fileName string, schema Schema) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fileName, err)
	}

	var grid [][]string
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case extXLSX, extXLSM:
		grid, err = readXLSX(data, schema.Name)
	case extXLS:
		grid, err = readXLS(data, schema.Name)
	case extCSV:
		grid, err = readCSV(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	return rowsFromGrid(grid, schema)
}

func rowsFromGrid(grid [][]string, schema Schema) ([]Row, error) {
	if len(grid) == 0 {
		return nil, ErrNoRecords
	}
	idx := schema.HeaderIndex(grid[0])

	var rows []Row
	for i, record := range grid[1:] {
		if blank(record) {
			continue
		}
		cells := make(map[Field]string, len(idx))
		for f, col := range idx {
			if col < len(record) {
				cells[f] = record[col]
			}
		}
		rows = append(rows, Row{Number: i + 2, Cells: cells})
	}
	if len(rows) == 0 {
		return nil, ErrNoRecords
	}
	return rows, nil
}

func blank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func readXLSX(data []byte, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		if !strings.EqualFold(strings.TrimSpace(name), sheet) {
			continue
		}
		// Raw values: numbers without their display format, dates as serials.
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", name, err)
		}
		return rows, nil
	}
	return nil, fmt.Errorf("%w: expected a sheet named %q", ErrSheetNotFound, sheet)
}

func readXLS(data []byte, sheet string) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}

	for _, sh := range wb.GetSheets() {
		if !strings.EqualFold(strings.TrimSpace(sh.GetName()), sheet) {
			continue
		}
		var grid [][]string
		for _, row := range sh.GetRows() {
			var record []string
			for _, col := range row.GetCols() {
				// GetString ignores the cell's number format.
				record = append(record, col.GetString())
			}
			grid = append(grid, record)
		}
		return grid, nil
	}
	return nil, fmt.Errorf("%w: expected a sheet named %q", ErrSheetNotFound, sheet)
}

// readCSV decodes UTF-8 (with or without BOM) and falls back to
// Windows-1252 for files saved by older spreadsheet tools.
func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var r io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		r = transform.NewReader(r, charmap.Windows1252.NewDecoder())
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	grid, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	return grid, nil
}
