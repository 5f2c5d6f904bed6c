package importer

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func xlsxFile(t *testing.T, sheet string, rows ...[]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadRows_XLSX(t *testing.T) {
	buf := xlsxFile(t, "Expenses",
		[]any{"Expense ID", "Account", "Amount", "Tags"},
		[]any{"EXP-1", "Main USD", "100.50", "Travel, Meals"},
		[]any{"EXP-2", "Ops EUR", "20", ""},
	)

	rows, err := ReadRows(buf, "upload.xlsx", Expenses())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Number)
	assert.Equal(t, "EXP-1", rows[0].Get(FieldExternalID))
	assert.Equal(t, "Travel, Meals", rows[0].Get(FieldTags))
	assert.Equal(t, "Ops EUR", rows[1].Get(FieldAccount))
	assert.Equal(t, "", rows[1].Get(FieldUser))
}

func TestReadRows_XLSXSheetNameCaseInsensitive(t *testing.T) {
	buf := xlsxFile(t, "expenses",
		[]any{"Account", "Amount"},
		[]any{"Main USD", "1"},
	)
	rows, err := ReadRows(buf, "upload.xlsx", Expenses())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestReadRows_XLSXMissingSheet(t *testing.T) {
	buf := xlsxFile(t, "Sheet9",
		[]any{"Account", "Amount"},
		[]any{"Main USD", "1"},
	)
	_, err := ReadRows(buf, "upload.xlsx", Expenses())
	require.ErrorIs(t, err, ErrSheetNotFound)
	assert.Contains(t, err.Error(), `"Expenses"`)
}

func TestReadRows_HeaderOnlyHasNoRecords(t *testing.T) {
	buf := xlsxFile(t, "Expenses", []any{"Account", "Amount"})
	_, err := ReadRows(buf, "upload.xlsx", Expenses())
	assert.ErrorIs(t, err, ErrNoRecords)
	assert.EqualError(t, err, "No records found in the file")
}

func TestReadRows_CSVKeepsRowNumbersAcrossBlankRows(t *testing.T) {
	csv := "Expense ID,Account,Amount\nEXP-1,Main USD,1\n,,\nEXP-2,Main USD,2\n"
	rows, err := ReadRows(strings.NewReader(csv), "e.csv", Expenses())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Number)
	assert.Equal(t, 4, rows[1].Number)
}

func TestReadRows_CSVWithBOM(t *testing.T) {
	csv := "\xef\xbb\xbfExpense ID,Account,Amount\nEXP-1,Main USD,1\n"
	rows, err := ReadRows(strings.NewReader(csv), "e.csv", Expenses())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "EXP-1", rows[0].Get(FieldExternalID))
}

func TestReadRows_CSVWindows1252(t *testing.T) {
	csv := "Account,Amount,Description\nMain USD,1,Caf\xe9\n"
	rows, err := ReadRows(strings.NewReader(csv), "e.csv", Expenses())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Caf\u00e9", rows[0].Get(FieldDescription))
}

func TestReadRows_ShortRecords(t *testing.T) {
	csv := "Account,Amount,User\nMain USD,1\n"
	rows, err := ReadRows(strings.NewReader(csv), "e.csv", Expenses())
	require.NoError(t, err)
	assert.Equal(t, "", rows[0].Get(FieldUser))
}

func TestReadRows_EmptyFile(t *testing.T) {
	_, err := ReadRows(strings.NewReader(""), "e.csv", Expenses())
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestReadRows_UnsupportedFormat(t *testing.T) {
	_, err := ReadRows(strings.NewReader("x"), "e.pdf", Expenses())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestReadRows_XLSXNumericAndDateCells(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Expenses"))
	day := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	for i, r := range [][]any{
		{"Account", "Amount", "Date"},
		{"Main USD", 1250.5, day},
		{"Main USD", "10", day},
	} {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Expenses", cell, &r))
	}
	fmtCode := "$#,##0.00"
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &fmtCode})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Expenses", "B2", "B2", style))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := ReadRows(buf, "book.xlsx", Expenses())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1250.5", rows[0].Get(FieldAmount))

	v := newTestValidator(t, Expenses())
	var amounts []decimal.Decimal
	for _, r := range rows {
		out := v.Validate(r)
		require.True(t, out.OK(), out.Errors)
		assert.True(t, day.Equal(out.Record.Date), "row %d: got %s", r.Number, out.Record.Date)
		amounts = append(amounts, out.Record.Amount)
	}
	assert.True(t, decimal.RequireFromString("1250.50").Equal(amounts[0]))
	assert.True(t, decimal.NewFromInt(10).Equal(amounts[1]))
}
