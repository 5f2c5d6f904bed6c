package exporter

import (
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/backoffice/internal/importer"
	"github.com/cleared-dev/backoffice/internal/model"
)

// Template writes an example workbook for schema: the import headers and
// two illustrative rows. Names in the rows are placeholders, not lookups.
func Template(w io.Writer, schema importer.Schema, format string) error {
	grid := make([][]string, 0, 2)
	for _, ex := range templateRows(schema.Kind) {
		row := make([]string, len(schema.Columns))
		for i, col := range schema.Columns {
			row[i] = ex[col.Field]
		}
		grid = append(grid, row)
	}
	return writeGrid(w, schema, grid, format)
}

func templateRows(kind model.Kind) []map[importer.Field]string {
	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
	if kind == model.KindTransfer {
		return []map[importer.Field]string{
			{
				importer.FieldExternalID:  "TRF-001",
				importer.FieldDate:        date,
				importer.FieldAccount:     "Operating Checking",
				importer.FieldToAccount:   "Petty Cash",
				importer.FieldAmount:      decimal.NewFromInt(250).StringFixed(2),
				importer.FieldCurrency:    "USD",
				importer.FieldDescription: "Top up petty cash",
			},
		}
	}
	return []map[importer.Field]string{
		{
			importer.FieldExternalID:  "EXP-001",
			importer.FieldDate:        date,
			importer.FieldAccount:     "Operating Checking",
			importer.FieldAmount:      decimal.RequireFromString("100.50").StringFixed(2),
			importer.FieldCurrency:    "USD",
			importer.FieldDescription: "Taxi to client site",
			importer.FieldTags:        "Travel, Meals",
			importer.FieldUser:        "Jane Doe",
		},
		{
			importer.FieldExternalID:  "EXP-002",
			importer.FieldAccount:     "Operating Checking",
			importer.FieldAmount:      "42",
			importer.FieldDescription: "Office supplies",
		},
	}
}
