package importer

import (
	"strings"

	"github.com/cleared-dev/backoffice/internal/model"
)

// Field identifies a logical column of an importable record.
type Field int

const (
	FieldExternalID Field = iota
	FieldDate
	FieldAccount
	FieldToAccount
	FieldAmount
	FieldCurrency
	FieldDescription
	FieldTags
	FieldUser
)

// Column maps a field to the header written on export and the extra
// spellings accepted on import. Matching is case-insensitive; the camelCase
// and snake_case forms of Header are always accepted.
type Column struct {
	Field   Field
	Header  string
	Aliases []string
}

// Schema describes one importable entity: its sheet and its columns.
type Schema struct {
	Kind    model.Kind
	Name    string // sheet name and registry key, e.g. "Expenses"
	Noun    string // singular used in messages, e.g. "expense"
	Columns []Column
}

// Expenses returns the schema of the "Expenses" sheet.
func Expenses() Schema {
	return Schema{
		Kind: model.KindExpense,
		Name: "Expenses",
		Noun: "expense",
		Columns: []Column{
			{Field: FieldExternalID, Header: "Expense ID", Aliases: []string{"External ID"}},
			{Field: FieldDate, Header: "Date", Aliases: []string{"Expense Date"}},
			{Field: FieldAccount, Header: "Account", Aliases: []string{"Account Name"}},
			{Field: FieldAmount, Header: "Amount"},
			{Field: FieldCurrency, Header: "Currency", Aliases: []string{"Currency Code"}},
			{Field: FieldDescription, Header: "Description", Aliases: []string{"Memo"}},
			{Field: FieldTags, Header: "Tags", Aliases: []string{"Tag", "Tag Names"}},
			{Field: FieldUser, Header: "User", Aliases: []string{"User Name", "Attributed To"}},
		},
	}
}

// Transfers returns the schema of the "Transfers" sheet.
func Transfers() Schema {
	return Schema{
		Kind: model.KindTransfer,
		Name: "Transfers",
		Noun: "transfer",
		Columns: []Column{
			{Field: FieldExternalID, Header: "Transfer ID", Aliases: []string{"External ID"}},
			{Field: FieldDate, Header: "Date", Aliases: []string{"Transfer Date"}},
			{Field: FieldAccount, Header: "From Account", Aliases: []string{"Account", "Source Account"}},
			{Field: FieldToAccount, Header: "To Account", Aliases: []string{"Destination Account"}},
			{Field: FieldAmount, Header: "Amount"},
			{Field: FieldCurrency, Header: "Currency", Aliases: []string{"Currency Code"}},
			{Field: FieldDescription, Header: "Description", Aliases: []string{"Memo"}},
			{Field: FieldTags, Header: "Tags", Aliases: []string{"Tag", "Tag Names"}},
			{Field: FieldUser, Header: "User", Aliases: []string{"User Name", "Attributed To"}},
		},
	}
}

// Column returns the column for f.
func (s Schema) Column(f Field) (Column, bool) {
	for _, c := range s.Columns {
		if c.Field == f {
			return c, true
		}
	}
	return Column{}, false
}

// Has reports whether the schema carries f.
func (s Schema) Has(f Field) bool {
	_, ok := s.Column(f)
	return ok
}

// Header returns the export header of f, or "" when the schema lacks it.
func (s Schema) Header(f Field) string {
	c, _ := s.Column(f)
	return c.Header
}

// Headers returns export headers in column order.
func (s Schema) Headers() []string {
	h := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		h[i] = c.Header
	}
	return h
}

// HeaderIndex maps each recognized header cell to its field. The first
// occurrence of a field wins; unrecognized headers are ignored.
func (s Schema) HeaderIndex(header []string) map[Field]int {
	accepted := make(map[string]Field)
	for _, c := range s.Columns {
		for _, name := range c.spellings() {
			if _, taken := accepted[name]; !taken {
				accepted[name] = c.Field
			}
		}
	}

	idx := make(map[Field]int)
	for i, h := range header {
		f, ok := accepted[headerKey(h)]
		if !ok {
			continue
		}
		if _, seen := idx[f]; !seen {
			idx[f] = i
		}
	}
	return idx
}

// spellings returns every accepted header key for the column.
func (c Column) spellings() []string {
	names := append([]string{c.Header}, c.Aliases...)
	keys := make([]string, 0, len(names)*3)
	for _, n := range names {
		words := strings.Fields(n)
		keys = append(keys,
			headerKey(n),
			headerKey(strings.Join(words, "")),
			headerKey(strings.Join(words, "_")),
		)
	}
	return keys
}

func headerKey(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}
