package importer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/backoffice/internal/catalog"
	"github.com/cleared-dev/backoffice/internal/model"
)

// Outcome is the validation result of one row. Record is nil when the row
// failed; Errors then holds exactly one "Row N: ..." message.
type Outcome struct {
	Row    int
	Record *model.Record
	Errors []string
}

// OK reports whether the row produced a record.
func (o Outcome) OK() bool { return o.Record != nil }

// draft carries state between validation steps of one row.
type draft struct {
	row     Row
	account model.Account
	rec     model.Record
}

// step checks one aspect of a row. A non-nil error stops validation of the
// row; its text becomes the row's message.
type step func(v *Validator, d *draft) error

// Validator turns rows into records. Steps run in a fixed order and the
// first failure wins, so each failed row reports a single error.
type Validator struct {
	schema  Schema
	catalog *catalog.Catalog
	tracker *Tracker
	steps   []step
}

// NewValidator creates a validator for one import run.
func NewValidator(schema Schema, cat *catalog.Catalog, tracker *Tracker) *Validator {
	steps := []step{
		checkExternalID,
		requireAccount,
		resolveAccount,
		parseAmount,
		checkCurrency,
		resolveUser,
		resolveTags,
	}
	if schema.Has(FieldToAccount) {
		steps = append(steps, resolveToAccount)
	}
	steps = append(steps, parseDate)

	return &Validator{schema: schema, catalog: cat, tracker: tracker, steps: steps}
}

// Validate runs every step against row.
func (v *Validator) Validate(row Row) Outcome {
	d := &draft{
		row: row,
		rec: model.Record{
			Kind:        v.schema.Kind,
			Description: row.Cells[FieldDescription],
		},
	}
	for _, s := range v.steps {
		if err := s(v, d); err != nil {
			return Outcome{
				Row:    row.Number,
				Errors: []string{fmt.Sprintf("Row %d: %s", row.Number, err)},
			}
		}
	}
	rec := d.rec
	return Outcome{Row: row.Number, Record: &rec}
}

func checkExternalID(v *Validator, d *draft) error {
	ext := d.row.Get(FieldExternalID)
	verdict := v.tracker.CheckAndReserve(ext)
	switch {
	case verdict.Accepted:
		d.rec.ExternalID = ext
		return nil
	case verdict.Reason == ReasonExistsInStore:
		return fmt.Errorf("%s %q already exists", v.schema.Header(FieldExternalID), ext)
	default:
		return fmt.Errorf("%s %q appears more than once in the file", v.schema.Header(FieldExternalID), ext)
	}
}

func requireAccount(v *Validator, d *draft) error {
	if d.row.Get(FieldAccount) == "" {
		return fmt.Errorf("%s is required", v.schema.Header(FieldAccount))
	}
	return nil
}

func resolveAccount(v *Validator, d *draft) error {
	acct, err := v.catalog.Account(d.row.Cells[FieldAccount])
	if err != nil {
		return err
	}
	d.account = acct
	d.rec.AccountID = acct.ID
	return nil
}

func parseAmount(v *Validator, d *draft) error {
	raw := d.row.Get(FieldAmount)
	amt, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil || !amt.IsPositive() {
		return fmt.Errorf("Amount must be a positive number (got %q)", raw)
	}
	d.rec.Amount = amt
	return nil
}

// checkCurrency defaults a blank currency to the account's and otherwise
// requires a recognized code equal to it.
func checkCurrency(v *Validator, d *draft) error {
	acctCode := strings.ToUpper(d.account.CurrencyCode)
	code := strings.ToUpper(d.row.Get(FieldCurrency))
	switch {
	case code == "" || code == acctCode:
		d.rec.CurrencyCode = acctCode
		return nil
	case money.GetCurrency(code) == nil:
		return fmt.Errorf("Currency %q is not a recognized currency code", code)
	default:
		return fmt.Errorf("Currency %s does not match account %q currency %s", code, d.account.Name, acctCode)
	}
}

func resolveUser(v *Validator, d *draft) error {
	raw := d.row.Get(FieldUser)
	if raw == "" {
		return nil
	}
	u, err := v.catalog.User(raw)
	if err != nil {
		return err
	}
	d.rec.UserID = u.ID
	return nil
}

// resolveTags is all-or-nothing: one unknown name fails the row.
func resolveTags(v *Validator, d *draft) error {
	var ids []int
	seen := make(map[int]bool)
	for _, name := range strings.Split(d.row.Get(FieldTags), ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag, err := v.catalog.Tag(name)
		if err != nil {
			return err
		}
		if !seen[tag.ID] {
			seen[tag.ID] = true
			ids = append(ids, tag.ID)
		}
	}
	d.rec.TagIDs = ids
	return nil
}

func resolveToAccount(v *Validator, d *draft) error {
	header := v.schema.Header(FieldToAccount)
	if d.row.Get(FieldToAccount) == "" {
		return fmt.Errorf("%s is required", header)
	}
	acct, err := v.catalog.Account(d.row.Cells[FieldToAccount])
	if err != nil {
		return err
	}
	if acct.ID == d.account.ID {
		return fmt.Errorf("%s must differ from %s (both %q)", header, v.schema.Header(FieldAccount), acct.Name)
	}
	d.rec.ToAccountID = acct.ID
	return nil
}

var dateLayouts = []string{"2006-01-02", "01/02/2006", "1/2/2006", "01-02-06", "2006-01-02T15:04:05Z07:00"}

func parseDate(v *Validator, d *draft) error {
	raw := d.row.Get(FieldDate)
	if raw == "" {
		return nil
	}
	t, err := ParseDate(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q (use YYYY-MM-DD)", v.schema.Header(FieldDate), raw)
	}
	d.rec.Date = t
	return nil
}

var errBadDate = errors.New("unrecognized date")

// ParseDate accepts ISO, US and spreadsheet serial dates.
func ParseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return t.Truncate(24 * time.Hour), nil
		}
	}
	return time.Time{}, errBadDate
}
