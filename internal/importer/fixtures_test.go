package importer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cleared-dev/backoffice/internal/catalog"
	"github.com/cleared-dev/backoffice/internal/model"
)

func testReference() model.ReferenceData {
	return model.ReferenceData{
		Accounts: []model.Account{
			{ID: 7, Name: "Main USD", CurrencyCode: "USD"},
			{ID: 8, Name: "Ops EUR", CurrencyCode: "EUR"},
			{ID: 9, Name: "Petty Cash", CurrencyCode: "USD"},
		},
		Tags: []model.Tag{
			{ID: 3, Name: "Travel"},
			{ID: 9, Name: "Meals"},
			{ID: 4, Name: "Office"},
		},
		Users: []model.User{
			{ID: 5, Name: "Dana Reyes"},
		},
	}
}

func row(n int, cells map[Field]string) Row {
	return Row{Number: n, Cells: cells}
}

func newTestValidator(t *testing.T, schema Schema, existing ...string) *Validator {
	t.Helper()
	return NewValidator(schema, catalog.New(testReference()), NewTracker(existing))
}

// rejectError mimics a store error carrying a user-facing message.
type rejectError struct{ msg string }

func (e *rejectError) Error() string       { return "store: " + e.msg }
func (e *rejectError) UserMessage() string { return e.msg }

type fakeStore struct {
	ref       model.ReferenceData
	existing  []string
	created   []model.Record
	reject    map[string]error // by external ID
	refErr    error
	onCreate  func(n int) // called after each successful create
	nextID    int64
	kindsSeen []model.Kind
}

func newFakeStore(existing ...string) *fakeStore {
	return &fakeStore{ref: testReference(), existing: existing, reject: map[string]error{}}
}

func (s *fakeStore) ReferenceData(context.Context) (model.ReferenceData, error) {
	if s.refErr != nil {
		return model.ReferenceData{}, s.refErr
	}
	return s.ref, nil
}

func (s *fakeStore) ExternalIDs(_ context.Context, kind model.Kind) ([]string, error) {
	s.kindsSeen = append(s.kindsSeen, kind)
	return s.existing, nil
}

func (s *fakeStore) CreateRecord(_ context.Context, rec model.Record) (int64, error) {
	if err, ok := s.reject[rec.ExternalID]; ok {
		return 0, err
	}
	s.nextID++
	rec.ID = s.nextID
	s.created = append(s.created, rec)
	if s.onCreate != nil {
		s.onCreate(len(s.created))
	}
	return rec.ID, nil
}

var errBoom = errors.New("boom")

func expenseRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = row(i+2, map[Field]string{
			FieldExternalID: fmt.Sprintf("EXP-%d", i+1),
			FieldAccount:    "Main USD",
			FieldAmount:     "10",
		})
	}
	return rows
}
