package importer

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/backoffice/internal/model"
)

func newTestImporter(s Store) *Importer {
	return New(s, zerolog.Nop(), Options{})
}

func TestImportAll_CreatesValidRecords(t *testing.T) {
	store := newFakeStore()
	im := newTestImporter(store)

	rows := []Row{
		row(2, map[Field]string{FieldExternalID: "EXP-1", FieldAccount: "Main  usd", FieldAmount: "100.50", FieldCurrency: "usd", FieldTags: "Travel, Meals"}),
		row(3, map[Field]string{FieldExternalID: "EXP-2", FieldAccount: "Main USD", FieldAmount: "-5"}),
		row(4, map[Field]string{FieldExternalID: "EXP-3", FieldAccount: "Ops EUR", FieldAmount: "12"}),
	}
	sum, err := im.ImportAll(context.Background(), Expenses(), rows)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.SuccessCount)
	assert.Equal(t, 1, sum.ErrorCount)
	assert.Equal(t, []string{`Row 3: Amount must be a positive number (got "-5")`}, sum.Errors)
	assert.Equal(t, "Expenses", sum.Entity)
	_, err = uuid.Parse(sum.BatchID)
	assert.NoError(t, err)

	require.Len(t, store.created, 2)
	first := store.created[0]
	assert.Equal(t, 7, first.AccountID)
	assert.True(t, decimal.RequireFromString("100.50").Equal(first.Amount))
	assert.Equal(t, "USD", first.CurrencyCode)
	assert.Equal(t, []int{3, 9}, first.TagIDs)
	assert.Equal(t, model.OriginBatch, first.Origin)
	assert.Equal(t, sum.BatchID, first.BatchID)
	assert.Equal(t, "EXP-3", store.created[1].ExternalID)
	assert.Equal(t, []model.Kind{model.KindExpense}, store.kindsSeen)
}

func TestImportAll_CountsAddUp(t *testing.T) {
	store := newFakeStore("EXP-2")
	store.reject["EXP-4"] = &rejectError{msg: "account is closed"}
	im := newTestImporter(store)

	rows := expenseRows(5)
	sum, err := im.ImportAll(context.Background(), Expenses(), rows)
	require.NoError(t, err)
	assert.Equal(t, len(rows), sum.SuccessCount+sum.ErrorCount)
	assert.Equal(t, 3, sum.SuccessCount)
	assert.Len(t, sum.Errors, sum.ErrorCount)
}

func TestImportAll_DuplicateInFileAndStore(t *testing.T) {
	store := newFakeStore("EXP-1")
	im := newTestImporter(store)

	rows := []Row{
		row(2, map[Field]string{FieldExternalID: "EXP-1", FieldAccount: "Main USD", FieldAmount: "1"}),
		row(3, map[Field]string{FieldExternalID: "EXP-7", FieldAccount: "Main USD", FieldAmount: "1"}),
		row(4, map[Field]string{FieldExternalID: "exp-7", FieldAccount: "Main USD", FieldAmount: "1"}),
	}
	sum, err := im.ImportAll(context.Background(), Expenses(), rows)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.SuccessCount)
	require.Len(t, sum.Errors, 2)
	assert.Contains(t, sum.Errors[0], "Row 2:")
	assert.Contains(t, sum.Errors[0], "already exists")
	assert.Contains(t, sum.Errors[1], "Row 4:")
	assert.Contains(t, sum.Errors[1], "more than once")
}

func TestImportAll_SubmissionErrorNamesAccountAndAmount(t *testing.T) {
	store := newFakeStore()
	store.reject["EXP-1"] = &rejectError{msg: "account is closed"}
	store.reject["EXP-2"] = errBoom
	im := newTestImporter(store)

	rows := expenseRows(2)
	rows[0].Cells[FieldAmount] = "100.5"
	sum, err := im.ImportAll(context.Background(), Expenses(), rows)
	require.NoError(t, err)
	require.Len(t, sum.Errors, 2)
	assert.Equal(t, `Failed to import expense for account "Main USD" (amount $100.50): account is closed`, sum.Errors[0])
	assert.Equal(t, `Failed to import expense for account "Main USD" (amount $10.00): boom`, sum.Errors[1])
	assert.False(t, strings.HasPrefix(sum.Errors[0], "Row"))
}

func TestImportAll_EmptyRows(t *testing.T) {
	im := newTestImporter(newFakeStore())
	_, err := im.ImportAll(context.Background(), Expenses(), nil)
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestImportAll_ReferenceError(t *testing.T) {
	store := newFakeStore()
	store.refErr = errBoom
	im := newTestImporter(store)
	_, err := im.ImportAll(context.Background(), Expenses(), expenseRows(1))
	require.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "loading reference data")
}

func TestImportAll_CancelSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newFakeStore()
	store.onCreate = func(n int) {
		if n == 2 {
			cancel()
		}
	}
	im := newTestImporter(store)

	sum, err := im.ImportAll(ctx, Expenses(), expenseRows(5))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.SuccessCount)
	assert.Equal(t, 3, sum.Skipped)
	assert.True(t, sum.Cancelled)
	assert.Len(t, store.created, 2)
}

func TestImportAll_RateLimited(t *testing.T) {
	store := newFakeStore()
	im := New(store, zerolog.Nop(), Options{SubmitRate: 1000})
	sum, err := im.ImportAll(context.Background(), Expenses(), expenseRows(3))
	require.NoError(t, err)
	assert.Equal(t, 3, sum.SuccessCount)
}

func TestValidate_DryRunCreatesNothing(t *testing.T) {
	store := newFakeStore()
	im := newTestImporter(store)

	rows := expenseRows(3)
	rows[1].Cells[FieldAmount] = "abc"
	sum, err := im.Validate(context.Background(), Expenses(), rows)
	require.NoError(t, err)
	assert.True(t, sum.DryRun)
	assert.Empty(t, sum.BatchID)
	assert.Equal(t, 2, sum.SuccessCount)
	assert.Equal(t, 1, sum.ErrorCount)
	assert.Empty(t, store.created)
}

func TestImportFile_CSV(t *testing.T) {
	store := newFakeStore()
	im := newTestImporter(store)

	csv := "Transfer ID,From Account,To Account,Amount\nTRF-1,Main USD,Petty Cash,40\n"
	sum, err := im.ImportFile(context.Background(), Transfers(), strings.NewReader(csv), "t.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.SuccessCount)
	require.Len(t, store.created, 1)
	assert.Equal(t, 9, store.created[0].ToAccountID)
}

func TestImportFile_NoRecords(t *testing.T) {
	im := newTestImporter(newFakeStore())
	_, err := im.ImportFile(context.Background(), Expenses(), strings.NewReader("Account,Amount\n"), "e.csv")
	assert.EqualError(t, err, "No records found in the file")
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$100.50", FormatAmount(decimal.RequireFromString("100.5"), "USD"))
	assert.Equal(t, "12.5 XQZ", FormatAmount(decimal.RequireFromString("12.5"), "XQZ"))
}

func TestSummary_JSONErrorsIsArray(t *testing.T) {
	im := newTestImporter(newFakeStore())
	for _, run := range []func(context.Context, Schema, []Row) (*Summary, error){im.ImportAll, im.Validate} {
		sum, err := run(context.Background(), Expenses(), expenseRows(2))
		require.NoError(t, err)
		data, err := json.Marshal(sum)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"errors":[]`)
	}
}
