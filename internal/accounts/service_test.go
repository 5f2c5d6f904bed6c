package accounts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/backoffice/internal/model"
)

func TestNewService(t *testing.T) {
	chart := DefaultChart("llc_single_member")
	svc := NewService(chart)

	assert.Len(t, svc.All(), len(chart))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		accts []model.Account
		want  string
	}{
		{"duplicate id", []model.Account{{ID: 1, Name: "A", CurrencyCode: "USD"}, {ID: 1, Name: "B", CurrencyCode: "USD"}}, "duplicate account_id"},
		{"blank name", []model.Account{{ID: 1, Name: " ", CurrencyCode: "USD"}}, "name is required"},
		{"bad currency", []model.Account{{ID: 1, Name: "A", CurrencyCode: "XQZ"}}, `unknown currency "XQZ"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, NewService(tt.accts).Validate(), tt.want)
		})
	}
}

func TestLoadFromTestdata(t *testing.T) {
	dir := t.TempDir()
	refDir := filepath.Join(dir, "reference")
	require.NoError(t, os.MkdirAll(refDir, 0o755))

	src, err := os.ReadFile("../../testdata/reference/accounts.csv")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(refDir, "accounts.csv"), src, 0o644))

	svc, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, svc.All(), 5)
	assert.Equal(t, 1010, svc.All()[0].ID)
	assert.NoError(t, svc.Validate())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorContains(t, err, "opening accounts")
}

func TestSaveRoundTrip(t *testing.T) {
	chart := DefaultChart("llc_single_member")
	svc := NewService(chart)

	dir := t.TempDir()
	err := svc.Save(dir)
	require.NoError(t, err)

	_, err = os.Stat(Path(dir))
	require.NoError(t, err)

	svc2, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, svc2.All(), len(chart))

	for _, orig := range chart {
		got, ok := findAccount(svc2.All(), orig.ID)
		require.True(t, ok, "account %d should exist", orig.ID)
		assert.Equal(t, orig.Name, got.Name)
		assert.Equal(t, orig.CurrencyCode, got.CurrencyCode)
	}
}

// findAccount looks up an account by ID in a slice of accounts.
func findAccount(accts []model.Account, id int) (model.Account, bool) {
	for _, a := range accts {
		if a.ID == id {
			return a, true
		}
	}
	return model.Account{}, false
}
