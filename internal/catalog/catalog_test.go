package catalog

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/backoffice/internal/model"
	"github.com/cleared-dev/backoffice/internal/normalize"
)

func testRef() model.ReferenceData {
	return model.ReferenceData{
		Accounts: []model.Account{
			{ID: 7, Name: "Main USD", CurrencyCode: "USD", Balance: decimal.NewFromInt(1000)},
			{ID: 8, Name: "Petty Cash", CurrencyCode: "EUR"},
			{ID: 9, Name: "Caf\u00e9 Float", CurrencyCode: "EUR"},
		},
		Tags: []model.Tag{
			{ID: 3, Name: "Office", Color: "#336699"},
			{ID: 9, Name: "Monthly"},
		},
		Users: []model.User{
			{ID: 1, Name: "Dana Lee"},
		},
	}
}

func TestAccount_Strategies(t *testing.T) {
	c := New(testRef())

	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"exact", "Main USD", 7},
		{"case and spacing", "  main   usd ", 7},
		{"non-breaking space", "Main\u00a0USD", 7},
		{"decomposed accent", "Cafe\u0301 Float", 9},
		{"stripped whitespace", "PettyCash", 8},
		{"zero-width space", "Petty\u200bCash", 8},
		{"case-folded long s", "Main U\u017fD", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := c.Account(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.ID)
		})
	}
}

func TestAccount_FoldFallbackOnly(t *testing.T) {
	raw := "Main U\u017fD"
	for _, s := range normalize.Default() {
		assert.NotEqual(t, s.Index("Main USD"), s.Query(raw), "strategy %s", s.Name)
	}

	a, err := New(testRef()).Account(raw)
	require.NoError(t, err)
	assert.Equal(t, 7, a.ID)
}

func TestAccount_PlainStrategy(t *testing.T) {
	ref := model.ReferenceData{Accounts: []model.Account{{ID: 12, Name: "J\u030curis Operating", CurrencyCode: "USD"}}}

	a, err := New(ref, normalize.Plain).Account("j\u030curis operating")
	require.NoError(t, err)
	assert.Equal(t, 12, a.ID)
}

func TestAccount_NoFuzzyMatch(t *testing.T) {
	c := New(testRef())

	for _, raw := range []string{"Main", "Main USDs", "Main EUR", ""} {
		_, err := c.Account(raw)
		var nf *NotFoundError
		require.True(t, errors.As(err, &nf), "expected not found for %q", raw)
		assert.Equal(t, "account", nf.Kind)
	}
}

func TestAccount_NotFoundSample(t *testing.T) {
	var ref model.ReferenceData
	for i := 1; i <= 15; i++ {
		ref.Accounts = append(ref.Accounts, model.Account{ID: i, Name: fmt.Sprintf("Account %02d", i), CurrencyCode: "USD"})
	}
	c := New(ref)

	_, err := c.Account("Unknown Account")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Len(t, nf.Sample, SampleLimit)
	assert.True(t, nf.More)
	assert.Equal(t, "Account 01", nf.Sample[0])
	assert.Equal(t, "Account 10", nf.Sample[9])
	assert.True(t, strings.HasSuffix(err.Error(), ", ..."))
	assert.NotContains(t, err.Error(), "Account 11")
}

func TestAccount_NotFoundSmallCatalog(t *testing.T) {
	c := New(testRef())
	_, err := c.Account("Savings")
	require.Error(t, err)
	assert.Equal(t, "account \"Savings\" not found. Known accounts: Main USD, Petty Cash, Caf\u00e9 Float", err.Error())
}

func TestAccount_DuplicateNamesFirstWins(t *testing.T) {
	ref := model.ReferenceData{Accounts: []model.Account{
		{ID: 1, Name: "Operating"},
		{ID: 2, Name: "operating "},
	}}
	a, err := New(ref).Account("OPERATING")
	require.NoError(t, err)
	assert.Equal(t, 1, a.ID)
}

func TestAccount_CustomStrategies(t *testing.T) {
	upperOnly := normalize.Strategy{
		Name:  "upper",
		Query: strings.ToUpper,
		Index: strings.ToUpper,
	}
	c := New(testRef(), upperOnly)

	a, err := c.Account("main usd")
	require.NoError(t, err)
	assert.Equal(t, 7, a.ID)

	// Whitespace variants are no longer folded by the strategy list, and
	// the case-insensitive fallback does not collapse whitespace either.
	_, err = c.Account("Main  USD")
	assert.Error(t, err)
}

func TestTag_CaseInsensitiveExact(t *testing.T) {
	c := New(testRef())

	tag, err := c.Tag("office")
	require.NoError(t, err)
	assert.Equal(t, 3, tag.ID)

	_, err = c.Tag("Offices")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "tag", nf.Kind)
	assert.Empty(t, nf.Sample)
}

func TestUser_CaseInsensitiveExact(t *testing.T) {
	c := New(testRef())

	u, err := c.User("DANA LEE")
	require.NoError(t, err)
	assert.Equal(t, 1, u.ID)

	_, err = c.User("Dana  Lee")
	assert.Error(t, err)
}

func TestByID(t *testing.T) {
	c := New(testRef())

	a, ok := c.AccountByID(8)
	require.True(t, ok)
	assert.Equal(t, "Petty Cash", a.Name)

	tag, ok := c.TagByID(9)
	require.True(t, ok)
	assert.Equal(t, "Monthly", tag.Name)

	u, ok := c.UserByID(1)
	require.True(t, ok)
	assert.Equal(t, "Dana Lee", u.Name)

	_, ok = c.AccountByID(99)
	assert.False(t, ok)
}
