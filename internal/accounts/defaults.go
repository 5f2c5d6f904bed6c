package accounts

import "github.com/cleared-dev/backoffice/internal/model"

// DefaultChart returns the starter accounts for a business type.
func DefaultChart(entityType string) []model.Account {
	switch entityType {
	case "llc_single_member":
		return llcSingleMemberChart()
	default:
		return llcSingleMemberChart()
	}
}

func llcSingleMemberChart() []model.Account {
	return []model.Account{
		{ID: 1010, Name: "Operating Checking", CurrencyCode: "USD"},
		{ID: 1020, Name: "Business Savings", CurrencyCode: "USD"},
		{ID: 1030, Name: "Petty Cash", CurrencyCode: "USD"},
		{ID: 1040, Name: "EUR Operating", CurrencyCode: "EUR"},
		{ID: 2010, Name: "Company Card", CurrencyCode: "USD"},
	}
}
