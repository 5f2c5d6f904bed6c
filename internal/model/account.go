package model

import "github.com/shopspring/decimal"

// Account represents a row in reference/accounts.csv.
type Account struct {
	ID           int
	Name         string
	CurrencyCode string
	Balance      decimal.Decimal
}

// Tag labels records. Names are matched case-insensitively.
type Tag struct {
	ID    int
	Name  string
	Color string
}

// User is a person a record can be attributed to.
type User struct {
	ID   int
	Name string
}

// ReferenceData is a read-only snapshot of the entities records point at.
type ReferenceData struct {
	Accounts []Account
	Tags     []Tag
	Users    []User
}
