package exporter

import (
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/backoffice/internal/catalog"
	"github.com/cleared-dev/backoffice/internal/id"
	"github.com/cleared-dev/backoffice/internal/model"
	"github.com/cleared-dev/backoffice/internal/store"
)

// Filter is an export query as users type it: dates as YYYY-MM-DD,
// account, tag and user by display name, and an import batch ID.
type Filter struct {
	From    string
	To      string
	Account string
	Tag     string
	User    string
	Batch   string
}

// Resolve turns f into a store query, resolving names with the same
// catalog rules the importer uses.
func (f Filter) Resolve(ref model.ReferenceData) (store.Query, error) {
	var q store.Query
	var err error

	if q.From, err = parseDay("from", f.From); err != nil {
		return q, err
	}
	if q.To, err = parseDay("to", f.To); err != nil {
		return q, err
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return q, fmt.Errorf("to %s is before from %s", f.To, f.From)
	}

	if strings.TrimSpace(f.Batch) != "" {
		if q.BatchID, err = id.ParseBatchID(f.Batch); err != nil {
			return q, err
		}
	}

	cat := catalog.New(ref)
	if strings.TrimSpace(f.Account) != "" {
		a, err := cat.Account(f.Account)
		if err != nil {
			return q, err
		}
		q.AccountID = a.ID
	}
	if strings.TrimSpace(f.Tag) != "" {
		t, err := cat.Tag(f.Tag)
		if err != nil {
			return q, err
		}
		q.TagID = t.ID
	}
	if strings.TrimSpace(f.User) != "" {
		u, err := cat.User(f.User)
		if err != nil {
			return q, err
		}
		q.UserID = u.ID
	}
	return q, nil
}

func parseDay(name, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date %q (use YYYY-MM-DD)", name, s)
	}
	return t, nil
}
