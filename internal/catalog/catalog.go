// Package catalog resolves spreadsheet text to accounts, tags and users.
//
// A Catalog is a read-only snapshot built from the reference data loaded at
// the start of one import or export. It is never shared across runs.
package catalog

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/backoffice/internal/model"
	"github.com/cleared-dev/backoffice/internal/normalize"
)

// SampleLimit caps the known account names listed in a not-found error.
const SampleLimit = 10

// NotFoundError reports text that matched no known entity.
type NotFoundError struct {
	Kind   string // "account", "tag" or "user"
	Value  string
	Sample []string // known display names, accounts only
	More   bool     // more names exist than Sample holds
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s %q not found", e.Kind, e.Value)
	if len(e.Sample) == 0 {
		return msg
	}
	msg += ". Known " + e.Kind + "s: " + strings.Join(e.Sample, ", ")
	if e.More {
		msg += ", ..."
	}
	return msg
}

// Catalog holds name lookups for one resolution pass.
type Catalog struct {
	strategies []normalize.Strategy
	accounts   []model.Account
	indexes    []map[string]model.Account // parallel to strategies
	accountIDs map[int]model.Account

	tags   map[string]model.Tag
	tagIDs map[int]model.Tag

	users   map[string]model.User
	userIDs map[int]model.User
}

// New builds a Catalog from ref. Accounts are matched with strategies in
// order, falling back to normalize.Default when none are given.
func New(ref model.ReferenceData, strategies ...normalize.Strategy) *Catalog {
	if len(strategies) == 0 {
		strategies = normalize.Default()
	}

	c := &Catalog{
		strategies: strategies,
		accounts:   ref.Accounts,
		indexes:    make([]map[string]model.Account, len(strategies)),
		accountIDs: make(map[int]model.Account, len(ref.Accounts)),
		tags:       make(map[string]model.Tag, len(ref.Tags)),
		tagIDs:     make(map[int]model.Tag, len(ref.Tags)),
		users:      make(map[string]model.User, len(ref.Users)),
		userIDs:    make(map[int]model.User, len(ref.Users)),
	}

	for i, s := range strategies {
		idx := make(map[string]model.Account, len(ref.Accounts))
		for _, a := range ref.Accounts {
			key := s.Index(a.Name)
			if _, dup := idx[key]; !dup {
				idx[key] = a
			}
		}
		c.indexes[i] = idx
	}
	for _, a := range ref.Accounts {
		c.accountIDs[a.ID] = a
	}

	for _, t := range ref.Tags {
		key := exactKey(t.Name)
		if _, dup := c.tags[key]; !dup {
			c.tags[key] = t
		}
		c.tagIDs[t.ID] = t
	}
	for _, u := range ref.Users {
		key := exactKey(u.Name)
		if _, dup := c.users[key]; !dup {
			c.users[key] = u
		}
		c.userIDs[u.ID] = u
	}
	return c
}

// Account resolves raw to an account. Each strategy is tried in order; if
// none hits, raw is compared case-insensitively with every canonical key
// and display name. A miss returns a *NotFoundError carrying a sample of
// known account names.
func (c *Catalog) Account(raw string) (model.Account, error) {
	for i, s := range c.strategies {
		key := s.Query(raw)
		if key == "" {
			continue
		}
		if a, ok := c.indexes[i][key]; ok {
			return a, nil
		}
	}

	needle := strings.TrimSpace(raw)
	if needle != "" {
		for _, a := range c.accounts {
			if strings.EqualFold(needle, normalize.CanonicalKey(a.Name)) || strings.EqualFold(needle, a.Name) {
				return a, nil
			}
		}
	}

	return model.Account{}, c.accountNotFound(raw)
}

func (c *Catalog) accountNotFound(raw string) *NotFoundError {
	err := &NotFoundError{Kind: "account", Value: raw}
	for _, a := range c.accounts {
		if len(err.Sample) == SampleLimit {
			err.More = true
			break
		}
		err.Sample = append(err.Sample, a.Name)
	}
	return err
}

// Tag resolves raw by case-insensitive exact name.
func (c *Catalog) Tag(raw string) (model.Tag, error) {
	if t, ok := c.tags[exactKey(raw)]; ok {
		return t, nil
	}
	return model.Tag{}, &NotFoundError{Kind: "tag", Value: raw}
}

// User resolves raw by case-insensitive exact name.
func (c *Catalog) User(raw string) (model.User, error) {
	if u, ok := c.users[exactKey(raw)]; ok {
		return u, nil
	}
	return model.User{}, &NotFoundError{Kind: "user", Value: raw}
}

// AccountByID returns the account with id.
func (c *Catalog) AccountByID(id int) (model.Account, bool) {
	a, ok := c.accountIDs[id]
	return a, ok
}

// TagByID returns the tag with id.
func (c *Catalog) TagByID(id int) (model.Tag, bool) {
	t, ok := c.tagIDs[id]
	return t, ok
}

// UserByID returns the user with id.
func (c *Catalog) UserByID(id int) (model.User, bool) {
	u, ok := c.userIDs[id]
	return u, ok
}

func exactKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
