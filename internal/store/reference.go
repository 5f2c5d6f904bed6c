package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cleared-dev/backoffice/internal/model"
)

// PutAccounts inserts or updates accounts by ID.
func (s *Store) PutAccounts(ctx context.Context, accts []model.Account) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		q := s.rebind(`INSERT INTO accounts (id, name, currency_code, balance) VALUES (?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name,
				currency_code = excluded.currency_code, balance = excluded.balance`)
		for _, a := range accts {
			if _, err := tx.ExecContext(ctx, q, a.ID, a.Name, a.CurrencyCode, a.Balance); err != nil {
				return fmt.Errorf("upsert account %d: %w", a.ID, err)
			}
		}
		return nil
	})
}

// PutTags inserts or updates tags by ID.
func (s *Store) PutTags(ctx context.Context, tags []model.Tag) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		q := s.rebind(`INSERT INTO tags (id, name, color) VALUES (?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name, color = excluded.color`)
		for _, t := range tags {
			if _, err := tx.ExecContext(ctx, q, t.ID, t.Name, t.Color); err != nil {
				return fmt.Errorf("upsert tag %d: %w", t.ID, err)
			}
		}
		return nil
	})
}

// PutUsers inserts or updates users by ID.
func (s *Store) PutUsers(ctx context.Context, users []model.User) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		q := s.rebind(`INSERT INTO users (id, name) VALUES (?, ?)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name`)
		for _, u := range users {
			if _, err := tx.ExecContext(ctx, q, u.ID, u.Name); err != nil {
				return fmt.Errorf("upsert user %d: %w", u.ID, err)
			}
		}
		return nil
	})
}

// ReferenceData returns a snapshot of all accounts, tags and users in ID
// order.
func (s *Store) ReferenceData(ctx context.Context) (model.ReferenceData, error) {
	var ref model.ReferenceData

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, currency_code, balance FROM accounts ORDER BY id`)
	if err != nil {
		return ref, fmt.Errorf("query accounts: %w", err)
	}
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.CurrencyCode, &a.Balance); err != nil {
			rows.Close()
			return ref, fmt.Errorf("scan account: %w", err)
		}
		ref.Accounts = append(ref.Accounts, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return ref, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT id, name, color FROM tags ORDER BY id`)
	if err != nil {
		return ref, fmt.Errorf("query tags: %w", err)
	}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			rows.Close()
			return ref, fmt.Errorf("scan tag: %w", err)
		}
		ref.Tags = append(ref.Tags, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return ref, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT id, name FROM users ORDER BY id`)
	if err != nil {
		return ref, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return ref, fmt.Errorf("scan user: %w", err)
		}
		ref.Users = append(ref.Users, u)
	}
	return ref, rows.Err()
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
