package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/backoffice/internal/id"
	"github.com/cleared-dev/backoffice/internal/model"
)

const dateLayout = "2006-01-02"

// Query selects records for export. Zero values mean no filter.
type Query struct {
	Kind      model.Kind
	From      time.Time // inclusive; records without a date are excluded when set
	To        time.Time // inclusive
	AccountID int       // matches either side of a transfer
	TagID     int
	UserID    int
	BatchID   string
}

// ExternalIDs returns every stored external ID of kind.
func (s *Store) ExternalIDs(ctx context.Context, kind model.Kind) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT external_id FROM records WHERE kind = ? AND external_key <> '' ORDER BY id`), string(kind))
	if err != nil {
		return nil, fmt.Errorf("query external ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var ext string
		if err := rows.Scan(&ext); err != nil {
			return nil, fmt.Errorf("scan external id: %w", err)
		}
		ids = append(ids, ext)
	}
	return ids, rows.Err()
}

// CreateRecord stores rec with its tags and returns the new ID. Unknown
// references and duplicate external IDs yield a *RejectError.
func (s *Store) CreateRecord(ctx context.Context, rec model.Record) (int64, error) {
	if rec.Origin == "" {
		rec.Origin = model.OriginInteractive
	}
	key := id.Key(rec.ExternalID)

	var newID int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkRefs(ctx, tx, rec); err != nil {
			return err
		}
		if key != "" {
			var n int
			err := tx.QueryRowContext(ctx,
				s.rebind(`SELECT COUNT(*) FROM records WHERE kind = ? AND external_key = ?`),
				string(rec.Kind), key).Scan(&n)
			if err != nil {
				return fmt.Errorf("check external id: %w", err)
			}
			if n > 0 {
				return duplicate(rec)
			}
		}

		var occurred string
		if rec.HasDate() {
			occurred = rec.Date.Format(dateLayout)
		}
		err := tx.QueryRowContext(ctx, s.rebind(`INSERT INTO records
			(kind, external_id, external_key, account_id, to_account_id, amount, currency_code,
			 description, user_id, occurred_on, origin, batch_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
			string(rec.Kind), strings.TrimSpace(rec.ExternalID), key, rec.AccountID, nullID(rec.ToAccountID),
			rec.Amount, rec.CurrencyCode, rec.Description, nullID(rec.UserID), occurred,
			string(rec.Origin), rec.BatchID, time.Now().UTC().Format(time.RFC3339),
		).Scan(&newID)
		if err != nil {
			if isUniqueViolation(err) {
				return duplicate(rec)
			}
			return fmt.Errorf("insert record: %w", err)
		}

		q := s.rebind(`INSERT INTO record_tags (record_id, position, tag_id) VALUES (?, ?, ?)`)
		for i, tagID := range rec.TagIDs {
			if _, err := tx.ExecContext(ctx, q, newID, i, tagID); err != nil {
				return fmt.Errorf("insert record tag: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newID, nil
}

func (s *Store) checkRefs(ctx context.Context, tx *sql.Tx, rec model.Record) error {
	check := func(table string, refID int, label string) error {
		var n int
		err := tx.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM `+table+` WHERE id = ?`), refID).Scan(&n)
		if err != nil {
			return fmt.Errorf("check %s: %w", label, err)
		}
		if n == 0 {
			return &RejectError{Message: fmt.Sprintf("%s #%d does not exist", label, refID), Err: ErrUnknownReference}
		}
		return nil
	}

	if err := check("accounts", rec.AccountID, "account"); err != nil {
		return err
	}
	if rec.ToAccountID != 0 {
		if err := check("accounts", rec.ToAccountID, "account"); err != nil {
			return err
		}
	}
	if rec.UserID != 0 {
		if err := check("users", rec.UserID, "user"); err != nil {
			return err
		}
	}
	for _, tagID := range rec.TagIDs {
		if err := check("tags", tagID, "tag"); err != nil {
			return err
		}
	}
	return nil
}

func duplicate(rec model.Record) error {
	return &RejectError{
		Message: fmt.Sprintf("%s ID %q already exists", rec.Kind, strings.TrimSpace(rec.ExternalID)),
		Err:     ErrDuplicateExternalID,
	}
}

// Records returns records matching q in creation order, with tags.
func (s *Store) Records(ctx context.Context, q Query) ([]model.Record, error) {
	where := []string{"kind = ?"}
	args := []any{string(q.Kind)}
	if !q.From.IsZero() {
		where = append(where, "occurred_on <> ''", "occurred_on >= ?")
		args = append(args, q.From.Format(dateLayout))
	}
	if !q.To.IsZero() {
		where = append(where, "occurred_on <> ''", "occurred_on <= ?")
		args = append(args, q.To.Format(dateLayout))
	}
	if q.AccountID != 0 {
		where = append(where, "(account_id = ? OR to_account_id = ?)")
		args = append(args, q.AccountID, q.AccountID)
	}
	if q.UserID != 0 {
		where = append(where, "user_id = ?")
		args = append(args, q.UserID)
	}
	if q.TagID != 0 {
		where = append(where, "EXISTS (SELECT 1 FROM record_tags rt WHERE rt.record_id = records.id AND rt.tag_id = ?)")
		args = append(args, q.TagID)
	}
	if q.BatchID != "" {
		where = append(where, "batch_id = ?")
		args = append(args, q.BatchID)
	}

	query := `SELECT id, kind, external_id, account_id, to_account_id, amount, currency_code,
		description, user_id, occurred_on, origin, batch_id
		FROM records WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id`
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	var out []model.Record
	index := make(map[int64]int)
	for rows.Next() {
		var (
			rec      model.Record
			kind     string
			origin   string
			toAcct   sql.NullInt64
			userID   sql.NullInt64
			occurred string
		)
		if err := rows.Scan(&rec.ID, &kind, &rec.ExternalID, &rec.AccountID, &toAcct, &rec.Amount,
			&rec.CurrencyCode, &rec.Description, &userID, &occurred, &origin, &rec.BatchID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Kind = model.Kind(kind)
		rec.Origin = model.Origin(origin)
		rec.ToAccountID = int(toAcct.Int64)
		rec.UserID = int(userID.Int64)
		if occurred != "" {
			d, err := time.Parse(dateLayout, occurred)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("record %d: parsing date %q: %w", rec.ID, occurred, err)
			}
			rec.Date = d
		}
		index[rec.ID] = len(out)
		out = append(out, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}

	if err := s.attachTags(ctx, q.Kind, out, index); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) attachTags(ctx context.Context, kind model.Kind, recs []model.Record, index map[int64]int) error {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT rt.record_id, rt.tag_id
		FROM record_tags rt JOIN records r ON r.id = rt.record_id
		WHERE r.kind = ? ORDER BY rt.record_id, rt.position`), string(kind))
	if err != nil {
		return fmt.Errorf("query record tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recID int64
		var tagID int
		if err := rows.Scan(&recID, &tagID); err != nil {
			return fmt.Errorf("scan record tag: %w", err)
		}
		if i, ok := index[recID]; ok {
			recs[i].TagIDs = append(recs[i].TagIDs, tagID)
		}
	}
	return rows.Err()
}

func nullID(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}
