// Package reference reads and writes the tag and user reference files and
// loads a workspace's reference directory into the store.
package reference

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cleared-dev/backoffice/internal/model"
)

var (
	tagHeader  = []string{"tag_id", "name", "color"}
	userHeader = []string{"user_id", "name"}
)

// ReadTags reads reference/tags.csv.
func ReadTags(r io.Reader) ([]model.Tag, error) {
	records, err := readAll(r, len(tagHeader))
	if err != nil {
		return nil, fmt.Errorf("reading tags CSV: %w", err)
	}
	var tags []model.Tag
	for i, rec := range records {
		id, err := parseID(rec[0], "tag_id")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		tags = append(tags, model.Tag{ID: id, Name: rec[1], Color: strings.TrimSpace(rec[2])})
	}
	return tags, nil
}

// WriteTags writes reference/tags.csv.
func WriteTags(w io.Writer, tags []model.Tag) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(tagHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, t := range tags {
		if err := cw.Write([]string{strconv.Itoa(t.ID), t.Name, t.Color}); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// ReadUsers reads reference/users.csv.
func ReadUsers(r io.Reader) ([]model.User, error) {
	records, err := readAll(r, len(userHeader))
	if err != nil {
		return nil, fmt.Errorf("reading users CSV: %w", err)
	}
	var users []model.User
	for i, rec := range records {
		id, err := parseID(rec[0], "user_id")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		users = append(users, model.User{ID: id, Name: rec[1]})
	}
	return users, nil
}

// WriteUsers writes reference/users.csv.
func WriteUsers(w io.Writer, users []model.User) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(userHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, u := range users {
		if err := cw.Write([]string{strconv.Itoa(u.ID), u.Name}); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// readAll returns the data rows, header excluded.
func readAll(r io.Reader, fields int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fields
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}

func parseID(s, col string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parsing %s %q: %w", col, s, err)
	}
	return id, nil
}
