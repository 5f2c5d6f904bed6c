package id

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Key returns the comparison key for an external identifier.
// " EXP-001 " -> "exp-001"
func Key(external string) string {
	return strings.ToLower(strings.TrimSpace(external))
}

// NewBatchID returns a fresh identifier for one import run.
func NewBatchID() string {
	return uuid.NewString()
}

// ParseBatchID validates a batch identifier and returns it in canonical form.
func ParseBatchID(s string) (string, error) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid batch ID %q: %w", s, err)
	}
	return u.String(), nil
}

// ExportFileName returns a file name like "expenses-20250103-150405.xlsx".
func ExportFileName(sheet string, at time.Time, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "xlsx"
	}
	return fmt.Sprintf("%s-%s.%s", strings.ToLower(sheet), at.Format("20060102-150405"), ext)
}

// TemplateFileName returns a file name like "expenses-template.xlsx".
func TemplateFileName(sheet string) string {
	return strings.ToLower(sheet) + "-template.xlsx"
}
