package importlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cleared-dev/backoffice/internal/importer"
)

// Entry is one import run in the log.
type Entry struct {
	Timestamp time.Time
	BatchID   string
	Entity    string
	File      string
	Success   int
	Errors    int
	Skipped   int
}

// Header is the CSV header for import-log.csv.
const Header = "timestamp,batch_id,entity,file,success,errors,skipped"

const (
	numFields    = 7
	logDir       = "logs"
	logFile      = "logs/import-log.csv"
	colTimestamp = 0
	colBatchID   = 1
	colEntity    = 2
	colFile      = 3
	colSuccess   = 4
	colErrors    = 5
	colSkipped   = 6
)

// FromSummary builds the log entry of a finished run.
func FromSummary(at time.Time, file string, s *importer.Summary) Entry {
	return Entry{
		Timestamp: at,
		BatchID:   s.BatchID,
		Entity:    s.Entity,
		File:      file,
		Success:   s.SuccessCount,
		Errors:    s.ErrorCount,
		Skipped:   s.Skipped,
	}
}

// Path returns the log file of a repo.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, logFile)
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colBatchID] = e.BatchID
	row[colEntity] = e.Entity
	row[colFile] = e.File
	row[colSuccess] = strconv.Itoa(e.Success)
	row[colErrors] = strconv.Itoa(e.Errors)
	row[colSkipped] = strconv.Itoa(e.Skipped)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	var counts [3]int
	for i, col := range []int{colSuccess, colErrors, colSkipped} {
		counts[i], err = strconv.Atoi(record[col])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing %s %q: %w", strings.Split(Header, ",")[col], record[col], err)
		}
	}

	return Entry{
		Timestamp: ts,
		BatchID:   record[colBatchID],
		Entity:    record[colEntity],
		File:      record[colFile],
		Success:   counts[0],
		Errors:    counts[1],
		Skipped:   counts[2],
	}, nil
}

// Append writes entries to <repoRoot>/logs/import-log.csv, creating the file and header if needed.
func Append(repoRoot string, entries []Entry) error {
	dir := filepath.Join(repoRoot, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := Path(repoRoot)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all entries from <repoRoot>/logs/import-log.csv.
// Returns an empty slice if the file does not exist.
func Read(repoRoot string) ([]Entry, error) {
	f, err := os.Open(Path(repoRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading import log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
