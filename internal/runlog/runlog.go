package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Status is the outcome of one file within a run.
type Status string

const (
	StatusLoaded  Status = "loaded"
	StatusFailed  Status = "failed"
	StatusDryRun  Status = "dry-run"
	StatusNoFacts Status = "empty"
)

// Entry is one row in the ingest log.
type Entry struct {
	Timestamp time.Time
	RunID     string
	File      string
	Variant   string
	Status    Status
	Facts     int
	Affected  int64
	Details   string
}

// Header is the CSV header for ingest-log.csv.
const Header = "timestamp,run_id,file,variant,status,facts,affected,details"

const (
	numFields    = 8
	logDir       = "logs"
	logFile      = "logs/ingest-log.csv"
	colTimestamp = 0
	colRunID     = 1
	colFile      = 2
	colVariant   = 3
	colStatus    = 4
	colFacts     = 5
	colAffected  = 6
	colDetails   = 7
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colFile] = e.File
	row[colVariant] = e.Variant
	row[colStatus] = string(e.Status)
	row[colFacts] = strconv.Itoa(e.Facts)
	row[colAffected] = strconv.FormatInt(e.Affected, 10)
	row[colDetails] = e.Details
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
	facts, err := strconv.Atoi(record[colFacts])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing facts %q: %w", record[colFacts], err)
	}
	affected, err := strconv.ParseInt(record[colAffected], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing affected %q: %w", record[colAffected], err)
	}

	return Entry{
		Timestamp: ts,
		RunID:     record[colRunID],
		File:      record[colFile],
		Variant:   record[colVariant],
		Status:    Status(record[colStatus]),
		Facts:     facts,
		Affected:  affected,
		Details:   record[colDetails],
	}, nil
}

// Path returns the ingest log location under root.
func Path(root string) string {
	return filepath.Join(root, logFile)
}

// Append writes entries to <root>/logs/ingest-log.csv, creating the file and header if needed.
func Append(root string, entries []Entry) error {
	dir := filepath.Join(root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := Path(root)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening ingest log: %w", err)
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

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <root>/logs/ingest-log.csv.
// Returns an empty slice if the file does not exist.
func Read(root string) ([]Entry, error) {
	f, err := os.Open(Path(root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ingest log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ingest log CSV: %w", err)
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
