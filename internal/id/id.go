package id

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	stampLayout = "20060102T150405Z"
	suffixLen   = 8
)

// NewRunID returns a run ID like "20240702T131433Z-1f0c2a9b": the UTC start
// time followed by the first eight hex digits of a random UUID.
func NewRunID(now time.Time) string {
	return FormatRunID(now, uuid.New())
}

// FormatRunID builds a run ID from a start time and a UUID.
func FormatRunID(start time.Time, u uuid.UUID) string {
	hex := strings.ReplaceAll(u.String(), "-", "")
	return start.UTC().Format(stampLayout) + "-" + hex[:suffixLen]
}

// Suffixed inserts the run suffix before the extension of name:
// "jun.csv" -> "jun.1f0c2a9b.csv". Used to keep archived files distinct.
func Suffixed(name, runID string) string {
	suffix := runID
	if i := strings.LastIndexByte(runID, '-'); i >= 0 {
		suffix = runID[i+1:]
	}
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "." + suffix + ext
}
