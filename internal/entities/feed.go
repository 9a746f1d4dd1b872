// Package entities contains the core domain objects for the water-feed application
package entities

import (
	"time"
)

// SourceSpec describes one monitored location and the layout of its published table
type SourceSpec struct {
	ID        string   // Unique source identifier, also the snapshot file name
	Endpoint  string   // Page that carries the preformatted data block
	Columns   []string // Header written to the snapshot, Date and Time first
	MinFields int      // Minimum number of whitespace-separated fields in a valid row
}

// CandidateRow is one line of the data block split on whitespace.
// The first two fields are the raw date and time.
type CandidateRow []string

// Date returns the raw date field or "" if the row is too short
func (r CandidateRow) Date() string {
	if len(r) < 1 {
		return ""
	}
	return r[0]
}

// Time returns the raw time field or "" if the row is too short
func (r CandidateRow) Time() string {
	if len(r) < 2 {
		return ""
	}
	return r[1]
}

// TimestampKey identifies a reading for deduplication
type TimestampKey string

// NormalizedRecord is a validated reading ready to be merged
type NormalizedRecord struct {
	Date      string    // Calendar day, e.g. 01JAN2024
	Time      string    // Hour and minute on a 24h clock, e.g. 0000
	Fields    []string  // Measurements in schema order, original formatting preserved
	Timestamp time.Time // Parsed Date+Time
}

// Key returns the deduplication key of the record
func (r NormalizedRecord) Key() TimestampKey {
	return TimestampKey(r.Date + " " + r.Time)
}

// Row returns the record as it is written to a snapshot
func (r NormalizedRecord) Row() []string {
	row := make([]string, 0, len(r.Fields)+2)
	row = append(row, r.Date, r.Time)
	return append(row, r.Fields...)
}

// Dataset is the retention-bounded, chronologically sorted history of one source
type Dataset struct {
	SourceID string
	Records  []NormalizedRecord
}

// Len returns the number of records in the dataset
func (d Dataset) Len() int {
	return len(d.Records)
}
