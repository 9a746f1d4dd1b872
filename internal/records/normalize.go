// Package records turns candidate rows into validated, merged datasets
package records

import (
	"strings"
	"time"

	"github.com/abelzeko/water-feed/internal/entities"
)

// TimestampLayout is the date and time format used by the published tables
const TimestampLayout = "02Jan2006 1504"

const dateLayout = "02Jan2006"

// monthAbbreviations mark data lines and genuine data pages
var monthAbbreviations = []string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

// missingSentinels are placeholders for "no reading"
var missingSentinels = map[string]struct{}{
	"-":    {},
	"--":   {},
	"---":  {},
	"----": {},
}

// ContainsMonth reports whether s contains an upper-case month abbreviation
func ContainsMonth(s string) bool {
	for _, m := range monthAbbreviations {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// IsMissing reports whether a field is a "no data" placeholder
func IsMissing(field string) bool {
	_, ok := missingSentinels[strings.TrimSpace(field)]
	return ok
}

// Reason explains why a row was rejected
type Reason string

const (
	ReasonTooFewFields Reason = "too_few_fields"
	ReasonMissingValue Reason = "missing_sentinel"
	ReasonBadTimestamp Reason = "bad_timestamp"
)

// Result is either a valid record or the reason the row was rejected
type Result struct {
	Record entities.NormalizedRecord
	Reason Reason
}

// Valid reports whether the row passed every check
func (r Result) Valid() bool {
	return r.Reason == ""
}

func rejected(reason Reason) Result {
	return Result{Reason: reason}
}

// RollOver rewrites the end-of-day hour "2400" as "0000" on the following day.
// Other values are returned unchanged.
func RollOver(date, clock string) (string, string, bool) {
	if clock != "2400" {
		return date, clock, true
	}
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return date, clock, false
	}
	return FormatDate(day.AddDate(0, 0, 1)), "0000", true
}

// FormatDate renders a day the way the tables do, e.g. 01JAN2025
func FormatDate(t time.Time) string {
	return strings.ToUpper(t.Format(dateLayout))
}

// Normalize applies the midnight rollover and validates a candidate row.
// Timestamps are interpreted in loc.
func Normalize(row entities.CandidateRow, minFields int, loc *time.Location) Result {
	if len(row) < 2 || len(row) < minFields {
		return rejected(ReasonTooFewFields)
	}
	for _, field := range row {
		if IsMissing(field) {
			return rejected(ReasonMissingValue)
		}
	}

	date, clock, ok := RollOver(row.Date(), row.Time())
	if !ok {
		return rejected(ReasonBadTimestamp)
	}

	if loc == nil {
		loc = time.UTC
	}
	ts, err := time.ParseInLocation(TimestampLayout, date+" "+clock, loc)
	if err != nil {
		return rejected(ReasonBadTimestamp)
	}

	return Result{Record: entities.NormalizedRecord{
		Date:      strings.ToUpper(date),
		Time:      clock,
		Fields:    append([]string(nil), row[2:]...),
		Timestamp: ts,
	}}
}
