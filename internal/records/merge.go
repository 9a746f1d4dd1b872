package records

import (
	"sort"
	"time"

	"github.com/abelzeko/water-feed/internal/entities"
)

// DefaultRetention is the trailing window kept in a snapshot
const DefaultRetention = 5 * 24 * time.Hour

// Cutoff returns the first calendar day kept for a window ending at now,
// as midnight UTC of that day in now's location
func Cutoff(now time.Time, window time.Duration) time.Time {
	return civilDay(now.Add(-window))
}

// Merge keeps records dated on or after the cutoff day, collapses duplicate
// timestamps (the last one seen wins) and sorts the result oldest first.
// A record's day is its own calendar date; the cutoff day is taken in now's location.
func Merge(sourceID string, records []entities.NormalizedRecord, now time.Time, window time.Duration) entities.Dataset {
	cutoff := Cutoff(now, window)

	index := make(map[entities.TimestampKey]int, len(records))
	kept := make([]entities.NormalizedRecord, 0, len(records))
	for _, rec := range records {
		if civilDay(rec.Timestamp).Before(cutoff) {
			continue
		}
		if i, seen := index[rec.Key()]; seen {
			kept[i] = rec
			continue
		}
		index[rec.Key()] = len(kept)
		kept = append(kept, rec)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Timestamp.Before(kept[j].Timestamp)
	})

	return entities.Dataset{SourceID: sourceID, Records: kept}
}

// civilDay drops the clock and zone so dates from different locations compare by calendar day
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
