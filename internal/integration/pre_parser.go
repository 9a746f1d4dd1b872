package integration

import (
	"iter"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/abelzeko/water-feed/internal/entities"
	"github.com/abelzeko/water-feed/internal/records"
)

// footerMarkers introduce the summary and chart sections that follow the rows
var footerMarkers = []string{"7-Day", "Plot"}

// PreformattedText returns the text of the first <pre> element in an HTML document
func PreformattedText(doc string) (string, bool) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return "", false
	}
	pre := d.Find("pre").First()
	if pre.Length() == 0 {
		return "", false
	}
	return pre.Text(), true
}

// ParseRows walks the data block of a report page and yields each data line
// split on whitespace. Lines before the first dated line are skipped and the
// walk stops at the first footer line. A page without a <pre> block yields nothing.
func ParseRows(doc string) iter.Seq[entities.CandidateRow] {
	return func(yield func(entities.CandidateRow) bool) {
		text, ok := PreformattedText(doc)
		if !ok {
			return
		}

		started := false
		for line := range strings.Lines(text) {
			if !started {
				if !isDataStart(line) {
					continue
				}
				started = true
			}
			if isFooter(line) {
				return
			}

			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			if !yield(entities.CandidateRow(fields)) {
				return
			}
		}
	}
}

// isDataStart reports whether a line looks like the first row of data
func isDataStart(line string) bool {
	return strings.IndexFunc(line, unicode.IsDigit) >= 0 && records.ContainsMonth(line)
}

func isFooter(line string) bool {
	for _, marker := range footerMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}
