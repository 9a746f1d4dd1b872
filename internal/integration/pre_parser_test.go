package integration

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelzeko/water-feed/internal/entities"
)

func collect(doc string) []entities.CandidateRow {
	return slices.Collect(ParseRows(doc))
}

func TestParseRowsReservoirPage(t *testing.T) {
	rows := collect(reservoirPage)
	require.Len(t, rows, 4)

	assert.Equal(t, entities.CandidateRow{"01JAN2024", "0600", "723.41", "553.20", "120", "10400", "0", "10400"}, rows[0])
	assert.Equal(t, "----", rows[1][4])
	assert.Equal(t, "2400", rows[2].Time())
	assert.Equal(t, "02JAN2024", rows[3].Date())
}

func TestParseRowsNoPreBlock(t *testing.T) {
	rows := collect(`<html><body><table><tr><td>01JAN2024 0600 1 2</td></tr></table></body></html>`)
	assert.Empty(t, rows)
}

func TestParseRowsNoDataStart(t *testing.T) {
	rows := collect("<pre>\nDate Time Stage Flow\n(ft) (cfs)\n</pre>")
	assert.Empty(t, rows)
}

func TestParseRowsStopsAtPlot(t *testing.T) {
	doc := "<pre>\n05MAR2024 0100 12.1 3400\nPlot of last 30 days\n05MAR2024 0200 12.2 3500\n</pre>"
	rows := collect(doc)
	require.Len(t, rows, 1)
	assert.Equal(t, "0100", rows[0].Time())
}

func TestParseRowsSkipsShortLines(t *testing.T) {
	doc := "<pre>\n05MAR2024 0100 12.1 3400\nx\n05MAR2024 0200 12.2 3500\n</pre>"
	rows := collect(doc)
	require.Len(t, rows, 2)
	assert.Equal(t, "0200", rows[1].Time())
}

func TestParseRowsEarlyStop(t *testing.T) {
	n := 0
	for range ParseRows(reservoirPage) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestPreformattedTextDecodesEntities(t *testing.T) {
	text, ok := PreformattedText("<pre>01JAN2024 &amp; more</pre>")
	require.True(t, ok)
	assert.Equal(t, "01JAN2024 & more", text)

	_, ok = PreformattedText("<p>nothing here</p>")
	assert.False(t, ok)
}
