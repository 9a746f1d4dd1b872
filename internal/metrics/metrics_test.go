package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounters(t *testing.T) {
	c := NewCollector("feed_test")

	c.RecordFetchAttempt("lake")
	c.RecordFetchAttempt("lake")
	c.RecordFetchFailure("lake")
	c.RecordRejectedRow("lake", "missing_sentinel")
	c.RecordSnapshot("lake", 12, time.Unix(1700000000, 0))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.FetchAttemptsTotal.WithLabelValues("lake")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.FetchFailuresTotal.WithLabelValues("lake")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RowsRejectedTotal.WithLabelValues("lake", "missing_sentinel")))
	assert.Equal(t, 12.0, testutil.ToFloat64(c.RowsWritten.WithLabelValues("lake")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(c.LastSuccess.WithLabelValues("lake")))
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewCollector("feed_test")
	b := NewCollector("feed_test")

	a.RecordFetchAttempt("lake")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.FetchAttemptsTotal.WithLabelValues("lake")))
}

func TestWriteTextfile(t *testing.T) {
	c := NewCollector("feed_test")
	c.RecordSnapshot("lake", 3, time.Now())
	c.ObserveRun(2 * time.Second)

	path := filepath.Join(t.TempDir(), "feed.prom")
	require.NoError(t, c.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `feed_test_rows_written{source="lake"} 3`)
	assert.Contains(t, string(raw), "feed_test_run_duration_seconds_count 1")
}
