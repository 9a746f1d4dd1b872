package usecases

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelzeko/water-feed/internal/config"
	"github.com/abelzeko/water-feed/internal/entities"
	"github.com/abelzeko/water-feed/internal/repository"
)

func TestReportUseCase(t *testing.T) {
	spec := gauge("white_river")
	unused := gauge("unused")
	reg, err := config.NewRegistry([]entities.SourceSpec{spec, unused})
	require.NoError(t, err)

	repo, err := repository.NewFileSnapshotRepository(t.TempDir(), nil)
	require.NoError(t, err)

	uc := NewReportUseCase(reg, repo, nil)

	ids, err := uc.AvailableSources()
	require.NoError(t, err)
	assert.Empty(t, ids)

	feed := NewFeedUseCase(reg, &stubFetcher{docs: map[string]string{spec.ID: page(
		"02JAN2024 0100 10.0 100",
		"02JAN2024 0200 10.2 120",
	)}}, repo, Options{}, nil, nil)
	feed.SetClock(fixedClock)
	require.Equal(t, StatusWritten, feed.RefreshSource(t.Context(), spec).Status)

	ids, err = uc.AvailableSources()
	require.NoError(t, err)
	assert.Equal(t, []string{spec.ID}, ids)

	snap, err := uc.Latest(spec.ID)
	require.NoError(t, err)
	require.Len(t, snap.Rows, 2)

	text := FormatSnapshot(snap, 1)
	assert.Contains(t, text, "Latest readings for white_river")
	assert.Contains(t, text, "02JAN2024 0200")
	assert.Contains(t, text, "Stage: 10.2")
	assert.NotContains(t, text, "Stage: 10.0")

	_, err = uc.Latest("nope")
	assert.Error(t, err)

	_, err = uc.Latest(unused.ID)
	assert.ErrorIs(t, err, repository.ErrNoSnapshot)
}

func TestFormatSnapshotEmpty(t *testing.T) {
	assert.Equal(t, "No readings available for this source.", FormatSnapshot(nil, 3))
	assert.Equal(t, "No readings available for this source.", FormatSnapshot(&repository.Snapshot{SourceID: "x"}, 3))
}
