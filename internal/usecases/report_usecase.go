package usecases

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abelzeko/water-feed/internal/config"
	"github.com/abelzeko/water-feed/internal/log"
	"github.com/abelzeko/water-feed/internal/repository"
)

// ReportUseCase answers questions about the snapshots already written
type ReportUseCase struct {
	registry *config.Registry
	repo     repository.SnapshotRepository
	logger   *zap.SugaredLogger
}

// NewReportUseCase creates a new report use case
func NewReportUseCase(registry *config.Registry, repo repository.SnapshotRepository, logger *zap.SugaredLogger) *ReportUseCase {
	return &ReportUseCase{registry: registry, repo: repo, logger: log.OrNop(logger)}
}

// AvailableSources returns the registered sources that have a snapshot
func (uc *ReportUseCase) AvailableSources() ([]string, error) {
	uc.logger.Debug("Retrieving list of available sources")
	ids, err := uc.repo.ListSnapshots()
	if err != nil {
		return nil, err
	}

	known := ids[:0]
	for _, id := range ids {
		if _, ok := uc.registry.Lookup(id); ok {
			known = append(known, id)
		}
	}
	return known, nil
}

// Latest returns the snapshot of a source
func (uc *ReportUseCase) Latest(sourceID string) (*repository.Snapshot, error) {
	uc.logger.Debugf("Retrieving snapshot for source: %s", sourceID)
	spec, ok := uc.registry.Lookup(sourceID)
	if !ok {
		return nil, fmt.Errorf("unknown source %q", sourceID)
	}
	return uc.repo.LoadSnapshot(spec)
}

// FormatSnapshot renders the newest rows of a snapshot for display, newest first
func FormatSnapshot(snap *repository.Snapshot, limit int) string {
	if snap == nil || len(snap.Rows) == 0 {
		return "No readings available for this source."
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Latest readings for %s:\n\n", snap.SourceID))

	shown := 0
	for i := len(snap.Rows) - 1; i >= 0 && (limit <= 0 || shown < limit); i-- {
		row := snap.Rows[i]
		result.WriteString(fmt.Sprintf("📅 %s\n", strings.Join(firstN(row, 2), " ")))
		for j := 2; j < len(row) && j < len(snap.Header); j++ {
			result.WriteString(fmt.Sprintf("  %s: %s\n", snap.Header[j], row[j]))
		}
		result.WriteString("\n")
		shown++
	}

	result.WriteString(fmt.Sprintf("🕒 Last update: %s", snap.UpdatedAt.Format("2006-01-02 15:04:05 MST")))
	return result.String()
}

func firstN(row []string, n int) []string {
	if len(row) < n {
		return row
	}
	return row[:n]
}
