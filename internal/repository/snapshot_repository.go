// Package repository provides data access implementations
package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abelzeko/water-feed/internal/entities"
	"github.com/abelzeko/water-feed/internal/log"
)

const (
	snapshotExt    = ".csv"
	snapshotSuffix = "_data" + snapshotExt
)

// ErrNoSnapshot is returned when a source has never been written
var ErrNoSnapshot = errors.New("no snapshot for source")

// SnapshotRepository defines the interface for snapshot persistence operations
type SnapshotRepository interface {
	SaveDataset(spec entities.SourceSpec, ds entities.Dataset) error
	LoadSnapshot(spec entities.SourceSpec) (*Snapshot, error)
	ListSnapshots() ([]string, error)
}

// Snapshot is a snapshot file read back from disk
type Snapshot struct {
	SourceID  string
	Header    []string
	Rows      [][]string
	UpdatedAt time.Time
}

// FileSnapshotRepository implements SnapshotRepository with one CSV file per source
type FileSnapshotRepository struct {
	dir    string
	logger *zap.SugaredLogger
}

// NewFileSnapshotRepository creates the output directory if needed
func NewFileSnapshotRepository(dir string, logger *zap.SugaredLogger) (*FileSnapshotRepository, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &FileSnapshotRepository{dir: dir, logger: log.OrNop(logger)}, nil
}

// Path returns the snapshot file of a source
func (r *FileSnapshotRepository) Path(sourceID string) string {
	return filepath.Join(r.dir, sourceID+snapshotSuffix)
}

// SaveDataset replaces the snapshot of a source with the header and the dataset rows.
// The file is written next to the destination and renamed over it, so readers see
// either the old or the new snapshot.
func (r *FileSnapshotRepository) SaveDataset(spec entities.SourceSpec, ds entities.Dataset) error {
	tmp, err := os.CreateTemp(r.dir, "."+spec.ID+"-*"+snapshotExt)
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot for %s: %w", spec.ID, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	trimmed, err := writeDataset(tmp, spec.Columns, ds)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot for %s: %w", spec.ID, err)
	}
	if trimmed > 0 {
		r.logger.Warnf("Dropped %d fields beyond the %d-column schema of %s", trimmed, len(spec.Columns), spec.ID)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync snapshot for %s: %w", spec.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot for %s: %w", spec.ID, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to chmod snapshot for %s: %w", spec.ID, err)
	}
	if err := os.Rename(tmpName, r.Path(spec.ID)); err != nil {
		return fmt.Errorf("failed to replace snapshot for %s: %w", spec.ID, err)
	}

	r.logger.Infof("Successfully saved %d records for %s to %s", ds.Len(), spec.ID, r.Path(spec.ID))
	return nil
}

// writeDataset writes the header and one line per record, cut to the header width.
// It returns the number of fields that did not fit.
func writeDataset(w io.Writer, header []string, ds entities.Dataset) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return 0, err
	}
	trimmed := 0
	for _, rec := range ds.Records {
		row := rec.Row()
		if len(row) > len(header) {
			trimmed += len(row) - len(header)
			row = row[:len(header)]
		}
		if err := cw.Write(row); err != nil {
			return trimmed, err
		}
	}
	cw.Flush()
	return trimmed, cw.Error()
}

// LoadSnapshot reads the last written snapshot of a source
func (r *FileSnapshotRepository) LoadSnapshot(spec entities.SourceSpec) (*Snapshot, error) {
	f, err := os.Open(r.Path(spec.ID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoSnapshot, spec.ID)
		}
		return nil, fmt.Errorf("failed to open snapshot for %s: %w", spec.ID, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot for %s: %w", spec.ID, err)
	}

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	lines, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot for %s: %w", spec.ID, err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("snapshot for %s has no header", spec.ID)
	}

	return &Snapshot{
		SourceID:  spec.ID,
		Header:    lines[0],
		Rows:      lines[1:],
		UpdatedAt: info.ModTime(),
	}, nil
}

// ListSnapshots returns the source ids that have a snapshot, sorted
func (r *FileSnapshotRepository) ListSnapshots() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, snapshotSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, snapshotSuffix))
	}
	sort.Strings(ids)
	return ids, nil
}
