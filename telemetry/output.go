package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/pthm-cable/serpent/config"
)

// NewRunID returns a fresh identifier that tags every row a run writes.
func NewRunID() string {
	return uuid.NewString()
}

// csvStream appends gocsv rows of one record type to a file, writing the
// header with the first row only.
type csvStream[T any] struct {
	name   string
	file   *os.File
	header bool
}

func openStream[T any](dir, name string) (*csvStream[T], error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvStream[T]{name: name, file: f}, nil
}

func (s *csvStream[T]) write(rec T) error {
	rows := []T{rec}
	var err error
	if s.header {
		err = gocsv.MarshalWithoutHeaders(rows, s.file)
	} else {
		err = gocsv.Marshal(rows, s.file)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", s.name, err)
	}
	s.header = true
	return nil
}

func (s *csvStream[T]) close() error {
	if s == nil || s.file == nil {
		return nil
	}
	return s.file.Close()
}

// OutputManager writes a run's telemetry under one directory:
// telemetry.csv, perf.csv, bookmarks.csv and lives.csv, plus config.yaml,
// hall_of_fame.json and snapshots/ on demand. A nil manager discards output.
type OutputManager struct {
	dir   string
	runID string

	windows   *csvStream[WindowStats]
	perf      *csvStream[PerfStatsCSV]
	bookmarks *csvStream[Bookmark]
	lives     *csvStream[LifeRecord]
}

// NewOutputManager creates the output directory and its CSV files.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir, runID string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir, runID: runID}
	var err error
	if om.windows, err = openStream[WindowStats](dir, "telemetry.csv"); err != nil {
		return nil, err
	}
	if om.perf, err = openStream[PerfStatsCSV](dir, "perf.csv"); err != nil {
		om.Close()
		return nil, err
	}
	if om.bookmarks, err = openStream[Bookmark](dir, "bookmarks.csv"); err != nil {
		om.Close()
		return nil, err
	}
	if om.lives, err = openStream[LifeRecord](dir, "lives.csv"); err != nil {
		om.Close()
		return nil, err
	}
	return om, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry appends a window to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return om.windows.write(stats)
}

// WritePerf appends a perf window to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	return om.perf.write(stats.ToCSV(om.runID, windowEnd))
}

// WriteBookmark appends a bookmark to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	return om.bookmarks.write(b)
}

// WriteLife appends one finished life to lives.csv.
func (om *OutputManager) WriteLife(id uint32, stats *LifetimeStats) error {
	if om == nil || stats == nil {
		return nil
	}
	return om.lives.write(stats.Record(om.runID, id))
}

// WriteHallOfFame saves the hall of fame as JSON.
func (om *OutputManager) WriteHallOfFame(hof *HallOfFame) error {
	if om == nil || hof == nil {
		return nil
	}
	data, err := hof.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling hall of fame: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "hall_of_fame.json"), data, 0644); err != nil {
		return fmt.Errorf("writing hall_of_fame.json: %w", err)
	}
	return nil
}

// WriteSnapshot saves a snapshot under the snapshots subdirectory.
func (om *OutputManager) WriteSnapshot(snap *Snapshot) (string, error) {
	if om == nil || snap == nil {
		return "", nil
	}
	return SaveSnapshot(snap, filepath.Join(om.dir, "snapshots"))
}

// RunID returns the identifier stamped on every row.
func (om *OutputManager) RunID() string {
	if om == nil {
		return ""
	}
	return om.runID
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes every CSV file, reporting all failures.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	return errors.Join(
		om.windows.close(),
		om.perf.close(),
		om.bookmarks.close(),
		om.lives.close(),
	)
}
