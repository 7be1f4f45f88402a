package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/island/config"
)

// Output file names inside the run directory.
const (
	TelemetryFile = "telemetry.csv"
	PerfFile      = "perf.csv"
	BookmarksFile = "bookmarks.csv"
	ConfigFile    = "config.yaml"
)

// csvFile is an append-only CSV file that writes its header once.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

// csvAppend writes records to out, including the header on first use.
func csvAppend[T any](out *csvFile, records []T) error {
	if !out.headerWritten {
		if err := gocsv.Marshal(records, out.f); err != nil {
			return err
		}
		out.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, out.f)
}

// OutputManager handles structured run output with CSV logging.
// Only the report task writes to it, so it does no locking.
type OutputManager struct {
	dir       string
	telemetry *csvFile
	perf      *csvFile
	bookmarks *csvFile
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	for _, target := range []struct {
		name string
		dst  **csvFile
	}{
		{TelemetryFile, &om.telemetry},
		{PerfFile, &om.perf},
		{BookmarksFile, &om.bookmarks},
	} {
		f, err := os.Create(filepath.Join(dir, target.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", target.name, err)
		}
		*target.dst = &csvFile{f: f}
	}

	return om, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, ConfigFile))
}

// WriteTelemetry appends a cycle stats row to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats CycleStats) error {
	if om == nil {
		return nil
	}
	if err := csvAppend(om.telemetry, []CycleStats{stats}); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf appends a task timing row to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, runID string, cycle int) error {
	if om == nil {
		return nil
	}
	if err := csvAppend(om.perf, []PerfStatsCSV{stats.ToCSV(runID, cycle)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteBookmark appends a bookmark row to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	if err := csvAppend(om.bookmarks, []Bookmark{b}); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var errs []error
	for _, out := range []*csvFile{om.telemetry, om.perf, om.bookmarks} {
		if out != nil {
			errs = append(errs, out.f.Close())
		}
	}
	return errors.Join(errs...)
}
