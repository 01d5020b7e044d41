// Package parquet provides data structures and functions for exporting srcmeasure
// results and run history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/srcmeasure/schema"
	"github.com/parquet-go/parquet-go"
)

// MeasurementRun represents a single srcmeasure run with metadata.
// This struct maps to the srcmeasure_runs database table.
type MeasurementRun struct {
	// RunID is the database identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// RunUUID is the identifier reported in events and logs
	RunUUID string `parquet:"run_uuid,snappy"`

	// Root is the root definition identifier that was measured
	Root string `parquet:"root,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int64 `parquet:"run_duration_ms,optional,snappy"`

	// TotalMeasured is the number of work items measured in this run
	TotalMeasured int32 `parquet:"total_measured,snappy"`

	// Interrupted is set when the run was cancelled before finishing
	Interrupted bool `parquet:"interrupted"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// ComponentMetrics represents the metrics of one (repository, revision) work item.
// It is used both for the parquet report and for the srcmeasure_metrics table export.
type ComponentMetrics struct {
	// RunID references the parent run (0 for a plain report)
	RunID int64 `parquet:"run_id,snappy"`

	// Name is the first component name seen for the work item
	Name string `parquet:"name,snappy"`

	// SLOC is the physical source line count, -1 when unmeasured
	SLOC int64 `parquet:"sloc,snappy"`

	// ActiveDays is the number of distinct days with commits
	ActiveDays int32 `parquet:"git_active_days,snappy"`

	// ActiveDaysPerAuthor is the number of distinct (author, day) pairs
	ActiveDaysPerAuthor int32 `parquet:"git_active_days_per_author,snappy"`

	// Authors is the number of distinct commit authors
	Authors int32 `parquet:"git_authors,snappy"`

	// RefName is the display label of the revision
	RefName string `parquet:"ref_name,snappy"`

	// Repo is the repository locator
	Repo string `parquet:"repo,snappy"`

	// Ref is the measured revision
	Ref string `parquet:"ref,snappy"`

	// MeasuredAt is when the work item was measured
	MeasuredAt time.Time `parquet:"measured_at,snappy"`
}

// WriteMeasurementRunsParquet writes a slice of MeasurementRun structs to a Parquet file.
func WriteMeasurementRunsParquet(data []MeasurementRun, outputPath string) error {
	return writeFile(outputPath, func(w io.Writer) error {
		return writeRows(w, data)
	})
}

// WriteComponentMetricsParquet writes a slice of ComponentMetrics structs to a Parquet file.
func WriteComponentMetricsParquet(data []ComponentMetrics, outputPath string) error {
	return writeFile(outputPath, func(w io.Writer) error {
		return WriteComponentMetrics(w, data)
	})
}

// WriteComponentMetrics writes ComponentMetrics rows to w.
func WriteComponentMetrics(w io.Writer, data []ComponentMetrics) error {
	return writeRows(w, data)
}

func writeFile(outputPath string, write func(io.Writer) error) error {
	// Create the output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return write(file)
}

// writeRows writes all rows with a schema inferred from T's struct tags.
func writeRows[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertMetricsRecords converts measured records to ComponentMetrics for Parquet output.
func ConvertMetricsRecords(runID int64, records []schema.MetricsRecord) []ComponentMetrics {
	result := make([]ComponentMetrics, len(records))
	for i, rec := range records {
		result[i] = ComponentMetrics{
			RunID:               runID,
			Name:                rec.Name,
			SLOC:                int64(rec.SLOC),
			ActiveDays:          int32(rec.ActiveDays),
			ActiveDaysPerAuthor: int32(rec.ActiveDaysPerAuthor),
			Authors:             int32(rec.Authors),
			RefName:             rec.RefName,
			Repo:                rec.Repo,
			Ref:                 rec.Ref,
			MeasuredAt:          rec.MeasuredAt,
		}
	}
	return result
}

// ConvertRunRecords converts schema.RunRecord to MeasurementRun for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []MeasurementRun {
	result := make([]MeasurementRun, len(records))
	for i, record := range records {
		result[i] = MeasurementRun{
			RunID:         record.RunID,
			RunUUID:       record.RunUUID,
			Root:          record.Root,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalMeasured: record.TotalMeasured,
			Interrupted:   record.Interrupted,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertMetricsRows converts schema.MetricsRow to ComponentMetrics for Parquet export.
func ConvertMetricsRows(rows []schema.MetricsRow) []ComponentMetrics {
	result := make([]ComponentMetrics, len(rows))
	for i, row := range rows {
		result[i] = ComponentMetrics{
			RunID:               row.RunID,
			Name:                row.Name,
			SLOC:                row.SLOC,
			ActiveDays:          row.ActiveDays,
			ActiveDaysPerAuthor: row.ActiveDaysPerAuthor,
			Authors:             row.Authors,
			RefName:             row.RefName,
			Repo:                row.Repo,
			Ref:                 row.Ref,
			MeasuredAt:          row.MeasuredAt,
		}
	}
	return result
}
