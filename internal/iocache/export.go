package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/srcmeasure/internal/contract"
	"github.com/huangsam/srcmeasure/internal/parquet"
)

// ExportHistory writes the run history held by store to <outputFile>.runs.parquet
// and <outputFile>.metrics.parquet, reporting progress to w.
func ExportHistory(store contract.HistoryStore, outputFile string, w io.Writer) error {
	// Validate that output file is specified
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run history is disabled; set --history-backend to export")
	}
	if w == nil {
		w = io.Discard
	}

	// Check if there's any data to export
	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}

	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total metrics records: %d\n", status.TableSizes[metricsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}

	metrics, err := store.GetAllMetrics()
	if err != nil {
		return fmt.Errorf("failed to retrieve metrics: %w", err)
	}

	parquetRuns := parquet.ConvertRunRecords(runs)
	parquetMetrics := parquet.ConvertMetricsRows(metrics)

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteMeasurementRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	metricsFile := outputFile + ".metrics.parquet"
	if err := parquet.WriteComponentMetricsParquet(parquetMetrics, metricsFile); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d metrics records to: %s\n", len(parquetMetrics), metricsFile)

	return nil
}
