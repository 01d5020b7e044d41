// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"

	"github.com/huangsam/srcmeasure/internal/contract"
	"github.com/huangsam/srcmeasure/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct {
	Status io.Writer // Destination of the summary and "wrote" notices
}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter(status io.Writer) *OutWriter {
	return &OutWriter{Status: status}
}

// WriteResults writes the result set using the configured output format, then
// prints the run summary.
func (ow *OutWriter) WriteResults(results *schema.ResultSet, summary *schema.RunSummary, cfg *contract.Config) error {
	if err := WriteResults(results, cfg, ow.Status); err != nil {
		return err
	}
	return PrintSummary(ow.Status, results, summary, cfg)
}

// WriteWalk writes a walk order using the configured output format.
func (ow *OutWriter) WriteWalk(records []schema.ComponentRecord, cfg *contract.Config) error {
	return WriteWalk(records, cfg, ow.Status)
}

// WriteResults dispatches on cfg.Output and writes to cfg.ResolvedOutputFile().
func WriteResults(results *schema.ResultSet, cfg *contract.Config, status io.Writer) error {
	records := results.Records()
	outputFile := cfg.ResolvedOutputFile()

	var err error
	switch cfg.Output {
	case schema.JSONOut:
		err = writeWithFile(outputFile, status, func(w io.Writer) error {
			return writeJSONResults(w, records)
		}, "Wrote JSON")
	case schema.ParquetOut:
		err = writeWithFile(outputFile, status, func(w io.Writer) error {
			return writeParquetResults(w, records)
		}, "Wrote Parquet")
	case schema.TextOut:
		err = writeWithFile(outputFile, status, func(w io.Writer) error {
			return writeResultsTable(w, records, cfg)
		}, "Wrote table")
	default:
		err = writeWithFile(outputFile, status, func(w io.Writer) error {
			return writeCSVResults(w, records)
		}, "Wrote CSV")
	}
	if err != nil {
		return fmt.Errorf("error writing %s output: %w", cfg.Output, err)
	}
	return nil
}
