package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/huangsam/srcmeasure/internal/contract"
	"github.com/huangsam/srcmeasure/internal/parquet"
	"github.com/huangsam/srcmeasure/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// resultsHeader is the column order of the CSV report.
var resultsHeader = []string{
	"name",
	"sloc",
	"git_active_days",
	"git_active_days_per_author",
	"git_authors",
	"ref_name",
	"repo",
	"ref",
}

// maxRefWidth bounds the ref column of the table.
const maxRefWidth = 24

// writeCSVResults writes one row per work item in first-measured order.
// Unmeasured line counts are written as -1.
func writeCSVResults(w io.Writer, records []schema.MetricsRecord) error {
	return writeCSVWithHeader(w, resultsHeader, func(cw *csv.Writer) error {
		for _, r := range records {
			row := []string{
				r.Name,
				strconv.Itoa(r.SLOC),
				strconv.Itoa(r.ActiveDays),
				strconv.Itoa(r.ActiveDaysPerAuthor),
				strconv.Itoa(r.Authors),
				r.RefName,
				r.Repo,
				r.Ref,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeJSONResults writes the records as an indented JSON array.
func writeJSONResults(w io.Writer, records []schema.MetricsRecord) error {
	if records == nil {
		records = []schema.MetricsRecord{}
	}
	return writeJSON(w, records)
}

// writeParquetResults writes the records as a Parquet file.
func writeParquetResults(w io.Writer, records []schema.MetricsRecord) error {
	return parquet.WriteComponentMetrics(w, parquet.ConvertMetricsRecords(0, records))
}

// writeResultsTable generates and writes the human-readable table.
func writeResultsTable(w io.Writer, records []schema.MetricsRecord, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Name", "SLOC", "Active Days", "Days/Author", "Authors", "Ref"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	nameWidth := getMaxTableNameWidth(cfg)
	data := make([][]string, 0, len(records))
	for _, r := range records {
		data = append(data, []string{
			contract.TruncateText(r.Name, nameWidth),
			formatSLOC(r.SLOC),
			formatCount(r.ActiveDays),
			formatCount(r.ActiveDaysPerAuthor),
			formatCount(r.Authors),
			contract.TruncateText(r.RefName, maxRefWidth),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
