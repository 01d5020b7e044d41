package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/srcmeasure/internal/contract"
	"github.com/huangsam/srcmeasure/schema"
	"github.com/olekukonko/tablewriter"
)

// walkEntry is one line of walk output.
type walkEntry struct {
	Order int    `json:"order"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind,omitempty"`
	Repo  string `json:"repo,omitempty"`
	Ref   string `json:"ref,omitempty"`
	Key   string `json:"key,omitempty"`
}

// WriteWalk writes the walk order to cfg.OutputFile, or stdout when unset.
// Parquet is not offered for walk output.
func WriteWalk(records []schema.ComponentRecord, cfg *contract.Config, status io.Writer) error {
	entries := make([]walkEntry, len(records))
	for i, r := range records {
		entries[i] = walkEntry{Order: i + 1, ID: r.ID, Name: r.DisplayName(), Kind: r.Kind, Repo: r.Repo, Ref: r.Ref}
		if r.IsMeasurable() {
			entries[i].Key = r.Key().String()
		}
	}

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, status, func(w io.Writer) error {
			return writeJSON(w, entries)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, status, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"order", "id", "name", "kind", "repo", "ref"}, func(cw *csv.Writer) error {
				for _, e := range entries {
					if err := cw.Write([]string{strconv.Itoa(e.Order), e.ID, e.Name, e.Kind, e.Repo, e.Ref}); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		return errors.New("parquet output is not supported for walk")
	default:
		return writeWithFile(cfg.OutputFile, status, func(w io.Writer) error {
			return writeWalkTable(w, entries, cfg)
		}, "Wrote table")
	}
}

func writeWalkTable(w io.Writer, entries []walkEntry, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "ID", "Kind", "Work Item"})

	idWidth := getMaxTableNameWidth(cfg)
	measurable := 0
	data := make([][]string, 0, len(entries))
	for _, e := range entries {
		key := "-"
		if e.Key != "" {
			key = contract.TruncateText(e.Key, idWidth)
			measurable++
		}
		data = append(data, []string{strconv.Itoa(e.Order), contract.TruncateText(e.ID, idWidth), e.Kind, key})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d components, %d with a work item\n", len(entries), measurable)
	return err
}
