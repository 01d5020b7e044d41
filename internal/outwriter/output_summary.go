package outwriter

import (
	"fmt"
	"io"
	"time"

	"github.com/huangsam/srcmeasure/internal/contract"
	"github.com/huangsam/srcmeasure/schema"
)

// PrintSummary writes a short account of the run to w.
func PrintSummary(w io.Writer, results *schema.ResultSet, summary *schema.RunSummary, cfg *contract.Config) error {
	if w == nil || summary == nil {
		return nil
	}

	totalSLOC, unmeasured := 0, 0
	for _, r := range results.Records() {
		if r.HasSLOC() {
			totalSLOC += r.SLOC
		} else {
			unmeasured++
		}
	}

	lines := []string{
		fmt.Sprintf("🏁 %s %s work items from %s (%d components, %d structural, %d duplicate) in %s",
			contract.HeadingColor.Sprint("Measured"),
			formatCount(summary.Measured),
			summary.Root,
			summary.Components,
			summary.Structural,
			summary.Duplicates,
			summary.Duration.Round(time.Millisecond),
		),
		fmt.Sprintf("📐 Total SLOC: %s", formatCount(totalSLOC)),
	}
	if unmeasured > 0 {
		lines = append(lines, contract.WarnColor.Sprintf("⚠️  %d work items have no line count", unmeasured))
	}
	if len(summary.Failed) > 0 {
		lines = append(lines, contract.FailColor.Sprintf("❌ %d work items failed (on-error: %s)", len(summary.Failed), cfg.OnError))
		for _, f := range summary.Failed {
			lines = append(lines, fmt.Sprintf("   - %s (%s): %s", f.Name, f.Key, f.Err))
		}
	}
	if summary.Interrupted {
		lines = append(lines, contract.WarnColor.Sprint("🛑 Run was interrupted; results are partial"))
	}
	if cfg.Verbose && summary.RunID != "" {
		lines = append(lines, contract.SubtleColor.Sprintf("   run %s", summary.RunID))
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
