// Package analyze has the line-count, activity and authorship analyzers.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/srcmeasure/internal/contract"
)

// slocTotalPrefix starts the summary line of sloccount's report.
const slocTotalPrefix = "Total Physical Source Lines of Code (SLOC)"

// ErrUnexpectedOutput is returned when a tool's output cannot be parsed.
var ErrUnexpectedOutput = errors.New("unexpected output")

// SlocCounter runs the external sloccount tool.
type SlocCounter struct {
	Bin     string
	Timeout time.Duration
}

var _ contract.LineCounter = &SlocCounter{} // Compile-time check

// NewSlocCounter returns a counter that runs bin with a per-invocation timeout.
func NewSlocCounter(bin string, timeout time.Duration) *SlocCounter {
	if bin == "" {
		bin = contract.DefaultSloccountBin
	}
	return &SlocCounter{Bin: bin, Timeout: timeout}
}

// Count implements the LineCounter interface.
func (c *SlocCounter) Count(ctx context.Context, dir string) (int, error) {
	out, err := contract.RunCommand(ctx, c.Timeout, "", nil, c.Bin, dir)
	if err != nil {
		return 0, err
	}
	return ParseSloccount(out)
}

// ParseSloccount extracts the physical SLOC total from sloccount output.
// Thousands separators are allowed.
func ParseSloccount(out []byte) (int, error) {
	for line := range strings.SplitSeq(string(out), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, slocTotalPrefix) {
			continue
		}
		fields := strings.Fields(line)
		number := strings.ReplaceAll(fields[len(fields)-1], ",", "")
		n, err := strconv.Atoi(number)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("sloccount: %w: %q", ErrUnexpectedOutput, line)
		}
		return n, nil
	}
	return 0, fmt.Errorf("sloccount: %w: no SLOC total", ErrUnexpectedOutput)
}
