package outwriter

import (
	"os"

	"github.com/huangsam/srcmeasure/internal/contract"
	"golang.org/x/term"
)

// getTerminalWidth returns the width override, the detected terminal width or 80.
func getTerminalWidth(cfg *contract.Config) int {
	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		// Fallback to conservative default if terminal size can't be detected
		return 80
	}
	return detectedWidth
}

// getMaxTableNameWidth calculates the maximum width for component names in table output.
func getMaxTableNameWidth(cfg *contract.Config) int {
	// SLOC + Days + Days/Author + Authors + Ref with borders/padding
	baseWidth := 60

	// Reserve generous space for table borders, separators, and padding
	baseWidth += 10

	available := getTerminalWidth(cfg) - baseWidth
	if available < 15 {
		return 15
	}
	if available > 60 {
		return 60
	}
	return available
}
