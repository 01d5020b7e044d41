package analyze

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/huangsam/srcmeasure/internal/contract"
	"github.com/src-d/enry/v2"
)

// maxNativeFileSize bounds the files the native counter reads.
const maxNativeFileSize = 4 << 20

// NativeCounter counts non-blank lines of programming-language files with enry.
type NativeCounter struct{}

var _ contract.LineCounter = NativeCounter{} // Compile-time check

// Count implements the LineCounter interface.
// Vendored, hidden, documentation, configuration and binary files are skipped.
func (NativeCounter) Count(ctx context.Context, dir string) (int, error) {
	total := 0
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == dir {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if enry.IsDotFile(rel) || enry.IsVendor(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if enry.IsDotFile(rel) || enry.IsVendor(rel) || enry.IsDocumentation(rel) || enry.IsConfiguration(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() == 0 || info.Size() > maxNativeFileSize {
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		if enry.IsBinary(data) {
			return nil
		}
		lang := enry.GetLanguage(filepath.Base(rel), data)
		if lang == "" || enry.GetLanguageType(lang) != enry.Programming {
			return nil
		}
		total += countNonBlank(data)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func countNonBlank(data []byte) int {
	n := 0
	for line := range bytes.SplitSeq(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			n++
		}
	}
	return n
}
